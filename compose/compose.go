// seehuhn.de/go/certpdf - compose and annotate PDF documents
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package compose generates crew certificates as PDF files.
//
// A certificate is an A4 page with a letterhead, the certified statement
// about a crew member, the purpose of the certificate, and a signatory
// block.  Text which does not fit above the bottom margin continues on a
// new page.  The pages use the standard 14 fonts Helvetica,
// Helvetica-Bold and Times-Italic.  Only text outside WinAnsiEncoding, like
// names with Vietnamese or Polish diacritics, is shown using an embedded
// subset of the Go fonts.
package compose

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/pdf"
)

// Request holds the fields of a certificate.
type Request struct {
	MemoNo   string
	Purpose  string
	CrewName string
	CrewID   string

	// Signed adds a "Digitally signed" watermark below the signature.
	Signed bool

	// Date is the issue date.  If this is zero, the current time is used.
	Date time.Time

	// Signatory and SignatoryTitle override the values from [Options].
	Signatory      string
	SignatoryTitle string
}

// Options control the appearance of generated certificates.
type Options struct {
	// Letterhead lists the lines at the top of the page.  The first line
	// is the name of the issuing organisation.
	Letterhead []string

	Signatory      string
	SignatoryTitle string

	// PageSize is the media box of the page.  The default is A4.
	PageSize *pdf.Rectangle

	// Now returns the current time.  This is used for the creation date
	// and the signature timestamp.
	Now func() time.Time
}

var defaultOptions = Options{
	Letterhead: []string{
		"Crew Management Office",
		"Manning and Documentation Department",
		"Manila, Philippines",
	},
	Signatory:      "Authorized Signatory",
	SignatoryTitle: "Crew Manager",
	PageSize:       document.A4,
	Now:            time.Now,
}

// ValidationError is returned when required fields of a [Request] are
// missing.
type ValidationError struct {
	Fields []string
}

func (err *ValidationError) Error() string {
	return "missing required field(s): " + strings.Join(err.Fields, ", ")
}

// Generate creates a certificate using the default options.
func Generate(req Request) ([]byte, error) {
	return GenerateWith(req, nil)
}

// GenerateWith creates a certificate.  Fields of opt which are not set
// take their default values.  If validation fails, no output is produced.
func GenerateWith(req Request, opt *Options) ([]byte, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	o := withDefaults(opt)

	now := o.Now()
	if req.Date.IsZero() {
		req.Date = now
	}
	if req.Signatory == "" {
		req.Signatory = o.Signatory
	}
	if req.SignatoryTitle == "" {
		req.SignatoryTitle = o.SignatoryTitle
	}

	buf := &bytes.Buffer{}
	err := write(buf, &req, o, now)
	if err != nil {
		return nil, fmt.Errorf("certificate: %w", err)
	}
	return buf.Bytes(), nil
}

func validate(req *Request) error {
	var missing []string
	if strings.TrimSpace(req.CrewName) == "" {
		missing = append(missing, "CrewName")
	}
	if strings.TrimSpace(req.CrewID) == "" {
		missing = append(missing, "CrewID")
	}
	if missing != nil {
		return &ValidationError{Fields: missing}
	}
	req.CrewName = strings.TrimSpace(req.CrewName)
	req.CrewID = strings.TrimSpace(req.CrewID)
	req.MemoNo = strings.TrimSpace(req.MemoNo)
	req.Purpose = strings.TrimSpace(req.Purpose)
	return nil
}

func withDefaults(opt *Options) *Options {
	o := defaultOptions
	if opt == nil {
		return &o
	}
	if len(opt.Letterhead) > 0 {
		o.Letterhead = opt.Letterhead
	}
	if opt.Signatory != "" {
		o.Signatory = opt.Signatory
	}
	if opt.SignatoryTitle != "" {
		o.SignatoryTitle = opt.SignatoryTitle
	}
	if opt.PageSize != nil && !opt.PageSize.IsZero() {
		o.PageSize = opt.PageSize
	}
	if opt.Now != nil {
		o.Now = opt.Now
	}
	return &o
}

// write produces the PDF file.
func write(buf *bytes.Buffer, req *Request, o *Options, now time.Time) error {
	w, err := pdf.NewWriter(buf, pdf.V1_7, nil)
	if err != nil {
		return err
	}

	catalogRef := w.Alloc()
	pagesRef := w.Alloc()
	infoRef := w.Alloc()
	metaRef := w.Alloc()

	fonts := make(map[string]pdf.Reference)
	for _, name := range fontNames {
		fonts[name] = w.Alloc()
	}

	l := newLayout(o.PageSize, fonts, w.Alloc)
	pages, err := l.certificate(req, o, now)
	if err != nil {
		return err
	}

	fw := &fontWriter{w: w}
	for _, name := range slices.Sorted(maps.Keys(l.embedded)) {
		f := l.embedded[name]
		err := f.enc.Embed(fw, f.ref)
		if err != nil {
			return err
		}
	}
	if fw.err != nil {
		return fw.err
	}

	for _, name := range fontNames {
		err := w.Put(fonts[name], pdf.Dict{
			"Type":     pdf.Name("Font"),
			"Subtype":  pdf.Name("Type1"),
			"BaseFont": pdf.Name(name),
			"Encoding": pdf.Name("WinAnsiEncoding"),
		})
		if err != nil {
			return err
		}
	}

	kids := make(pdf.Array, 0, len(pages))
	for _, page := range pages {
		pageRef := w.Alloc()
		contentRef := w.Alloc()
		err = w.Put(contentRef, pdf.NewFlateStream(nil, page.body))
		if err != nil {
			return err
		}
		err = w.Put(pageRef, pdf.Dict{
			"Type":      pdf.Name("Page"),
			"Parent":    pagesRef,
			"MediaBox":  o.PageSize,
			"Resources": page.resources,
			"Contents":  contentRef,
		})
		if err != nil {
			return err
		}
		kids = append(kids, pageRef)
	}
	err = w.Put(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Integer(len(kids)),
	})
	if err != nil {
		return err
	}

	err = w.Put(infoRef, infoDict(req, o, now))
	if err != nil {
		return err
	}
	meta, err := metadataStream(req, o)
	if err != nil {
		return err
	}
	err = w.Put(metaRef, meta)
	if err != nil {
		return err
	}

	err = w.Put(catalogRef, pdf.Dict{
		"Type":     pdf.Name("Catalog"),
		"Pages":    pagesRef,
		"Metadata": metaRef,
		"Lang":     pdf.String("en"),
	})
	if err != nil {
		return err
	}

	return w.Close(pdf.Dict{
		"Root": catalogRef,
		"Info": infoRef,
	})
}

// fontWriter adapts a [pdf.Writer] to the [font.Writer] interface.  The
// first write error is kept in err.
type fontWriter struct {
	w   *pdf.Writer
	err error
}

func (fw *fontWriter) Alloc() pdf.Reference {
	return fw.w.Alloc()
}

func (fw *fontWriter) Put(ref pdf.Reference, obj pdf.Object) {
	if fw.err == nil {
		fw.err = fw.w.Put(ref, obj)
	}
}
