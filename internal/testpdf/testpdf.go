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

// Package testpdf writes small PDF files for use in tests.
package testpdf

import (
	"bytes"
	"maps"
	"slices"

	"seehuhn.de/go/certpdf/pdf"
)

// Page describes one page of a test file.
type Page struct {
	// MediaBox defaults to US Letter.
	MediaBox *pdf.Rectangle
	CropBox  *pdf.Rectangle
	Rotate   int

	// Content is the content stream of the page.  The font /F1 (Helvetica)
	// is available in the page resources.
	Content string

	// XObjects are added to the page resources as indirect objects.
	XObjects map[pdf.Name]*pdf.Stream

	// ExtGState is added to the page resources.
	ExtGState pdf.Dict
}

// Options control the structure of the generated file.
type Options struct {
	// Version defaults to PDF 1.4.
	Version pdf.Version

	// Compact enables object streams and cross-reference streams.
	Compact bool

	// Nested places the pages below an intermediate page tree node which
	// carries the media box and the resources, so that these have to be
	// inherited.
	Nested bool
}

// Build writes a PDF file with the given pages.
func Build(pages []Page, opt *Options) ([]byte, error) {
	if opt == nil {
		opt = &Options{}
	}
	ver := opt.Version
	if ver == 0 {
		ver = pdf.V1_4
	}

	buf := &bytes.Buffer{}
	w, err := pdf.NewWriter(buf, ver, &pdf.WriterOptions{HumanReadable: !opt.Compact})
	if err != nil {
		return nil, err
	}

	catalog := w.Alloc()
	root := w.Alloc()
	font := w.Alloc()
	resources := pdf.Dict{
		"Font": pdf.Dict{"F1": font},
	}

	parent := root
	var kids pdf.Array
	var inner pdf.Reference
	if opt.Nested {
		inner = w.Alloc()
		parent = inner
	}

	var pageRefs pdf.Array
	for _, p := range pages {
		pageRef := w.Alloc()
		contentRef := w.Alloc()
		pageRefs = append(pageRefs, pageRef)

		dict := pdf.Dict{
			"Type":     pdf.Name("Page"),
			"Parent":   parent,
			"Contents": contentRef,
		}
		pageRes := resources
		if len(p.XObjects) > 0 || p.ExtGState != nil {
			pageRes = resources.Clone()
			if p.ExtGState != nil {
				pageRes["ExtGState"] = p.ExtGState
			}
			if len(p.XObjects) > 0 {
				xobjects := pdf.Dict{}
				for _, name := range slices.Sorted(maps.Keys(p.XObjects)) {
					ref := w.Alloc()
					xobjects[name] = ref
					err = w.Put(ref, p.XObjects[name])
					if err != nil {
						return nil, err
					}
				}
				pageRes["XObject"] = xobjects
			}
			dict["Resources"] = pageRes
		}
		if !opt.Nested {
			dict["Resources"] = pageRes
			mediaBox := p.MediaBox
			if mediaBox == nil {
				mediaBox = &pdf.Rectangle{URx: 612, URy: 792}
			}
			dict["MediaBox"] = mediaBox
		} else if p.MediaBox != nil {
			dict["MediaBox"] = p.MediaBox
		}
		if p.CropBox != nil {
			dict["CropBox"] = p.CropBox
		}
		if p.Rotate != 0 {
			dict["Rotate"] = pdf.Integer(p.Rotate)
		}

		err = w.Put(pageRef, dict)
		if err != nil {
			return nil, err
		}
		err = w.Put(contentRef, &pdf.Stream{Dict: pdf.Dict{}, Data: []byte(p.Content)})
		if err != nil {
			return nil, err
		}
	}

	if opt.Nested {
		kids = pdf.Array{inner}
		err = w.Put(inner, pdf.Dict{
			"Type":      pdf.Name("Pages"),
			"Parent":    root,
			"Kids":      pageRefs,
			"Count":     pdf.Integer(len(pages)),
			"MediaBox":  &pdf.Rectangle{URx: 612, URy: 792},
			"Resources": resources,
		})
		if err != nil {
			return nil, err
		}
	} else {
		kids = pageRefs
	}

	objects := []struct {
		ref pdf.Reference
		obj pdf.Object
	}{
		{catalog, pdf.Dict{"Type": pdf.Name("Catalog"), "Pages": root}},
		{root, pdf.Dict{
			"Type":  pdf.Name("Pages"),
			"Kids":  kids,
			"Count": pdf.Integer(len(pages)),
		}},
		{font, pdf.Dict{
			"Type":     pdf.Name("Font"),
			"Subtype":  pdf.Name("Type1"),
			"BaseFont": pdf.Name("Helvetica"),
			"Encoding": pdf.Name("WinAnsiEncoding"),
		}},
	}
	for _, o := range objects {
		err = w.Put(o.ref, o.obj)
		if err != nil {
			return nil, err
		}
	}

	err = w.Close(pdf.Dict{"Root": catalog})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Letter returns a file with n empty US Letter pages.  It panics on
// failure, which cannot happen for valid n.
func Letter(n int) []byte {
	pages := make([]Page, n)
	data, err := Build(pages, nil)
	if err != nil {
		panic(err)
	}
	return data
}
