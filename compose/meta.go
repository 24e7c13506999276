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

package compose

import (
	"bytes"
	"time"

	"golang.org/x/text/language"
	"seehuhn.de/go/xmp"

	"seehuhn.de/go/certpdf/pdf"
)

const producer = "seehuhn.de/go/certpdf/compose"

func title(req *Request) string {
	return "Certification " + req.MemoNo
}

func subject(req *Request) string {
	s := "Crew certificate for " + req.CrewName + " (" + req.CrewID + ")"
	if req.Purpose != "" {
		s += ", " + req.Purpose
	}
	return s
}

// infoDict returns the document information dictionary.
func infoDict(req *Request, o *Options, now time.Time) pdf.Dict {
	return pdf.Dict{
		"Title":        pdf.EncodeText(title(req)),
		"Subject":      pdf.EncodeText(subject(req)),
		"Author":       pdf.EncodeText(o.Letterhead[0]),
		"Creator":      pdf.EncodeText(req.Signatory),
		"Producer":     pdf.String(producer),
		"CreationDate": pdf.Date(now),
	}
}

// pdfNamespace is the XMP namespace for PDF properties.
type pdfNamespace struct {
	_        xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_        xmp.Prefix    `xmp:"pdf"`
	Keywords xmp.Text
	Producer xmp.AgentName
}

func dublinCore(req *Request, o *Options) *xmp.DublinCore {
	dc := &xmp.DublinCore{}
	dc.Title.Set(language.Und, title(req))
	dc.Description.Set(language.Und, subject(req))
	dc.Creator.Append(xmp.NewProperName(o.Letterhead[0]))
	return dc
}

// metadataStream returns the XMP metadata stream of the document.  The
// stream is not compressed, so that the metadata can be found by tools
// which do not parse PDF.
func metadataStream(req *Request, o *Options) (*pdf.Stream, error) {
	info := &pdfNamespace{
		Keywords: xmp.NewText("crew certificate"),
		Producer: xmp.NewAgentName(producer),
	}

	packet := xmp.NewPacket()
	err := packet.Set(dublinCore(req, o), info)
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	err = packet.Write(buf, &xmp.PacketOptions{Pretty: true})
	if err != nil {
		return nil, err
	}

	return &pdf.Stream{
		Dict: pdf.Dict{
			"Type":    pdf.Name("Metadata"),
			"Subtype": pdf.Name("XML"),
		},
		Data: buf.Bytes(),
	}, nil
}
