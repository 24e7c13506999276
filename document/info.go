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

package document

import (
	"bytes"
	"time"

	"seehuhn.de/go/xmp"

	"seehuhn.de/go/certpdf/pdf"
)

// Info holds the entries of the document information dictionary.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string

	CreationDate time.Time
	ModDate      time.Time
}

// Info returns the document information dictionary.  If the document has
// none, nil is returned.
func (d *Document) Info() (*Info, error) {
	dict, err := pdf.GetDict(d.r, d.r.Trailer()["Info"])
	if err != nil || dict == nil {
		return nil, err
	}

	text := func(key pdf.Name) string {
		s, err := pdf.GetString(d.r, dict[key])
		if err != nil {
			return ""
		}
		return pdf.DecodeText(s)
	}
	date := func(key pdf.Name) time.Time {
		s, err := pdf.GetString(d.r, dict[key])
		if err != nil || s == nil {
			return time.Time{}
		}
		t, err := pdf.ParseDate(s)
		if err != nil {
			return time.Time{}
		}
		return t
	}

	return &Info{
		Title:        text("Title"),
		Author:       text("Author"),
		Subject:      text("Subject"),
		Keywords:     text("Keywords"),
		Creator:      text("Creator"),
		Producer:     text("Producer"),
		CreationDate: date("CreationDate"),
		ModDate:      date("ModDate"),
	}, nil
}

// Metadata returns the XMP metadata of the document.  If the document has no
// metadata stream, nil is returned.
func (d *Document) Metadata() (*xmp.Packet, error) {
	catalog, err := d.r.Catalog()
	if err != nil {
		return nil, err
	}
	stm, err := pdf.GetStream(d.r, catalog["Metadata"])
	if err != nil || stm == nil {
		return nil, err
	}
	body, err := d.r.DecodeStream(stm)
	if err != nil {
		return nil, err
	}
	return xmp.Read(bytes.NewReader(body))
}
