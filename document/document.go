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

// Package document loads PDF files and gives access to the page geometry.
//
// A [Document] is immutable once loaded.  It keeps a private copy of the
// input bytes, so that later changes to the caller's buffer have no effect.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/certpdf/internal/logging"
	"seehuhn.de/go/certpdf/pdf"
)

// maxPages limits the number of pages of a document.
const maxPages = 100_000

// Document is a loaded PDF file.
type Document struct {
	data  []byte
	r     *pdf.Reader
	pages []*Page
}

// Page describes one page of a document.
type Page struct {
	// Ref is the reference of the page dictionary, or 0 if the page
	// dictionary is a direct object.
	Ref pdf.Reference

	// Dict is the page dictionary, as found in the file.
	Dict pdf.Dict

	// MediaBox is the media box of the page, taking inheritance into
	// account.
	MediaBox *pdf.Rectangle

	// CropBox is the visible area of the page: the crop box intersected
	// with the media box, or the media box if no crop box is given.
	// Document space has its origin at the lower left corner of this
	// rectangle.
	CropBox *pdf.Rectangle

	// Width and Height are the dimensions of the visible area.
	Width, Height float64

	// Resources is the resource dictionary of the page, taking inheritance
	// into account.
	Resources pdf.Dict

	// Rotate is the /Rotate value of the page, in degrees.  The rotation is
	// recorded but not applied to the geometry.
	Rotate int
}

// Load parses a PDF file held in memory.  The data is copied, so the caller
// is free to modify data afterwards.
//
// If the document cannot be loaded, the error is a [*ParseError].
func Load(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, malformed(errors.New("empty input"))
	}
	data = bytes.Clone(data)

	r, err := pdf.NewReader(data)
	if err != nil {
		return nil, malformed(err)
	}

	pages, err := readPages(r)
	if err != nil {
		return nil, malformed(err)
	}

	return &Document{
		data:  data,
		r:     r,
		pages: pages,
	}, nil
}

// Read reads a PDF file from r and parses it.
//
// If the document cannot be loaded, the error is a [*ParseError].  Failures
// to read from r have kind [IO].
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Kind: IO, Err: err}
	}
	return Load(data)
}

// NumPages returns the number of pages in the document.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Page returns the page with the given 1-based index.
// The returned value must not be modified.
func (d *Document) Page(p int) (*Page, bool) {
	if p < 1 || p > len(d.pages) {
		return nil, false
	}
	return d.pages[p-1], true
}

// PageSize returns the width and height of the visible area of the page with
// the given 1-based index.
func (d *Document) PageSize(p int) (width, height float64, ok bool) {
	page, ok := d.Page(p)
	if !ok {
		return 0, 0, false
	}
	return page.Width, page.Height, true
}

// Bytes returns a copy of the file contents.
func (d *Document) Bytes() []byte {
	return bytes.Clone(d.data)
}

// Reader returns the PDF reader for the document.  This gives access to the
// objects of the file, for example to interpret the page contents.
func (d *Document) Reader() *pdf.Reader {
	return d.r
}

// Version returns the PDF version given in the file header.
func (d *Document) Version() pdf.Version {
	return d.r.Version
}

// inherited holds the inheritable attributes of a page tree node.
type inherited struct {
	mediaBox  pdf.Object
	cropBox   pdf.Object
	resources pdf.Object
	rotate    pdf.Object
}

func (inh inherited) update(node pdf.Dict) inherited {
	if x, ok := node["MediaBox"]; ok {
		inh.mediaBox = x
	}
	if x, ok := node["CropBox"]; ok {
		inh.cropBox = x
	}
	if x, ok := node["Resources"]; ok {
		inh.resources = x
	}
	if x, ok := node["Rotate"]; ok {
		inh.rotate = x
	}
	return inh
}

// readPages walks the page tree in document order.
func readPages(r *pdf.Reader) ([]*Page, error) {
	catalog, err := r.Catalog()
	if err != nil {
		return nil, err
	}
	root := catalog["Pages"]
	if root == nil {
		return nil, errors.New("missing page tree")
	}

	type todo struct {
		obj pdf.Object
		inh inherited
	}

	var pages []*Page
	seen := make(map[pdf.Reference]bool)
	stack := []todo{{obj: root}}
	for len(stack) > 0 {
		k := len(stack) - 1
		item := stack[k]
		stack = stack[:k]

		ref, _ := item.obj.(pdf.Reference)
		if ref != 0 {
			if seen[ref] {
				return nil, fmt.Errorf("loop in page tree at %s", ref)
			}
			seen[ref] = true
		}

		node, err := pdf.GetDict(r, item.obj)
		if err != nil {
			return nil, err
		}
		if node == nil {
			logging.Logger().Warn("missing page tree node", "ref", ref)
			continue
		}
		inh := item.inh.update(node)

		tp, _ := pdf.GetName(r, node["Type"])
		kids, hasKids := node["Kids"]
		if tp == "Pages" || tp != "Page" && hasKids {
			kidArray, err := pdf.GetArray(r, kids)
			if err != nil {
				return nil, err
			}
			for i := len(kidArray) - 1; i >= 0; i-- {
				stack = append(stack, todo{obj: kidArray[i], inh: inh})
			}
			continue
		}

		page, err := makePage(r, ref, node, inh)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
		if len(pages) > maxPages {
			return nil, errors.New("too many pages")
		}
	}
	return pages, nil
}

func makePage(r *pdf.Reader, ref pdf.Reference, dict pdf.Dict, inh inherited) (*Page, error) {
	mediaBox, err := pdf.GetRectangle(r, inh.mediaBox)
	if err != nil || mediaBox == nil || mediaBox.IsZero() {
		logging.Logger().Warn("invalid or missing MediaBox, using US Letter",
			"page", ref, "error", err)
		mediaBox = &pdf.Rectangle{}
		*mediaBox = *Letter
	}

	visible := mediaBox
	cropBox, err := pdf.GetRectangle(r, inh.cropBox)
	if err == nil && cropBox != nil {
		if v := cropBox.Intersect(mediaBox); !v.IsZero() {
			visible = v
		}
	}

	resources, err := pdf.GetDict(r, inh.resources)
	if err != nil {
		logging.Logger().Warn("invalid page resources", "page", ref, "error", err)
		resources = nil
	}

	rotate, _ := pdf.GetInteger(r, inh.rotate)

	return &Page{
		Ref:       ref,
		Dict:      dict,
		MediaBox:  mediaBox,
		CropBox:   visible,
		Width:     visible.Dx(),
		Height:    visible.Dy(),
		Resources: resources,
		Rotate:    int(rotate),
	}, nil
}
