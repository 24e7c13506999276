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

package builder

import (
	"errors"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/certpdf/graphics/content"
	"seehuhn.de/go/certpdf/pdf"
)

var errNotInText = errors.New("not in a text object")

// TextBegin starts a new text object.
//
// This implements the PDF graphics operator "BT".
func (b *Builder) TextBegin() {
	if b.Err != nil {
		return
	}
	if b.inText {
		b.Err = errors.New("TextBegin: nested text object")
		return
	}
	b.inText = true
	b.emit(content.OpTextBegin)
}

// TextEnd ends the current text object.
//
// This implements the PDF graphics operator "ET".
func (b *Builder) TextEnd() {
	if b.Err != nil {
		return
	}
	if !b.inText {
		b.Err = errNotInText
		return
	}
	b.inText = false
	b.emit(content.OpTextEnd)
}

// TextSetFont sets the font and font size.  The font dictionary is added
// to the resources of the content stream.
//
// This implements the PDF graphics operator "Tf".
func (b *Builder) TextSetFont(font pdf.Object, size float64) {
	if b.Err != nil {
		return
	}
	name := b.resource("Font", "F", font)
	if b.state.font == name && nearlyEqual(b.state.fontSize, size) {
		return
	}
	b.state.font = name
	b.state.fontSize = size
	b.emit(content.OpTextSetFont, name, pdf.Number(size))
}

// TextFirstLine moves to the start of the first line of text.
//
// This implements the PDF graphics operator "Td".
func (b *Builder) TextFirstLine(x, y float64) {
	b.textOp(content.OpTextMoveOffset, pdf.Number(x), pdf.Number(y))
}

// TextSetMatrix replaces the text matrix and the text line matrix.
//
// This implements the PDF graphics operator "Tm".
func (b *Builder) TextSetMatrix(m matrix.Matrix) {
	b.textOp(content.OpTextSetMatrix,
		pdf.Number(m[0]), pdf.Number(m[1]),
		pdf.Number(m[2]), pdf.Number(m[3]),
		pdf.Number(m[4]), pdf.Number(m[5]))
}

// TextShow shows an encoded string.
//
// This implements the PDF graphics operator "Tj".
func (b *Builder) TextShow(s pdf.String) {
	if b.Err == nil && b.state.font == "" {
		b.Err = errors.New("TextShow: no font set")
		return
	}
	b.textOp(content.OpTextShow, s)
}

// TextShowKerned shows encoded strings, with kerning adjustments between
// them.  The adjustments are in thousandths of text space units, and
// positive values move the next glyph to the left.
//
// This implements the PDF graphics operator "TJ".
func (b *Builder) TextShowKerned(parts ...pdf.Object) {
	if b.Err == nil && b.state.font == "" {
		b.Err = errors.New("TextShowKerned: no font set")
		return
	}
	b.textOp(content.OpTextShowArray, pdf.Array(parts))
}

func (b *Builder) textOp(name content.OpName, args ...pdf.Object) {
	if b.Err != nil {
		return
	}
	if !b.inText {
		b.Err = errNotInText
		return
	}
	b.emit(name, args...)
}
