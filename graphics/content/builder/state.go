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
	"fmt"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/certpdf/graphics/content"
	"seehuhn.de/go/certpdf/pdf"
)

// PushGraphicsState saves the current graphics state.
//
// This implements the PDF graphics operator "q".
func (b *Builder) PushGraphicsState() {
	if b.Err != nil {
		return
	}
	b.stack = append(b.stack, b.state)
	b.emit(content.OpPushGraphicsState)
}

// PopGraphicsState restores the previous graphics state.
//
// This implements the PDF graphics operator "Q".
func (b *Builder) PopGraphicsState() {
	if b.Err != nil {
		return
	}
	if len(b.stack) == 0 {
		b.Err = fmt.Errorf("PopGraphicsState: no saved state")
		return
	}
	k := len(b.stack) - 1
	b.state = b.stack[k]
	b.stack = b.stack[:k]
	b.emit(content.OpPopGraphicsState)
}

// Transform applies a transformation matrix to the coordinate system.
// The new transformation is applied to the user coordinates first,
// followed by the existing transformation.
//
// This implements the PDF graphics operator "cm".
func (b *Builder) Transform(m matrix.Matrix) {
	b.emit(content.OpTransform,
		pdf.Number(m[0]), pdf.Number(m[1]),
		pdf.Number(m[2]), pdf.Number(m[3]),
		pdf.Number(m[4]), pdf.Number(m[5]))
}

// SetLineWidth sets the line width.
//
// This implements the PDF graphics operator "w".
func (b *Builder) SetLineWidth(width float64) {
	if b.Err != nil {
		return
	}
	if width < 0 {
		b.Err = fmt.Errorf("SetLineWidth: negative width %f", width)
		return
	}
	if b.state.hasWidth && nearlyEqual(width, b.state.lineWidth) {
		return
	}
	b.state.lineWidth = width
	b.state.hasWidth = true
	b.emit(content.OpSetLineWidth, pdf.Number(width))
}

// SetExtGState applies the parameters of an extended graphics state
// dictionary.  The dictionary is added to the resources of the stream.
// Since the dictionary may change any parameter, all cached state is
// discarded.
//
// This implements the PDF graphics operator "gs".
func (b *Builder) SetExtGState(gs pdf.Object) {
	if b.Err != nil {
		return
	}
	name := b.resource("ExtGState", "G", gs)
	b.state = gState{}
	b.emit(content.OpSetExtGState, name)
}
