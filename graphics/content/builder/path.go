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
	"math"

	"seehuhn.de/go/certpdf/graphics/content"
	"seehuhn.de/go/certpdf/pdf"
)

// MoveTo starts a new subpath at the given point.
//
// This implements the PDF graphics operator "m".
func (b *Builder) MoveTo(x, y float64) {
	b.emit(content.OpMoveTo, pdf.Number(x), pdf.Number(y))
}

// LineTo appends a straight line segment to the current path.
//
// This implements the PDF graphics operator "l".
func (b *Builder) LineTo(x, y float64) {
	b.emit(content.OpLineTo, pdf.Number(x), pdf.Number(y))
}

// CurveTo appends a cubic Bezier curve to the current path.
//
// This implements the PDF graphics operator "c".
func (b *Builder) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	b.emit(content.OpCurveTo,
		pdf.Number(x1), pdf.Number(y1),
		pdf.Number(x2), pdf.Number(y2),
		pdf.Number(x3), pdf.Number(y3))
}

// ClosePath closes the current subpath.
//
// This implements the PDF graphics operator "h".
func (b *Builder) ClosePath() {
	b.emit(content.OpClosePath)
}

// Rectangle appends a rectangle to the current path as a closed subpath.
//
// This implements the PDF graphics operator "re".
func (b *Builder) Rectangle(x, y, width, height float64) {
	b.emit(content.OpRectangle,
		pdf.Number(x), pdf.Number(y),
		pdf.Number(width), pdf.Number(height))
}

// Stroke strokes the current path.
//
// This implements the PDF graphics operator "S".
func (b *Builder) Stroke() {
	b.emit(content.OpStroke)
}

// Fill fills the current path using the nonzero winding number rule.
//
// This implements the PDF graphics operator "f".
func (b *Builder) Fill() {
	b.emit(content.OpFill)
}

// FillAndStroke fills and strokes the current path.
//
// This implements the PDF graphics operator "B".
func (b *Builder) FillAndStroke() {
	b.emit(content.OpFillAndStroke)
}

// EndPath ends the path without filling or stroking it.
//
// This implements the PDF graphics operator "n".
func (b *Builder) EndPath() {
	b.emit(content.OpEndPath)
}

// ClipNonZero sets the current clipping path using the nonzero winding number rule.
//
// This implements the PDF graphics operator "W".
func (b *Builder) ClipNonZero() {
	b.emit(content.OpClipNonZero)
}

// Circle appends a circle to the current path, as a closed subpath.
//
// This is a convenience function, which uses [Builder.MoveTo] and
// [Builder.CurveTo] to draw the circle.
func (b *Builder) Circle(x, y, radius float64) {
	// four quarter circles
	// see https://pomax.github.io/bezierinfo/ , section 42
	const nSegment = 4
	dPhi := 2 * math.Pi / nSegment
	k := 4.0 / 3.0 * radius * math.Tan(dPhi/4)

	phi := 0.0
	x0 := x + radius
	y0 := y
	b.MoveTo(x0, y0)
	for range nSegment {
		x1 := x0 - k*math.Sin(phi)
		y1 := y0 + k*math.Cos(phi)
		phi += dPhi
		x3 := x + radius*math.Cos(phi)
		y3 := y + radius*math.Sin(phi)
		x2 := x3 + k*math.Sin(phi)
		y2 := y3 - k*math.Cos(phi)
		b.CurveTo(x1, y1, x2, y2, x3, y3)
		x0, y0 = x3, y3
	}
	b.ClosePath()
}
