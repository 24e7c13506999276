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

package font

import (
	"seehuhn.de/go/geom/matrix"
	geompath "seehuhn.de/go/geom/path"
	"seehuhn.de/go/sfnt/glyph"
)

// Pen receives the outline of a glyph.  The method set matches
// [golang.org/x/image/vector.Rasterizer].
type Pen interface {
	MoveTo(x, y float32)
	LineTo(x, y float32)
	QuadTo(x1, y1, x, y float32)
	CubeTo(x1, y1, x2, y2, x, y float32)
	ClosePath()
}

// DrawGlyph sends the outline of a glyph to p.  The matrix m maps font
// design units to device coordinates.
func (f *Face) DrawGlyph(p Pen, gid glyph.ID, m matrix.Matrix) {
	if f.info.Outlines == nil || int(gid) >= f.NumGlyphs() {
		return
	}

	tr := func(x, y float64) (float32, float32) {
		return float32(m[0]*x + m[2]*y + m[4]), float32(m[1]*x + m[3]*y + m[5])
	}
	for cmd, points := range f.info.Outlines.Path(gid) {
		switch cmd {
		case geompath.CmdMoveTo:
			x, y := tr(points[0].X, points[0].Y)
			p.MoveTo(x, y)
		case geompath.CmdLineTo:
			x, y := tr(points[0].X, points[0].Y)
			p.LineTo(x, y)
		case geompath.CmdQuadTo:
			x1, y1 := tr(points[0].X, points[0].Y)
			x2, y2 := tr(points[1].X, points[1].Y)
			p.QuadTo(x1, y1, x2, y2)
		case geompath.CmdCubeTo:
			x1, y1 := tr(points[0].X, points[0].Y)
			x2, y2 := tr(points[1].X, points[1].Y)
			x3, y3 := tr(points[2].X, points[2].Y)
			p.CubeTo(x1, y1, x2, y2, x3, y3)
		case geompath.CmdClose:
			p.ClosePath()
		}
	}
}
