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

package render

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/certpdf/geometry"
)

type segmentType byte

const (
	segMoveTo segmentType = iota
	segLineTo
	segCubeTo
	segClose
)

// segment is a path segment in device space.
type segment struct {
	tp  segmentType
	pts [3]vec.Vec2
}

// curveSteps is the number of line segments used to approximate a Bezier
// curve when stroking.
const curveSteps = 16

func (ip *interpreter) toDevice(x, y float64) vec.Vec2 {
	return geometry.Apply(ip.ctm, vec.Vec2{X: x, Y: y})
}

func (ip *interpreter) moveTo(x, y float64) {
	p := ip.toDevice(x, y)
	ip.path = append(ip.path, segment{tp: segMoveTo, pts: [3]vec.Vec2{p}})
	ip.cur = p
	ip.start = p
}

func (ip *interpreter) lineTo(x, y float64) {
	if len(ip.path) == 0 {
		return
	}
	p := ip.toDevice(x, y)
	ip.path = append(ip.path, segment{tp: segLineTo, pts: [3]vec.Vec2{p}})
	ip.cur = p
}

func (ip *interpreter) curveTo(p1, p2, p3 vec.Vec2) {
	if len(ip.path) == 0 {
		return
	}
	ip.path = append(ip.path, segment{tp: segCubeTo, pts: [3]vec.Vec2{p1, p2, p3}})
	ip.cur = p3
}

func (ip *interpreter) closePath() {
	if len(ip.path) == 0 {
		return
	}
	ip.path = append(ip.path, segment{tp: segClose})
	ip.cur = ip.start
}

// fillPath fills the current path with the fill colour.  Open subpaths are
// closed implicitly.
func (ip *interpreter) fillPath() {
	if len(ip.path) == 0 {
		return
	}
	c := ip.c
	c.reset()
	open := false
	for _, seg := range ip.path {
		p := seg.pts
		switch seg.tp {
		case segMoveTo:
			if open {
				c.ClosePath()
			}
			c.MoveTo(clampCoord(p[0].X), clampCoord(p[0].Y))
			open = true
		case segLineTo:
			c.LineTo(clampCoord(p[0].X), clampCoord(p[0].Y))
		case segCubeTo:
			c.CubeTo(clampCoord(p[0].X), clampCoord(p[0].Y),
				clampCoord(p[1].X), clampCoord(p[1].Y),
				clampCoord(p[2].X), clampCoord(p[2].Y))
		case segClose:
			c.ClosePath()
			open = false
		}
	}
	if open {
		c.ClosePath()
	}
	c.fill(toNRGBA(ip.fill, ip.fillAlpha))
}

// strokePath draws the current path with the stroke colour.  Every line
// segment is drawn as a rectangle; there are no line caps, joins or dash
// patterns.
func (ip *interpreter) strokePath() {
	if len(ip.path) == 0 {
		return
	}

	// The line width is transformed by the average scaling of the CTM.
	m := ip.ctm
	scale := math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
	hw := max(ip.lineWidth*scale/2, 0.5)

	c := ip.c
	c.reset()
	var cur, start vec.Vec2
	for _, seg := range ip.path {
		p := seg.pts
		switch seg.tp {
		case segMoveTo:
			cur, start = p[0], p[0]
		case segLineTo:
			c.strokeLine(cur, p[0], hw)
			cur = p[0]
		case segCubeTo:
			prev := cur
			for i := 1; i <= curveSteps; i++ {
				next := bezier(cur, p[0], p[1], p[2], float64(i)/curveSteps)
				c.strokeLine(prev, next, hw)
				prev = next
			}
			cur = p[2]
		case segClose:
			c.strokeLine(cur, start, hw)
			cur = start
		}
	}
	c.fill(toNRGBA(ip.stroke, ip.strokeAlpha))
}

// strokeLine adds a rectangle of half-width hw around the line from a to b.
// All rectangles have the same orientation, so that overlaps do not cancel
// under the nonzero winding rule.
func (c *canvas) strokeLine(a, b vec.Vec2, hw float64) {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if !(l > 0) {
		return
	}
	n := vec.Vec2{X: -d.Y / l * hw, Y: d.X / l * hw}

	p1, p2, p3, p4 := a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)
	c.MoveTo(clampCoord(p1.X), clampCoord(p1.Y))
	c.LineTo(clampCoord(p2.X), clampCoord(p2.Y))
	c.LineTo(clampCoord(p3.X), clampCoord(p3.Y))
	c.LineTo(clampCoord(p4.X), clampCoord(p4.Y))
	c.ClosePath()
}

// bezier evaluates a cubic Bezier curve at parameter t.
func bezier(p0, p1, p2, p3 vec.Vec2, t float64) vec.Vec2 {
	s := 1 - t
	a := s * s * s
	b := 3 * s * s * t
	cc := 3 * s * t * t
	d := t * t * t
	return vec.Vec2{
		X: a*p0.X + b*p1.X + cc*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + cc*p2.Y + d*p3.Y,
	}
}
