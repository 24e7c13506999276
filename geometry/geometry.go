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

// Package geometry converts between document space and device space.
//
// Document space has its origin at the lower left corner of a page, with y
// increasing upwards, and uses PDF points as units.  Device space has its
// origin at the top left corner of the rendered image, with y increasing
// downwards, and uses pixels as units.  The two are related by the zoom
// factor ("scale") and the page height.
package geometry

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Limits for the zoom factor.
const (
	MinScale = 0.5
	MaxScale = 3.0

	// ZoomStep is the change of the zoom factor for one zoom in/out step.
	ZoomStep = 0.25
)

// ToDevice maps a point from document space to device space.
func ToDevice(p vec.Vec2, scale, pageHeight float64) vec.Vec2 {
	return vec.Vec2{
		X: p.X * scale,
		Y: (pageHeight - p.Y) * scale,
	}
}

// ToDocument maps a point from device space to document space.  This is the
// inverse of [ToDevice].
func ToDocument(d vec.Vec2, scale, pageHeight float64) vec.Vec2 {
	return vec.Vec2{
		X: d.X / scale,
		Y: pageHeight - d.Y/scale,
	}
}

// DeviceMatrix returns the transformation matrix which maps document space
// to device space.
func DeviceMatrix(scale, pageHeight float64) matrix.Matrix {
	return matrix.Matrix{scale, 0, 0, -scale, 0, pageHeight * scale}
}

// DocumentMatrix returns the transformation matrix which maps device space
// to document space.
func DocumentMatrix(scale, pageHeight float64) matrix.Matrix {
	return matrix.Matrix{1 / scale, 0, 0, -1 / scale, 0, pageHeight}
}

// Apply maps a point through a transformation matrix.
func Apply(M matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: M[0]*p.X + M[2]*p.Y + M[4],
		Y: M[1]*p.X + M[3]*p.Y + M[5],
	}
}

// ClampScale restricts a zoom factor to the range [MinScale, MaxScale].
// NaN is mapped to 1.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	return min(max(s, MinScale), MaxScale)
}

// DeviceRect returns the device space rectangle covered by an area
// annotation.  The anchor is the lower left corner of the area in document
// space, and the extent grows up and to the right.  In the result, LLx/LLy
// hold the minimal and URx/URy the maximal device coordinates.
func DeviceRect(anchor, extent vec.Vec2, scale, pageHeight float64) rect.Rect {
	a := ToDevice(anchor, scale, pageHeight)
	b := ToDevice(anchor.Add(extent), scale, pageHeight)
	return rect.Rect{
		LLx: min(a.X, b.X),
		LLy: min(a.Y, b.Y),
		URx: max(a.X, b.X),
		URy: max(a.Y, b.Y),
	}
}
