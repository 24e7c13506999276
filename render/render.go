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

// Package render rasterizes document pages and their annotations.
//
// Page content streams are interpreted with a simplified imaging model:
// paths are filled with the nonzero winding rule, strokes are drawn
// without joins or dashes, and clipping paths are ignored.  Simple fonts are
// replaced by the Go fonts; composite fonts are drawn only when they embed
// TrueType data with the Identity-H encoding.  This is sufficient for a
// page preview.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/certpdf/annotation"
	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/font"
	"seehuhn.de/go/certpdf/geometry"
	"seehuhn.de/go/certpdf/internal/logging"
)

// ErrNoPage is returned when the requested page does not exist.
var ErrNoPage = errors.New("page does not exist")

// maxPixels limits the size of the rendered image.
const maxPixels = 1 << 26

// HighlightAlpha is the opacity used to paint highlights.
const HighlightAlpha = 0.3

// Render draws a page of doc at the given zoom factor, followed by the
// annotations in the order given.  Annotations for other pages are
// ignored.  A new image is allocated for every call.
func Render(doc *document.Document, page int, scale float64, annots []*annotation.Annotation) (*image.RGBA, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no document", ErrNoPage)
	}
	p, ok := doc.Page(page)
	if !ok {
		return nil, fmt.Errorf("%w: page %d of %d", ErrNoPage, page, doc.NumPages())
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("invalid scale %g", scale)
	}

	w := int(math.Ceil(p.Width * scale))
	h := int(math.Ceil(p.Height * scale))
	if w <= 0 || h <= 0 || w*h > maxPixels {
		return nil, fmt.Errorf("invalid image size %dx%d", w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	c := newCanvas(img)

	// Document space has its origin at the corner of the visible area,
	// while the content stream uses the coordinates of the file.
	ctm := geometry.DeviceMatrix(scale, p.Height)
	ctm[4] -= p.CropBox.LLx * scale
	ctm[5] += p.CropBox.LLy * scale

	ip := newInterpreter(doc.Reader(), c)
	err := ip.RunPage(p, ctm)
	if err != nil {
		logging.Logger().Warn("page content incomplete", "page", page, "error", err)
	}

	for _, a := range annots {
		if a.Page != page {
			continue
		}
		drawAnnotation(c, a, scale, p.Height)
	}

	return img, nil
}

func drawAnnotation(c *canvas, a *annotation.Annotation, scale, pageHeight float64) {
	switch a.Kind {
	case annotation.Highlight:
		ext := annotation.HighlightExtent
		if a.Extent != nil {
			ext = *a.Extent
		}
		r := geometry.DeviceRect(a.Anchor, ext, scale, pageHeight)
		c.rect(r.LLx, r.LLy, r.URx, r.URy)
		col := a.Style.Color
		col.A = uint8(math.Round(HighlightAlpha * float64(col.A)))
		c.fill(col)

	case annotation.Text, annotation.Signature:
		name := font.Helvetica
		if a.Kind == annotation.Signature {
			name = font.TimesItalic
		}
		size := a.Style.FontSize
		if size <= 0 {
			size = annotation.DefaultStyle(a.Kind).FontSize
		}
		origin := geometry.ToDevice(a.Anchor, scale, pageHeight)
		c.drawString(font.Substitute(name), a.Content, origin, size*scale, a.Style.Color)
	}
}

// drawString draws s with a horizontal baseline starting at the device
// position origin.  All glyphs are filled as a single path.
func (c *canvas) drawString(face *font.Face, s string, origin vec.Vec2, size float64, col color.NRGBA) {
	k := size / face.UnitsPerEm()
	x := origin.X
	c.reset()
	for _, r := range s {
		if r != ' ' {
			face.DrawGlyph(c, face.GlyphID(r), matrix.Matrix{k, 0, 0, -k, x, origin.Y})
		}
		x += face.Width(r) / 1000 * size
	}
	c.fill(col)
}

type canvasOp byte

const (
	opMoveTo canvasOp = iota
	opLineTo
	opQuadTo
	opCubeTo
	opClose
)

// canvas collects a path in device coordinates, together with its bounding
// box, and fills it onto the target image.  Only the bounding box of the
// path is rasterized, so that the cost of a fill does not depend on the
// size of the page.
type canvas struct {
	img  *image.RGBA
	rast *vector.Rasterizer

	ops    []canvasOp
	coords []float32

	minX, minY, maxX, maxY float32
}

func newCanvas(img *image.RGBA) *canvas {
	return &canvas{
		img:  img,
		rast: vector.NewRasterizer(0, 0),
	}
}

// reset discards the current path.
func (c *canvas) reset() {
	c.ops = c.ops[:0]
	c.coords = c.coords[:0]
}

// The coordinate limit keeps far away points from overflowing the
// rasterizer's fixed point arithmetic.
const coordLimit = 1 << 20

func clampCoord(x float64) float32 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < -coordLimit:
		return -coordLimit
	case x > coordLimit:
		return coordLimit
	}
	return float32(x)
}

func (c *canvas) add(op canvasOp, xy ...float32) {
	if len(c.coords) == 0 && len(xy) > 0 {
		c.minX, c.maxX = xy[0], xy[0]
		c.minY, c.maxY = xy[1], xy[1]
	}
	for i := 0; i+1 < len(xy); i += 2 {
		c.minX = min(c.minX, xy[i])
		c.maxX = max(c.maxX, xy[i])
		c.minY = min(c.minY, xy[i+1])
		c.maxY = max(c.maxY, xy[i+1])
	}
	c.ops = append(c.ops, op)
	c.coords = append(c.coords, xy...)
}

// MoveTo, LineTo, QuadTo, CubeTo and ClosePath add to the current path,
// so that a canvas can be used as a [font.Pen].

func (c *canvas) MoveTo(x, y float32) {
	c.add(opMoveTo, x, y)
}

func (c *canvas) LineTo(x, y float32) {
	c.add(opLineTo, x, y)
}

func (c *canvas) QuadTo(x1, y1, x, y float32) {
	c.add(opQuadTo, x1, y1, x, y)
}

func (c *canvas) CubeTo(x1, y1, x2, y2, x, y float32) {
	c.add(opCubeTo, x1, y1, x2, y2, x, y)
}

func (c *canvas) ClosePath() {
	c.add(opClose)
}

// rect sets the current path to an axis-parallel rectangle in device
// coordinates.
func (c *canvas) rect(x0, y0, x1, y1 float64) {
	c.reset()
	c.MoveTo(clampCoord(x0), clampCoord(y0))
	c.LineTo(clampCoord(x1), clampCoord(y0))
	c.LineTo(clampCoord(x1), clampCoord(y1))
	c.LineTo(clampCoord(x0), clampCoord(y1))
	c.ClosePath()
}

// bounds returns the pixels covered by the bounding box of the current
// path, clipped to the image.
func (c *canvas) bounds() image.Rectangle {
	if len(c.coords) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(
		int(math.Floor(float64(c.minX))), int(math.Floor(float64(c.minY))),
		int(math.Ceil(float64(c.maxX))), int(math.Ceil(float64(c.maxY))))
	return r.Intersect(c.img.Bounds())
}

// fill paints the current path and then discards it.
func (c *canvas) fill(col color.NRGBA) {
	defer c.reset()

	r := c.bounds()
	if col.A == 0 || r.Empty() {
		return
	}

	// The rasterizer covers r only, with its origin at r.Min.
	dx, dy := float32(r.Min.X), float32(r.Min.Y)
	z := c.rast
	z.Reset(r.Dx(), r.Dy())
	xy := c.coords
	for _, op := range c.ops {
		switch op {
		case opMoveTo:
			z.MoveTo(xy[0]-dx, xy[1]-dy)
			xy = xy[2:]
		case opLineTo:
			z.LineTo(xy[0]-dx, xy[1]-dy)
			xy = xy[2:]
		case opQuadTo:
			z.QuadTo(xy[0]-dx, xy[1]-dy, xy[2]-dx, xy[3]-dy)
			xy = xy[4:]
		case opCubeTo:
			z.CubeTo(xy[0]-dx, xy[1]-dy, xy[2]-dx, xy[3]-dy, xy[4]-dx, xy[5]-dy)
			xy = xy[6:]
		case opClose:
			z.ClosePath()
		}
	}
	z.Draw(c.img, r, image.NewUniform(col), image.Point{})
}
