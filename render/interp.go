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
	"bytes"
	"errors"
	"image/color"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/graphics/content"
	"seehuhn.de/go/certpdf/internal/logging"
	"seehuhn.de/go/certpdf/pdf"
)

// Limits for malformed or hostile content.
const (
	maxStackDepth = 256
	maxFormDepth  = 8
)

// gstate holds the parts of the graphics state which affect rendering.
type gstate struct {
	ctm matrix.Matrix

	fill, stroke             [3]float64 // RGB
	fillAlpha, strokeAlpha   float64
	lineWidth                float64
	font                     *fontInfo
	fontSize                 float64
	charSpacing, wordSpacing float64
	hScale                   float64
	leading, rise            float64
	renderMode               int
}

// interpreter executes content stream operators and paints the results
// onto a canvas.
type interpreter struct {
	r *pdf.Reader
	c *canvas

	gstate
	stack []gstate

	tm, tlm matrix.Matrix

	path       []segment
	cur, start vec.Vec2 // device space

	resources pdf.Dict
	fonts     map[pdf.Reference]*fontInfo
	forms     []pdf.Reference // forms currently being drawn
}

func newInterpreter(r *pdf.Reader, c *canvas) *interpreter {
	return &interpreter{
		r:     r,
		c:     c,
		fonts: make(map[pdf.Reference]*fontInfo),
	}
}

// RunPage paints the contents of a page.  The matrix ctm maps the default
// user space of the page to device space.  Errors in the content stream
// stop the interpretation; everything drawn up to this point is kept.
func (ip *interpreter) RunPage(p *document.Page, ctm matrix.Matrix) error {
	ip.gstate = gstate{
		ctm:         ctm,
		fillAlpha:   1,
		strokeAlpha: 1,
		lineWidth:   1,
		hScale:      1,
	}
	ip.stack = ip.stack[:0]
	ip.resources = p.Resources

	contents, err := pdf.Resolve(ip.r, p.Dict["Contents"])
	if err != nil {
		return err
	}

	var streams []pdf.Object
	switch contents := contents.(type) {
	case nil:
		return nil
	case *pdf.Stream:
		streams = []pdf.Object{contents}
	case pdf.Array:
		streams = contents
	default:
		return errors.New("invalid /Contents")
	}

	// The streams of an array are concatenated before parsing.
	buf := &bytes.Buffer{}
	for _, obj := range streams {
		stm, err := pdf.GetStream(ip.r, obj)
		if err != nil {
			logging.Logger().Warn("skipping content stream", "error", err)
			continue
		}
		data, err := ip.r.DecodeStream(stm)
		if err != nil {
			logging.Logger().Warn("cannot decode content stream", "error", err)
			continue
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return ip.run(buf.Bytes())
}

// run interprets a content stream.
func (ip *interpreter) run(data []byte) error {
	ops, parseErr := content.Parse(data)
	for _, op := range ops {
		ip.do(op)
	}
	return parseErr
}

// do executes a single operator.  Operators with missing or invalid
// arguments are skipped.
func (ip *interpreter) do(op content.Operator) {
	args := op.Args

	switch op.Name {

	// == General graphics state =========================================

	case content.OpPushGraphicsState:
		if len(ip.stack) < maxStackDepth {
			ip.stack = append(ip.stack, ip.gstate)
		}

	case content.OpPopGraphicsState:
		if k := len(ip.stack) - 1; k >= 0 {
			ip.gstate = ip.stack[k]
			ip.stack = ip.stack[:k]
		}

	case content.OpTransform:
		if x, ok := numbers(args, 6); ok {
			m := matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
			ip.ctm = m.Mul(ip.ctm)
		}

	case content.OpSetLineWidth:
		if x, ok := numbers(args, 1); ok {
			ip.lineWidth = x[0]
		}

	case content.OpSetExtGState:
		if len(args) == 1 {
			name, _ := args[0].(pdf.Name)
			ip.setExtGState(name)
		}

	// == Path construction ==============================================

	case content.OpMoveTo:
		if x, ok := numbers(args, 2); ok {
			ip.moveTo(x[0], x[1])
		}

	case content.OpLineTo:
		if x, ok := numbers(args, 2); ok {
			ip.lineTo(x[0], x[1])
		}

	case content.OpCurveTo:
		if x, ok := numbers(args, 6); ok {
			ip.curveTo(ip.toDevice(x[0], x[1]), ip.toDevice(x[2], x[3]), ip.toDevice(x[4], x[5]))
		}

	case content.OpCurveToV:
		if x, ok := numbers(args, 4); ok {
			ip.curveTo(ip.cur, ip.toDevice(x[0], x[1]), ip.toDevice(x[2], x[3]))
		}

	case content.OpCurveToY:
		if x, ok := numbers(args, 4); ok {
			end := ip.toDevice(x[2], x[3])
			ip.curveTo(ip.toDevice(x[0], x[1]), end, end)
		}

	case content.OpClosePath:
		ip.closePath()

	case content.OpRectangle:
		if x, ok := numbers(args, 4); ok {
			ip.moveTo(x[0], x[1])
			ip.lineTo(x[0]+x[2], x[1])
			ip.lineTo(x[0]+x[2], x[1]+x[3])
			ip.lineTo(x[0], x[1]+x[3])
			ip.closePath()
		}

	// == Path painting ==================================================

	case content.OpFill, content.OpFillCompat, content.OpFillEvenOdd:
		ip.fillPath()
		ip.path = ip.path[:0]

	case content.OpStroke:
		ip.strokePath()
		ip.path = ip.path[:0]

	case content.OpCloseAndStroke:
		ip.closePath()
		ip.strokePath()
		ip.path = ip.path[:0]

	case content.OpFillAndStroke, content.OpFillAndStrokeEvenOdd:
		ip.fillPath()
		ip.strokePath()
		ip.path = ip.path[:0]

	case content.OpCloseFillAndStroke, content.OpCloseFillAndStrokeEvenOdd:
		ip.closePath()
		ip.fillPath()
		ip.strokePath()
		ip.path = ip.path[:0]

	case content.OpEndPath:
		ip.path = ip.path[:0]

	// == Colour =========================================================

	case content.OpSetFillGray, content.OpSetFillRGB, content.OpSetFillCMYK,
		content.OpSetFillColor, content.OpSetFillColorN:
		if rgb, ok := toRGB(args); ok {
			ip.fill = rgb
		}

	case content.OpSetStrokeGray, content.OpSetStrokeRGB, content.OpSetStrokeCMYK,
		content.OpSetStrokeColor, content.OpSetStrokeColorN:
		if rgb, ok := toRGB(args); ok {
			ip.stroke = rgb
		}

	case content.OpSetFillColorSpace:
		ip.fill = [3]float64{}

	case content.OpSetStrokeColorSpace:
		ip.stroke = [3]float64{}

	// == Text ===========================================================

	case content.OpTextBegin:
		ip.tm = matrix.Identity
		ip.tlm = matrix.Identity

	case content.OpTextSetCharacterSpacing:
		if x, ok := numbers(args, 1); ok {
			ip.charSpacing = x[0]
		}

	case content.OpTextSetWordSpacing:
		if x, ok := numbers(args, 1); ok {
			ip.wordSpacing = x[0]
		}

	case content.OpTextSetHorizontalScaling:
		if x, ok := numbers(args, 1); ok {
			ip.hScale = x[0] / 100
		}

	case content.OpTextSetLeading:
		if x, ok := numbers(args, 1); ok {
			ip.leading = x[0]
		}

	case content.OpTextSetFont:
		if len(args) == 2 {
			name, _ := args[0].(pdf.Name)
			size, ok := pdf.AsNumber(args[1])
			if ok {
				ip.setFont(name, size)
			}
		}

	case content.OpTextSetRenderingMode:
		if x, ok := numbers(args, 1); ok {
			ip.renderMode = int(x[0])
		}

	case content.OpTextSetRise:
		if x, ok := numbers(args, 1); ok {
			ip.rise = x[0]
		}

	case content.OpTextMoveOffset:
		if x, ok := numbers(args, 2); ok {
			ip.tlm = matrix.Translate(x[0], x[1]).Mul(ip.tlm)
			ip.tm = ip.tlm
		}

	case content.OpTextMoveOffsetSetLeading:
		if x, ok := numbers(args, 2); ok {
			ip.leading = -x[1]
			ip.tlm = matrix.Translate(x[0], x[1]).Mul(ip.tlm)
			ip.tm = ip.tlm
		}

	case content.OpTextSetMatrix:
		if x, ok := numbers(args, 6); ok {
			ip.tlm = matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
			ip.tm = ip.tlm
		}

	case content.OpTextNextLine:
		ip.nextLine()

	case content.OpTextShow:
		if len(args) == 1 {
			s, _ := args[0].(pdf.String)
			ip.showText(s)
		}

	case content.OpTextShowMoveNextLine:
		if len(args) == 1 {
			s, _ := args[0].(pdf.String)
			ip.nextLine()
			ip.showText(s)
		}

	case content.OpTextShowMoveNextLineSetSpacing:
		if len(args) == 3 {
			aw, ok1 := pdf.AsNumber(args[0])
			ac, ok2 := pdf.AsNumber(args[1])
			s, ok3 := args[2].(pdf.String)
			if ok1 && ok2 && ok3 {
				ip.wordSpacing = aw
				ip.charSpacing = ac
				ip.nextLine()
				ip.showText(s)
			}
		}

	case content.OpTextShowArray:
		if len(args) == 1 {
			a, _ := args[0].(pdf.Array)
			ip.showKerned(a)
		}

	// == XObjects and images ============================================

	case content.OpXObject:
		if len(args) == 1 {
			name, _ := args[0].(pdf.Name)
			ip.drawXObject(name)
		}

	case content.OpInlineImage:
		if len(args) == 2 {
			dict, _ := args[0].(pdf.Dict)
			data, _ := args[1].(pdf.String)
			ip.drawInlineImage(dict, data)
		}
	}

	// Clipping, shadings, marked content and unknown operators are ignored.
}

func (ip *interpreter) nextLine() {
	ip.tlm = matrix.Translate(0, -ip.leading).Mul(ip.tlm)
	ip.tm = ip.tlm
}

func (ip *interpreter) setExtGState(name pdf.Name) {
	states, _ := pdf.GetDict(ip.r, ip.resources["ExtGState"])
	gs, err := pdf.GetDict(ip.r, states[name])
	if err != nil || gs == nil {
		logging.Logger().Debug("missing ExtGState", "name", name, "error", err)
		return
	}
	if x, err := pdf.GetNumber(ip.r, gs["CA"]); err == nil && gs["CA"] != nil {
		ip.strokeAlpha = clamp(x)
	}
	if x, err := pdf.GetNumber(ip.r, gs["ca"]); err == nil && gs["ca"] != nil {
		ip.fillAlpha = clamp(x)
	}
	if x, err := pdf.GetNumber(ip.r, gs["LW"]); err == nil && gs["LW"] != nil {
		ip.lineWidth = x
	}
	if a, _ := pdf.GetArray(ip.r, gs["Font"]); len(a) == 2 {
		size, _ := pdf.GetNumber(ip.r, a[1])
		ip.font = ip.loadFont(a[0])
		ip.fontSize = size
	}
}

// numbers returns the first n arguments as numbers.
func numbers(args []pdf.Object, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	res := make([]float64, n)
	for i := range n {
		x, ok := pdf.AsNumber(args[i])
		if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
		res[i] = x
	}
	return res, true
}

// toRGB converts colour operands to RGB.  The colour space is determined
// by the number of numeric operands: one for gray, three for RGB and four
// for CMYK.  Pattern names are ignored.
func toRGB(args []pdf.Object) ([3]float64, bool) {
	var x []float64
	for _, arg := range args {
		v, ok := pdf.AsNumber(arg)
		if !ok {
			continue
		}
		x = append(x, clamp(v))
	}
	switch len(x) {
	case 1:
		return [3]float64{x[0], x[0], x[0]}, true
	case 3:
		return [3]float64{x[0], x[1], x[2]}, true
	case 4:
		k := 1 - x[3]
		return [3]float64{(1 - x[0]) * k, (1 - x[1]) * k, (1 - x[2]) * k}, true
	}
	return [3]float64{}, false
}

func toNRGBA(rgb [3]float64, alpha float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(rgb[0] * 255)),
		G: uint8(math.Round(rgb[1] * 255)),
		B: uint8(math.Round(rgb[2] * 255)),
		A: uint8(math.Round(alpha * 255)),
	}
}

func clamp(x float64) float64 {
	if !(x >= 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
