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
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"slices"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/certpdf/internal/logging"
	"seehuhn.de/go/certpdf/pdf"
)

// maxImagePixels limits the size of decoded images.
const maxImagePixels = 1 << 26

func (ip *interpreter) drawXObject(name pdf.Name) {
	xobjects, _ := pdf.GetDict(ip.r, ip.resources["XObject"])
	obj := xobjects[name]
	stm, err := pdf.GetStream(ip.r, obj)
	if err != nil || stm == nil {
		logging.Logger().Debug("missing XObject", "name", name, "error", err)
		return
	}

	subtype, _ := pdf.GetName(ip.r, stm.Dict["Subtype"])
	switch subtype {
	case "Image":
		data, filter, _, err := ip.r.DecodeImageStream(stm)
		if err != nil {
			logging.Logger().Warn("cannot decode image", "name", name, "error", err)
			return
		}
		ip.drawImage(imageParams{
			width:      stm.Dict["Width"],
			height:     stm.Dict["Height"],
			bpc:        stm.Dict["BitsPerComponent"],
			colorSpace: stm.Dict["ColorSpace"],
			imageMask:  stm.Dict["ImageMask"],
		}, data, filter)
	case "Form":
		ref, _ := obj.(pdf.Reference)
		ip.drawForm(stm, ref)
	}
}

func (ip *interpreter) drawInlineImage(dict pdf.Dict, data pdf.String) {
	get := func(short, long pdf.Name) pdf.Object {
		if x, ok := dict[short]; ok {
			return x
		}
		return dict[long]
	}

	var filter pdf.Name
	switch f := get("F", "Filter").(type) {
	case pdf.Name:
		filter = f
	case pdf.Array:
		if len(f) == 1 {
			filter, _ = f[0].(pdf.Name)
		} else if len(f) > 1 {
			return
		}
	}
	switch filter {
	case "":
	case "DCT", "DCTDecode":
		filter = "DCTDecode"
	default:
		logging.Logger().Debug("unsupported inline image filter", "filter", filter)
		return
	}

	ip.drawImage(imageParams{
		width:      get("W", "Width"),
		height:     get("H", "Height"),
		bpc:        get("BPC", "BitsPerComponent"),
		colorSpace: get("CS", "ColorSpace"),
		imageMask:  get("IM", "ImageMask"),
	}, []byte(data), filter)
}

type imageParams struct {
	width, height pdf.Object
	bpc           pdf.Object
	colorSpace    pdf.Object
	imageMask     pdf.Object
}

// components returns the number of colour components of an image colour
// space, or 0 if the colour space is not supported.
func (ip *interpreter) components(cs pdf.Object) int {
	cs, _ = pdf.Resolve(ip.r, cs)
	if name, ok := cs.(pdf.Name); ok {
		if spaces, _ := pdf.GetDict(ip.r, ip.resources["ColorSpace"]); spaces[name] != nil {
			cs, _ = pdf.Resolve(ip.r, spaces[name])
		}
	}

	switch cs := cs.(type) {
	case pdf.Name:
		switch cs {
		case "DeviceGray", "G", "CalGray":
			return 1
		case "DeviceRGB", "RGB", "CalRGB":
			return 3
		case "DeviceCMYK", "CMYK":
			return 4
		}
	case pdf.Array:
		if len(cs) < 2 {
			return 0
		}
		family, _ := pdf.GetName(ip.r, cs[0])
		switch family {
		case "CalGray":
			return 1
		case "CalRGB", "Lab":
			return 3
		case "ICCBased":
			stm, _ := pdf.GetStream(ip.r, cs[1])
			if stm != nil {
				n, _ := pdf.GetInteger(ip.r, stm.Dict["N"])
				if n == 1 || n == 3 || n == 4 {
					return int(n)
				}
				return ip.profileComponents(stm)
			}
		}
	}
	return 0
}

// drawImage paints an image into the unit square of user space.  Only
// JPEG images and uncompressed 8-bit Gray, RGB and CMYK images are
// supported.
func (ip *interpreter) drawImage(par imageParams, data []byte, filter pdf.Name) {
	if mask, _ := pdf.Resolve(ip.r, par.imageMask); mask == pdf.Bool(true) {
		return
	}

	var src image.Image
	switch filter {
	case "DCTDecode":
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			logging.Logger().Warn("cannot decode JPEG image", "error", err)
			return
		}
		src = img
	case "":
		w, _ := pdf.GetInteger(ip.r, par.width)
		h, _ := pdf.GetInteger(ip.r, par.height)
		bpc, _ := pdf.GetInteger(ip.r, par.bpc)
		n := ip.components(par.colorSpace)
		if w <= 0 || h <= 0 || w*h > maxImagePixels || bpc != 8 || n == 0 {
			logging.Logger().Debug("unsupported image",
				"width", w, "height", h, "bpc", bpc, "components", n)
			return
		}
		src = rawImage(int(w), int(h), n, data)
	default:
		logging.Logger().Debug("unsupported image filter", "filter", filter)
		return
	}
	if src == nil {
		return
	}

	// Image pixel (sx, sy) corresponds to the point (sx/W, 1-sy/H) of the
	// unit square in user space.
	b := src.Bounds()
	W, H := float64(b.Dx()), float64(b.Dy())
	m := ip.ctm
	if math.Abs(m[0]*m[3]-m[1]*m[2]) < 1e-9 {
		return
	}
	aff := f64.Aff3{
		m[0] / W, -m[2] / H, m[2] + m[4],
		m[1] / W, -m[3] / H, m[3] + m[5],
	}
	xdraw.BiLinear.Transform(ip.c.img, aff, src, b, draw.Over, nil)
}

// rawImage converts uncompressed 8-bit samples into an image.  If there is
// not enough data, nil is returned.
func rawImage(w, h, n int, data []byte) image.Image {
	if len(data) < w*h*n {
		logging.Logger().Debug("image data too short", "have", len(data), "want", w*h*n)
		return nil
	}
	rect := image.Rect(0, 0, w, h)
	switch n {
	case 1:
		img := image.NewGray(rect)
		copy(img.Pix, data)
		return img
	case 3:
		img := image.NewRGBA(rect)
		for i := range w * h {
			img.Pix[4*i] = data[3*i]
			img.Pix[4*i+1] = data[3*i+1]
			img.Pix[4*i+2] = data[3*i+2]
			img.Pix[4*i+3] = 255
		}
		return img
	case 4:
		img := image.NewCMYK(rect)
		copy(img.Pix, data)
		return img
	}
	return nil
}

// drawForm paints a form XObject.
func (ip *interpreter) drawForm(stm *pdf.Stream, ref pdf.Reference) {
	if len(ip.forms) >= maxFormDepth || (ref != 0 && slices.Contains(ip.forms, ref)) {
		logging.Logger().Warn("form XObjects nested too deeply", "form", ref)
		return
	}

	data, err := ip.r.DecodeStream(stm)
	if err != nil {
		logging.Logger().Warn("cannot decode form XObject", "form", ref, "error", err)
		return
	}

	m := matrix.Identity
	if a, _ := pdf.GetArray(ip.r, stm.Dict["Matrix"]); len(a) == 6 {
		if x, ok := numbers(a, 6); ok {
			m = matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
		}
	}

	savedState := ip.gstate
	savedStack := ip.stack
	savedResources := ip.resources
	savedPath := ip.path
	ip.forms = append(ip.forms, ref)

	ip.ctm = m.Mul(ip.ctm)
	ip.stack = nil
	ip.path = nil
	if res, _ := pdf.GetDict(ip.r, stm.Dict["Resources"]); res != nil {
		ip.resources = res
	}

	err = ip.run(data)
	if err != nil {
		logging.Logger().Warn("form XObject incomplete", "form", ref, "error", err)
	}

	ip.forms = ip.forms[:len(ip.forms)-1]
	ip.gstate = savedState
	ip.stack = savedStack
	ip.resources = savedResources
	ip.path = savedPath
}
