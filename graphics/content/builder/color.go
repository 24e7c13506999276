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
	"image/color"

	"seehuhn.de/go/certpdf/graphics/content"
	"seehuhn.de/go/certpdf/pdf"
)

// SetFillColor sets the colour used for filling, in the DeviceRGB colour
// space.  The alpha channel of c is ignored; use an ExtGState dictionary
// for transparency.
//
// This implements the PDF graphics operator "rg".
func (b *Builder) SetFillColor(c color.Color) {
	if b.Err != nil {
		return
	}
	rgb := toRGB(c)
	if b.state.fill != nil && *b.state.fill == rgb {
		return
	}
	b.state.fill = &rgb
	b.emit(content.OpSetFillRGB, pdf.Number(rgb[0]), pdf.Number(rgb[1]), pdf.Number(rgb[2]))
}

// SetStrokeColor sets the colour used for stroking, in the DeviceRGB colour
// space.  The alpha channel of c is ignored.
//
// This implements the PDF graphics operator "RG".
func (b *Builder) SetStrokeColor(c color.Color) {
	if b.Err != nil {
		return
	}
	rgb := toRGB(c)
	if b.state.stroke != nil && *b.state.stroke == rgb {
		return
	}
	b.state.stroke = &rgb
	b.emit(content.OpSetStrokeRGB, pdf.Number(rgb[0]), pdf.Number(rgb[1]), pdf.Number(rgb[2]))
}

// toRGB converts c to RGB values in the range [0, 1], undoing the alpha
// premultiplication of the Go colour model.
func toRGB(c color.Color) [3]float64 {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return [3]float64{
		float64(nc.R) / 255,
		float64(nc.G) / 255,
		float64(nc.B) / 255,
	}
}
