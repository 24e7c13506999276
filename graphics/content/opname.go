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

package content

// OpName is the name of a content stream operator.
type OpName string

// These are the content stream operators used by this library.
const (
	// General Graphics State
	OpPushGraphicsState OpName = "q"
	OpPopGraphicsState  OpName = "Q"
	OpTransform         OpName = "cm"
	OpSetLineWidth      OpName = "w"
	OpSetLineCap        OpName = "J"
	OpSetLineJoin       OpName = "j"
	OpSetMiterLimit     OpName = "M"
	OpSetLineDash       OpName = "d"
	OpSetExtGState      OpName = "gs"

	// Path Construction
	OpMoveTo    OpName = "m"
	OpLineTo    OpName = "l"
	OpCurveTo   OpName = "c"
	OpCurveToV  OpName = "v"
	OpCurveToY  OpName = "y"
	OpClosePath OpName = "h"
	OpRectangle OpName = "re"

	// Path Painting
	OpStroke                    OpName = "S"
	OpCloseAndStroke            OpName = "s"
	OpFill                      OpName = "f"
	OpFillCompat                OpName = "F"
	OpFillEvenOdd               OpName = "f*"
	OpFillAndStroke             OpName = "B"
	OpFillAndStrokeEvenOdd      OpName = "B*"
	OpCloseFillAndStroke        OpName = "b"
	OpCloseFillAndStrokeEvenOdd OpName = "b*"
	OpEndPath                   OpName = "n"

	// Clipping Paths
	OpClipNonZero OpName = "W"
	OpClipEvenOdd OpName = "W*"

	// Text Objects
	OpTextBegin OpName = "BT"
	OpTextEnd   OpName = "ET"

	// Text State
	OpTextSetCharacterSpacing  OpName = "Tc"
	OpTextSetWordSpacing       OpName = "Tw"
	OpTextSetHorizontalScaling OpName = "Tz"
	OpTextSetLeading           OpName = "TL"
	OpTextSetFont              OpName = "Tf"
	OpTextSetRenderingMode     OpName = "Tr"
	OpTextSetRise              OpName = "Ts"

	// Text Positioning
	OpTextMoveOffset           OpName = "Td"
	OpTextMoveOffsetSetLeading OpName = "TD"
	OpTextSetMatrix            OpName = "Tm"
	OpTextNextLine             OpName = "T*"

	// Text Showing
	OpTextShow                       OpName = "Tj"
	OpTextShowArray                  OpName = "TJ"
	OpTextShowMoveNextLine           OpName = "'"
	OpTextShowMoveNextLineSetSpacing OpName = "\""

	// Colour
	OpSetStrokeColorSpace OpName = "CS"
	OpSetFillColorSpace   OpName = "cs"
	OpSetStrokeColor      OpName = "SC"
	OpSetStrokeColorN     OpName = "SCN"
	OpSetFillColor        OpName = "sc"
	OpSetFillColorN       OpName = "scn"
	OpSetStrokeGray       OpName = "G"
	OpSetFillGray         OpName = "g"
	OpSetStrokeRGB        OpName = "RG"
	OpSetFillRGB          OpName = "rg"
	OpSetStrokeCMYK       OpName = "K"
	OpSetFillCMYK         OpName = "k"

	// XObjects and shadings
	OpXObject OpName = "Do"
	OpShading OpName = "sh"

	// Marked Content
	OpBeginMarkedContent               OpName = "BMC"
	OpBeginMarkedContentWithProperties OpName = "BDC"
	OpEndMarkedContent                 OpName = "EMC"

	// Compatibility
	OpBeginCompatibility OpName = "BX"
	OpEndCompatibility   OpName = "EX"

	// OpInlineImage is a pseudo-operator representing a complete inline
	// image.  The arguments are the image dictionary and the image data, as
	// a [pdf.String].
	OpInlineImage OpName = "%image%"
)

// argCount gives the number of operands required by operators with a fixed
// number of arguments.
var argCount = map[OpName]int{
	OpPushGraphicsState: 0,
	OpPopGraphicsState:  0,
	OpTransform:         6,
	OpSetLineWidth:      1,
	OpSetLineCap:        1,
	OpSetLineJoin:       1,
	OpSetMiterLimit:     1,
	OpSetLineDash:       2,
	OpSetExtGState:      1,

	OpMoveTo:    2,
	OpLineTo:    2,
	OpCurveTo:   6,
	OpCurveToV:  4,
	OpCurveToY:  4,
	OpClosePath: 0,
	OpRectangle: 4,

	OpStroke:                    0,
	OpCloseAndStroke:            0,
	OpFill:                      0,
	OpFillCompat:                0,
	OpFillEvenOdd:               0,
	OpFillAndStroke:             0,
	OpFillAndStrokeEvenOdd:      0,
	OpCloseFillAndStroke:        0,
	OpCloseFillAndStrokeEvenOdd: 0,
	OpEndPath:                   0,
	OpClipNonZero:               0,
	OpClipEvenOdd:               0,

	OpTextBegin:                      0,
	OpTextEnd:                        0,
	OpTextSetCharacterSpacing:        1,
	OpTextSetWordSpacing:             1,
	OpTextSetHorizontalScaling:       1,
	OpTextSetLeading:                 1,
	OpTextSetFont:                    2,
	OpTextSetRenderingMode:           1,
	OpTextSetRise:                    1,
	OpTextMoveOffset:                 2,
	OpTextMoveOffsetSetLeading:       2,
	OpTextSetMatrix:                  6,
	OpTextNextLine:                   0,
	OpTextShow:                       1,
	OpTextShowArray:                  1,
	OpTextShowMoveNextLine:           1,
	OpTextShowMoveNextLineSetSpacing: 3,

	OpSetStrokeColorSpace: 1,
	OpSetFillColorSpace:   1,
	OpSetStrokeGray:       1,
	OpSetFillGray:         1,
	OpSetStrokeRGB:        3,
	OpSetFillRGB:          3,
	OpSetStrokeCMYK:       4,
	OpSetFillCMYK:         4,

	OpXObject:            1,
	OpShading:            1,
	OpBeginMarkedContent: 1,
	OpEndMarkedContent:   0,
	OpBeginCompatibility: 0,
	OpEndCompatibility:   0,
}
