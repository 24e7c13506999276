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

// Package builder constructs PDF content streams.
//
// The [Builder] type offers methods corresponding to PDF graphics operators.
// It keeps track of the resources used by the content stream, and omits
// operators which would not change the graphics state.  Errors are reported
// using the Builder.Err field.  Once an error occurs, all methods return
// immediately without doing anything.
//
// The following code draws a red square with a black outline:
//
//	b := builder.New()
//	b.SetLineWidth(2)
//	b.SetFillColor(color.NRGBA{R: 255, A: 255})
//	b.SetStrokeColor(color.Black)
//	b.Rectangle(100, 100, 200, 200)
//	b.FillAndStroke()
//
//	stream, err := b.Harvest()
//	if err != nil {
//		log.Fatal(err)
//	}
//	// Use b.Resources as the resource dictionary of the stream.
package builder
