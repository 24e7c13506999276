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

package compose

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"seehuhn.de/go/certpdf/font"
	"seehuhn.de/go/certpdf/graphics/content/builder"
	"seehuhn.de/go/certpdf/pdf"
)

// fontNames lists the fonts used on the certificate, in the order the font
// dictionaries are written.
var fontNames = []string{font.Helvetica, font.HelveticaBold, font.TimesItalic}

// Page layout, in PDF points.
const (
	marginX      = 72.0
	marginTop    = 64.0
	marginBottom = 56.0
	leading      = 1.45 // line distance, relative to the font size

	// continuedTop is the offset of the first baseline on a continuation
	// page.
	continuedTop = marginTop + 16
)

var (
	ruleColor   = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
	accentColor = color.NRGBA{R: 0x1A, G: 0x23, B: 0x7E, A: 0xFF}
	boxColor    = color.NRGBA{R: 0xE8, G: 0xEA, B: 0xF6, A: 0xFF}
)

// pageStream is the content stream of one page, with its resources.
type pageStream struct {
	body      []byte
	resources pdf.Dict
}

// layout places text on the pages from the top down.  The running offset
// y is measured from the top edge of the current page and converted to PDF
// coordinates when drawing.  When the next block does not fit above the
// bottom margin, a new page is started.
type layout struct {
	b      *builder.Builder
	fonts  map[string]pdf.Reference
	width  float64
	height float64
	y      float64

	// embedded holds the Go fonts used for text outside WinAnsiEncoding.
	// New font dictionaries get references from alloc.
	embedded map[string]*embeddedFont
	alloc    func() pdf.Reference

	done []pageStream
	err  error
}

type embeddedFont struct {
	ref pdf.Reference
	enc *font.Embedded
}

func newLayout(box *pdf.Rectangle, fonts map[string]pdf.Reference, alloc func() pdf.Reference) *layout {
	return &layout{
		b:        builder.New(),
		fonts:    fonts,
		width:    box.Dx(),
		height:   box.Dy(),
		y:        marginTop,
		embedded: make(map[string]*embeddedFont),
		alloc:    alloc,
	}
}

// certificate lays out the certificate and returns the content of all
// pages.
func (l *layout) certificate(req *Request, o *Options, now time.Time) ([]pageStream, error) {
	// letterhead
	l.advance(16)
	l.centered(font.HelveticaBold, 16, o.Letterhead[0])
	for _, line := range o.Letterhead[1:] {
		l.moveDown(10*leading, lineDepth(10))
		l.centered(font.Helvetica, 10, line)
	}
	l.moveDown(12, 0)
	l.rule(marginX, l.width-marginX, 1.5)

	l.moveDown(48, lineDepth(18))
	l.centered(font.HelveticaBold, 18, "CERTIFICATION")

	l.moveDown(44, lineDepth(11))
	l.left(font.Helvetica, 11, "Memo No.: "+req.MemoNo)
	l.moveDown(11*leading, lineDepth(11))
	l.left(font.Helvetica, 11, "Date: "+req.Date.Format("January 2, 2006"))

	l.moveDown(36, lineDepth(11))
	l.left(font.HelveticaBold, 11, "TO WHOM IT MAY CONCERN:")

	l.moveDown(28, 0)
	l.paragraph(font.Helvetica, 11, fmt.Sprintf(
		"This is to certify that %s, with Crew ID No. %s, is a seafarer "+
			"duly registered with and under the management of %s.",
		req.CrewName, req.CrewID, o.Letterhead[0]))

	if req.Purpose != "" {
		l.moveDown(14, 0)
		l.paragraph(font.Helvetica, 11, fmt.Sprintf(
			"This certification is issued upon the request of the above-named "+
				"crew member in support of the %s application, and for whatever "+
				"legal purpose it may serve.",
			req.Purpose))
	}

	l.moveDown(14, 0)
	d := req.Date
	l.paragraph(font.Helvetica, 11, fmt.Sprintf("Issued this %d%s day of %s %d.",
		d.Day(), ordinalSuffix(d.Day()), d.Month(), d.Year()))

	// The signatory block is kept on one page.
	const signatoryHeight = 14 + 13 + 4
	l.moveDown(72, signatoryHeight)
	l.rule(marginX, marginX+200, 0.75)
	l.advance(14)
	l.left(font.HelveticaBold, 11, req.Signatory)
	l.advance(13)
	l.left(font.Helvetica, 10, req.SignatoryTitle)

	if req.Signed {
		l.moveDown(16, watermarkHeight)
		l.watermark(now)
	}

	l.err = errors.Join(l.err, l.finishPage())
	if l.err != nil {
		return nil, l.err
	}
	return l.done, nil
}

const watermarkHeight = 38.0

// watermark draws the "Digitally signed" box, with its top edge at the
// current offset.
func (l *layout) watermark(now time.Time) {
	b := l.b
	const boxW = 200.0
	b.PushGraphicsState()
	b.SetFillColor(boxColor)
	b.SetStrokeColor(accentColor)
	b.SetLineWidth(0.75)
	b.Rectangle(marginX, l.height-l.y-watermarkHeight, boxW, watermarkHeight)
	b.FillAndStroke()

	b.SetFillColor(accentColor)
	l.advance(16)
	l.text(font.TimesItalic, 14, marginX+8, "Digitally signed")
	l.advance(14)
	l.text(font.Helvetica, 8, marginX+8, now.UTC().Format("2006-01-02 15:04:05 UTC"))
	b.PopGraphicsState()
	l.advance(watermarkHeight - 30)
}

// lineDepth is the space needed below the baseline of a line of text.
func lineDepth(size float64) float64 {
	return 0.25 * size
}

// moveDown advances the offset by dy.  If a block extending h below the
// new offset does not fit above the bottom margin, the block is moved to
// the top of a new page instead.
func (l *layout) moveDown(dy, h float64) {
	l.y += dy
	if l.y+h > l.height-marginBottom {
		l.newPage()
	}
}

// newPage finishes the current page and starts a continuation page.
// Errors are reported when the layout is complete.
func (l *layout) newPage() {
	l.err = errors.Join(l.err, l.finishPage())
	l.b = builder.New()
	l.y = continuedTop
}

func (l *layout) finishPage() error {
	stm, err := l.b.Harvest()
	if err != nil {
		return err
	}
	l.done = append(l.done, pageStream{body: stm.Bytes(), resources: l.b.Resources})
	return nil
}

func (l *layout) advance(dy float64) {
	l.y += dy
}

// rule draws a horizontal line at the current offset.
func (l *layout) rule(x0, x1, lineWidth float64) {
	y := l.height - l.y
	l.b.SetStrokeColor(ruleColor)
	l.b.SetLineWidth(lineWidth)
	l.b.MoveTo(x0, y)
	l.b.LineTo(x1, y)
	l.b.Stroke()
}

// text shows a single line with its baseline at the current offset.
func (l *layout) text(fontName string, size, x float64, s string) {
	ref := l.fonts[fontName]
	var codes pdf.String
	if font.IsWinAnsi(s) {
		codes = font.EncodeWinAnsi(s)
	} else {
		f := l.embeddedFont(fontName)
		ref = f.ref
		codes = f.enc.Encode(s)
	}

	b := l.b
	b.TextBegin()
	b.TextSetFont(ref, size)
	b.TextFirstLine(x, l.height-l.y)
	b.TextShow(codes)
	b.TextEnd()
}

func (l *layout) embeddedFont(fontName string) *embeddedFont {
	f, ok := l.embedded[fontName]
	if !ok {
		f = &embeddedFont{
			ref: l.alloc(),
			enc: font.NewEmbedded(font.Substitute(fontName)),
		}
		l.embedded[fontName] = f
	}
	return f
}

func (l *layout) left(fontName string, size float64, s string) {
	l.text(fontName, size, marginX, s)
}

func (l *layout) centered(fontName string, size float64, s string) {
	w := font.Substitute(fontName).TextWidth(s, size)
	l.text(fontName, size, (l.width-w)/2, s)
}

// paragraph shows word-wrapped text, starting a new page where needed.
// On return, the offset is at the baseline of the last line.
func (l *layout) paragraph(fontName string, size float64, s string) {
	lines := wrap(font.Substitute(fontName), s, size, l.width-2*marginX)
	for i, line := range lines {
		dy := 0.0
		if i > 0 {
			dy = size * leading
		}
		l.moveDown(dy, lineDepth(size))
		l.left(fontName, size, line)
	}
}

// wrap breaks s into lines no wider than width.  Words which are wider
// than the column are put on a line of their own.
func wrap(face *font.Face, s string, size, width float64) []string {
	var lines []string
	var cur []string
	for _, word := range strings.Fields(s) {
		if cur != nil {
			candidate := strings.Join(append(cur, word), " ")
			if face.TextWidth(candidate, size) <= width {
				cur = append(cur, word)
				continue
			}
			lines = append(lines, strings.Join(cur, " "))
		}
		cur = []string{word}
	}
	if cur != nil {
		lines = append(lines, strings.Join(cur, " "))
	}
	return lines
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
