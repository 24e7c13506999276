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

package flatten

import (
	"bytes"
	"maps"
	"slices"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/certpdf/annotation"
	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/font"
	"seehuhn.de/go/certpdf/graphics/content/builder"
	"seehuhn.de/go/certpdf/pdf"
)

// HighlightAlpha is the opacity of flattened highlights.
const HighlightAlpha = 0.3

type exporter struct {
	u   *pdf.Updater
	r   *pdf.Reader
	opt *Options

	fonts     map[string]pdf.Reference
	embedded  map[string]*embeddedFont
	highlight pdf.Reference
}

// embeddedFont is a Go font which is embedded into the output, for text
// which cannot be represented in WinAnsiEncoding.
type embeddedFont struct {
	ref pdf.Reference
	enc *font.Embedded
}

// addPage draws the annotations onto a page.  Pages where nothing needs to
// be drawn are left unchanged.
func (e *exporter) addPage(page *document.Page, annots []*annotation.Annotation) error {
	resources, err := e.materialize(page.Resources)
	if err != nil {
		return err
	}

	b := builder.New()
	b.Resources = resources

	b.PushGraphicsState()
	// Annotation coordinates are relative to the visible area of the page.
	if page.CropBox.LLx != 0 || page.CropBox.LLy != 0 {
		b.Transform(matrix.Translate(page.CropBox.LLx, page.CropBox.LLy))
	}
	n := 0
	for _, a := range annots {
		if e.draw(b, a) {
			n++
		}
	}
	b.PopGraphicsState()

	ops, err := b.Harvest()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	// The prefix saves the initial graphics state, the overlay restores it
	// before drawing, so that the original content cannot affect the
	// annotations.
	overlay := &bytes.Buffer{}
	overlay.WriteString("Q\n")
	err = ops.Write(overlay)
	if err != nil {
		return err
	}

	prefixRef := e.u.Alloc()
	e.u.Put(prefixRef, &pdf.Stream{Data: []byte("q\n")})
	overlayRef := e.u.Alloc()
	e.u.Put(overlayRef, pdf.NewFlateStream(nil, overlay.Bytes()))

	contents := pdf.Array{prefixRef}
	orig, err := pdf.Resolve(e.r, page.Dict["Contents"])
	if err != nil {
		return err
	}
	switch orig := orig.(type) {
	case pdf.Array:
		contents = append(contents, orig...)
	case *pdf.Stream:
		contents = append(contents, page.Dict["Contents"])
	}
	contents = append(contents, overlayRef)

	dict := page.Dict.Clone()
	dict["Contents"] = contents
	dict["Resources"] = resources
	if _, ok := dict["MediaBox"]; !ok {
		dict["MediaBox"] = page.MediaBox
	}
	e.u.Put(page.Ref, dict)
	return nil
}

// draw adds the operators for one annotation.  The return value reports
// whether anything was drawn.
func (e *exporter) draw(b *builder.Builder, a *annotation.Annotation) bool {
	switch a.Kind {
	case annotation.Highlight:
		if e.opt.Highlights != HighlightsFlatten {
			return false
		}
		ext := annotation.HighlightExtent
		if a.Extent != nil {
			ext = *a.Extent
		}
		b.PushGraphicsState()
		b.SetExtGState(e.highlightState())
		b.SetFillColor(a.Style.Color)
		b.Rectangle(a.Anchor.X, a.Anchor.Y, ext.X, ext.Y)
		b.Fill()
		b.PopGraphicsState()
		return true

	case annotation.Text, annotation.Signature:
		if a.Content == "" {
			return false
		}
		name := font.Helvetica
		if a.Kind == annotation.Signature {
			name = font.TimesItalic
		}
		size := a.Style.FontSize
		if size <= 0 {
			size = annotation.DefaultStyle(a.Kind).FontSize
		}
		// Text outside WinAnsiEncoding uses the same Go font as the
		// preview, embedded into the file.
		var fontRef pdf.Reference
		var codes pdf.String
		if font.IsWinAnsi(a.Content) {
			fontRef = e.font(name)
			codes = font.EncodeWinAnsi(a.Content)
		} else {
			f := e.embeddedFont(name)
			fontRef = f.ref
			codes = f.enc.Encode(a.Content)
		}
		b.SetFillColor(a.Style.Color)
		b.TextBegin()
		b.TextSetFont(fontRef, size)
		b.TextFirstLine(a.Anchor.X, a.Anchor.Y)
		b.TextShow(codes)
		b.TextEnd()
		return true
	}
	return false
}

// materialize returns a copy of the page resources where the dictionaries
// which receive new entries are direct objects.  This way, resources
// shared with other pages are never modified.
func (e *exporter) materialize(res pdf.Dict) (pdf.Dict, error) {
	out := res.Clone()
	if out == nil {
		out = pdf.Dict{}
	}
	for _, category := range []pdf.Name{"Font", "ExtGState"} {
		dict, err := pdf.GetDict(e.r, out[category])
		if err != nil {
			return nil, err
		}
		if dict != nil {
			out[category] = dict.Clone()
		}
	}
	return out, nil
}

// font returns the reference of a font dictionary for one of the standard
// fonts.  The dictionary is added to the update on first use.
func (e *exporter) font(name string) pdf.Reference {
	if ref, ok := e.fonts[name]; ok {
		return ref
	}
	ref := e.u.Alloc()
	e.u.Put(ref, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name(name),
		"Encoding": pdf.Name("WinAnsiEncoding"),
	})
	e.fonts[name] = ref
	return ref
}

// embeddedFont returns the embedded version of one of the standard fonts.
// The font data is written by [exporter.finish].
func (e *exporter) embeddedFont(name string) *embeddedFont {
	if f, ok := e.embedded[name]; ok {
		return f
	}
	f := &embeddedFont{
		ref: e.u.Alloc(),
		enc: font.NewEmbedded(font.Substitute(name)),
	}
	e.embedded[name] = f
	return f
}

// finish writes the embedded fonts, once all text is known.
func (e *exporter) finish() error {
	for _, name := range slices.Sorted(maps.Keys(e.embedded)) {
		f := e.embedded[name]
		err := f.enc.Embed(e.u, f.ref)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *exporter) highlightState() pdf.Reference {
	if e.highlight == 0 {
		e.highlight = e.u.Alloc()
		e.u.Put(e.highlight, pdf.Dict{
			"Type": pdf.Name("ExtGState"),
			"ca":   pdf.Number(HighlightAlpha),
		})
	}
	return e.highlight
}
