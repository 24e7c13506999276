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

// Package flatten writes annotations into the page content of a PDF file.
//
// The annotations are appended to the original file as an incremental
// update.  For every page which receives annotations, the update contains
// a new content stream and a modified page dictionary.  The bytes of the
// original file are never changed.
package flatten

import (
	"fmt"
	"slices"

	"seehuhn.de/go/certpdf/annotation"
	"seehuhn.de/go/certpdf/document"
	"seehuhn.de/go/certpdf/internal/logging"
	"seehuhn.de/go/certpdf/pdf"
)

// HighlightPolicy determines how highlight annotations are exported.
type HighlightPolicy int

const (
	// HighlightsPreviewOnly omits highlights from the output.  Highlights
	// are then only visible while editing.
	HighlightsPreviewOnly HighlightPolicy = iota

	// HighlightsFlatten draws highlights as semi-transparent rectangles.
	HighlightsFlatten
)

func (p HighlightPolicy) String() string {
	switch p {
	case HighlightsPreviewOnly:
		return "preview-only"
	case HighlightsFlatten:
		return "flatten"
	default:
		return fmt.Sprintf("HighlightPolicy(%d)", int(p))
	}
}

// Options control the export.
type Options struct {
	Highlights HighlightPolicy
}

// Export returns a copy of original, with the annotations drawn onto the
// pages.  Highlights are omitted.
func Export(original []byte, annots []*annotation.Annotation) ([]byte, error) {
	return ExportWith(original, annots, nil)
}

// ExportWith is like [Export], but allows to set options.  If opt is nil,
// the defaults are used.
//
// Annotations are drawn in page order, and in the order given within each
// page.  Annotations for pages which do not exist are skipped.
func ExportWith(original []byte, annots []*annotation.Annotation, opt *Options) ([]byte, error) {
	if opt == nil {
		opt = &Options{}
	}

	doc, err := document.Load(original)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(annots)
	slices.SortStableFunc(sorted, func(a, b *annotation.Annotation) int {
		return a.Page - b.Page
	})

	u := pdf.NewUpdater(doc.Reader())
	e := &exporter{
		u:        u,
		r:        doc.Reader(),
		opt:      opt,
		fonts:    make(map[string]pdf.Reference),
		embedded: make(map[string]*embeddedFont),
	}

	for start := 0; start < len(sorted); {
		pageNo := sorted[start].Page
		end := start + 1
		for end < len(sorted) && sorted[end].Page == pageNo {
			end++
		}
		group := sorted[start:end]
		start = end

		page, ok := doc.Page(pageNo)
		if !ok {
			logging.Logger().Warn("skipping annotations for missing page",
				"page", pageNo, "count", len(group))
			continue
		}
		if page.Ref == 0 {
			logging.Logger().Warn("cannot update direct page object", "page", pageNo)
			continue
		}
		err := e.addPage(page, group)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNo, err)
		}
	}

	err = e.finish()
	if err != nil {
		return nil, err
	}
	return u.Bytes()
}
