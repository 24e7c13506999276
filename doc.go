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

// Package certpdf implements an editing session for PDF documents.
//
// A [Session] holds one loaded document, the annotations placed on it, and
// the view state (current page, zoom factor, active tool).  Pointer clicks
// on the rendered page are translated into annotations in document space,
// so that annotations stay in place when the zoom factor changes:
//
//	s := certpdf.NewSession(nil)
//	err := s.Load(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//	s.SetTool(certpdf.ToolText)
//	if req := s.OnPointerClick(vec.Vec2{X: 50, Y: 50}); req != nil {
//		req.Complete("Approved")
//	}
//	out, _, err := s.Export()
//
// The subpackages provide the building blocks: [document] parses PDF files,
// [render] draws pages, [compose] generates crew certificates, and
// [flatten] writes annotations into the page content.
//
// A Session is not safe for concurrent use.
package certpdf

import (
	"log/slog"

	"seehuhn.de/go/certpdf/internal/logging"
)

// SetLogger sets the logger used for diagnostics by all certpdf packages.
// By default, diagnostics are discarded.  Passing nil restores the
// default.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}
