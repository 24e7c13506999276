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

package pdf

import (
	"bytes"
	"io"
)

// Tokenizer splits a content stream into operands and operators.
type Tokenizer struct {
	s *scanner
}

// NewTokenizer returns a Tokenizer which reads from data.
func NewTokenizer(data []byte) *Tokenizer {
	return &Tokenizer{s: &scanner{data: data, content: true}}
}

// Next returns the next object of the content stream.  Operators are
// returned as [Operator] values.  At the end of the data, [io.EOF] is
// returned.
func (t *Tokenizer) Next() (Object, error) {
	t.s.skipWhiteSpace()
	if t.s.eof() {
		return nil, io.EOF
	}
	return t.s.readObject()
}

// InlineImageData reads the data of an inline image.  This must be called
// directly after the "ID" operator has been returned by Next.  The data
// extends up to the next "EI" operator, which is consumed.
func (t *Tokenizer) InlineImageData() ([]byte, error) {
	s := t.s
	if !s.eof() && isSpace[s.data[s.pos]] {
		s.pos++
	}
	start := s.pos
	for from := start; ; {
		idx := bytes.Index(s.data[from:], []byte("EI"))
		if idx < 0 {
			s.pos = len(s.data)
			return nil, errUnexpectedEOF
		}
		end := from + idx
		after := end + 2
		if end > start && isSpace[s.data[end-1]] &&
			(after >= len(s.data) || isSpace[s.data[after]] || isDelimiter[s.data[after]]) {
			s.pos = after
			return s.data[start : end-1], nil
		}
		from = end + 2
	}
}
