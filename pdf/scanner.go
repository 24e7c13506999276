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
	"errors"
	"io"
	"strconv"
)

// maxNesting limits the depth of nested arrays and dictionaries.
const maxNesting = 64

var errUnexpectedEOF = &MalformedFileError{Err: io.ErrUnexpectedEOF}

// scanner reads PDF objects from an in-memory buffer.
type scanner struct {
	data []byte
	pos  int

	// content is set when scanning content streams.  In this mode, bare
	// keywords are returned as [Operator] values and integers are never
	// combined into references.
	content bool

	// getLength resolves an indirect /Length entry of a stream dictionary.
	getLength func(Reference) (int, bool)

	depth int
}

func newScanner(data []byte, pos int) *scanner {
	return &scanner{data: data, pos: pos}
}

func (s *scanner) errorf(format string, a ...any) error {
	return malformed(int64(s.pos), format, a...)
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.data)
}

// skipWhiteSpace skips white space and comments.
func (s *scanner) skipWhiteSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		if !isSpace[c] {
			return
		}
		s.pos++
	}
}

// hasPrefix checks whether the input at the current position starts with
// pat.
func (s *scanner) hasPrefix(pat string) bool {
	return bytes.HasPrefix(s.data[s.pos:], []byte(pat))
}

// hasKeyword checks whether the input at the current position starts with
// the keyword kw, followed by a delimiter, white space or the end of input.
func (s *scanner) hasKeyword(kw string) bool {
	if !s.hasPrefix(kw) {
		return false
	}
	end := s.pos + len(kw)
	return end >= len(s.data) || isSpace[s.data[end]] || isDelimiter[s.data[end]]
}

// readIndirectObject reads an object of the form "n g obj ... endobj".
func (s *scanner) readIndirectObject() (Reference, Object, error) {
	s.skipWhiteSpace()
	number, ok := s.readUint()
	if !ok {
		return 0, nil, s.errorf("expected object number")
	}
	s.skipWhiteSpace()
	generation, ok := s.readUint()
	if !ok || generation > 65535 || number > 1<<32-1 {
		return 0, nil, s.errorf("expected generation number")
	}
	s.skipWhiteSpace()
	if !s.hasKeyword("obj") {
		return 0, nil, s.errorf("expected \"obj\"")
	}
	s.pos += 3
	ref := NewReference(uint32(number), uint16(generation))

	obj, err := s.readObject()
	if err != nil {
		return ref, nil, err
	}

	s.skipWhiteSpace()
	if dict, isDict := obj.(Dict); isDict && s.hasKeyword("stream") {
		obj, err = s.readStreamData(dict)
		if err != nil {
			return ref, nil, err
		}
		s.skipWhiteSpace()
	}

	if s.hasKeyword("endobj") {
		s.pos += 6
	}
	// A missing "endobj" is tolerated.
	return ref, obj, nil
}

// readObject reads the next object.  In content mode, bare keywords are
// returned as [Operator].
func (s *scanner) readObject() (Object, error) {
	s.skipWhiteSpace()
	if s.eof() {
		return nil, errUnexpectedEOF
	}

	c := s.data[s.pos]
	switch {
	case c == '/':
		return s.readName()
	case c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.':
		return s.readNumberOrReference()
	case c == '(':
		s.pos++
		return s.readQuotedString()
	case s.hasPrefix("<<"):
		return s.readDict()
	case c == '<':
		s.pos++
		return s.readHexString()
	case c == '[':
		return s.readArray()
	case s.hasKeyword("null"):
		s.pos += 4
		return nil, nil
	case s.hasKeyword("true"):
		s.pos += 4
		return Bool(true), nil
	case s.hasKeyword("false"):
		s.pos += 5
		return Bool(false), nil
	}

	if s.content {
		kw := s.readKeyword()
		if kw == "" {
			// a stray delimiter
			s.pos++
			return Operator(string(c)), nil
		}
		return Operator(kw), nil
	}
	return nil, s.errorf("unexpected character %q", c)
}

func (s *scanner) readKeyword() string {
	start := s.pos
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isSpace[c] || isDelimiter[c] {
			break
		}
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// readUint reads a non-negative decimal integer.
func (s *scanner) readUint() (int64, bool) {
	start := s.pos
	var x int64
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c < '0' || c > '9' {
			break
		}
		x = x*10 + int64(c-'0')
		if x > 1<<40 {
			s.pos = start
			return 0, false
		}
		s.pos++
	}
	return x, s.pos > start
}

func (s *scanner) readNumberOrReference() (Object, error) {
	start := s.pos
	obj, err := s.readNumber()
	if err != nil || s.content {
		return obj, err
	}

	// Check for "n g R".
	n, isInt := obj.(Integer)
	if !isInt || n < 0 || n > 1<<32-1 || s.data[start] == '+' {
		return obj, nil
	}
	afterNumber := s.pos
	s.skipWhiteSpace()
	gen, ok := s.readUint()
	if ok && gen <= 65535 {
		s.skipWhiteSpace()
		if s.hasKeyword("R") {
			s.pos++
			return NewReference(uint32(n), uint16(gen)), nil
		}
	}
	s.pos = afterNumber
	return obj, nil
}

// readNumber reads an integer or real number.
func (s *scanner) readNumber() (Object, error) {
	start := s.pos
	hasDot := false
scan:
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !hasDot:
			hasDot = true
		case (c == '+' || c == '-') && s.pos == start:
		case c == '-' && s.pos == start+1 && s.data[start] == '-':
			// "--5" occurs in some broken files
		default:
			break scan
		}
		s.pos++
	}
	str := string(bytes.TrimLeft(s.data[start:s.pos], "+"))
	if len(str) > 1 && str[0] == '-' && str[1] == '-' {
		str = str[1:]
	}
	if !hasDot {
		x, err := strconv.ParseInt(str, 10, 64)
		if err == nil {
			return Integer(x), nil
		}
	}
	if str == "-" || str == "." || str == "-." || str == "" {
		return Integer(0), nil
	}
	x, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil, &MalformedFileError{Pos: int64(start), Err: err}
	}
	return Real(x), nil
}

// readQuotedString reads a ()-delimited string, starting after the opening
// bracket.
func (s *scanner) readQuotedString() (String, error) {
	res := []byte{}
	level := 0
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			level++
		case ')':
			if level == 0 {
				return String(res), nil
			}
			level--
		case '\r':
			// end of line markers are normalised to '\n'
			if s.pos < len(s.data) && s.data[s.pos] == '\n' {
				s.pos++
			}
			c = '\n'
		case '\\':
			if s.pos >= len(s.data) {
				return nil, errUnexpectedEOF
			}
			c = s.data[s.pos]
			s.pos++
			switch c {
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
				continue
			case '\n':
				continue
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := c - '0'
				for k := 0; k < 2 && s.pos < len(s.data); k++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val<<3 | (d - '0')
					s.pos++
				}
				c = val
			}
		}
		res = append(res, c)
	}
	return nil, errUnexpectedEOF
}

// readHexString reads a <>-delimited string, starting after the opening
// bracket.
func (s *scanner) readHexString() (String, error) {
	res := []byte{}
	var cur byte
	half := false
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		var d byte
		switch {
		case c == '>':
			if half {
				res = append(res, cur<<4)
			}
			return String(res), nil
		case isSpace[c]:
			continue
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return nil, s.errorf("invalid character %q in hex string", c)
		}
		if half {
			res = append(res, cur<<4|d)
		} else {
			cur = d
		}
		half = !half
	}
	return nil, errUnexpectedEOF
}

// readName reads a name, starting at the '/'.
func (s *scanner) readName() (Name, error) {
	s.pos++ // skip '/'
	var res []byte
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isSpace[c] || isDelimiter[c] {
			break
		}
		s.pos++
		if c == '#' && s.pos+1 < len(s.data) {
			hi, ok1 := unhex(s.data[s.pos])
			lo, ok2 := unhex(s.data[s.pos+1])
			if ok1 && ok2 {
				c = hi<<4 | lo
				s.pos += 2
			}
		}
		res = append(res, c)
	}
	return Name(res), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// readArray reads an array, starting at the '['.
func (s *scanner) readArray() (Array, error) {
	if s.depth >= maxNesting {
		return nil, s.errorf("objects nested too deeply")
	}
	s.depth++
	defer func() { s.depth-- }()

	s.pos++ // skip '['
	res := Array{}
	for {
		s.skipWhiteSpace()
		if s.eof() {
			return nil, errUnexpectedEOF
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return res, nil
		}
		obj, err := s.readObject()
		if err != nil {
			return nil, err
		}
		if _, isOp := obj.(Operator); isOp {
			return nil, s.errorf("unexpected keyword %q in array", obj)
		}
		res = append(res, obj)
	}
}

// readDict reads a dictionary, starting at the "<<".
func (s *scanner) readDict() (Dict, error) {
	if s.depth >= maxNesting {
		return nil, s.errorf("objects nested too deeply")
	}
	s.depth++
	defer func() { s.depth-- }()

	s.pos += 2 // skip "<<"
	res := Dict{}
	for {
		s.skipWhiteSpace()
		if s.eof() {
			return nil, errUnexpectedEOF
		}
		if s.hasPrefix(">>") {
			s.pos += 2
			return res, nil
		}
		if s.data[s.pos] != '/' {
			return nil, s.errorf("expected name as dictionary key")
		}
		key, err := s.readName()
		if err != nil {
			return nil, err
		}
		s.skipWhiteSpace()
		if s.hasPrefix(">>") {
			// key without value
			continue
		}
		val, err := s.readObject()
		if err != nil {
			return nil, err
		}
		if _, isOp := val.(Operator); isOp {
			return nil, s.errorf("unexpected keyword %q in dictionary", val)
		}
		if val != nil {
			res[key] = val
		}
	}
}

// readStreamData reads the data of a stream, starting at the keyword
// "stream".
func (s *scanner) readStreamData(dict Dict) (*Stream, error) {
	s.pos += len("stream")
	if s.hasPrefix("\r\n") {
		s.pos += 2
	} else if s.hasPrefix("\n") || s.hasPrefix("\r") {
		s.pos++
	}
	start := s.pos

	length := -1
	switch l := dict["Length"].(type) {
	case Integer:
		length = int(l)
	case Reference:
		if s.getLength != nil {
			if n, ok := s.getLength(l); ok {
				length = n
			}
		}
	}

	if length >= 0 && start+length <= len(s.data) {
		s.pos = start + length
		s.skipWhiteSpace()
		if s.hasKeyword("endstream") {
			s.pos += len("endstream")
			return &Stream{Dict: dict, Data: s.data[start : start+length]}, nil
		}
	}

	// The length is missing or wrong; look for the end marker.
	idx := bytes.Index(s.data[start:], []byte("endstream"))
	if idx < 0 {
		s.pos = start
		return nil, s.errorf("missing \"endstream\"")
	}
	end := start + idx
	if end > start && s.data[end-1] == '\n' {
		end--
	}
	if end > start && s.data[end-1] == '\r' {
		end--
	}
	s.pos = start + idx + len("endstream")
	return &Stream{Dict: dict, Data: s.data[start:end]}, nil
}

// readHeaderVersion finds the "%PDF-x.y" header within the first 1024 bytes
// of data.  It returns the version and the offset of the header, which is
// the base for all byte offsets in the file.
func readHeaderVersion(data []byte) (Version, int, error) {
	head := data[:min(len(data), 1024)]
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return 0, 0, &MalformedFileError{Err: errors.New("PDF header not found")}
	}
	s := newScanner(data, idx+5)
	verString := s.readKeyword()
	ver, err := ParseVersion(verString)
	if err != nil {
		// Be lenient with versions we don't know, like "1.8".
		if len(verString) >= 3 && verString[0] == '1' && verString[1] == '.' {
			return V1_7, idx, nil
		}
		return 0, idx, &MalformedFileError{Pos: int64(idx), Err: errVersion}
	}
	return ver, idx, nil
}

var isSpace = [256]bool{
	0:  true,
	9:  true,
	10: true,
	12: true,
	13: true,
	32: true,
}

var isDelimiter = [256]bool{
	'(': true,
	')': true,
	'<': true,
	'>': true,
	'[': true,
	']': true,
	'{': true,
	'}': true,
	'/': true,
	'%': true,
}
