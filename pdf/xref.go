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
	"fmt"
	"io"
	"math/bits"
	"slices"
)

type xRefEntry struct {
	// Pos is the byte offset of the object, or the index within the
	// object stream if InStream is non-zero.
	Pos        int64
	InStream   Reference
	Generation uint16
	Free       bool
}

type xRefSubSection struct {
	Start, Size int
}

// findXRef locates the value of the last "startxref" keyword in the file.
func (r *Reader) findXRef() (int64, error) {
	idx := bytes.LastIndex(r.data, []byte("startxref"))
	if idx < 0 {
		return 0, &MalformedFileError{Err: errNoStartXRef}
	}
	s := newScanner(r.data, idx+len("startxref"))
	s.skipWhiteSpace()
	pos, ok := s.readUint()
	if !ok || pos <= 0 || pos >= int64(len(r.data)) {
		return 0, &MalformedFileError{
			Pos: int64(s.pos),
			Err: errors.New("invalid xref position"),
		}
	}
	return pos, nil
}

// readXRef reads the chain of cross-reference sections, starting at the
// last one in the file.  Entries in later sections take precedence.
func (r *Reader) readXRef() error {
	start, err := r.findXRef()
	if err != nil {
		return err
	}
	r.startXRef = start

	xref := make(map[uint32]*xRefEntry)
	first := true
	seen := make(map[int64]bool)
	for {
		if seen[start] {
			return &MalformedFileError{Pos: start, Err: errXRefLoop}
		}
		seen[start] = true

		pos, isTable := r.locateXRef(start)
		var dict Dict
		if isTable {
			section := make(map[uint32]*xRefEntry)
			dict, err = r.readXRefTable(section, pos)
			if err != nil {
				return err
			}
			// In hybrid files, the entries of the /XRefStm stream come
			// before the table entries of the same section.
			if stmPos, ok := dict["XRefStm"].(Integer); ok && !seen[int64(stmPos)] {
				seen[int64(stmPos)] = true
				_, err = r.readXRefStream(xref, int64(stmPos))
				if err != nil {
					return err
				}
			}
			for num, entry := range section {
				if _, exists := xref[num]; !exists {
					xref[num] = entry
				}
			}
		} else {
			dict, err = r.readXRefStream(xref, pos)
			if err != nil {
				return err
			}
		}

		if first {
			r.trailer = Dict{}
			for _, key := range []Name{"Root", "Encrypt", "Info", "ID", "Size"} {
				if val, ok := dict[key]; ok {
					r.trailer[key] = val
				}
			}
			r.xrefIsStream = !isTable
			first = false
		}

		prev, ok := dict["Prev"].(Integer)
		if !ok {
			break
		}
		if prev <= 0 || int64(prev) >= int64(len(r.data)) {
			return &MalformedFileError{
				Pos: start,
				Err: fmt.Errorf("invalid /Prev value %d", prev),
			}
		}
		start = int64(prev)
	}

	r.xref = xref
	return nil
}

// locateXRef finds the start of the cross-reference section which the file
// claims to be at pos.  Some writers are off by a few bytes, so nearby
// positions are tried as well.
func (r *Reader) locateXRef(pos int64) (int64, bool) {
	for _, delta := range []int64{0, int64(r.base), -1, 1, -2, 2} {
		p := pos + delta
		if p < 0 || p >= int64(len(r.data)) {
			continue
		}
		s := newScanner(r.data, int(p))
		s.skipWhiteSpace()
		if s.hasPrefix("xref") {
			return int64(s.pos), true
		}
		if _, ok := s.readUint(); ok && delta == 0 {
			return p, false
		}
	}
	return pos, false
}

func (r *Reader) readXRefTable(xref map[uint32]*xRefEntry, pos int64) (Dict, error) {
	s := newScanner(r.data, int(pos))
	s.pos += len("xref")

	for {
		s.skipWhiteSpace()
		if s.hasKeyword("trailer") {
			s.pos += len("trailer")
			break
		}
		start, ok1 := s.readUint()
		s.skipWhiteSpace()
		count, ok2 := s.readUint()
		if !ok1 || !ok2 {
			return nil, s.errorf("malformed xref subsection header")
		}
		for i := range count {
			s.skipWhiteSpace()
			offs, ok1 := s.readUint()
			s.skipWhiteSpace()
			gen, ok2 := s.readUint()
			s.skipWhiteSpace()
			if !ok1 || !ok2 || s.eof() {
				return nil, s.errorf("malformed xref entry")
			}
			tp := s.data[s.pos]
			s.pos++
			if tp != 'n' && tp != 'f' {
				return nil, s.errorf("malformed xref entry")
			}

			num := start + i
			if num > 1<<32-1 {
				continue
			}
			if _, exists := xref[uint32(num)]; exists {
				continue
			}
			xref[uint32(num)] = &xRefEntry{
				Pos:        offs,
				Generation: uint16(gen),
				Free:       tp == 'f',
			}
		}
	}

	obj, err := s.readObject()
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, s.errorf("invalid trailer")
	}
	return dict, nil
}

func (r *Reader) readXRefStream(xref map[uint32]*xRefEntry, pos int64) (Dict, error) {
	s := newScanner(r.data, int(pos))
	s.getLength = r.getLength
	_, obj, err := s.readIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, &MalformedFileError{Pos: pos, Err: errors.New("xref stream not found")}
	}

	w, ss, err := checkXRefStreamDict(stream.Dict)
	if err != nil {
		return nil, &MalformedFileError{Pos: pos, Err: err}
	}

	filters, err := streamFilters(nil, stream.Dict)
	if err != nil {
		return nil, &MalformedFileError{Pos: pos, Err: err}
	}
	data, _, err := decodeFilters(stream.Data, filters, false)
	if err != nil {
		return nil, &MalformedFileError{Pos: pos, Err: err}
	}

	err = decodeXRefStream(xref, data, w, ss)
	if err != nil {
		return nil, &MalformedFileError{Pos: pos, Err: err}
	}
	return stream.Dict, nil
}

func checkXRefStreamDict(dict Dict) ([]int, []xRefSubSection, error) {
	size, ok := dict["Size"].(Integer)
	if !ok || size < 0 {
		return nil, nil, errors.New("missing or invalid /Size in xref stream")
	}

	var ss []xRefSubSection
	if index, ok := dict["Index"].(Array); ok {
		if len(index)%2 != 0 {
			return nil, nil, errors.New("malformed /Index in xref stream")
		}
		for i := 0; i < len(index); i += 2 {
			start, ok1 := index[i].(Integer)
			count, ok2 := index[i+1].(Integer)
			if !ok1 || !ok2 || start < 0 || count < 0 {
				return nil, nil, errors.New("malformed /Index in xref stream")
			}
			ss = append(ss, xRefSubSection{Start: int(start), Size: int(count)})
		}
	} else {
		ss = []xRefSubSection{{Start: 0, Size: int(size)}}
	}

	wObj, ok := dict["W"].(Array)
	if !ok || len(wObj) < 3 {
		return nil, nil, errors.New("missing or invalid /W in xref stream")
	}
	w := make([]int, len(wObj))
	for i, x := range wObj {
		xi, ok := x.(Integer)
		if !ok || xi < 0 || xi > 8 {
			return nil, nil, errors.New("invalid /W entry in xref stream")
		}
		w[i] = int(xi)
	}
	return w, ss, nil
}

func decodeXRefStream(xref map[uint32]*xRefEntry, data []byte, w []int, ss []xRefSubSection) error {
	entryLen := 0
	for _, wi := range w {
		entryLen += wi
	}
	if entryLen == 0 {
		return errors.New("zero-width xref stream entries")
	}

	pos := 0
	for _, sec := range ss {
		for i := range sec.Size {
			if pos+entryLen > len(data) {
				return io.ErrUnexpectedEOF
			}
			buf := data[pos : pos+entryLen]
			pos += entryLen

			tp := int64(1) // the default when w[0] == 0
			if w[0] > 0 {
				tp = decodeInt(buf[:w[0]])
			}
			f2 := decodeInt(buf[w[0] : w[0]+w[1]])
			f3 := decodeInt(buf[w[0]+w[1] : w[0]+w[1]+w[2]])

			num := sec.Start + i
			if num > 1<<32-1 {
				continue
			}
			if _, exists := xref[uint32(num)]; exists {
				continue
			}
			switch tp {
			case 0:
				xref[uint32(num)] = &xRefEntry{Free: true, Generation: uint16(f3)}
			case 1:
				xref[uint32(num)] = &xRefEntry{Pos: f2, Generation: uint16(f3)}
			case 2:
				xref[uint32(num)] = &xRefEntry{
					Pos:      f3,
					InStream: NewReference(uint32(f2), 0),
				}
			default:
				// Unknown types are treated as references to the null object.
			}
		}
	}
	return nil
}

func decodeInt(buf []byte) (res int64) {
	for _, x := range buf {
		res = res<<8 | int64(x)
	}
	return res
}

// subSections splits a sorted list of object numbers into runs of
// consecutive numbers.
func subSections(numbers []uint32) []xRefSubSection {
	var res []xRefSubSection
	for _, n := range numbers {
		if k := len(res) - 1; k >= 0 && res[k].Start+res[k].Size == int(n) {
			res[k].Size++
		} else {
			res = append(res, xRefSubSection{Start: int(n), Size: 1})
		}
	}
	return res
}

// writeXRefTable writes a cross-reference table for the given objects,
// followed by the trailer dictionary.
func writeXRefTable(w io.Writer, xref map[uint32]*xRefEntry, trailer Dict) error {
	numbers := sortedNumbers(xref)
	_, err := io.WriteString(w, "xref\n")
	if err != nil {
		return err
	}
	for _, sec := range subSections(numbers) {
		_, err = fmt.Fprintf(w, "%d %d\n", sec.Start, sec.Size)
		if err != nil {
			return err
		}
		for num := sec.Start; num < sec.Start+sec.Size; num++ {
			entry := xref[uint32(num)]
			if entry.Free {
				_, err = fmt.Fprintf(w, "%010d %05d f\r\n", 0, entry.Generation)
			} else {
				_, err = fmt.Fprintf(w, "%010d %05d n\r\n", entry.Pos, entry.Generation)
			}
			if err != nil {
				return err
			}
		}
	}

	_, err = io.WriteString(w, "trailer\n")
	if err != nil {
		return err
	}
	return trailer.PDF(w)
}

// makeXRefStream builds a cross-reference stream for the given objects.  The
// entries of trailer are copied into the stream dictionary.
func makeXRefStream(xref map[uint32]*xRefEntry, trailer Dict) *Stream {
	numbers := sortedNumbers(xref)

	maxField2 := int64(0)
	maxField3 := int64(0)
	for _, entry := range xref {
		if entry.InStream != 0 {
			maxField2 = max(maxField2, int64(entry.InStream.Number()))
			maxField3 = max(maxField3, entry.Pos)
		} else if !entry.Free {
			maxField2 = max(maxField2, entry.Pos)
			maxField3 = max(maxField3, int64(entry.Generation))
		} else {
			maxField3 = max(maxField3, int64(entry.Generation))
		}
	}
	w2 := max((bits.Len64(uint64(maxField2))+7)/8, 1)
	w3 := max((bits.Len64(uint64(maxField3))+7)/8, 1)

	data := &bytes.Buffer{}
	for _, num := range numbers {
		entry := xref[num]
		switch {
		case entry.Free:
			data.WriteByte(0)
			encodeInt(data, 0, w2)
			encodeInt(data, uint64(entry.Generation), w3)
		case entry.InStream != 0:
			data.WriteByte(2)
			encodeInt(data, uint64(entry.InStream.Number()), w2)
			encodeInt(data, uint64(entry.Pos), w3)
		default:
			data.WriteByte(1)
			encodeInt(data, uint64(entry.Pos), w2)
			encodeInt(data, uint64(entry.Generation), w3)
		}
	}

	dict := trailer.Clone()
	dict["Type"] = Name("XRef")
	dict["W"] = Array{Integer(1), Integer(w2), Integer(w3)}
	var index Array
	for _, sec := range subSections(numbers) {
		index = append(index, Integer(sec.Start), Integer(sec.Size))
	}
	if len(index) != 2 || index[0] != Integer(0) {
		dict["Index"] = index
	}
	return NewFlateStream(dict, data.Bytes())
}

func encodeInt(data *bytes.Buffer, x uint64, w int) {
	for i := w - 1; i >= 0; i-- {
		data.WriteByte(byte(x >> (i * 8)))
	}
}

func sortedNumbers(xref map[uint32]*xRefEntry) []uint32 {
	numbers := make([]uint32, 0, len(xref))
	for num := range xref {
		numbers = append(numbers, num)
	}
	slices.Sort(numbers)
	return numbers
}
