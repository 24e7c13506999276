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
	"maps"
	"sync"

	"seehuhn.de/go/certpdf/internal/logging"
)

// Reader gives access to the objects of a PDF file held in memory.
//
// A Reader is safe for concurrent use.
type Reader struct {
	data []byte

	// Version is the PDF version given in the file header.
	Version Version

	base         int
	xref         map[uint32]*xRefEntry
	trailer      Dict
	startXRef    int64
	xrefIsStream bool
	repaired     bool

	mu     sync.Mutex
	objStm map[Reference]*objStm
}

type objStm struct {
	data  []byte
	idx   map[uint32]int
	order []uint32
}

// NewReader parses the cross-reference information of a PDF file.  The
// Reader keeps a reference to data, which must not be modified while the
// Reader is in use.
//
// If the cross-reference information is damaged, the Reader reconstructs
// it by scanning the file for objects.  Encrypted files are rejected with
// [ErrEncrypted].
func NewReader(data []byte) (*Reader, error) {
	version, base, err := readHeaderVersion(data)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		data:    data,
		Version: version,
		base:    base,
		objStm:  make(map[Reference]*objStm),
	}

	err = r.readXRef()
	if err == nil {
		if _, hasRoot := r.trailer["Root"].(Reference); !hasRoot {
			err = &MalformedFileError{Err: errors.New("trailer has no /Root")}
		}
	}
	if err == nil {
		err = r.checkRoot()
	}
	if err != nil {
		logging.Logger().Warn("damaged cross-reference data, rebuilding",
			"error", err)
		repairErr := r.repair()
		if repairErr != nil {
			return nil, fmt.Errorf("%w (repair failed: %v)", err, repairErr)
		}
		r.repaired = true
	}

	if r.trailer["Encrypt"] != nil {
		return nil, ErrEncrypted
	}
	return r, nil
}

// checkRoot verifies that the document catalog can be read.
func (r *Reader) checkRoot() error {
	root, err := GetDict(r, r.trailer["Root"])
	if err != nil {
		return err
	}
	if root == nil {
		return &MalformedFileError{Err: errors.New("document catalog not found")}
	}
	return nil
}

// Trailer returns the trailer dictionary of the file.  For files with more
// than one cross-reference section, this is the trailer of the last
// section.
func (r *Reader) Trailer() Dict {
	return r.trailer.Clone()
}

// Catalog returns the document catalog.
func (r *Reader) Catalog() (Dict, error) {
	return GetDict(r, r.trailer["Root"])
}

// StartXRef returns the byte offset of the last cross-reference section.
func (r *Reader) StartXRef() int64 {
	return r.startXRef
}

// XRefIsStream reports whether the last cross-reference section of the file
// is a cross-reference stream.
func (r *Reader) XRefIsStream() bool {
	return r.xrefIsStream
}

// Repaired reports whether the cross-reference information had to be
// rebuilt by scanning the file.
func (r *Reader) Repaired() bool {
	return r.repaired
}

// Size returns one more than the highest object number used in the file.
func (r *Reader) Size() uint32 {
	var size uint32
	for num := range r.xref {
		size = max(size, num+1)
	}
	if s, ok := r.trailer["Size"].(Integer); ok && s > 0 && s < 1<<32 {
		size = max(size, uint32(s))
	}
	return max(size, 1)
}

// Get reads the indirect object with the given reference.  References to
// free or missing objects resolve to the null object.
func (r *Reader) Get(ref Reference) (Object, error) {
	entry := r.xref[ref.Number()]
	if entry == nil || entry.Free {
		return nil, nil
	}
	if entry.InStream != 0 {
		return r.getFromObjectStream(ref.Number(), entry.InStream)
	}
	return r.readAt(ref, entry.Pos, true)
}

func (r *Reader) readAt(ref Reference, pos int64, withStreams bool) (Object, error) {
	var firstErr error
	for _, p := range []int64{pos, pos + int64(r.base)} {
		if p < 0 || p >= int64(len(r.data)) {
			continue
		}
		s := newScanner(r.data, int(p))
		if withStreams {
			s.getLength = r.getLength
		}
		fileRef, obj, err := s.readIndirectObject()
		if err == nil && fileRef.Number() != ref.Number() {
			err = &MalformedFileError{
				Pos: p,
				Err: fmt.Errorf("xref corrupted: found %s instead of %s", fileRef, ref),
			}
		}
		if err == nil {
			return obj, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if r.base == 0 {
			break
		}
	}
	if firstErr == nil {
		firstErr = &MalformedFileError{Pos: pos, Err: errNoObject}
	}
	return nil, firstErr
}

// getLength resolves an indirect /Length value.  The target object cannot
// be a stream, which rules out infinite recursion.
func (r *Reader) getLength(ref Reference) (int, bool) {
	entry := r.xref[ref.Number()]
	if entry == nil || entry.Free {
		return 0, false
	}
	var obj Object
	var err error
	if entry.InStream != 0 {
		obj, err = r.getFromObjectStream(ref.Number(), entry.InStream)
	} else {
		obj, err = r.readAt(ref, entry.Pos, false)
	}
	if err != nil {
		return 0, false
	}
	n, ok := obj.(Integer)
	if !ok || n < 0 {
		return 0, false
	}
	return int(n), true
}

func (r *Reader) getFromObjectStream(number uint32, container Reference) (Object, error) {
	stm, err := r.loadObjStm(container)
	if err != nil {
		return nil, err
	}
	offs, ok := stm.idx[number]
	if !ok {
		return nil, &MalformedFileError{
			Err: fmt.Errorf("object %d missing from object stream %s", number, container),
		}
	}
	s := newScanner(stm.data, offs)
	return s.readObject()
}

func (r *Reader) loadObjStm(ref Reference) (*objStm, error) {
	r.mu.Lock()
	stm, ok := r.objStm[ref]
	r.mu.Unlock()
	if ok {
		return stm, nil
	}

	entry := r.xref[ref.Number()]
	if entry == nil || entry.Free || entry.InStream != 0 {
		return nil, &MalformedFileError{
			Err: fmt.Errorf("object stream %s not found", ref),
		}
	}
	obj, err := r.readAt(ref, entry.Pos, true)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*Stream)
	if !ok {
		return nil, &MalformedFileError{
			Pos: entry.Pos,
			Err: errors.New("wrong type for object stream"),
		}
	}
	stm, err = parseObjStm(stream, entry.Pos)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.objStm[ref] = stm
	r.mu.Unlock()
	return stm, nil
}

func parseObjStm(stream *Stream, errPos int64) (*objStm, error) {
	n, ok := stream.Dict["N"].(Integer)
	if !ok || n < 0 || n > 1_000_000 {
		return nil, &MalformedFileError{
			Pos: errPos,
			Err: errors.New("no valid /N for ObjStm"),
		}
	}
	first, ok := stream.Dict["First"].(Integer)
	if !ok || first < 0 {
		return nil, &MalformedFileError{
			Pos: errPos,
			Err: errors.New("no valid /First for ObjStm"),
		}
	}

	filters, err := streamFilters(nil, stream.Dict)
	if err != nil {
		return nil, &MalformedFileError{Pos: errPos, Err: err}
	}
	data, _, err := decodeFilters(stream.Data, filters, false)
	if err != nil {
		return nil, &MalformedFileError{Pos: errPos, Err: err}
	}

	s := newScanner(data, 0)
	idx := make(map[uint32]int, n)
	order := make([]uint32, 0, n)
	for range n {
		s.skipWhiteSpace()
		num, ok1 := s.readUint()
		s.skipWhiteSpace()
		offs, ok2 := s.readUint()
		if !ok1 || !ok2 {
			return nil, &MalformedFileError{
				Pos: errPos,
				Err: errors.New("malformed ObjStm header"),
			}
		}
		if num > 1<<32-1 || int(first)+int(offs) > len(data) {
			num, offs = 0, 0
		}
		order = append(order, uint32(num))
		if num > 0 {
			idx[uint32(num)] = int(first) + int(offs)
		}
	}
	return &objStm{data: data, idx: idx, order: order}, nil
}

// DecodeStream returns the data of a stream with all filters removed.
func (r *Reader) DecodeStream(s *Stream) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	filters, err := streamFilters(r, s.Dict)
	if err != nil {
		return nil, err
	}
	data, _, err := decodeFilters(s.Data, filters, false)
	return data, err
}

// DecodeImageStream removes the filters of a stream up to the first filter
// which is specific to image data, like DCTDecode.  It returns the partially
// decoded data, together with the name and the parameters of the remaining
// image filter.  If there is no image filter, the returned name is empty.
func (r *Reader) DecodeImageStream(s *Stream) ([]byte, Name, Dict, error) {
	filters, err := streamFilters(r, s.Dict)
	if err != nil {
		return nil, "", nil, err
	}
	data, rest, err := decodeFilters(s.Data, filters, true)
	if err != nil || rest == nil {
		return data, "", nil, err
	}
	return data, rest.name, rest.parms, nil
}

// repair rebuilds the cross-reference information by scanning the file for
// "n g obj" headers and trailer dictionaries.
func (r *Reader) repair() error {
	xref := make(map[uint32]*xRefEntry)
	var streams []Reference

	data := r.data
	for from := 0; ; {
		idx := bytes.Index(data[from:], []byte("obj"))
		if idx < 0 {
			break
		}
		kw := from + idx
		from = kw + 3
		if from < len(data) && !isSpace[data[from]] && !isDelimiter[data[from]] {
			continue // "objxxx"
		}
		start, num, gen, ok := parseObjHeader(data, kw)
		if !ok {
			continue
		}
		ref := NewReference(num, gen)
		xref[num] = &xRefEntry{Pos: int64(start), Generation: gen}

		if bytes.HasPrefix(bytes.TrimLeft(data[from:min(from+64, len(data))], " \t\r\n\f\000"), []byte("<<")) {
			streams = append(streams, ref)
		}
	}
	if len(xref) == 0 {
		return &MalformedFileError{Err: errors.New("no objects found")}
	}
	r.xref = xref
	r.xrefIsStream = false
	r.startXRef = 0

	// Objects in object streams are added unless they were found directly.
	trailer := Dict{}
	for _, ref := range streams {
		obj, err := r.readAt(ref, xref[ref.Number()].Pos, true)
		if err != nil {
			continue
		}
		stream, ok := obj.(*Stream)
		if !ok {
			continue
		}
		switch stream.Dict["Type"] {
		case Name("ObjStm"):
			stm, err := parseObjStm(stream, xref[ref.Number()].Pos)
			if err != nil {
				continue
			}
			for i, num := range stm.order {
				if _, exists := xref[num]; !exists && num > 0 {
					xref[num] = &xRefEntry{Pos: int64(i), InStream: ref}
				}
			}
			r.objStm[ref] = stm
		case Name("XRef"):
			mergeTrailer(trailer, stream.Dict)
			r.xrefIsStream = true
		}
	}
	for from := 0; ; {
		idx := bytes.Index(data[from:], []byte("trailer"))
		if idx < 0 {
			break
		}
		from += idx + len("trailer")
		s := newScanner(data, from)
		obj, err := s.readObject()
		if dict, ok := obj.(Dict); err == nil && ok {
			mergeTrailer(trailer, dict)
			r.xrefIsStream = false
		}
	}
	r.trailer = trailer

	if _, ok := trailer["Root"].(Reference); ok {
		if err := r.checkRoot(); err == nil {
			return nil
		}
	}

	// Fall back to searching for the catalog.
	for _, num := range sortedNumbers(xref) {
		ref := NewReference(num, xref[num].Generation)
		obj, err := r.Get(ref)
		if err != nil {
			continue
		}
		if dict, ok := obj.(Dict); ok && dict["Type"] == Name("Catalog") {
			trailer["Root"] = ref
			return nil
		}
	}
	return &MalformedFileError{Err: errors.New("document catalog not found")}
}

// mergeTrailer copies the relevant entries of a trailer dictionary found
// while scanning.  Later trailers take precedence.
func mergeTrailer(trailer, dict Dict) {
	keep := Dict{}
	for _, key := range []Name{"Root", "Encrypt", "Info", "ID"} {
		if val, ok := dict[key]; ok {
			keep[key] = val
		}
	}
	maps.Copy(trailer, keep)
}

// parseObjHeader checks whether the "obj" keyword at kw is preceded by an
// object number and a generation number.
func parseObjHeader(data []byte, kw int) (int, uint32, uint16, bool) {
	pos := kw
	skipSpaceBack := func() bool {
		start := pos
		for pos > 0 && isSpace[data[pos-1]] {
			pos--
		}
		return pos < start
	}
	readUintBack := func() (int64, bool) {
		end := pos
		for pos > 0 && data[pos-1] >= '0' && data[pos-1] <= '9' && end-pos < 10 {
			pos--
		}
		if pos == end {
			return 0, false
		}
		var x int64
		for _, c := range data[pos:end] {
			x = x*10 + int64(c-'0')
		}
		return x, true
	}

	if !skipSpaceBack() {
		return 0, 0, 0, false
	}
	gen, ok := readUintBack()
	if !ok || gen > 65535 {
		return 0, 0, 0, false
	}
	if !skipSpaceBack() {
		return 0, 0, 0, false
	}
	num, ok := readUintBack()
	if !ok || num > 1<<32-1 {
		return 0, 0, 0, false
	}
	if pos > 0 && !isSpace[data[pos-1]] && !isDelimiter[data[pos-1]] {
		return 0, 0, 0, false
	}
	return pos, uint32(num), uint16(gen), true
}
