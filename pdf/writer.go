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
	"crypto/md5"
	"errors"
	"fmt"
	"hash"
	"io"
	"strconv"
)

// objStmSize is the maximal number of objects stored in one object stream.
const objStmSize = 100

// WriterOptions control how a PDF file is written.
type WriterOptions struct {
	// HumanReadable disables object streams and cross-reference streams,
	// even for PDF versions which support them.
	HumanReadable bool

	// ID is the file identifier.  If this is nil, an identifier is derived
	// from the file contents.
	ID [][]byte
}

// Writer represents a PDF file open for writing.
type Writer struct {
	// Version is the PDF version of the file.
	Version Version

	w       *posWriter
	xref    map[uint32]*xRefEntry
	nextRef uint32
	id      [][]byte

	useStreams bool
	pending    []pendingObject
}

type pendingObject struct {
	ref Reference
	obj Object
}

// NewWriter prepares a PDF file for writing.  The header is written
// immediately.
func NewWriter(w io.Writer, ver Version, opt *WriterOptions) (*Writer, error) {
	if ver < V1_0 || ver >= tooHighVersion {
		return nil, errVersion
	}
	if opt == nil {
		opt = &WriterOptions{}
	}

	pdf := &Writer{
		Version:    ver,
		w:          &posWriter{w: w, h: md5.New()},
		xref:       make(map[uint32]*xRefEntry),
		nextRef:    1,
		id:         opt.ID,
		useStreams: ver >= V1_5 && !opt.HumanReadable,
	}

	_, err := fmt.Fprintf(pdf.w, "%%PDF-%s\n%%\x80\x80\x80\x80\n", ver)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// Alloc allocates an object number for an indirect object.
func (pdf *Writer) Alloc() Reference {
	ref := NewReference(pdf.nextRef, 0)
	pdf.nextRef++
	return ref
}

// Put writes an object to the PDF file, as an indirect object.  The
// reference must have been allocated with [Writer.Alloc].
//
// Objects which are not streams may be collected into an object stream, and
// are then only written when the stream is full or when the Writer is
// closed.
func (pdf *Writer) Put(ref Reference, obj Object) error {
	if pdf.w == nil {
		return errors.New("writer is closed")
	}
	num := ref.Number()
	if num == 0 || num >= pdf.nextRef {
		return fmt.Errorf("reference %s was not allocated", ref)
	}
	if _, seen := pdf.xref[num]; seen {
		return fmt.Errorf("object %s already written", ref)
	}

	_, isStream := obj.(*Stream)
	if pdf.useStreams && !isStream && ref.Generation() == 0 && obj != nil {
		pdf.xref[num] = &xRefEntry{} // placeholder, filled in by flush
		pdf.pending = append(pdf.pending, pendingObject{ref: ref, obj: obj})
		if len(pdf.pending) >= objStmSize {
			return pdf.flush()
		}
		return nil
	}

	pos := pdf.w.pos
	err := writeIndirect(pdf.w, ref, obj)
	if err != nil {
		return err
	}
	pdf.xref[num] = &xRefEntry{Pos: pos, Generation: ref.Generation()}
	return nil
}

// flush writes the pending objects into a new object stream.
func (pdf *Writer) flush() error {
	if len(pdf.pending) == 0 {
		return nil
	}

	head := &bytes.Buffer{}
	body := &bytes.Buffer{}
	for i, p := range pdf.pending {
		if i > 0 {
			head.WriteByte(' ')
			body.WriteByte('\n')
		}
		head.WriteString(strconv.FormatUint(uint64(p.ref.Number()), 10))
		head.WriteByte(' ')
		head.WriteString(strconv.Itoa(body.Len()))
		err := writeObject(body, p.obj)
		if err != nil {
			return err
		}
	}
	head.WriteByte('\n')

	stmRef := pdf.Alloc()
	for i, p := range pdf.pending {
		pdf.xref[p.ref.Number()] = &xRefEntry{Pos: int64(i), InStream: stmRef}
	}
	n := len(pdf.pending)
	pdf.pending = pdf.pending[:0]

	stm := NewFlateStream(Dict{
		"Type":  Name("ObjStm"),
		"N":     Integer(n),
		"First": Integer(head.Len()),
	}, append(head.Bytes(), body.Bytes()...))

	pos := pdf.w.pos
	err := writeIndirect(pdf.w, stmRef, stm)
	if err != nil {
		return err
	}
	pdf.xref[stmRef.Number()] = &xRefEntry{Pos: pos}
	return nil
}

// Close writes the cross-reference information and the trailer.  The
// trailer must contain the /Root entry, /Size and /ID are filled in
// automatically.  If the underlying io.Writer has a Close method, it is
// not called.
func (pdf *Writer) Close(trailer Dict) error {
	if pdf.w == nil {
		return errors.New("writer is closed")
	}
	if _, ok := trailer["Root"].(Reference); !ok {
		return errors.New("missing /Root")
	}

	err := pdf.flush()
	if err != nil {
		return err
	}

	var xrefRef Reference
	if pdf.useStreams {
		xrefRef = pdf.Alloc()
	}

	xref := make(map[uint32]*xRefEntry, pdf.nextRef)
	xref[0] = &xRefEntry{Free: true, Generation: 65535}
	for num := uint32(1); num < pdf.nextRef; num++ {
		entry, ok := pdf.xref[num]
		if !ok {
			entry = &xRefEntry{Free: true}
		}
		xref[num] = entry
	}

	id := pdf.id
	if id == nil {
		sum := pdf.w.h.Sum(nil)
		id = [][]byte{sum, sum}
	}

	dict := trailer.Clone()
	dict["Size"] = Integer(pdf.nextRef)
	dict["ID"] = Array{String(id[0]), String(id[len(id)-1])}

	xrefPos := pdf.w.pos
	if pdf.useStreams {
		xref[xrefRef.Number()] = &xRefEntry{Pos: xrefPos}
		err = writeIndirect(pdf.w, xrefRef, makeXRefStream(xref, dict))
	} else {
		err = writeXRefTable(pdf.w, xref, dict)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(pdf.w, "\nstartxref\n%d\n%%%%EOF\n", xrefPos)
	if err != nil {
		return err
	}
	pdf.w = nil
	return nil
}

func writeIndirect(w io.Writer, ref Reference, obj Object) error {
	_, err := fmt.Fprintf(w, "%d %d obj\n", ref.Number(), ref.Generation())
	if err != nil {
		return err
	}
	err = writeObject(w, obj)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\nendobj\n")
	return err
}

type posWriter struct {
	w   io.Writer
	h   hash.Hash
	pos int64
}

func (w *posWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	if w.h != nil {
		w.h.Write(p[:n])
	}
	return n, err
}
