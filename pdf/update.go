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
	"fmt"
	"slices"
)

// Updater collects changed and new objects for an incremental update of an
// existing PDF file.  The update is appended to a copy of the original file,
// the original bytes are never modified.
type Updater struct {
	r       *Reader
	nextNum uint32
	objects map[uint32]Object
	refs    map[uint32]Reference
}

// NewUpdater starts an incremental update of the file read by r.
func NewUpdater(r *Reader) *Updater {
	return &Updater{
		r:       r,
		nextNum: r.Size(),
		objects: make(map[uint32]Object),
		refs:    make(map[uint32]Reference),
	}
}

// Alloc allocates an object number for a new indirect object.
func (u *Updater) Alloc() Reference {
	ref := NewReference(u.nextNum, 0)
	u.nextNum++
	return ref
}

// Put sets the value of an indirect object.  This can be used both for
// objects allocated with [Updater.Alloc] and to replace objects of the
// original file.
func (u *Updater) Put(ref Reference, obj Object) {
	u.objects[ref.Number()] = obj
	u.refs[ref.Number()] = ref
}

// Get returns the current value of an indirect object.  Objects set with
// [Updater.Put] take precedence over the objects in the original file.
func (u *Updater) Get(ref Reference) (Object, error) {
	if obj, ok := u.objects[ref.Number()]; ok {
		return obj, nil
	}
	return u.r.Get(ref)
}

// IsEmpty reports whether no objects have been set.
func (u *Updater) IsEmpty() bool {
	return len(u.objects) == 0
}

// Bytes returns the original file with the update section appended.  If no
// objects have been set, a copy of the original file is returned.
//
// The cross-reference section of the update uses the same format as the
// last section of the original file, and its /Prev entry points to that
// section.  If the cross-reference information of the original file had to
// be repaired, the update contains a complete cross-reference section
// instead.
func (u *Updater) Bytes() ([]byte, error) {
	orig := u.r.data
	if len(u.objects) == 0 {
		return bytes.Clone(orig), nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(orig)+4096))
	buf.Write(orig)
	if !bytes.HasSuffix(orig, []byte("\n")) && !bytes.HasSuffix(orig, []byte("\r")) {
		buf.WriteByte('\n')
	}
	updateStart := buf.Len()

	xref := make(map[uint32]*xRefEntry)
	complete := u.r.repaired
	if complete {
		for num, entry := range u.r.xref {
			e := *entry
			xref[num] = &e
		}
		xref[0] = &xRefEntry{Free: true, Generation: 65535}
	}

	numbers := make([]uint32, 0, len(u.objects))
	for num := range u.objects {
		numbers = append(numbers, num)
	}
	slices.Sort(numbers)
	for _, num := range numbers {
		ref := u.refs[num]
		xref[num] = &xRefEntry{Pos: int64(buf.Len()), Generation: ref.Generation()}
		err := writeIndirect(buf, ref, u.objects[num])
		if err != nil {
			return nil, err
		}
	}

	useStream := u.r.xrefIsStream
	if !useStream && complete {
		for _, entry := range xref {
			if entry.InStream != 0 {
				useStream = true
				break
			}
		}
	}

	size := u.nextNum
	var xrefRef Reference
	if useStream {
		xrefRef = NewReference(size, 0)
		size++
	}

	sum := md5.Sum(buf.Bytes()[updateStart:])
	id0 := sum[:]
	if id, ok := u.r.trailer["ID"].(Array); ok && len(id) == 2 {
		if s, ok := id[0].(String); ok {
			id0 = s
		}
	}

	trailer := Dict{
		"Size": Integer(size),
		"Root": u.r.trailer["Root"],
		"Info": u.r.trailer["Info"],
		"ID":   Array{String(id0), String(sum[:])},
	}
	if !complete {
		trailer["Prev"] = Integer(u.r.startXRef)
	}

	xrefPos := int64(buf.Len())
	var err error
	if useStream {
		xref[xrefRef.Number()] = &xRefEntry{Pos: xrefPos}
		err = writeIndirect(buf, xrefRef, makeXRefStream(xref, trailer))
	} else {
		err = writeXRefTable(buf, xref, trailer)
	}
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(buf, "\nstartxref\n%d\n%%%%EOF\n", xrefPos)

	return buf.Bytes(), nil
}
