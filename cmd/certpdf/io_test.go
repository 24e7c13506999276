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

package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"seehuhn.de/go/certpdf/document"
)

func TestReadInputErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &common{timeout: 5 * time.Second}
	names := []string{
		filepath.Join(t.TempDir(), "missing.pdf"),
		srv.URL + "/missing.pdf",
	}
	for _, name := range names {
		_, err := c.readInput(name)
		if !errors.Is(err, document.ErrIO) {
			t.Errorf("%s: got %v, want ErrIO", name, err)
		}
		if _, err := c.loadInput(name); !errors.Is(err, document.ErrIO) {
			t.Errorf("%s: loadInput returned %v", name, err)
		}
	}
}

func TestReadInput(t *testing.T) {
	body := []byte("%PDF-1.7\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	c := &common{timeout: 5 * time.Second}
	data, err := c.readInput(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(body) {
		t.Errorf("got %q, want %q", data, body)
	}
}
