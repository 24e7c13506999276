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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"seehuhn.de/go/certpdf/document"
)

// maxDownload limits the size of documents fetched from URLs.
const maxDownload = 256 << 20

var errTerminal = errors.New("refusing to write binary data to a terminal, use -o")

func isURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// readInput returns the contents of a file or URL.  Read failures are
// reported as [document.ParseError] values of kind [document.IO], in the
// same way as for documents read by [document.Read].
func (c *common) readInput(name string) ([]byte, error) {
	data, err := c.fetch(name)
	if err != nil {
		return nil, &document.ParseError{Kind: document.IO, Err: err}
	}
	return data, nil
}

func (c *common) fetch(name string) ([]byte, error) {
	if !isURL(name) {
		return os.ReadFile(name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, name, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", name, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownload {
		return nil, fmt.Errorf("%s: document too large", name)
	}
	return data, nil
}

// loadInput reads and parses a PDF file or URL.
func (c *common) loadInput(name string) (*document.Document, error) {
	data, err := c.readInput(name)
	if err != nil {
		return nil, err
	}
	return document.Load(data)
}

// writeOutput writes data to the named file, or to standard output if
// name is empty or "-".
func writeOutput(name string, data []byte) error {
	if name != "" && name != "-" {
		return os.WriteFile(name, data, 0o644)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return errTerminal
	}
	_, err := os.Stdout.Write(data)
	return err
}
