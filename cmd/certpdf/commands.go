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
	"bytes"
	"fmt"
	"image/png"
	"os"
	"text/tabwriter"
	"time"

	"seehuhn.de/go/certpdf/compose"
	"seehuhn.de/go/certpdf/flatten"
	"seehuhn.de/go/certpdf/render"
)

func runGenerate(args []string) error {
	fs, c := newFlagSet("generate", "")
	req := compose.Request{}
	fs.StringVar(&req.MemoNo, "memo", "", "memo number")
	fs.StringVar(&req.Purpose, "purpose", "", "purpose of the certificate")
	fs.StringVar(&req.CrewName, "name", "", "name of the crew member (required)")
	fs.StringVar(&req.CrewID, "id", "", "crew ID (required)")
	fs.BoolVar(&req.Signed, "signed", false, "add the \"Digitally signed\" watermark")
	fs.StringVar(&req.Signatory, "signatory", "", "name of the signatory")
	date := fs.String("date", "", "issue date as YYYY-MM-DD (default today)")
	out := fs.String("o", "", "output file (default standard output)")
	if err := c.parse(fs, args, 0); err != nil {
		return err
	}

	if *date != "" {
		t, err := time.Parse(time.DateOnly, *date)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		req.Date = t
	}

	data, err := compose.Generate(req)
	if err != nil {
		return err
	}
	return writeOutput(*out, data)
}

func runRender(args []string) error {
	fs, c := newFlagSet("render", "input.pdf|URL")
	page := fs.Int("page", 1, "page number")
	scale := fs.Float64("scale", 1.5, "zoom factor (1 means one pixel per point)")
	out := fs.String("o", "", "output file (default standard output)")
	if err := c.parse(fs, args, 1); err != nil {
		return err
	}

	doc, err := c.loadInput(fs.Arg(0))
	if err != nil {
		return err
	}
	img, err := render.Render(doc, *page, *scale, nil)
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}
	err = png.Encode(buf, img)
	if err != nil {
		return err
	}
	return writeOutput(*out, buf.Bytes())
}

func runAnnotate(args []string) error {
	fs, c := newFlagSet("annotate", "input.pdf|URL annotations.json")
	highlights := fs.Bool("highlights", false, "draw highlights into the output")
	out := fs.String("o", "", "output file (default standard output)")
	if err := c.parse(fs, args, 2); err != nil {
		return err
	}

	data, err := c.readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}
	annots, err := readAnnotations(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(1), err)
	}

	opt := &flatten.Options{}
	if *highlights {
		opt.Highlights = flatten.HighlightsFlatten
	}
	res, err := flatten.ExportWith(data, annots, opt)
	if err != nil {
		return err
	}
	return writeOutput(*out, res)
}

func runInfo(args []string) error {
	fs, c := newFlagSet("info", "input.pdf|URL")
	if err := c.parse(fs, args, 1); err != nil {
		return err
	}

	doc, err := c.loadInput(fs.Arg(0))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "version:\t%s\n", doc.Version())
	fmt.Fprintf(tw, "pages:\t%d\n", doc.NumPages())
	info, err := doc.Info()
	if err == nil && info != nil {
		for _, f := range []struct{ key, val string }{
			{"title", info.Title},
			{"author", info.Author},
			{"subject", info.Subject},
			{"creator", info.Creator},
			{"producer", info.Producer},
		} {
			if f.val != "" {
				fmt.Fprintf(tw, "%s:\t%s\n", f.key, f.val)
			}
		}
		if !info.CreationDate.IsZero() {
			fmt.Fprintf(tw, "created:\t%s\n", info.CreationDate.Format(time.RFC3339))
		}
	}
	tw.Flush()

	fmt.Println()
	tw = tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "page\twidth\theight\trotate\t")
	for p := 1; p <= doc.NumPages(); p++ {
		page, _ := doc.Page(p)
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%d\t\n", p, page.Width, page.Height, page.Rotate)
	}
	return tw.Flush()
}
