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

// Certpdf generates crew certificates and annotates PDF files.
//
// Usage:
//
//	certpdf generate -memo NO -purpose P -name NAME -id ID [-signed] [-o out.pdf]
//	certpdf render [-page N] [-scale S] [-o page.png] input.pdf|URL
//	certpdf annotate [-highlights] -o out.pdf input.pdf|URL annotations.json
//	certpdf info input.pdf|URL
//
// Inputs can be file names or http(s) URLs.  Binary output is written to
// standard output if no output file is given, but not if standard output
// is a terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"seehuhn.de/go/certpdf"
	"seehuhn.de/go/certpdf/internal/buildinfo"
)

const toolName = "certpdf"

var commands = []struct {
	name  string
	usage string
	run   func(args []string) error
}{
	{"generate", "create a crew certificate", runGenerate},
	{"render", "render a page as a PNG image", runRender},
	{"annotate", "draw annotations from a JSON file into a PDF", runAnnotate},
	{"info", "show document information and page sizes", runInfo},
}

// errUsage signals that the usage message has already been shown.
var errUsage = errors.New("invalid usage")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "-version", "--version", "version":
		fmt.Println(buildinfo.Version(toolName))
		return
	case "-h", "-help", "--help", "help":
		usage()
		return
	}

	for _, cmd := range commands {
		if cmd.name != os.Args[1] {
			continue
		}
		err := cmd.run(os.Args[2:])
		if errors.Is(err, errUsage) {
			os.Exit(2)
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", toolName, cmd.name, err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", toolName, os.Args[1])
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options] [arguments]\n\nCommands:\n", toolName)
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", cmd.name, cmd.usage)
	}
	fmt.Fprintf(os.Stderr, "\nUse \"%s <command> -h\" for the options of a command.\n", toolName)
}

// common holds the options shared by all commands.
type common struct {
	verbose bool
	timeout time.Duration
}

// newFlagSet creates the flag set for a command and registers the common
// options.
func newFlagSet(name, args string) (*flag.FlagSet, *common) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c := &common{}
	fs.BoolVar(&c.verbose, "v", false, "log debug messages")
	fs.DurationVar(&c.timeout, "timeout", 30*time.Second, "timeout for downloading URL inputs")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s %s [options] %s\n\nOptions:\n", toolName, name, args)
		fs.PrintDefaults()
	}
	return fs, c
}

// parse parses the command line and sets up logging.
func (c *common) parse(fs *flag.FlagSet, args []string, nArgs int) error {
	err := fs.Parse(args)
	if err != nil {
		return errUsage
	}
	if fs.NArg() != nArgs {
		fs.Usage()
		return errUsage
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	certpdf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
