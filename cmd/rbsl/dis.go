package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/rbsl/pkg/bytecode"
	"github.com/chazu/rbsl/server"
)

// handleDisCommand processes the `rbsl dis` subcommand. The argument may be
// a bytecode file or, with an .rbsl extension, a script compiled on the fly.
func handleDisCommand(args []string, e *env) error {
	fs := flag.NewFlagSet("dis", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	format := fs.String("format", "text", "Output format: text or yaml")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *format != "text" && *format != "yaml" {
		fmt.Fprintf(e.stderr, "Error: unknown format %q\n", *format)
		return errUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(e.stderr, "Error: dis takes at most one file")
		return errUsage
	}

	path := e.project.OutputPath()
	if fs.NArg() == 1 {
		path = fs.Arg(0)
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".rbsl") {
		data, err = e.compileFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	if *format == "yaml" {
		listing, _, err := bytecode.NewListingFromBytes(data, e.registry)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		enc := yaml.NewEncoder(e.stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(listing)
	}

	text, err := bytecode.DisassembleBytes(data, e.registry, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, err = fmt.Fprint(e.stdout, text)
	return err
}

// handleLSPCommand processes the `rbsl lsp` subcommand.
func handleLSPCommand(args []string, e *env) error {
	if len(args) != 0 {
		fmt.Fprintln(e.stderr, "Error: lsp takes no arguments")
		return errUsage
	}
	return server.NewLSP(e.registry).Run()
}
