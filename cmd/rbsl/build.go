package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/rbsl/compiler"
	"github.com/chazu/rbsl/store"
	"github.com/chazu/rbsl/vm"
)

// handleBuildCommand processes the `rbsl build` subcommand.
// Usage:
//
//	rbsl build                       # manifest entry -> manifest output
//	rbsl build -o out.bc script.rbsl
func handleBuildCommand(args []string, e *env) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	output := fs.String("o", "", "Output bytecode file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(e.stderr, "Error: build takes at most one script")
		return errUsage
	}

	script := e.project.EntryPath()
	if fs.NArg() == 1 {
		script = fs.Arg(0)
	}
	if *output == "" {
		*output = e.project.OutputPath()
	}

	data, err := e.compileFile(script)
	if err != nil {
		return err
	}

	// Nothing is written unless compile and encode both succeeded.
	if err := os.MkdirAll(filepath.Dir(*output), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", *output, err)
	}
	log.Infof("wrote %d bytes to %s", len(data), *output)
	return nil
}

// handleRunCommand processes the `rbsl run` subcommand.
func handleRunCommand(args []string, e *env) error {
	if len(args) > 1 {
		fmt.Fprintln(e.stderr, "Error: run takes at most one bytecode file")
		return errUsage
	}
	path := e.project.OutputPath()
	if len(args) == 1 {
		path = args[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	return e.execute(data)
}

// handleExecCommand processes the `rbsl exec` subcommand: compile and run
// without touching the output file.
func handleExecCommand(args []string, e *env) error {
	if len(args) > 1 {
		fmt.Fprintln(e.stderr, "Error: exec takes at most one script")
		return errUsage
	}
	script := e.project.EntryPath()
	if len(args) == 1 {
		script = args[0]
	}

	data, err := e.compileFile(script)
	if err != nil {
		return err
	}
	return e.execute(data)
}

// compileFile reads and compiles a script, going through the compile cache
// when the manifest configures one.
func (e *env) compileFile(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if cachePath := e.project.CachePath(); cachePath != "" {
		s, err := store.Open(cachePath)
		if err != nil {
			log.Warningf("compile cache unavailable: %s", err)
		} else {
			defer s.Close()
			data, hit, err := s.Build(context.Background(), string(src), e.registry)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			log.Debugf("%s: cache hit %t", path, hit)
			return data, nil
		}
	}

	data, err := compiler.Build(string(src), e.registry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func (e *env) execute(data []byte) error {
	m, err := vm.New(e.registry, vm.WithOutput(e.stdout))
	if err != nil {
		return err
	}
	_, err = m.Run(data)
	return err
}
