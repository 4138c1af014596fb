// RBSL CLI - compiles scripts to bytecode and runs them
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	"github.com/chazu/rbsl/manifest"
	"github.com/chazu/rbsl/pkg/bytecode"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("rbsl.cli")

// errUsage marks a bad invocation; usage has already been printed.
var errUsage = errors.New("usage")

// env is what every subcommand runs against.
type env struct {
	dir      string             // working directory
	project  *manifest.Manifest // found manifest, or defaults
	registry *bytecode.Registry
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rbsl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbosity := fs.Int("v", 0, "Log verbosity (0 = errors only, 1 = info, 2 = debug)")
	pause := fs.Bool("pause", false, "Wait for Enter before exiting when stdin is a terminal")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: rbsl [options] <command> [arguments]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nCommands:\n")
		fmt.Fprintf(stderr, "  build [-o out.bc] [script.rbsl]   Compile a script to bytecode\n")
		fmt.Fprintf(stderr, "  run [file.bc]                     Execute a bytecode file\n")
		fmt.Fprintf(stderr, "  exec [script.rbsl]                Compile and execute in memory\n")
		fmt.Fprintf(stderr, "  dis [-format text|yaml] [file]    Disassemble bytecode or a script\n")
		fmt.Fprintf(stderr, "  lsp                               Start the language server on stdio\n")
		fmt.Fprintf(stderr, "\nWithout a file argument the paths from %s are used,\n", manifest.FileName)
		fmt.Fprintf(stderr, "falling back to %s and %s.\n", manifest.DefaultEntry, manifest.DefaultOutput)
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	commonlog.Configure(*verbosity, nil)

	code := dispatch(fs, stdin, stdout, stderr)

	if *pause {
		waitForEnter(stdin, stdout)
	}
	return code
}

func dispatch(fs *flag.FlagSet, stdin io.Reader, stdout, stderr io.Writer) int {
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	e, err := loadEnv(stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading manifest: %v\n", err)
		return 1
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "build":
		err = handleBuildCommand(rest, e)
	case "run":
		err = handleRunCommand(rest, e)
	case "exec":
		err = handleExecCommand(rest, e)
	case "dis":
		err = handleDisCommand(rest, e)
	case "lsp":
		err = handleLSPCommand(rest, e)
	default:
		fmt.Fprintf(stderr, "Unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func loadEnv(stdin io.Reader, stdout, stderr io.Writer) (*env, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		log.Debugf("no %s found, using defaults", manifest.FileName)
		m = manifest.Default(dir)
	}

	reg, err := m.FunctionRegistry()
	if err != nil {
		return nil, err
	}

	return &env{
		dir:      dir,
		project:  m,
		registry: reg,
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
	}, nil
}

// waitForEnter blocks until a line is read, but only for interactive use.
func waitForEnter(stdin io.Reader, stdout io.Writer) {
	f, ok := stdin.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return
	}
	fmt.Fprint(stdout, "Press Enter to continue...")
	bufio.NewReader(stdin).ReadString('\n')
}
