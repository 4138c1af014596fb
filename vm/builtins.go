package vm

import (
	"fmt"
	"strings"
)

// Builtin names referenced by registry entries.
const (
	BuiltinConcat = "concat"
	BuiltinPrint  = "print"
)

func builtins() map[string]Native {
	return map[string]Native{
		BuiltinConcat: concatNative,
		BuiltinPrint:  printNative,
	}
}

// concatNative joins every argument in order into the destination temporary.
func concatNative(st *State, args []string, dest uint16) error {
	st.SetTemp(dest, strings.Join(args, ""))
	return nil
}

// printNative writes the first argument and a newline. It binds nothing.
func printNative(st *State, args []string, _ uint16) error {
	var line string
	if len(args) > 0 {
		line = args[0]
	}
	_, err := fmt.Fprintln(st.Output(), line)
	return err
}
