package compiler

// Flatten orders a command forest so that every command comes after the
// sub-commands it consumes. Each node appears exactly once: sub-commands
// first, in order, then the command itself. The right-hand side of an
// assignment therefore always ends immediately before the assignment.
func Flatten(cmds []*Command) []*Command {
	out := make([]*Command, 0, len(cmds))
	return flattenInto(cmds, out)
}

func flattenInto(cmds []*Command, out []*Command) []*Command {
	for _, cmd := range cmds {
		if len(cmd.Subs) > 0 {
			out = flattenInto(cmd.Subs, out)
		}
		out = append(out, cmd)
	}
	return out
}
