package grpcclient

import "io"

// SetTerminalCheck replaces the terminal check of the edit command until the
// returned func is called.
func SetTerminalCheck(fn func(io.Writer) bool) (restore func()) {
	prev := isTerminal
	isTerminal = fn
	return func() { isTerminal = prev }
}
