// Package vm - error handling with stack traces, adapted from the
// teacher's message-send StackFrame/RuntimeError pair to the new
// closure-call-frame model.
package vm

import (
	"fmt"
	"strings"
)

// StackFrame captures one call frame's identity at the moment a runtime
// error was raised, innermost first when collected.
type StackFrame struct {
	Name       string
	SourceLine int
}

// RuntimeError is returned by Interpret when execution fails after
// compiling successfully: a message plus the call stack at the point of
// failure, innermost frame first (spec §4.4 "Errors at runtime").
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[line %d] %s", e.line(), e.Message)
	for _, frame := range e.StackTrace {
		name := frame.Name
		if name == "" {
			name = "script"
		}
		fmt.Fprintf(&b, "\n[line %d] in %s()", frame.SourceLine, name)
	}
	return b.String()
}

func (e *RuntimeError) line() int {
	if len(e.StackTrace) == 0 {
		return 0
	}
	return e.StackTrace[0].SourceLine
}

func newRuntimeError(message string, stack []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: stack}
}
