// Package model holds the decoded trace object model: calls, values,
// signatures and stack frames. The parser package is the exclusive producer
// of these records; downstream consumers (replayers, analyzers, dump tools)
// only read them.
package model

import (
	"fmt"
	"strings"
)

// CallFlags annotate a call with properties derived from its function.
type CallFlags uint32

const (
	// FlagFake marks calls that were injected by the tracer rather than made
	// by the traced application (memcpy, free, and similar bookkeeping).
	FlagFake CallFlags = 1 << iota
	// FlagNoSideEffects marks calls that can be skipped on replay.
	FlagNoSideEffects
	// FlagEndFrame marks calls that finish a rendering frame, such as
	// buffer-present calls. Frame-loop playback keys off this flag.
	FlagEndFrame
	// FlagIncomplete marks calls whose leave record was missing when the
	// stream ended.
	FlagIncomplete
	// FlagVerbose marks calls worth surfacing in verbose dumps.
	FlagVerbose
)

// Has reports whether all bits of mask are set.
func (f CallFlags) Has(mask CallFlags) bool {
	return f&mask == mask
}

// Call is one decoded API invocation.
type Call struct {
	// No is the call sequence number assigned when the enter record was
	// decoded; strictly increasing while reading forward.
	No uint
	// Sig is the function signature, shared with every call to the same
	// function.
	Sig *FunctionSig
	// Args holds one value per declared parameter. Parameters whose value
	// was absent in the stream are Null.
	Args []Value
	// Ret is the decoded return value, nil for void calls.
	Ret Value
	// Thread identifies the thread the call was captured on.
	Thread uint64
	Flags  CallFlags
	// Backtrace is the captured stack, outermost last, or nil.
	Backtrace []*StackFrame
}

// Name returns the function name of the call.
func (c *Call) Name() string {
	if c.Sig == nil {
		return ""
	}

	return c.Sig.Name
}

// Arg returns the i-th argument, or Null when absent.
func (c *Call) Arg(i int) Value {
	if i < 0 || i >= len(c.Args) || c.Args[i] == nil {
		return Null{}
	}

	return c.Args[i]
}

func (c *Call) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d %s(", c.No, c.Name())
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if c.Sig != nil && i < len(c.Sig.Params) {
			sb.WriteString(c.Sig.Params[i])
			sb.WriteString(" = ")
		}
		if a == nil {
			sb.WriteString("NULL")
		} else {
			sb.WriteString(a.String())
		}
	}
	sb.WriteString(")")
	if c.Ret != nil {
		sb.WriteString(" = ")
		sb.WriteString(c.Ret.String())
	}

	return sb.String()
}
