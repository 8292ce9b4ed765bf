package parser

import (
	"github.com/bovinespirit/apitrace/internal/hash"
	"github.com/bovinespirit/apitrace/model"
)

// callFlagNames is the fixed, name-keyed flag table. Buffer-present calls
// end a rendering frame; error queries have no side effects on replay;
// memory helpers are tracer-injected bookkeeping, not application calls.
var callFlagNames = map[string]model.CallFlags{
	"glXSwapBuffers":           model.FlagEndFrame,
	"wglSwapBuffers":           model.FlagEndFrame,
	"eglSwapBuffers":           model.FlagEndFrame,
	"CGLFlushDrawable":         model.FlagEndFrame,
	"vkQueuePresentKHR":        model.FlagEndFrame,
	"glFrameTerminatorGREMEDY": model.FlagEndFrame,

	"glGetError":  model.FlagNoSideEffects,
	"eglGetError": model.FlagNoSideEffects,

	"memcpy": model.FlagFake,
	"malloc": model.FlagFake,
	"free":   model.FlagFake,
}

// callFlagTable keys the same entries by xxhash64 of the name, so per-call
// resolution during signature registration is a single integer lookup.
var callFlagTable = func() map[uint64]model.CallFlags {
	t := make(map[uint64]model.CallFlags, len(callFlagNames))
	for name, flags := range callFlagNames {
		t[hash.ID(name)] = flags
	}

	return t
}()

// lookupCallFlags resolves the flags for a function name, zero for unknown
// functions. Resolved once per function signature; calls inherit the result.
func lookupCallFlags(name string) model.CallFlags {
	return callFlagTable[hash.ID(name)]
}
