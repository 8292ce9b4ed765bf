// Package apitrace decodes recorded graphics/compute API call traces and
// replays them to a consumer one call at a time.
//
// A trace is a compact binary stream of call records: function invocations
// with typed argument trees, return values, thread ids and optional
// backtraces. Symbol definitions (functions, structs, enums, bitmasks,
// stack frames) are discovered inline in call order and cached in growing
// tables, so decoding is incremental and supports random-access resume via
// bookmarks.
//
// # Basic Usage
//
// Reading every call of a trace:
//
//	src, err := apitrace.Open("app.trace")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	for {
//	    call, err := src.ParseCall()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(call)
//	}
//
// Looping the last frame forever once the trace ends (the usual replay-GUI
// behavior), with the caller marking frame starts:
//
//	src, _ := apitrace.Open("app.trace", apitrace.WithLastFrameLoop(parser.LoopConfig{
//	    LoopOnFinish:   true,
//	    LoopContinuous: true,
//	}))
//	for {
//	    call, err := src.ParseCall()
//	    if err != nil {
//	        break
//	    }
//	    if startsFrame(call) {
//	        src.BookmarkFrameStart(call)
//	    }
//	    render(call)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the parser
// package. For fine-grained control (scan mode, bookmarks, progress), use
// parser.Parser directly; the model package holds the decoded call/value
// object model, and tracefile handles the raw and compressed container file
// shapes.
package apitrace

import (
	"github.com/bovinespirit/apitrace/internal/options"
	"github.com/bovinespirit/apitrace/parser"
)

type openConfig struct {
	loop *parser.LoopConfig
}

// Option configures Open.
type Option = options.Option[*openConfig]

// WithLastFrameLoop wraps the opened parser in a last-frame loop decorator
// with the given policy.
func WithLastFrameLoop(cfg parser.LoopConfig) Option {
	return options.NoError(func(c *openConfig) {
		c.loop = &cfg
	})
}

// Open opens the trace file at path and returns a ready playback source.
func Open(path string, opts ...Option) (parser.Source, error) {
	cfg := &openConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	p := parser.New()
	if err := p.Open(path); err != nil {
		return nil, err
	}

	if cfg.loop != nil {
		return parser.NewLastFrameLoopParser(p, *cfg.loop), nil
	}

	return p, nil
}
