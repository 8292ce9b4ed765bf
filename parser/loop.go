package parser

import (
	"io"

	"github.com/bovinespirit/apitrace/model"
)

// LoopConfig is the playback loop policy, fixed for the lifetime of a
// LastFrameLoopParser. It is consulted on the end-of-stream transition, not
// re-read mid-frame.
type LoopConfig struct {
	// LoopOnFinish enables looping at all once the trace is exhausted.
	LoopOnFinish bool
	// LoopContinuous loops forever; when false, LoopIter bounds the count.
	LoopContinuous bool
	// LoopIter is the number of last-frame replays when not continuous.
	LoopIter uint
}

// LastFrameLoopParser wraps a Source, captures the calls of the frame in
// progress, and when the wrapped stream ends switches to an internal
// CachedParser that replays the last completed frame under the configured
// loop policy.
//
// The caller drives frame detection: after parsing a call it deems the start
// of a new frame (typically the call following one flagged FlagEndFrame), it
// invokes BookmarkFrameStart with that call.
//
// Bookmarks delegate to the wrapped source even while looping, so they
// reflect the last real stream position; a looping replay itself is not
// resumable via bookmark. The wrapped source is caller-owned; the internal
// replayer and capture buffers belong to this decorator.
type LastFrameLoopParser struct {
	parser Source
	cfg    LoopConfig

	fp          *CachedParser
	firstCall   bool
	savingCalls bool

	frameStart     Bookmark
	lastFrameStart Bookmark

	buf   []*model.Call
	saved []*model.Call
}

var _ Source = (*LastFrameLoopParser)(nil)

// NewLastFrameLoopParser wraps an already-open source with the given loop
// policy.
func NewLastFrameLoopParser(p Source, cfg LoopConfig) *LastFrameLoopParser {
	return &LastFrameLoopParser{
		parser:    p,
		cfg:       cfg,
		firstCall: true,
	}
}

// ParseCall returns the next call from the wrapped source, buffering it
// into the in-progress frame capture. When the wrapped source reports end
// of stream and the policy allows looping, the in-progress frame is
// finalized and replayed from an internal cache.
func (l *LastFrameLoopParser) ParseCall() (*model.Call, error) {
	if l.fp != nil {
		return l.loopCall()
	}

	var pre Bookmark
	if l.firstCall {
		pre = l.parser.Bookmark()
	}

	call, err := l.parser.ParseCall()
	if err != nil {
		if err != io.EOF || !l.cfg.LoopOnFinish {
			return nil, err
		}
		return l.beginLoop()
	}

	if l.firstCall {
		// The stream opens inside an implicit first frame; capture from the
		// very first call so an unmarked trace loops in its entirety.
		l.firstCall = false
		l.savingCalls = true
		l.frameStart = pre
		l.lastFrameStart = pre
		l.buf = append(l.buf[:0], call)
	} else if l.savingCalls {
		l.buf = append(l.buf, call)
	}

	return call, nil
}

// BookmarkFrameStart records that call begins a new frame. The buffered
// calls of the frame just finished become the loop candidate, except for
// call itself, which was buffered when parsed but belongs to the new frame.
// A re-mark with no intervening call leaves the candidate untouched.
func (l *LastFrameLoopParser) BookmarkFrameStart(call *model.Call) {
	bm := l.parser.Bookmark()

	if l.savingCalls {
		n := len(l.buf)
		if n > 0 && l.buf[n-1] == call {
			n--
		}
		if n > 0 {
			l.saved = append([]*model.Call(nil), l.buf[:n]...)
			l.lastFrameStart = l.frameStart
		}
	}

	l.buf = l.buf[:0]
	if call != nil {
		l.buf = append(l.buf, call)
	}
	l.frameStart = bm
	l.savingCalls = true
	l.firstCall = false
}

// beginLoop finalizes the in-progress capture as the loop frame and
// switches delegation to the cached replayer.
func (l *LastFrameLoopParser) beginLoop() (*model.Call, error) {
	if len(l.buf) > 0 {
		l.saved = append([]*model.Call(nil), l.buf...)
	}
	l.buf = nil
	l.savingCalls = false

	if len(l.saved) == 0 {
		return nil, io.EOF
	}
	l.fp = NewCachedParser(l.saved)

	return l.loopCall()
}

func (l *LastFrameLoopParser) loopCall() (*model.Call, error) {
	if !l.cfg.LoopContinuous && uint(l.fp.Wraps()) >= l.cfg.LoopIter {
		return nil, io.EOF
	}

	return l.fp.ParseCall()
}

// Remaining Source methods delegate to the wrapped parser unconditionally.

func (l *LastFrameLoopParser) Bookmark() Bookmark {
	return l.parser.Bookmark()
}

func (l *LastFrameLoopParser) SetBookmark(b Bookmark) {
	l.parser.SetBookmark(b)
}

func (l *LastFrameLoopParser) Open(path string) error {
	return l.parser.Open(path)
}

// Close releases the decorator's replayer and buffers and closes the
// wrapped source.
func (l *LastFrameLoopParser) Close() error {
	l.fp = nil
	l.buf = nil
	l.saved = nil

	return l.parser.Close()
}

func (l *LastFrameLoopParser) Version() uint64 {
	return l.parser.Version()
}
