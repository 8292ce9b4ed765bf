package parser

import (
	"io"

	"github.com/bovinespirit/apitrace/errs"
	"github.com/bovinespirit/apitrace/model"
)

// CachedParser replays a previously decoded call sequence without touching
// any byte source. The cursor wraps past the end, making the replay
// inherently cyclic; callers that want bounded repetition watch Wraps.
//
// Returned calls are the cached records themselves, not copies: the same
// records are handed out on every pass, so callers must treat them as
// shared and read-only.
//
// A CachedParser is never opened on its own; LastFrameLoopParser constructs
// it already populated. Bookmark operations are no-ops because the cache
// has no byte-offset concept.
type CachedParser struct {
	calls []*model.Call
	idx   int
	wraps int
}

var _ Source = (*CachedParser)(nil)

// NewCachedParser creates a replayer over calls. The slice is retained, not
// copied.
func NewCachedParser(calls []*model.Call) *CachedParser {
	return &CachedParser{calls: calls}
}

// ParseCall returns the next cached call, wrapping to the start after the
// last one. It returns io.EOF only for an empty cache.
func (c *CachedParser) ParseCall() (*model.Call, error) {
	if len(c.calls) == 0 {
		return nil, io.EOF
	}
	call := c.calls[c.idx]
	c.idx++
	if c.idx >= len(c.calls) {
		c.idx = 0
		c.wraps++
	}

	return call, nil
}

// Wraps returns how many complete passes over the cache have been replayed.
func (c *CachedParser) Wraps() int {
	return c.wraps
}

func (c *CachedParser) BookmarkFrameStart(call *model.Call) {}

func (c *CachedParser) Bookmark() Bookmark {
	return Bookmark{}
}

func (c *CachedParser) SetBookmark(b Bookmark) {}

// Open fails: a cached replayer has no file to open.
func (c *CachedParser) Open(path string) error {
	return errs.ErrReplayOnly
}

func (c *CachedParser) Close() error {
	return nil
}

func (c *CachedParser) Version() uint64 {
	return 0
}
