// Package parser decodes recorded API call traces into model.Call records
// and replays them one call at a time.
//
// The central type is Parser, which pulls bytes from a tracefile.File,
// grows per-kind signature tables as definitions are discovered inline in
// the stream, and produces calls in completion order. Two decorators
// compose over the same Source interface: CachedParser replays an
// already-decoded call sequence cyclically, and LastFrameLoopParser
// captures the final frame of a trace and loops it when the underlying
// stream is exhausted.
//
// All types here are single-owner: one playback session, one goroutine.
// Independent sessions over the same trace file use independent Parser
// instances with their own signature tables.
package parser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bovinespirit/apitrace/endian"
	"github.com/bovinespirit/apitrace/errs"
	"github.com/bovinespirit/apitrace/format"
	"github.com/bovinespirit/apitrace/model"
	"github.com/bovinespirit/apitrace/tracefile"
)

// maxAlloc bounds any single length-prefixed allocation (strings, blobs,
// arrays) so a corrupt length cannot exhaust memory.
const maxAlloc = 1 << 26

// Bookmark is a resumable snapshot of a parser's position. Restoring one
// repositions the byte source and resets the call counter; it never touches
// the signature tables, which only grow.
type Bookmark struct {
	Offset     int64
	NextCallNo uint
}

// Source is the playback interface shared by Parser and its decorators, so
// replay-control wrappers compose transparently.
type Source interface {
	// ParseCall decodes and returns the next call. io.EOF signals the clean
	// end of the stream; any other error is fatal to the session.
	ParseCall() (*model.Call, error)
	// BookmarkFrameStart notifies the source that call begins a new frame.
	// Only frame-aware decorators act on it.
	BookmarkFrameStart(call *model.Call)
	Bookmark() Bookmark
	SetBookmark(b Bookmark)
	Open(path string) error
	Close() error
	Version() uint64
}

// mode selects the value traversal strategy: materializing full decode, or
// byte-equivalent skipping for fast scans.
type mode int

const (
	modeFull mode = iota
	modeScan
)

// sigEntry pairs a registered signature with the offset its definition was
// read at. The offset decides, after a bookmark restore, whether definition
// bytes are present again at a reference or the cached entry applies.
type sigEntry[T any] struct {
	sig        *T
	fileOffset int64
}

// sigTable is a dense append-only registry indexed by signature id.
type sigTable[T any] struct {
	entries []sigEntry[T]
}

func (t *sigTable[T]) get(id uint32) (sigEntry[T], bool) {
	if int(id) >= len(t.entries) || t.entries[id].sig == nil {
		return sigEntry[T]{}, false
	}

	return t.entries[id], true
}

func (t *sigTable[T]) put(id uint32, sig *T, fileOffset int64) {
	for int(id) >= len(t.entries) {
		t.entries = append(t.entries, sigEntry[T]{})
	}
	t.entries[id] = sigEntry[T]{sig: sig, fileOffset: fileOffset}
}

// Parser is the core trace decoder. It owns its byte source and signature
// tables for its lifetime; Close releases both.
type Parser struct {
	file   tracefile.File
	engine endian.EndianEngine

	version    uint64
	nextCallNo uint

	functions sigTable[model.FunctionSig]
	structs   sigTable[model.StructSig]
	enums     sigTable[model.EnumSig]
	bitmasks  sigTable[model.BitmaskSig]
	frames    sigTable[model.StackFrame]

	// pending holds entered calls whose leave record has not arrived yet;
	// leaves may complete them out of order.
	pending []*model.Call
	eof     bool
}

var _ Source = (*Parser)(nil)

// New creates a parser for little-endian trace streams. Open must be called
// before any decoding.
func New() *Parser {
	return NewWithEngine(endian.GetLittleEndianEngine())
}

// NewWithEngine creates a parser that decodes fixed-width payloads with the
// given byte order, for streams captured by a big-endian producer.
func NewWithEngine(engine endian.EndianEngine) *Parser {
	return &Parser{
		engine: engine,
	}
}

// Open opens the trace at path and reads its version header. It fails on
// unreadable input or a version this build does not support.
func (p *Parser) Open(path string) error {
	f, err := tracefile.Open(path)
	if err != nil {
		return err
	}

	version, err := binary.ReadUvarint(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: missing version header", errs.ErrTruncated)
	}
	if version == 0 || version > format.CurrentVersion {
		f.Close()
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, version)
	}

	p.Close()
	p.file = f
	p.version = version
	p.nextCallNo = 0
	p.eof = false

	return nil
}

// Close releases the byte source and signature tables. Safe to call
// multiple times and on a never-opened parser.
func (p *Parser) Close() error {
	var err error
	if p.file != nil {
		err = p.file.Close()
		p.file = nil
	}
	p.functions = sigTable[model.FunctionSig]{}
	p.structs = sigTable[model.StructSig]{}
	p.enums = sigTable[model.EnumSig]{}
	p.bitmasks = sigTable[model.BitmaskSig]{}
	p.frames = sigTable[model.StackFrame]{}
	p.pending = nil

	return err
}

// Version returns the decoded header version, zero before Open.
func (p *Parser) Version() uint64 {
	return p.version
}

// PercentRead approximates how much of the underlying file has been
// consumed, 0-100.
func (p *Parser) PercentRead() int {
	if p.file == nil {
		return 0
	}

	return p.file.PercentRead()
}

// SupportsBookmarks reports whether the byte source can seek, which
// bookmark restore requires.
func (p *Parser) SupportsBookmarks() bool {
	return p.file != nil && p.file.SupportsSeek()
}

// Bookmark captures the current position and call counter.
func (p *Parser) Bookmark() Bookmark {
	b := Bookmark{NextCallNo: p.nextCallNo}
	if p.file != nil {
		b.Offset = p.file.Offset()
	}

	return b
}

// SetBookmark restores a snapshot previously obtained from Bookmark. The
// byte source is repositioned and the call counter reset; signature tables
// are left intact and revalidated against recorded defining offsets as
// decoding proceeds.
func (p *Parser) SetBookmark(b Bookmark) {
	if p.file == nil || !p.file.SupportsSeek() {
		return
	}
	if err := p.file.Seek(b.Offset); err != nil {
		return
	}
	p.nextCallNo = b.NextCallNo
	p.pending = p.pending[:0]
	p.eof = false
}

// BookmarkFrameStart is a no-op on the core parser; frame bookkeeping is a
// decorator concern. The method exists so decorators compose over Source.
func (p *Parser) BookmarkFrameStart(call *model.Call) {}

// ParseCall decodes and returns the next call, materializing its values.
// It returns io.EOF at the clean end of the stream.
func (p *Parser) ParseCall() (*model.Call, error) {
	return p.parseCall(modeFull)
}

// ScanCall decodes the next call in skipping mode, advancing the stream
// position and call counter without materializing argument values.
func (p *Parser) ScanCall() error {
	_, err := p.parseCall(modeScan)

	return err
}

// parseCall reads events until one call is completed or the stream ends.
// At end of stream, still-pending calls are drained in enter order, each
// flagged incomplete.
func (p *Parser) parseCall(m mode) (*model.Call, error) {
	if p.file == nil {
		return nil, io.EOF
	}

	for {
		if p.eof {
			return p.drainPending()
		}

		tag, err := p.file.ReadByte()
		if err != nil {
			if err == io.EOF {
				p.eof = true
				continue
			}
			return nil, err
		}

		switch format.EventType(tag) {
		case format.EventEnter:
			if err := p.parseEnter(m); err != nil {
				return nil, err
			}
		case format.EventLeave:
			call, err := p.parseLeave(m)
			if err != nil {
				return nil, err
			}
			return call, nil
		default:
			return nil, fmt.Errorf("%w: 0x%02x at offset %d",
				errs.ErrUnknownEvent, tag, p.file.Offset()-1)
		}
	}
}

func (p *Parser) drainPending() (*model.Call, error) {
	if len(p.pending) == 0 {
		return nil, io.EOF
	}
	call := p.pending[0]
	p.pending = p.pending[1:]
	call.Flags |= model.FlagIncomplete

	return call, nil
}

// parseEnter decodes an enter event and appends the new call to the
// pending list. The call number is assigned here, at enter order.
func (p *Parser) parseEnter(m mode) error {
	thread, err := p.readUvarint()
	if err != nil {
		return err
	}
	sig, err := p.parseFunctionSig()
	if err != nil {
		return err
	}

	call := &model.Call{
		No:     p.nextCallNo,
		Sig:    sig,
		Thread: thread,
		Flags:  sig.Flags,
	}
	p.nextCallNo++
	if m == modeFull {
		call.Args = make([]model.Value, len(sig.Params))
	}

	if err := p.parseCallDetails(call, m); err != nil {
		return err
	}
	p.pending = append(p.pending, call)

	return nil
}

// parseLeave decodes a leave event and returns the call it completes.
func (p *Parser) parseLeave(m mode) (*model.Call, error) {
	idx, err := p.readUvarint()
	if err != nil {
		return nil, err
	}
	if idx >= uint64(len(p.pending)) {
		return nil, fmt.Errorf("%w: index %d with %d pending at offset %d",
			errs.ErrBadLeaveIndex, idx, len(p.pending), p.file.Offset())
	}
	call := p.pending[idx]
	copy(p.pending[idx:], p.pending[idx+1:])
	p.pending = p.pending[:len(p.pending)-1]

	if err := p.parseCallDetails(call, m); err != nil {
		return nil, err
	}

	return call, nil
}

// parseCallDetails reads detail records until the end tag. In skipping mode
// values are traversed without allocation but signature registration still
// happens, keeping the tables identical across modes.
func (p *Parser) parseCallDetails(call *model.Call, m mode) error {
	for {
		tag, err := p.file.ReadByte()
		if err != nil {
			return p.truncated(err)
		}

		switch format.DetailType(tag) {
		case format.DetailEnd:
			return nil

		case format.DetailArg:
			idx, err := p.readUvarint()
			if err != nil {
				return err
			}
			if idx > maxAlloc {
				return fmt.Errorf("%w: argument index %d at offset %d",
					errs.ErrTruncated, idx, p.file.Offset())
			}
			v, err := p.parseValue(m)
			if err != nil {
				return err
			}
			if m == modeFull {
				for int(idx) >= len(call.Args) {
					call.Args = append(call.Args, nil)
				}
				call.Args[idx] = v
			}

		case format.DetailRet:
			v, err := p.parseValue(m)
			if err != nil {
				return err
			}
			if m == modeFull {
				call.Ret = v
			}

		case format.DetailBacktrace:
			if err := p.parseBacktrace(call, m); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: 0x%02x at offset %d",
				errs.ErrUnknownDetail, tag, p.file.Offset()-1)
		}
	}
}

func (p *Parser) parseBacktrace(call *model.Call, m mode) error {
	count, err := p.readUvarint()
	if err != nil {
		return err
	}
	if count > maxAlloc {
		return fmt.Errorf("%w: backtrace of %d frames at offset %d",
			errs.ErrTruncated, count, p.file.Offset())
	}

	var frames []*model.StackFrame
	if m == modeFull {
		frames = make([]*model.StackFrame, 0, count)
	}
	for i := uint64(0); i < count; i++ {
		frame, err := p.parseStackFrame()
		if err != nil {
			return err
		}
		if m == modeFull {
			frames = append(frames, frame)
		}
	}
	if m == modeFull {
		call.Backtrace = frames
	}

	return nil
}

// --- low-level readers -----------------------------------------------------

// truncated wraps a mid-record read failure with the current offset.
func (p *Parser) truncated(err error) error {
	return fmt.Errorf("%w at offset %d: %v", errs.ErrTruncated, p.file.Offset(), err)
}

func (p *Parser) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(p.file)
	if err != nil {
		return 0, p.truncated(err)
	}

	return v, nil
}

// readSint reads a zigzag-encoded signed varint.
func (p *Parser) readSint() (int64, error) {
	u, err := p.readUvarint()
	if err != nil {
		return 0, err
	}

	return int64(u>>1) ^ -int64(u&1), nil
}

func (p *Parser) readString() (string, error) {
	n, err := p.readUvarint()
	if err != nil {
		return "", err
	}
	if n > maxAlloc {
		return "", fmt.Errorf("%w: string of %d bytes at offset %d",
			errs.ErrTruncated, n, p.file.Offset())
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.file, buf); err != nil {
		return "", p.truncated(err)
	}

	return string(buf), nil
}

func (p *Parser) skipString() error {
	n, err := p.readUvarint()
	if err != nil {
		return err
	}
	if err := p.file.Skip(int64(n)); err != nil {
		return p.truncated(err)
	}

	return nil
}

func (p *Parser) readFloat() (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(p.file, buf[:]); err != nil {
		return 0, p.truncated(err)
	}

	return math.Float32frombits(p.engine.Uint32(buf[:])), nil
}

func (p *Parser) readDouble() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(p.file, buf[:]); err != nil {
		return 0, p.truncated(err)
	}

	return math.Float64frombits(p.engine.Uint64(buf[:])), nil
}

// sigBodyError maps an end-of-stream inside a signature body to a dangling
// reference: the id was unknown and no complete definition followed.
func (p *Parser) sigBodyError(kind string, id uint32, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, errs.ErrTruncated) {
		return fmt.Errorf("%w: %s sig %d at offset %d",
			errs.ErrDanglingSignature, kind, id, p.file.Offset())
	}

	return err
}
