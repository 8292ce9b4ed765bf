package parser

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bovinespirit/apitrace/format"
	"github.com/bovinespirit/apitrace/tracefile"
)

// ==============================================================================
// Helper Functions
// ==============================================================================

// traceBuilder emits wire-format trace bytes for tests, tracking which
// signature ids it has defined so definitions appear on first use only,
// like a real capture.
type traceBuilder struct {
	buf     bytes.Buffer
	funcs   map[uint32]bool
	structs map[uint32]bool
	enums   map[uint32]bool
	masks   map[uint32]bool
	frames  map[uint32]bool
}

func newTraceBuilder() *traceBuilder {
	b := &traceBuilder{
		funcs:   make(map[uint32]bool),
		structs: make(map[uint32]bool),
		enums:   make(map[uint32]bool),
		masks:   make(map[uint32]bool),
		frames:  make(map[uint32]bool),
	}
	b.uvarint(format.CurrentVersion)

	return b
}

func (b *traceBuilder) tag(v byte) {
	b.buf.WriteByte(v)
}

func (b *traceBuilder) uvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	b.buf.Write(tmp[:n])
}

func (b *traceBuilder) svarint(v int64) {
	b.uvarint(uint64(v<<1) ^ uint64(v>>63))
}

func (b *traceBuilder) str(s string) {
	b.uvarint(uint64(len(s)))
	b.buf.WriteString(s)
}

// enter emits an enter event, defining the function signature on first use.
func (b *traceBuilder) enter(thread uint64, id uint32, name string, params ...string) {
	b.tag(byte(format.EventEnter))
	b.uvarint(thread)
	b.uvarint(uint64(id))
	if !b.funcs[id] {
		b.funcs[id] = true
		b.str(name)
		b.uvarint(uint64(len(params)))
		for _, p := range params {
			b.str(p)
		}
	}
}

// leave emits a leave event finishing the idx-th pending call.
func (b *traceBuilder) leave(idx uint64) {
	b.tag(byte(format.EventLeave))
	b.uvarint(idx)
}

func (b *traceBuilder) beginArg(i uint64) {
	b.tag(byte(format.DetailArg))
	b.uvarint(i)
}

func (b *traceBuilder) beginRet() {
	b.tag(byte(format.DetailRet))
}

func (b *traceBuilder) endDetails() {
	b.tag(byte(format.DetailEnd))
}

// Value emitters; each writes one complete value.

func (b *traceBuilder) vNull()        { b.tag(byte(format.TypeNull)) }
func (b *traceBuilder) vTrue()        { b.tag(byte(format.TypeTrue)) }
func (b *traceBuilder) vFalse()       { b.tag(byte(format.TypeFalse)) }
func (b *traceBuilder) vSInt(v int64) { b.tag(byte(format.TypeSInt)); b.svarint(v) }

func (b *traceBuilder) vUInt(v uint64) {
	b.tag(byte(format.TypeUInt))
	b.uvarint(v)
}

func (b *traceBuilder) vFloat(v float32) {
	b.tag(byte(format.TypeFloat))
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	b.buf.Write(tmp[:])
}

func (b *traceBuilder) vDouble(v float64) {
	b.tag(byte(format.TypeDouble))
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	b.buf.Write(tmp[:])
}

func (b *traceBuilder) vString(s string) {
	b.tag(byte(format.TypeString))
	b.str(s)
}

func (b *traceBuilder) vBlob(data []byte) {
	b.tag(byte(format.TypeBlob))
	b.uvarint(uint64(len(data)))
	b.buf.Write(data)
}

func (b *traceBuilder) vOpaque(addr uint64) {
	b.tag(byte(format.TypeOpaque))
	b.uvarint(addr)
}

// vEnum writes an enum value; values defines the signature on first use and
// is ignored afterwards. The underlying value follows as emitted by under.
func (b *traceBuilder) vEnum(id uint32, values map[string]int64, under func()) {
	b.tag(byte(format.TypeEnum))
	b.uvarint(uint64(id))
	if !b.enums[id] {
		b.enums[id] = true
		b.uvarint(uint64(len(values)))
		for name, v := range values {
			b.str(name)
			b.svarint(v)
		}
	}
	under()
}

func (b *traceBuilder) vBitmask(id uint32, flags map[string]uint64, bits uint64) {
	b.tag(byte(format.TypeBitmask))
	b.uvarint(uint64(id))
	if !b.masks[id] {
		b.masks[id] = true
		b.uvarint(uint64(len(flags)))
		for name, v := range flags {
			b.str(name)
			b.uvarint(v)
		}
	}
	b.uvarint(bits)
}

// vArray writes an array header; the caller emits exactly count values.
func (b *traceBuilder) vArray(count uint64) {
	b.tag(byte(format.TypeArray))
	b.uvarint(count)
}

// vStruct writes a struct header, defining the signature on first use; the
// caller emits one value per member.
func (b *traceBuilder) vStruct(id uint32, name string, members ...string) {
	b.tag(byte(format.TypeStruct))
	b.uvarint(uint64(id))
	if !b.structs[id] {
		b.structs[id] = true
		b.str(name)
		b.uvarint(uint64(len(members)))
		for _, m := range members {
			b.str(m)
		}
	}
}

func (b *traceBuilder) vRepr(text string, machine func()) {
	b.tag(byte(format.TypeRepr))
	b.str(text)
	machine()
}

// backtrace writes a backtrace detail; frames are (id, module, function,
// file, line) tuples, defined on first use.
type frameDef struct {
	id       uint32
	module   string
	function string
	file     string
	line     uint64
}

func (b *traceBuilder) backtrace(frames ...frameDef) {
	b.tag(byte(format.DetailBacktrace))
	b.uvarint(uint64(len(frames)))
	for _, f := range frames {
		b.uvarint(uint64(f.id))
		if !b.frames[f.id] {
			b.frames[f.id] = true
			b.str(f.module)
			b.str(f.function)
			b.str(f.file)
			b.uvarint(f.line)
		}
	}
}

// writeRaw stores the built stream as a raw trace file and returns its path.
func (b *traceBuilder) writeRaw(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.trace")
	require.NoError(t, os.WriteFile(path, b.buf.Bytes(), 0o644))

	return path
}

// writeContainer stores the built stream inside a compressed container.
func (b *traceBuilder) writeContainer(t *testing.T, ct format.CompressionType) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.trace")
	f, err := os.Create(path)
	require.NoError(t, err)

	cw, err := tracefile.NewContainerWriter(f, ct)
	require.NoError(t, err)
	_, err = cw.Write(b.buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, cw.Close())
	require.NoError(t, f.Close())

	return path
}

// simpleCall appends one complete synchronous call with a uint arg and a
// sint return value.
func (b *traceBuilder) simpleCall(id uint32, name string, arg uint64) {
	b.enter(1, id, name, "n")
	b.beginArg(0)
	b.vUInt(arg)
	b.endDetails()
	b.leave(0)
	b.endDetails()
}

// buildThreeCallTrace builds the canonical three-call trace used by the
// loop tests: two draw calls and a final present call that ends the frame.
func buildThreeCallTrace(t *testing.T) string {
	t.Helper()

	b := newTraceBuilder()
	b.simpleCall(0, "glClear", 0x4000)
	b.simpleCall(1, "glFlush", 1)
	b.simpleCall(2, "glXSwapBuffers", 1)

	return b.writeRaw(t)
}

// openParser opens a trace and registers cleanup.
func openParser(t *testing.T, path string) *Parser {
	t.Helper()

	p := New()
	require.NoError(t, p.Open(path))
	t.Cleanup(func() { p.Close() })

	return p
}
