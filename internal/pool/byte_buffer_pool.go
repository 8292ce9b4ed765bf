package pool

import "sync"

// ChunkBufferDefaultSize is the default capacity of buffers obtained from
// the pool, sized for one uncompressed container chunk.
const (
	ChunkBufferDefaultSize  = 64 * 1024
	ChunkBufferMaxThreshold = 1024 * 1024
)

// ByteBuffer is a reusable byte slice wrapper handed out by the chunk pool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (bb *ByteBuffer) MustWrite(data []byte) {
	bb.B = append(bb.B, data...)
}

// Grow ensures the buffer has capacity for at least n more bytes.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}
	grown := make([]byte, len(bb.B), len(bb.B)+n)
	copy(grown, bb.B)
	bb.B = grown
}

// Extend grows the buffer length by n bytes and returns the extension slice.
func (bb *ByteBuffer) Extend(n int) []byte {
	bb.Grow(n)
	old := len(bb.B)
	bb.B = bb.B[:old+n]

	return bb.B[old:]
}

var chunkBufferPool = sync.Pool{
	New: func() any {
		return NewByteBuffer(ChunkBufferDefaultSize)
	},
}

// GetChunkBuffer obtains a reset ByteBuffer from the chunk pool.
func GetChunkBuffer() *ByteBuffer {
	bb, _ := chunkBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutChunkBuffer returns a ByteBuffer to the chunk pool. Oversized buffers
// are dropped so the pool does not pin large allocations.
func PutChunkBuffer(bb *ByteBuffer) {
	if bb == nil || bb.Cap() > ChunkBufferMaxThreshold {
		return
	}
	chunkBufferPool.Put(bb)
}
