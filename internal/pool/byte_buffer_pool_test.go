package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBufferWriteAndReset(t *testing.T) {
	bb := NewByteBuffer(16)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 16, bb.Cap())

	bb.MustWrite([]byte("hello"))
	require.Equal(t, []byte("hello"), bb.Bytes())
	require.Equal(t, 5, bb.Len())

	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.GreaterOrEqual(t, bb.Cap(), 16)
}

func TestByteBufferExtend(t *testing.T) {
	bb := NewByteBuffer(4)
	bb.MustWrite([]byte{1, 2})

	ext := bb.Extend(3)
	require.Len(t, ext, 3)
	copy(ext, []byte{3, 4, 5})
	require.Equal(t, []byte{1, 2, 3, 4, 5}, bb.Bytes())
}

func TestByteBufferGrow(t *testing.T) {
	bb := NewByteBuffer(2)
	bb.MustWrite([]byte{1})
	bb.Grow(100)
	require.GreaterOrEqual(t, bb.Cap()-bb.Len(), 100)
	require.Equal(t, []byte{1}, bb.Bytes())
}

func TestChunkBufferPool(t *testing.T) {
	bb := GetChunkBuffer()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())

	bb.MustWrite([]byte("data"))
	PutChunkBuffer(bb)

	again := GetChunkBuffer()
	require.Equal(t, 0, again.Len())

	// nil and oversized buffers are silently dropped
	PutChunkBuffer(nil)
	big := NewByteBuffer(ChunkBufferMaxThreshold + 1)
	PutChunkBuffer(big)
}
