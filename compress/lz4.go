package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4 blocks carry no "incompressible" escape of their own, so each chunk is
// prefixed with one marker byte.
const (
	lz4BlockStored     = 0x00
	lz4BlockCompressed = 0x01
)

// LZ4Compressor compresses chunks with LZ4 block compression.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data using LZ4 block compression.
// Uses a pooled lz4.Compressor for better performance. Incompressible input
// is stored verbatim behind the marker byte.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, 1+lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[1:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		out := make([]byte, 1+len(data))
		out[0] = lz4BlockStored
		copy(out[1:], data)

		return out, nil
	}
	dst[0] = lz4BlockCompressed

	return dst[:1+n], nil
}

// Decompress decompresses an LZ4 block.
//
// The decompressed size is not stored in the block, so this uses an adaptive
// buffer strategy: start at 4x the compressed size, double on
// ErrInvalidSourceShortBuffer, and fail past a 128MB safety limit.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == lz4BlockStored {
		out := make([]byte, len(data)-1)
		copy(out, data[1:])

		return out, nil
	}
	data = data[1:]

	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024 // safety limit

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
