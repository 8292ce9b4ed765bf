package tracefile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bovinespirit/apitrace/compress"
	"github.com/bovinespirit/apitrace/errs"
	"github.com/bovinespirit/apitrace/format"
	"github.com/bovinespirit/apitrace/internal/pool"
)

// ContainerWriter produces the chunked container shape read by Open. It
// buffers logical stream bytes and emits one compressed chunk per
// DefaultChunkSize of input. Capture tools and tests use it; the parser side
// never writes.
type ContainerWriter struct {
	w         io.Writer
	codec     compress.Codec
	staging   *pool.ByteBuffer
	chunkSize int
}

// NewContainerWriter writes the container header to w and returns a writer
// for the logical stream.
func NewContainerWriter(w io.Writer, ct format.CompressionType) (*ContainerWriter, error) {
	codec, err := compress.CreateCodec(ct, "container")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownCompression, ct)
	}

	hdr := [containerHeaderSize]byte{format.ContainerMagic0, format.ContainerMagic1, byte(ct)}
	if _, err := w.Write(hdr[:]); err != nil {
		return nil, err
	}

	return &ContainerWriter{
		w:         w,
		codec:     codec,
		staging:   pool.GetChunkBuffer(),
		chunkSize: format.DefaultChunkSize,
	}, nil
}

// Write buffers logical stream bytes, flushing full chunks as they fill.
// The returned count covers everything staged, including bytes buffered
// before a chunk flush failed.
func (cw *ContainerWriter) Write(p []byte) (int, error) {
	cw.staging.MustWrite(p)
	for cw.staging.Len() >= cw.chunkSize {
		if err := cw.flushChunk(cw.chunkSize); err != nil {
			return len(p), err
		}
	}

	return len(p), nil
}

// Flush writes any buffered partial chunk.
func (cw *ContainerWriter) Flush() error {
	if cw.staging.Len() == 0 {
		return nil
	}

	return cw.flushChunk(cw.staging.Len())
}

// Close flushes buffered data and releases the staging buffer. It does not
// close the underlying writer, which the caller owns.
func (cw *ContainerWriter) Close() error {
	err := cw.Flush()
	pool.PutChunkBuffer(cw.staging)
	cw.staging = nil

	return err
}

func (cw *ContainerWriter) flushChunk(n int) error {
	raw := cw.staging.Bytes()[:n]
	comp, err := cw.codec.Compress(raw)
	if err != nil {
		return err
	}

	var hdr [2 * binary.MaxVarintLen64]byte
	hn := binary.PutUvarint(hdr[:], uint64(len(raw)))
	hn += binary.PutUvarint(hdr[hn:], uint64(len(comp)))
	if _, err := cw.w.Write(hdr[:hn]); err != nil {
		return err
	}
	if _, err := cw.w.Write(comp); err != nil {
		return err
	}

	rest := cw.staging.Bytes()[n:]
	copy(cw.staging.B, rest)
	cw.staging.B = cw.staging.B[:len(rest)]

	return nil
}
