package tracefile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/bovinespirit/apitrace/compress"
	"github.com/bovinespirit/apitrace/errs"
	"github.com/bovinespirit/apitrace/format"
	"github.com/bovinespirit/apitrace/internal/pool"
)

// containerHeaderSize is the magic plus the codec byte.
const containerHeaderSize = 3

// maxChunkLen bounds the raw and compressed sizes a chunk header may claim,
// so a corrupt header cannot drive an absurd allocation. Writers emit
// format.DefaultChunkSize chunks; the ceiling is deliberately generous.
const maxChunkLen = 1 << 26

// chunkInfo locates one container chunk: the logical offset of its first
// byte and the physical offset of its header.
type chunkInfo struct {
	logical int64
	fileOff int64
}

// containerFile reads a chunked compressed container. Chunks are
// decompressed one at a time; a chunk table built while reading forward
// supports seeking back to any previously visited logical offset.
type containerFile struct {
	f     *os.File
	r     *bufio.Reader
	size  int64
	codec compress.Codec
	isCT  format.CompressionType

	chunks   []chunkInfo
	cur      []byte
	curStart int64
	pos      int
	physOff  int64
}

func openContainer(f *os.File, br *bufio.Reader, size int64) (File, error) {
	var hdr [containerHeaderSize]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		f.Close()
		return nil, errs.ErrBadMagic
	}

	ct := format.CompressionType(hdr[2])
	codec, err := compress.GetCodec(ct)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownCompression, ct)
	}

	c := &containerFile{
		f:       f,
		r:       br,
		size:    size,
		codec:   codec,
		isCT:    ct,
		physOff: containerHeaderSize,
		chunks:  []chunkInfo{{logical: 0, fileOff: containerHeaderSize}},
	}

	return c, nil
}

func (c *containerFile) Read(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if c.pos >= len(c.cur) {
			if err := c.loadNext(); err != nil {
				if total > 0 && err == io.EOF {
					return total, nil
				}
				return total, err
			}
		}
		n := copy(p, c.cur[c.pos:])
		c.pos += n
		p = p[n:]
		total += n
	}

	return total, nil
}

func (c *containerFile) ReadByte() (byte, error) {
	if c.pos >= len(c.cur) {
		if err := c.loadNext(); err != nil {
			return 0, err
		}
	}
	b := c.cur[c.pos]
	c.pos++

	return b, nil
}

func (c *containerFile) Offset() int64 {
	return c.curStart + int64(c.pos)
}

func (c *containerFile) SupportsSeek() bool {
	return true
}

func (c *containerFile) Seek(off int64) error {
	if off >= c.curStart && off <= c.curStart+int64(len(c.cur)) {
		c.pos = int(off - c.curStart)
		return nil
	}

	// Jump to the last known chunk at or before the target, then read
	// forward. Forward seeks into unvisited territory decode ahead,
	// extending the chunk table as a side effect.
	ci := c.chunks[0]
	for _, known := range c.chunks {
		if known.logical > off {
			break
		}
		ci = known
	}
	if _, err := c.f.Seek(ci.fileOff, io.SeekStart); err != nil {
		return err
	}
	c.r.Reset(c.f)
	c.physOff = ci.fileOff
	c.cur = nil
	c.curStart = ci.logical
	c.pos = 0

	for {
		if err := c.loadNext(); err != nil {
			if err == io.EOF {
				return fmt.Errorf("%w: seek past end of container", errs.ErrTruncated)
			}
			return err
		}
		if off <= c.curStart+int64(len(c.cur)) {
			c.pos = int(off - c.curStart)
			return nil
		}
		c.pos = len(c.cur)
	}
}

func (c *containerFile) Skip(n int64) error {
	for n > 0 {
		if c.pos >= len(c.cur) {
			if err := c.loadNext(); err != nil {
				return err
			}
		}
		avail := int64(len(c.cur) - c.pos)
		if avail > n {
			avail = n
		}
		c.pos += int(avail)
		n -= avail
	}

	return nil
}

func (c *containerFile) PercentRead() int {
	if c.size <= 0 {
		return 100
	}
	pct := int(c.physOff * 100 / c.size)
	if pct > 100 {
		pct = 100
	}

	return pct
}

func (c *containerFile) Close() error {
	if c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil

	return err
}

// physByte reads one physical byte, tracking the physical offset.
func (c *containerFile) physByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.physOff++
	}

	return b, err
}

// loadNext decodes the chunk following the current one. A clean io.EOF at a
// chunk boundary is the end of the container; anything shorter mid-header or
// mid-chunk is truncation.
func (c *containerFile) loadNext() error {
	headerOff := c.physOff
	logicalStart := c.curStart + int64(len(c.cur))

	rawLen, err := binary.ReadUvarint(byteReaderFunc(c.physByte))
	if err != nil {
		if err == io.EOF && c.physOff == headerOff {
			return io.EOF
		}
		return fmt.Errorf("%w: chunk header at %d", errs.ErrTruncated, headerOff)
	}
	compLen, err := binary.ReadUvarint(byteReaderFunc(c.physByte))
	if err != nil {
		return fmt.Errorf("%w: chunk header at %d", errs.ErrTruncated, headerOff)
	}
	if rawLen > maxChunkLen || compLen > maxChunkLen {
		return fmt.Errorf("%w: chunk at %d claims %d raw / %d compressed bytes",
			errs.ErrTruncated, headerOff, rawLen, compLen)
	}

	staging := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(staging)

	comp := staging.Extend(int(compLen))
	if _, err := io.ReadFull(c.r, comp); err != nil {
		return fmt.Errorf("%w: chunk payload at %d", errs.ErrTruncated, headerOff)
	}
	c.physOff += int64(compLen)

	raw, err := c.codec.Decompress(comp)
	if err != nil {
		return fmt.Errorf("container chunk at %d: %w", headerOff, err)
	}
	if c.isCT == format.CompressionNone {
		// The noop codec aliases the pooled staging buffer.
		raw = append([]byte(nil), raw...)
	}
	if uint64(len(raw)) != rawLen {
		return fmt.Errorf("%w: chunk at %d decodes to %d bytes, header says %d",
			errs.ErrTruncated, headerOff, len(raw), rawLen)
	}

	c.cur = raw
	c.curStart = logicalStart
	c.pos = 0

	last := c.chunks[len(c.chunks)-1]
	if logicalStart > last.logical {
		c.chunks = append(c.chunks, chunkInfo{logical: logicalStart, fileOff: headerOff})
	}

	return nil
}

type byteReaderFunc func() (byte, error)

func (f byteReaderFunc) ReadByte() (byte, error) {
	return f()
}
