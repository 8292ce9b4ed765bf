// Package tracefile provides the random-access byte source trace parsers
// read from.
//
// Two on-disk shapes are supported and detected by magic bytes:
//
//   - raw files store the logical trace stream directly;
//   - container files wrap the stream in independently compressed chunks
//     ("at" magic + codec byte + chunked payload), keeping large traces
//     small on disk while still supporting backward seeks through a chunk
//     table built as the file is read.
//
// All offsets exposed by File are logical stream offsets, independent of the
// on-disk representation. Files are single-owner: no File implementation is
// safe for concurrent use.
package tracefile

import (
	"bufio"
	"io"
	"os"

	"github.com/bovinespirit/apitrace/format"
)

// File is a readable, seekable view of the logical trace stream.
type File interface {
	io.Reader
	io.ByteReader

	// Offset returns the current logical offset.
	Offset() int64
	// Seek repositions the stream to an absolute logical offset. Only
	// offsets previously observed (bookmarks) or reachable by reading
	// forward are valid.
	Seek(off int64) error
	// SupportsSeek reports whether Seek is usable on this file.
	SupportsSeek() bool
	// Skip advances the stream by n bytes without surfacing the data.
	Skip(n int64) error
	// PercentRead approximates consumption of the underlying file, 0-100.
	PercentRead() int
	Close() error
}

// Open opens a trace file, transparently detecting the container format.
func Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	br := bufio.NewReader(f)
	magic, _ := br.Peek(3)
	if len(magic) == 3 && magic[0] == format.ContainerMagic0 && magic[1] == format.ContainerMagic1 &&
		format.CompressionType(magic[2]).Valid() {
		return openContainer(f, br, info.Size())
	}

	return &rawFile{f: f, r: br, size: info.Size()}, nil
}

// rawFile reads a logical stream stored directly on disk.
type rawFile struct {
	f    *os.File
	r    *bufio.Reader
	off  int64
	size int64
}

func (r *rawFile) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.off += int64(n)

	return n, err
}

func (r *rawFile) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err == nil {
		r.off++
	}

	return b, err
}

func (r *rawFile) Offset() int64 {
	return r.off
}

func (r *rawFile) Seek(off int64) error {
	if _, err := r.f.Seek(off, io.SeekStart); err != nil {
		return err
	}
	r.r.Reset(r.f)
	r.off = off

	return nil
}

func (r *rawFile) SupportsSeek() bool {
	return true
}

func (r *rawFile) Skip(n int64) error {
	for n > 0 {
		step := n
		const maxDiscard = 1 << 20
		if step > maxDiscard {
			step = maxDiscard
		}
		discarded, err := r.r.Discard(int(step))
		r.off += int64(discarded)
		if err != nil {
			return err
		}
		n -= int64(discarded)
	}

	return nil
}

func (r *rawFile) PercentRead() int {
	if r.size <= 0 {
		return 100
	}
	pct := int(r.off * 100 / r.size)
	if pct > 100 {
		pct = 100
	}

	return pct
}

func (r *rawFile) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil

	return err
}
