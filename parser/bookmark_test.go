package parser

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bovinespirit/apitrace/format"
	"github.com/bovinespirit/apitrace/model"
)

func TestSupportsBookmarks(t *testing.T) {
	p := openParser(t, buildThreeCallTrace(t))
	require.True(t, p.SupportsBookmarks())
}

func TestBookmarkRoundTrip(t *testing.T) {
	p := openParser(t, buildThreeCallTrace(t))

	_, err := p.ParseCall()
	require.NoError(t, err)

	bm := p.Bookmark()
	require.EqualValues(t, 1, bm.NextCallNo)

	c2, err := p.ParseCall()
	require.NoError(t, err)

	p.SetBookmark(bm)

	again, err := p.ParseCall()
	require.NoError(t, err)
	require.Equal(t, c2.No, again.No)
	require.Equal(t, c2.String(), again.String())
	require.Same(t, c2.Sig, again.Sig)
}

// Restoring to before a signature's defining bytes must consume the
// definition again without registering a duplicate.
func TestBookmarkSignatureReRead(t *testing.T) {
	p := openParser(t, buildThreeCallTrace(t))

	start := p.Bookmark()

	c1, err := p.ParseCall()
	require.NoError(t, err)

	p.SetBookmark(start)

	again, err := p.ParseCall()
	require.NoError(t, err)
	require.Same(t, c1.Sig, again.Sig)
	require.Equal(t, c1.String(), again.String())

	c2, err := p.ParseCall()
	require.NoError(t, err)
	require.EqualValues(t, 1, c2.No)
}

// Signature tables only grow: replaying any prefix hands out the same
// signature records.
func TestSymbolTableMonotonicity(t *testing.T) {
	b := buildRichValueTrace()
	b.simpleCall(1, "glFlush", 9)
	p := openParser(t, b.writeRaw(t))

	start := p.Bookmark()

	var sigs []*model.FunctionSig
	for {
		c, err := p.ParseCall()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		sigs = append(sigs, c.Sig)
	}
	require.Len(t, sigs, 2)

	for pass := 0; pass < 3; pass++ {
		p.SetBookmark(start)
		for i := range sigs {
			c, err := p.ParseCall()
			require.NoError(t, err)
			require.EqualValues(t, i, c.No)
			require.Same(t, sigs[i], c.Sig)
		}
	}
}

// Restore discards pending enters so the replayed stream is self-consistent.
func TestBookmarkClearsPending(t *testing.T) {
	b := newTraceBuilder()
	b.enter(1, 0, "glBegin")
	b.endDetails()
	b.enter(1, 1, "glEnd")
	b.endDetails()
	b.leave(1)
	b.endDetails()
	b.leave(0)
	b.endDetails()
	p := openParser(t, b.writeRaw(t))

	start := p.Bookmark()

	c, err := p.ParseCall()
	require.NoError(t, err)
	require.Equal(t, "glEnd", c.Name())

	p.SetBookmark(start)

	c, err = p.ParseCall()
	require.NoError(t, err)
	require.Equal(t, "glEnd", c.Name())
	c, err = p.ParseCall()
	require.NoError(t, err)
	require.Equal(t, "glBegin", c.Name())
}

// A bookmark restore also resets the end-of-stream state.
func TestBookmarkAfterEOF(t *testing.T) {
	p := openParser(t, buildThreeCallTrace(t))

	bm := p.Bookmark()
	for i := 0; i < 3; i++ {
		_, err := p.ParseCall()
		require.NoError(t, err)
	}
	_, err := p.ParseCall()
	require.ErrorIs(t, err, io.EOF)

	p.SetBookmark(bm)

	c, err := p.ParseCall()
	require.NoError(t, err)
	require.EqualValues(t, 0, c.No)
}

// Backward seeks inside a compressed container go through the chunk table.
func TestBookmarkOverContainer(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionS2,
		format.CompressionLZ4,
		format.CompressionZstd,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			b := buildRichValueTrace()
			b.simpleCall(1, "glFlush", 9)
			b.simpleCall(2, "glXSwapBuffers", 1)
			p := openParser(t, b.writeContainer(t, ct))

			_, err := p.ParseCall()
			require.NoError(t, err)

			bm := p.Bookmark()
			c2, err := p.ParseCall()
			require.NoError(t, err)
			c3, err := p.ParseCall()
			require.NoError(t, err)

			p.SetBookmark(bm)

			again2, err := p.ParseCall()
			require.NoError(t, err)
			require.Equal(t, c2.String(), again2.String())
			again3, err := p.ParseCall()
			require.NoError(t, err)
			require.Equal(t, c3.String(), again3.String())

			_, err = p.ParseCall()
			require.ErrorIs(t, err, io.EOF)
		})
	}
}
