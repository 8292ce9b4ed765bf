package compress

// ZstdCompressor compresses chunks with Zstandard.
//
// Zstd trades chunk encode speed for ratio, which suits archived traces that
// are replayed rarely: capture once, store small, decompress at replay time.
//
// The implementation is selected at build time: a cgo-backed gozstd variant
// and a pure-Go klauspost variant share this type, see zstd_cgo.go and
// zstd_pure.go.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
