package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressionTypeValid(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		require.True(t, ct.Valid(), ct.String())
	}
	require.False(t, CompressionType(0).Valid())
	require.False(t, CompressionType(0x7f).Valid())
}

func TestStringers(t *testing.T) {
	require.Equal(t, "Enter", EventEnter.String())
	require.Equal(t, "Leave", EventLeave.String())
	require.Equal(t, "Unknown", EventType(0x7f).String())

	require.Equal(t, "Backtrace", DetailBacktrace.String())
	require.Equal(t, "Repr", TypeRepr.String())
	require.Equal(t, "Unknown", ValueType(0x7f).String())

	require.Equal(t, "S2", CompressionS2.String())
	require.Equal(t, "Unknown", CompressionType(0x7f).String())
}

// The container magic must stay disjoint from any valid version header byte.
func TestMagicVersionDisjoint(t *testing.T) {
	require.Greater(t, int(ContainerMagic0), CurrentVersion)
}
