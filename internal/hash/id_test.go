package hash

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	require.Equal(t, xxhash.Sum64String("glXSwapBuffers"), ID("glXSwapBuffers"))
	require.NotEqual(t, ID("glXSwapBuffers"), ID("glFlush"))
	require.Equal(t, ID("memcpy"), ID("memcpy"))
}
