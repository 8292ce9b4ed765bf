package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCallFlagsHas(t *testing.T) {
	f := FlagEndFrame | FlagVerbose
	require.True(t, f.Has(FlagEndFrame))
	require.True(t, f.Has(FlagEndFrame|FlagVerbose))
	require.False(t, f.Has(FlagFake))
	require.False(t, f.Has(FlagEndFrame|FlagFake))
}

func TestCallArgAbsent(t *testing.T) {
	c := &Call{
		Sig:  &FunctionSig{Name: "glVertex2i", Params: []string{"x", "y"}},
		Args: []Value{SInt(1), nil},
	}

	require.Equal(t, SInt(1), c.Arg(0))
	require.Equal(t, Null{}, c.Arg(1))
	require.Equal(t, Null{}, c.Arg(2))
	require.Equal(t, Null{}, c.Arg(-1))
}

func TestCallString(t *testing.T) {
	c := &Call{
		No:   7,
		Sig:  &FunctionSig{Name: "glVertex2i", Params: []string{"x", "y"}},
		Args: []Value{SInt(1), SInt(2)},
		Ret:  SInt(0),
	}

	require.Equal(t, "7 glVertex2i(x = 1, y = 2) = 0", c.String())
}

func TestCallNameNilSig(t *testing.T) {
	c := &Call{}
	require.Equal(t, "", c.Name())
}
