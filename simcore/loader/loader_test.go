package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simcore/loader"
	"simcore/memory"
)

func TestLoadPlacesSectionsAndSetsStartPCFromText(t *testing.T) {
	mem, err := memory.New(32, 10, 12)
	require.NoError(t, err)

	sections := []loader.Section{
		{Addr: 0x400000, Bytes: []byte{0x01, 0x02, 0x03, 0x04}, Text: true},
		{Addr: 0x410000, Bytes: []byte{0xaa, 0xbb}},
	}
	require.NoError(t, loader.Load(mem, sections, 0))

	assert.Equal(t, uint64(0x400000), mem.StartPC())
	assert.Equal(t, uint64(0x04030201), mem.ReadWord(0x400000, 4))
	assert.Equal(t, uint64(0xbbaa), mem.ReadWord(0x410000, 2))
}

func TestLoadHonorsExplicitEntryPC(t *testing.T) {
	mem, err := memory.New(32, 10, 12)
	require.NoError(t, err)

	sections := []loader.Section{{Addr: 0x400000, Bytes: []byte{0x00}}}
	require.NoError(t, loader.Load(mem, sections, 0x400004))

	assert.Equal(t, uint64(0x400004), mem.StartPC())
}

func TestLoadFailsOnEmptySections(t *testing.T) {
	mem, err := memory.New(32, 10, 12)
	require.NoError(t, err)

	err = loader.Load(mem, nil, 0)
	require.Error(t, err)
	var le *loader.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, loader.InvalidElfFile, le.Kind)
}
