package isa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simcore/isa"
)

func TestParseRoundTripsEveryToken(t *testing.T) {
	tokens := []string{"mips32", "mips64", "mars", "riscv32", "riscv64", "riscv128"}
	for _, tok := range tokens {
		id, err := isa.Parse(tok)
		require.NoError(t, err)
		assert.Equal(t, tok, id.String())
	}
}

func TestParseFailsOnUnknownToken(t *testing.T) {
	_, err := isa.Parse("sparc64")
	require.Error(t, err)
	var ie *isa.InvalidISAError
	require.ErrorAs(t, err, &ie)
}

func TestWordBitsPerID(t *testing.T) {
	assert.Equal(t, 32, isa.MIPS32.WordBits())
	assert.Equal(t, 32, isa.MARS.WordBits())
	assert.Equal(t, 64, isa.MIPS64.WordBits())
	assert.Equal(t, 32, isa.RISCV32.WordBits())
	assert.Equal(t, 64, isa.RISCV64.WordBits())
	assert.Equal(t, 128, isa.RISCV128.WordBits())
}

func TestFamilyPredicates(t *testing.T) {
	assert.True(t, isa.MIPS32.IsMIPS())
	assert.True(t, isa.MARS.IsMIPS())
	assert.False(t, isa.MIPS32.IsRISCV())

	assert.True(t, isa.RISCV64.IsRISCV())
	assert.False(t, isa.RISCV64.IsMIPS())
}

func TestRegisterCountIsThirtyTwoForEveryID(t *testing.T) {
	for _, id := range []isa.ID{isa.MIPS32, isa.MIPS64, isa.MARS, isa.RISCV32, isa.RISCV64, isa.RISCV128} {
		assert.Equal(t, 32, id.RegisterCount())
	}
}
