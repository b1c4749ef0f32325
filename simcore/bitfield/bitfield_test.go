package bitfield_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"simcore/bitfield"
)

func TestMask(t *testing.T) {
	assert.Equal(t, uint64(0), bitfield.Mask(0))
	assert.Equal(t, uint64(0xF), bitfield.Mask(4))
	assert.Equal(t, ^uint64(0), bitfield.Mask(64))
}

func TestBits(t *testing.T) {
	v := uint64(0b1011_0110)
	assert.Equal(t, uint64(0b0110), bitfield.Bits(v, 0, 3))
	assert.Equal(t, uint64(0b1011), bitfield.Bits(v, 4, 7))
}

func TestSignExtend(t *testing.T) {
	// 16-bit immediate 0xFFFF -> -1 as 64-bit
	assert.Equal(t, ^uint64(0), bitfield.SignExtend(0xFFFF, 16))
	assert.Equal(t, uint64(0x7FFF), bitfield.SignExtend(0x7FFF, 16))
}

func TestZeroExtend(t *testing.T) {
	assert.Equal(t, uint64(0xFFFF), bitfield.ZeroExtend(0xFFFFFFFF, 16))
}

func TestSar(t *testing.T) {
	// -8 (32-bit) >> 1 arithmetic == -4
	v := uint64(0xFFFFFFF8)
	got := bitfield.Sar(v, 1, 32)
	assert.Equal(t, uint64(0xFFFFFFFC), got)

	// shift by zero is a no-op (width-masked)
	assert.Equal(t, uint64(0xFFFFFFF8), bitfield.Sar(v, 0, 32))

	// positive value behaves like logical shift
	assert.Equal(t, uint64(2), bitfield.Sar(4, 1, 32))
}

func TestUint128Arithmetic(t *testing.T) {
	a := bitfield.Uint128{Hi: 0, Lo: ^uint64(0)}
	b := bitfield.Uint128FromUint64(1, false)
	sum := a.Add(b)
	assert.Equal(t, bitfield.Uint128{Hi: 1, Lo: 0}, sum)

	back := sum.Sub(b)
	assert.Equal(t, a, back)

	shifted := bitfield.Uint128FromUint64(1, false).Shl(64)
	assert.Equal(t, bitfield.Uint128{Hi: 1, Lo: 0}, shifted)
	assert.Equal(t, bitfield.Uint128FromUint64(1, false), shifted.Shr(64))
}

func TestUint128FromUint64SignExtends(t *testing.T) {
	neg := bitfield.Uint128FromUint64(^uint64(0), true)
	assert.Equal(t, ^uint64(0), neg.Hi)
	assert.False(t, neg.IsZero())
}
