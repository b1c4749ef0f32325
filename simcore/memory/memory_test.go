package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simcore/memory"
)

func newTestMemory(t *testing.T) *memory.Memory {
	t.Helper()
	m, err := memory.New(32, 10, 12)
	require.NoError(t, err)
	return m
}

func TestBadMapping(t *testing.T) {
	_, err := memory.New(16, 10, 12)
	require.Error(t, err)
	var memErr *memory.Error
	require.ErrorAs(t, err, &memErr)
	assert.Equal(t, memory.BadMapping, memErr.Kind)

	_, err = memory.New(32, 0, 12)
	require.Error(t, err)
}

func TestReadNeverWrittenIsZero(t *testing.T) {
	m := newTestMemory(t)
	assert.Equal(t, uint64(0), m.ReadWord(0x1234, 4))
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	m := newTestMemory(t)
	for _, width := range []int{1, 2, 4, 8} {
		addr := uint64(0x4000 + width*16)
		var value uint64 = 0x0102030405060708
		value &= (uint64(1) << (8 * uint(width))) - 1
		if width == 8 {
			value = 0x0102030405060708
		}
		m.WriteWord(addr, value, width)
		assert.Equal(t, value, m.ReadWord(addr, width), "width=%d", width)
	}
}

func TestWriteWordMaskedPreservesUnmaskedBits(t *testing.T) {
	m := newTestMemory(t)
	m.WriteWord(0x100, 0xAABBCCDD, 4)
	m.WriteWordMasked(0x100, 0x000000FF, 0x000000FF, 4)
	assert.Equal(t, uint64(0xAABBCCFF), m.ReadWord(0x100, 4))
}

func TestMemcpyOutOfRange(t *testing.T) {
	m, err := memory.New(16, 8, 4) // 64KB guest space
	require.NoError(t, err)
	src := make([]byte, 16)
	_, err = m.MemcpyHostToGuest(0xFFF8, src, 16)
	require.Error(t, err)
	var memErr *memory.Error
	require.ErrorAs(t, err, &memErr)
	assert.Equal(t, memory.OutOfRange, memErr.Kind)
}

func TestMemcpyRoundTripIdentity(t *testing.T) {
	m := newTestMemory(t)
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	n, err := m.MemcpyHostToGuest(0x2000, src, len(src))
	require.NoError(t, err)
	assert.Equal(t, len(src), n)

	dst := make([]byte, len(src))
	got := m.MemcpyGuestToHost(dst, 0x2000, len(dst))
	assert.Equal(t, len(src), got)
	assert.Equal(t, src, dst)
}

func TestMemcpyGuestToHostNeverFailsReadsZero(t *testing.T) {
	m := newTestMemory(t)
	dst := make([]byte, 4)
	n := m.MemcpyGuestToHost(dst, 0x9999, 4)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0, 0, 0, 0}, dst)
}

func TestDuplicateTo(t *testing.T) {
	src := newTestMemory(t)
	src.WriteWord(0x10, 0xDEADBEEF, 4)
	src.WriteWord(0x5000, 0x1, 1)

	dst := newTestMemory(t)
	require.NoError(t, src.DuplicateTo(dst))
	assert.Equal(t, uint64(0xDEADBEEF), dst.ReadWord(0x10, 4))
	assert.Equal(t, uint64(0x1), dst.ReadWord(0x5000, 1))
}

func TestDumpAscendingNonZeroOnly(t *testing.T) {
	m := newTestMemory(t)
	m.WriteWord(0x20, 0x00000001, 4) // only byte at 0x20 is non-zero
	m.WriteWord(0x10, 0x00000002, 4) // only byte at 0x10 is non-zero
	dump := m.Dump()
	assert.Equal(t, "addr 0x10: data 0x02\naddr 0x20: data 0x01\n", dump)
}

func TestStartPCIsSticky(t *testing.T) {
	m := newTestMemory(t)
	assert.Equal(t, uint64(0), m.StartPC())
	m.SetStartPC(0x400000)
	assert.Equal(t, uint64(0x400000), m.StartPC())
}
