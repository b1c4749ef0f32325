package memory

// Accessor is a narrow interface over Memory's word and bulk-copy
// operations, mirroring the teacher's split between a concrete
// SystemBus and the MemoryBus interface (memory_bus.go). Memory
// satisfies it; the drivers use *Memory directly and the loader uses
// its own WriteableMemory contract.
type Accessor interface {
	ReadWord(addr uint64, n int) uint64
	WriteWord(addr uint64, value uint64, n int)
	WriteWordMasked(addr uint64, value, mask uint64, n int)
	MemcpyHostToGuest(dst uint64, src []byte, n int) (int, error)
	MemcpyGuestToHost(dst []byte, src uint64, n int) int
}

var _ Accessor = (*Memory)(nil)
