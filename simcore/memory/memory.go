// Package memory implements the sparse, three-level (set -> page -> offset)
// guest address space: the paged memory component of the simulator core.
// Sets are allocated eagerly and empty; pages are allocated lazily on first
// write; reads of a never-touched address return zero without allocating
// anything. All word assembly here is little-endian-first and ISA-agnostic;
// per-ISA endian conversion is the decoder's job, not this layer's.
package memory

import (
	"fmt"
	"sort"
	"sync"
)

// Kind enumerates the host-level failure modes a memory instance can
// surface. These are configuration/geometry errors, not guest traps.
type Kind int

const (
	// BadMapping is returned when the configured bit widths cannot be
	// represented by the host addressing type.
	BadMapping Kind = iota
	// OutOfRange is returned by a bulk host-to-guest copy that would
	// overrun the configured address space.
	OutOfRange
)

func (k Kind) String() string {
	switch k {
	case BadMapping:
		return "BadMapping"
	case OutOfRange:
		return "OutOfRange"
	default:
		return "Unknown"
	}
}

// Error is the host-level error type returned by fallible memory
// operations, paralleling the fallible-constructor idiom used elsewhere in
// the core (configuration errors are values, never panics or exceptions).
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

const maxAddrBits = 64

// Memory is the sparse, paged guest address space described by
// (addrBits, pageBits, offsetBits), with setBits = addrBits - pageBits -
// offsetBits >= 0.
type Memory struct {
	addrBits, pageBits, offsetBits, setBits uint

	offsetMask, pageMask, setMask uint64
	pageSize, setCount            uint64

	mu   sync.Mutex
	sets [][]page // len(sets) == setCount; each entry nil until first touch

	startPC uint64
}

type page = []byte

// New constructs a Memory with the given geometry. It fails with a
// BadMapping error if the bit fields cannot be represented by the host's
// 64-bit addressing, or if pageBits/offsetBits are non-positive or the
// implied set count would overflow an int.
func New(addrBits, pageBits, offsetBits uint) (*Memory, error) {
	if pageBits == 0 || offsetBits == 0 {
		return nil, &Error{Kind: BadMapping, Msg: "page_bits and offset_bits must be > 0"}
	}
	if pageBits+offsetBits > addrBits {
		return nil, &Error{Kind: BadMapping, Msg: "page_bits + offset_bits exceeds addr_bits"}
	}
	if addrBits > maxAddrBits {
		return nil, &Error{Kind: BadMapping, Msg: "addr_bits exceeds host addressing width"}
	}
	setBits := addrBits - pageBits - offsetBits

	m := &Memory{
		addrBits:   addrBits,
		pageBits:   pageBits,
		offsetBits: offsetBits,
		setBits:    setBits,
		offsetMask: mask64(offsetBits),
		pageMask:   mask64(pageBits),
		setMask:    mask64(setBits),
		pageSize:   uint64(1) << offsetBits,
	}
	setCount := uint64(1) << setBits
	if setCount > (1 << 31) {
		return nil, &Error{Kind: BadMapping, Msg: "set count exceeds host allocation limits"}
	}
	m.setCount = setCount
	m.sets = make([][]page, setCount)
	return m, nil
}

func mask64(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

func (m *Memory) decompose(addr uint64) (set, pg, off uint64) {
	off = addr & m.offsetMask
	pg = (addr >> m.offsetBits) & m.pageMask
	set = (addr >> (m.offsetBits + m.pageBits)) & m.setMask
	return
}

// StartPC returns the sticky program-entry address set by the loader.
func (m *Memory) StartPC() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startPC
}

// SetStartPC is called by the loader once section bytes have been written.
func (m *Memory) SetStartPC(pc uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startPC = pc
}

// allocPage returns the page slice for (set, pg), allocating the set's
// page table on first touch to that set and a zeroed page on first touch
// to that page (the outer set slice itself is pre-sized). Caller holds m.mu.
func (m *Memory) allocPage(set, pg uint64) []byte {
	if m.sets[set] == nil {
		m.sets[set] = make([]page, m.pageMask+1)
	}
	if m.sets[set][pg] == nil {
		m.sets[set][pg] = make([]byte, m.pageSize)
	}
	return m.sets[set][pg]
}

// readByte returns the byte at addr, or zero if its page was never
// allocated. Caller holds m.mu.
func (m *Memory) readByte(addr uint64) byte {
	set, pg, off := m.decompose(addr)
	if int(set) >= len(m.sets) || m.sets[set] == nil {
		return 0
	}
	pages := m.sets[set]
	if int(pg) >= len(pages) || pages[pg] == nil {
		return 0
	}
	return pages[pg][off]
}

// writeByte stores value at addr, allocating set/page lazily. Caller holds
// m.mu.
func (m *Memory) writeByte(addr uint64, value byte) {
	set, pg, off := m.decompose(addr)
	p := m.allocPage(set, pg)
	p[off] = value
}

// ReadWord assembles n consecutive bytes starting at addr, little-endian
// first, into a uint64. n must be 1, 2, 4, or 8.
func (m *Memory) ReadWord(addr uint64, n int) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(m.readByte(addr+uint64(i))) << (8 * uint(i))
	}
	return v
}

// WriteWord writes the low n bytes of value starting at addr,
// little-endian first, allocating set/page lazily.
func (m *Memory) WriteWord(addr uint64, value uint64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.writeByte(addr+uint64(i), byte(value>>(8*uint(i))))
	}
}

// WriteWordMasked performs a read-modify-write of n bytes at addr under
// mask: only the bits set in mask are replaced, the rest are preserved.
// From the perspective of external observers this is atomic — there is no
// concurrent mutator inside the simulator core.
func (m *Memory) WriteWordMasked(addr uint64, value, mask uint64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur uint64
	for i := 0; i < n; i++ {
		cur |= uint64(m.readByte(addr+uint64(i))) << (8 * uint(i))
	}
	merged := (value & mask) | (cur &^ mask)
	for i := 0; i < n; i++ {
		m.writeByte(addr+uint64(i), byte(merged>>(8*uint(i))))
	}
}

// MemcpyHostToGuest copies n bytes from src into the guest address space
// starting at dst. It fails with OutOfRange if dst+n exceeds the
// configured address space; otherwise it returns n.
func (m *Memory) MemcpyHostToGuest(dst uint64, src []byte, n int) (int, error) {
	limit := uint64(1) << m.addrBits
	if m.addrBits >= 64 {
		limit = 0 // unrepresentable as a bound check; treat as unbounded
	}
	if limit != 0 && (dst > limit || uint64(n) > limit-dst) {
		return 0, &Error{Kind: OutOfRange, Msg: "memcpy_host_to_guest destination out of range"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.writeByte(dst+uint64(i), src[i])
	}
	return n, nil
}

// MemcpyGuestToHost copies n bytes from the guest address space starting
// at src into dst. It never fails; unmapped addresses read as zero.
func (m *Memory) MemcpyGuestToHost(dst []byte, src uint64, n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		dst[i] = m.readByte(src + uint64(i))
	}
	return n
}

// DuplicateTo snapshots every allocated page into target via
// MemcpyHostToGuest, mirroring the original's page-at-a-time duplication
// used to seed a fresh memory instance from an existing one.
func (m *Memory) DuplicateTo(target *Memory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for setIdx, pages := range m.sets {
		if pages == nil {
			continue
		}
		for pgIdx, p := range pages {
			if p == nil {
				continue
			}
			base := (uint64(setIdx) << (m.offsetBits + m.pageBits)) | (uint64(pgIdx) << m.offsetBits)
			if _, err := target.MemcpyHostToGuest(base, p, len(p)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Dump produces a stable textual dump: one "addr 0x<hex>: data 0x<hh>" line
// per non-zero byte, in ascending address order.
func (m *Memory) Dump() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	type entry struct {
		addr uint64
		data byte
	}
	var entries []entry
	for setIdx, pages := range m.sets {
		if pages == nil {
			continue
		}
		for pgIdx, p := range pages {
			if p == nil {
				continue
			}
			base := (uint64(setIdx) << (m.offsetBits + m.pageBits)) | (uint64(pgIdx) << m.offsetBits)
			for off, b := range p {
				if b != 0 {
					entries = append(entries, entry{addr: base + uint64(off), data: b})
				}
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].addr < entries[j].addr })

	var sb []byte
	for _, e := range entries {
		sb = append(sb, []byte(fmt.Sprintf("addr 0x%x: data 0x%02x\n", e.addr, e.data))...)
	}
	return string(sb)
}
