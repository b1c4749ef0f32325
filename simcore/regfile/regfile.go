// Package regfile implements the ISA-sized integer register vector, with
// zero-register semantics where the ISA mandates it (writes to register 0
// are silently discarded), plus a handful of named control registers
// (cause, epc, status) addressable by stable indices alongside PC.
package regfile

import "simcore/isa"

// Control register indices, stable across the life of a File.
const (
	Cause = iota
	EPC
	Status
	numControl
)

// File is the general-purpose register vector for one CPU core, plus its
// control registers. Both MIPS and RISC-V integer register files here are
// modeled as 32 uint64 slots, RISC-V128 included: one File shape serves
// every ISA in the core, and RISC-V128 register values hold 64 bits, not
// 128.
type File struct {
	isaID   isa.ID
	regs    []uint64
	control [numControl]uint64
	pc      uint64
}

// New allocates a zeroed register file sized for isaID.
func New(isaID isa.ID) *File {
	return &File{isaID: isaID, regs: make([]uint64, isaID.RegisterCount())}
}

// IsHardZero reports whether register index i is hard-wired to zero for
// this ISA. Both MIPS and RISC-V wire $0/x0 to the constant zero.
func (f *File) IsHardZero(i int) bool {
	return i == 0
}

// Read returns the value of general-purpose register i. Reads never fail
// — an out-of-range index (which cannot arise from a correctly decoded
// instruction) returns zero rather than panicking, matching the "no
// faults on reads" stance the memory layer takes.
func (f *File) Read(i int) uint64 {
	if i < 0 || i >= len(f.regs) {
		return 0
	}
	return f.regs[i]
}

// Write stores value into register i. Writes to the hard-wired zero
// register are silently discarded.
func (f *File) Write(i int, value uint64) {
	if f.IsHardZero(i) {
		return
	}
	if i < 0 || i >= len(f.regs) {
		return
	}
	f.regs[i] = value
}

// PC returns the program counter.
func (f *File) PC() uint64 { return f.pc }

// SetPC sets the program counter.
func (f *File) SetPC(pc uint64) { f.pc = pc }

// ReadControl returns one of Cause/EPC/Status.
func (f *File) ReadControl(idx int) uint64 {
	if idx < 0 || idx >= numControl {
		return 0
	}
	return f.control[idx]
}

// WriteControl sets one of Cause/EPC/Status.
func (f *File) WriteControl(idx int, value uint64) {
	if idx < 0 || idx >= numControl {
		return
	}
	f.control[idx] = value
}

// Snapshot returns a copy of the general-purpose registers, used by
// debugdump to render a register dump.
func (f *File) Snapshot() []uint64 {
	out := make([]uint64, len(f.regs))
	copy(out, f.regs)
	return out
}
