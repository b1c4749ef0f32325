// Package dispatch defines the decode/execute contract a driver wires
// against. It sits above simcore/isa, simcore/instr and simcore/regfile:
// both instr and regfile import isa for isa.ID, so these interfaces
// cannot live in package isa itself without creating an import cycle
// (isa -> instr -> isa and isa -> regfile -> isa). isa/mips and
// isa/riscv each provide one value satisfying DecodeExecutor per
// isa.ID; they import this package only for a compile-time assertion
// of that, since Go interface satisfaction is structural.
package dispatch

import (
	"simcore/instr"
	"simcore/regfile"
)

// Decoder turns a raw instruction word plus its fetch address into a
// decoded Instruction. Implementations (isa/mips, isa/riscv) never fail:
// an unrecognized encoding decodes to instr.Invalid carrying
// trap.UnknownInstruction, never a Go error.
type Decoder interface {
	Decode(raw uint32, pc uint64) *instr.Instruction
}

// Executor reads an instruction's source operands from a register file
// and computes its result, following it up with a call to Execute to
// perform the actual semantics. Splitting read from compute lets a
// driver interleave register read and memory access between the two
// steps, the way a real pipeline's decode and execute stages are
// separated by a register file read.
type Executor interface {
	ReadOperands(in *instr.Instruction, regs *regfile.File)
	Execute(in *instr.Instruction, width int)
}

// DecodeExecutor is the combined contract a driver wires against; both
// isa/mips and isa/riscv provide one value satisfying it per ISA.ID.
type DecodeExecutor interface {
	Decoder
	Executor
}
