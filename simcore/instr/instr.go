// Package instr defines the Instruction record passed between fetch,
// decode, execute and writeback: raw bytes, decoded fields, operand
// values, the computed and predicted next-PC, and the trap taxonomy.
// Instruction itself is immutable after decode in spirit — only execute
// fills in the fields decode leaves zero (operand values, dst value,
// effective address, computed next-PC, trap).
package instr

import (
	"fmt"

	"simcore/isa"
	"simcore/trap"
)

// Semantic tags the operation an Instruction performs, shared across every
// ISA this core supports — the decoder's job is only to map raw bits onto
// one of these tags plus its operand roles, never to own per-ISA dispatch
// logic beyond that.
type Semantic int

const (
	Invalid Semantic = iota
	Add
	Addu
	Addi
	Addiu
	Sub
	Subu
	And
	Andi
	Or
	Ori
	Xor
	Xori
	Nor
	Sll
	Srl
	Sra
	Sllv
	Srlv
	Srav
	Slt
	Sltu
	Slti
	Sltiu
	Mult
	Multu
	Div
	Divu
	Lui
	Auipc
	Lw
	Lh
	Lb
	Lhu
	Lbu
	Lwu
	Ld
	Sw
	Sh
	Sb
	Sd
	Beq
	Bne
	Blt
	Bge
	Bltu
	Bgeu
	Blez
	Bgtz
	Bltz
	Bgez
	J
	Jal
	Jr
	Jalr
	Syscall
	Break
	Nop
	Halt
)

// MemKind describes the width/signedness of a memory-access instruction.
// Zero value means "not a memory access".
type MemKind struct {
	Width   int // bytes: 1, 2, 4, or 8; 0 if not a memory op
	Signed  bool
	IsStore bool
	IsLoad  bool
}

// Fields holds the raw decoded bit-fields common across MIPS R/I/J and
// RISC-V R/I/S/B/U/J formats. Unused fields for a given format are left
// zero; decoders populate only what their format defines.
type Fields struct {
	Opcode   uint32
	Funct    uint32 // MIPS funct / RISC-V funct3<<8|funct7 combined per decoder convention
	Rs, Rs1  int
	Rt, Rs2  int
	Rd       int
	Shamt    uint32
	ImmS     int64  // sign-extended immediate
	ImmU     uint64 // zero-extended immediate
	Target26 uint32 // MIPS J-type target field
}

// Instruction is the record that flows fetch -> decode -> execute ->
// writeback. Raw/PC/Fields/ISA/Semantic/MemAccess/IsLikelyBranch are set by
// decode; SrcVals are filled after register read; DstVal/EffAddr/
// ComputedNextPC/IsTaken/Trap are filled by execute.
type Instruction struct {
	ISA isa.ID
	Raw uint32
	PC  uint64

	Semantic  Semantic
	Fields    Fields
	MemAccess MemKind

	// SrcVals holds the values of the source registers in decode order
	// (rs,rt for MIPS R/I; rs1,rs2 for RISC-V), filled in by the driver
	// after register read and before execute.
	SrcVals [2]uint64

	DstVal  uint64
	EffAddr uint64

	ComputedNextPC  uint64
	PredictedNextPC uint64
	IsTaken         bool
	IsLikelyBranch  bool

	Trap trap.Kind
}

// String renders a compact one-line summary, used by disassembly and debug
// dumps; it never panics on a malformed instruction.
func (i *Instruction) String() string {
	return fmt.Sprintf("pc=0x%x raw=0x%08x sem=%d trap=%s", i.PC, i.Raw, i.Semantic, i.Trap)
}
