package riscv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simcore/dispatch"
	"simcore/instr"
	"simcore/isa"
	"simcore/isa/riscv"
	"simcore/regfile"
	"simcore/trap"
)

func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeI(imm uint32, rs1, funct3, rd, opcode uint32) uint32 {
	return imm<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func TestDecodeAdd(t *testing.T) {
	raw := encodeR(0, 2, 1, 0, 3, 0x33) // add x3, x1, x2
	in := riscv.Decode(isa.RISCV64, raw, 0x1000)
	require.Equal(t, instr.Add, in.Semantic)
	assert.Equal(t, 1, in.Fields.Rs1)
	assert.Equal(t, 2, in.Fields.Rs2)
	assert.Equal(t, 3, in.Fields.Rd)
}

func TestDecodeAddiSignExtendsImmediate(t *testing.T) {
	raw := encodeI(0xFFF, 1, 0, 3, 0x13) // addi x3, x1, -1
	in := riscv.Decode(isa.RISCV32, raw, 0)
	require.Equal(t, instr.Addi, in.Semantic)
	assert.Equal(t, int64(-1), in.Fields.ImmS)
}

func TestDecodeUnknownOpcode(t *testing.T) {
	raw := uint32(0x7F) // opcode with no entry
	in := riscv.Decode(isa.RISCV32, raw, 0)
	assert.Equal(t, instr.Invalid, in.Semantic)
}

func TestExecuteAddiWraps32(t *testing.T) {
	regs := regfile.New(isa.RISCV32)
	regs.Write(1, 0xFFFFFFFF)
	raw := encodeI(1, 1, 0, 2, 0x13) // addi x2, x1, 1
	in := riscv.Decode(isa.RISCV32, raw, 0)
	riscv.ReadOperands(in, regs)
	riscv.Execute(in, 32)
	assert.Equal(t, uint64(0), in.DstVal)
}

func TestExecuteJalrMasksLowBit(t *testing.T) {
	regs := regfile.New(isa.RISCV64)
	regs.Write(1, 0x2001)
	raw := encodeI(0, 1, 0, 5, 0x67) // jalr x5, 0(x1)
	in := riscv.Decode(isa.RISCV64, raw, 0x100)
	riscv.ReadOperands(in, regs)
	de := riscv.New(isa.RISCV64)
	de.Execute(in, 64)
	assert.Equal(t, uint64(0x2000), in.ComputedNextPC)
	assert.Equal(t, uint64(0x104), in.DstVal)
}

func TestExecuteDivByZeroTraps(t *testing.T) {
	regs := regfile.New(isa.RISCV32)
	regs.Write(1, 10)
	regs.Write(2, 0)
	raw := encodeR(0x01, 2, 1, 4, 3, 0x33) // div x3, x1, x2
	in := riscv.Decode(isa.RISCV32, raw, 0)
	riscv.ReadOperands(in, regs)
	de := riscv.New(isa.RISCV32)
	de.Execute(in, 32)
	assert.Equal(t, trap.DivisionByZero, in.Trap)
}

func TestDecodeExecutorInterface(t *testing.T) {
	var de dispatch.DecodeExecutor = riscv.New(isa.RISCV32)
	in := de.Decode(encodeR(0, 2, 1, 0, 3, 0x33), 0)
	assert.Equal(t, instr.Add, in.Semantic)
}
