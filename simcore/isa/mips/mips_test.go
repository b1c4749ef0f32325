package mips_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simcore/dispatch"
	"simcore/instr"
	"simcore/isa"
	"simcore/isa/mips"
	"simcore/regfile"
	"simcore/trap"
)

// encodeR packs a MIPS R-type word: opcode(6) rs(5) rt(5) rd(5) shamt(5) funct(6).
func encodeR(opcode, rs, rt, rd, shamt, funct uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

// encodeI packs a MIPS I-type word: opcode(6) rs(5) rt(5) imm(16).
func encodeI(opcode, rs, rt uint32, imm int16) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | uint32(uint16(imm))
}

func TestDecodeAddu(t *testing.T) {
	raw := encodeR(0x00, 1, 2, 3, 0, 0x21) // addu $3, $1, $2
	in := mips.Decode(isa.MIPS32, raw, 0x400000)
	require.Equal(t, instr.Addu, in.Semantic)
	assert.Equal(t, 1, in.Fields.Rs)
	assert.Equal(t, 2, in.Fields.Rt)
	assert.Equal(t, 3, in.Fields.Rd)
}

func TestDecodeUnknownSetsTrap(t *testing.T) {
	raw := encodeR(0x00, 0, 0, 0, 0, 0x3F) // bogus funct under SPECIAL
	in := mips.Decode(isa.MIPS32, raw, 0)
	assert.Equal(t, instr.Invalid, in.Semantic)
}

func TestExecuteAdduWraps(t *testing.T) {
	regs := regfile.New(isa.MIPS32)
	regs.Write(1, 0xFFFFFFFF)
	regs.Write(2, 1)
	raw := encodeR(0x00, 1, 2, 3, 0, 0x21)
	in := mips.Decode(isa.MIPS32, raw, 0x1000)
	mips.ReadOperands(in, regs)
	mips.Execute(in, 32)
	assert.Equal(t, uint64(0), in.DstVal)
	assert.Equal(t, uint64(0x1004), in.ComputedNextPC)
}

func TestExecuteAddOverflowTraps(t *testing.T) {
	regs := regfile.New(isa.MIPS32)
	regs.Write(1, 0x7FFFFFFF)
	regs.Write(2, 1)
	raw := encodeR(0x00, 1, 2, 3, 0, 0x20) // add
	in := mips.Decode(isa.MIPS32, raw, 0)
	mips.ReadOperands(in, regs)
	mips.Execute(in, 32)
	assert.Equal(t, trap.IntegerOverflow, in.Trap)
}

func TestExecuteDivByZeroTraps(t *testing.T) {
	regs := regfile.New(isa.MIPS32)
	regs.Write(1, 10)
	regs.Write(2, 0)
	raw := encodeR(0x00, 1, 2, 0, 0, 0x1A) // div
	in := mips.Decode(isa.MIPS32, raw, 0)
	mips.ReadOperands(in, regs)
	mips.Execute(in, 32)
	assert.Equal(t, trap.DivisionByZero, in.Trap)
}

func TestExecuteShiftByZeroIsNoOp(t *testing.T) {
	regs := regfile.New(isa.MIPS32)
	regs.Write(2, 0xABCD)
	raw := encodeR(0x00, 0, 2, 3, 0, 0x00) // sll $3, $2, 0
	in := mips.Decode(isa.MIPS32, raw, 0)
	mips.ReadOperands(in, regs)
	mips.Execute(in, 32)
	assert.Equal(t, uint64(0xABCD), in.DstVal)
}

func TestExecuteBeqTaken(t *testing.T) {
	regs := regfile.New(isa.MIPS32)
	regs.Write(1, 5)
	regs.Write(2, 5)
	raw := encodeI(0x04, 1, 2, 4) // beq $1, $2, 4
	in := mips.Decode(isa.MIPS32, raw, 0x1000)
	mips.ReadOperands(in, regs)
	mips.Execute(in, 32)
	assert.True(t, in.IsTaken)
	assert.Equal(t, uint64(0x1000+4+4*4), in.ComputedNextPC)
}

func TestDecodeExecutorInterface(t *testing.T) {
	var de dispatch.DecodeExecutor = mips.New(isa.MIPS32)
	in := de.Decode(encodeR(0, 1, 2, 3, 0, 0x21), 0)
	assert.Equal(t, instr.Addu, in.Semantic)
}
