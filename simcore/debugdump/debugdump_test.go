package debugdump_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"simcore/debugdump"
	"simcore/instr"
	"simcore/isa"
	"simcore/regfile"
	"simcore/trap"
)

func TestRegistersIncludesPC(t *testing.T) {
	regs := regfile.New(isa.MIPS32)
	regs.Write(1, 0xdeadbeef)
	regs.SetPC(0x400000)

	out := debugdump.Registers(regs)
	assert.True(t, strings.Contains(out, "$1 =0x00000000deadbeef"))
	assert.True(t, strings.Contains(out, "pc =0x0000000000400000"))
}

func TestInstructionReportsDivergence(t *testing.T) {
	in := &instr.Instruction{
		PC: 0x1000, Raw: 0x21090001, Semantic: instr.Addiu,
		ComputedNextPC: 0x1004, PredictedNextPC: 0x2000, Trap: trap.NoTrap,
	}
	out := debugdump.Instruction(in)
	assert.True(t, strings.Contains(out, "computed_next=0x1004"))
	assert.True(t, strings.Contains(out, "predicted_next=0x2000"))
}

func TestDumpProducesNonEmptyOutput(t *testing.T) {
	regs := regfile.New(isa.MIPS32)
	out := debugdump.Dump(regs)
	assert.NotEmpty(t, out)
}
