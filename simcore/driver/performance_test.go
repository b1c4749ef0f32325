package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simcore/driver"
	"simcore/isa"
	"simcore/isa/mips"
	"simcore/memory"
	"simcore/predict"
	"simcore/regfile"
)

func TestPerformanceDriverRetiresStraightLineCode(t *testing.T) {
	mem, err := memory.New(32, 10, 12)
	require.NoError(t, err)
	regs := regfile.New(isa.MIPS32)
	pred, err := predict.New(predict.AlwaysNotTaken, 4, 16)
	require.NoError(t, err)

	mem.WriteWord(0x1000, uint64(encodeMIPSAddiu(0, 1, 1)), 4)
	mem.WriteWord(0x1004, uint64(encodeMIPSAddiu(1, 1, 1)), 4)
	mem.WriteWord(0x1008, uint64(encodeMIPSAddiu(1, 1, 1)), 4)
	regs.SetPC(0x1000)

	perf := driver.NewPerformance(isa.MIPS32, mips.New(isa.MIPS32), mem, regs, pred)
	_, err = perf.Run(3, driver.Ignore)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), perf.Retired)
	assert.Equal(t, uint64(3), regs.Read(1))

	lengths := perf.PortLengths()
	assert.Contains(t, lengths, "if_id")
	assert.Contains(t, lengths, "mem_wb")
}
