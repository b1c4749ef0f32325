// Package debugdump renders simulator state for interactive debugging:
// register snapshots, one-line instruction summaries, and a spew-based
// escape hatch for anything the formatted views don't cover. It carries
// no protocol of its own — cmd/simmonitor and cmd/simrun's single-step
// prompt are its only callers, not a GDB remote stub.
package debugdump

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"simcore/instr"
	"simcore/regfile"
)

// Inspectable narrows the teacher's DebuggableCPU interface down to what
// a local debugger front end needs: register access, PC, single-step,
// and a one-line disassembly at an address. Named as a contract only;
// neither of simcore/driver's Functional and Performance drivers
// implements it, and nothing in this package requires one that does —
// a GDB remote stub is out of scope, per spec.md's debugger non-goal.
type Inspectable interface {
	Registers() []uint64
	PC() uint64
	Step() (*instr.Instruction, error)
	Disassemble(pc uint64) string
}

// Registers renders a register file's general-purpose registers as
// "$n=0x..." quads, four per line, plus the PC on its own trailing line —
// the fixed-width register dump every reference simulator in the pack
// prints per frame (CPU.DumpStack, debug_overlay.go).
func Registers(regs *regfile.File) string {
	snap := regs.Snapshot()
	var b strings.Builder
	for i, v := range snap {
		fmt.Fprintf(&b, "$%-2d=0x%016x ", i, v)
		if i%4 == 3 {
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "\npc =0x%016x\n", regs.PC())
	return b.String()
}

// Instruction renders a one-line summary of in, extending its own
// String() with the predicted-vs-computed next-PC divergence a
// misprediction-chasing session cares about.
func Instruction(in *instr.Instruction) string {
	return fmt.Sprintf("%s computed_next=0x%x predicted_next=0x%x taken=%v",
		in.String(), in.ComputedNextPC, in.PredictedNextPC, in.IsTaken)
}

// Dump spew-dumps arbitrary simulator state for interactive debugging,
// the same escape hatch the teacher's debugger.go reaches for with
// spew.Dump(m.cpu) whenever the formatted helpers above aren't enough.
func Dump(v interface{}) string {
	return spew.Sdump(v)
}
