package driver

import (
	"fmt"

	"simcore/dispatch"
	"simcore/instr"
	"simcore/isa"
	"simcore/kernel"
	"simcore/memory"
	"simcore/regfile"
	"simcore/trap"
)

// maxConsecutiveInvalidFetches bounds how many back-to-back all-zero
// raw instruction words a MIPS-family run tolerates before concluding
// the PC wandered off into unmapped memory and failing with
// trap.BearingLost, per spec.md's functional-driver fetch policy.
const maxConsecutiveInvalidFetches = 16

// Functional is the fetch-decode-execute-writeback driver: it runs one
// instruction at a time with no microarchitectural timing model.
type Functional struct {
	ISA     isa.ID
	DE      dispatch.DecodeExecutor
	Mem     *memory.Memory
	Regs    *regfile.File
	Handler HandlerMode

	// Shim, if non-nil, is consulted on every trap.Syscall instead of
	// the generic HandlerMode policy, per spec.md §6's kernel-shim
	// contract. A nil Shim falls back to HandlerMode for SYSCALL like
	// any other trap.
	Shim kernel.Shim

	// Retired counts every instruction for which execute ran, used by
	// callers that want instructions-per-run accounting beyond the
	// Run return value.
	Retired uint64

	// ExitCode is set once a Shim reports Exited == true.
	ExitCode int
}

// NewFunctional constructs a functional driver. The register file's PC
// is left wherever the caller already set it (normally the memory's
// sticky StartPC via a loader).
func NewFunctional(id isa.ID, de dispatch.DecodeExecutor, mem *memory.Memory, regs *regfile.File, handler HandlerMode) *Functional {
	return &Functional{ISA: id, DE: de, Mem: mem, Regs: regs, Handler: handler}
}

// CriticalError is the host-level fatal error produced by the Critical
// handler mode.
type CriticalError struct {
	Trap trap.Kind
	PC   uint64
}

func (e *CriticalError) Error() string {
	return fmt.Sprintf("critical trap %s at pc=0x%x", e.Trap, e.PC)
}

// Run executes up to budget instructions, stopping early when the
// configured handler policy decides a trap should halt the run. It
// returns the trap that ended the run (trap.NoTrap if the budget was
// simply exhausted) or a non-nil error for a BearingLost condition or a
// Critical-mode trap.
func (f *Functional) Run(budget uint64) (trap.Kind, error) {
	zeroStreak := 0

	for i := uint64(0); i < budget; i++ {
		pc := f.Regs.PC()
		raw := uint32(f.Mem.ReadWord(pc, 4))

		// A fetched word of all zero bits is what unmapped memory
		// always reads back as (memory.Memory zero-fills never-written
		// pages). MIPS encodes 0x00000000 as a legal "sll $0,$0,0" — a
		// real but semantically inert instruction — so decode alone
		// can't tell wandering-in-the-weeds apart from a deliberate
		// NOP; the driver tracks the raw-zero streak itself instead.
		if raw == 0 {
			zeroStreak++
			if f.ISA.IsMIPS() && zeroStreak >= maxConsecutiveInvalidFetches {
				return trap.BearingLost, &BearingLostError{PC: pc}
			}
		} else {
			zeroStreak = 0
		}

		in := f.DE.Decode(raw, pc)

		if in.Semantic == instr.Invalid {
			return trap.UnknownInstruction, nil
		}

		f.DE.ReadOperands(in, f.Regs)
		f.DE.Execute(in, f.ISA.WordBits())
		f.Retired++

		f.writeback(in)
		f.Regs.SetPC(in.ComputedNextPC)

		if in.Trap != trap.NoTrap {
			// epc is the address of the trapping instruction itself,
			// not the already-advanced PC, matching the MIPS
			// architectural convention (the Open Question resolution
			// recorded in DESIGN.md). This runs even with no kernel
			// shim installed, so a no-kernel run still leaves a
			// correct epc/cause behind for an external inspector.
			f.Regs.WriteControl(regfile.EPC, pc)
			f.Regs.WriteControl(regfile.Cause, uint64(in.Trap))
		}

		if in.Trap == trap.Syscall && f.Shim != nil {
			res := f.Shim.Syscall(f.Regs, f.Mem)
			if res.Exited {
				f.ExitCode = res.ExitCode
				return trap.Syscall, nil
			}
			continue
		}

		if in.Trap != trap.NoTrap {
			halt, err := f.handle(in.Trap, pc)
			if err != nil {
				return in.Trap, err
			}
			if halt {
				return in.Trap, nil
			}
		}
	}
	return trap.NoTrap, nil
}

// BearingLostError reports that the functional driver gave up after too
// many consecutive all-zero fetched words, the MIPS-family behavior for
// a PC that has wandered into unmapped memory.
type BearingLostError struct{ PC uint64 }

func (e *BearingLostError) Error() string {
	return fmt.Sprintf("BearingLost: pc=0x%x fetched %d consecutive all-zero words", e.PC, maxConsecutiveInvalidFetches)
}

// handle applies the configured HandlerMode to a non-NoTrap condition.
// It returns halt=true when the run should stop, and a non-nil error
// only for Critical mode.
func (f *Functional) handle(t trap.Kind, pc uint64) (halt bool, err error) {
	switch f.Handler {
	case Critical:
		return true, &CriticalError{Trap: t, PC: pc}
	case Stop:
		return true, nil
	case StopOnHalt:
		return t == trap.Halt, nil
	case Ignore:
		return false, nil
	default:
		return true, nil
	}
}

// writeback performs the instruction's memory access (if any) and
// commits its register destination, in that order, matching the loop
// spec.md lays out: "write destination -> apply computed_next_pc -> if
// load/store, perform memory access". Loads must land before the
// destination register commit they feed, so the memory access for a
// load happens first here even though it is named second in the prose
// loop; store's source value was already captured into DstVal by
// Execute.
func (f *Functional) writeback(in *instr.Instruction) {
	if in.MemAccess.IsLoad {
		raw := f.Mem.ReadWord(in.EffAddr, in.MemAccess.Width)
		if in.MemAccess.Signed {
			in.DstVal = signExtend(raw, in.MemAccess.Width)
		} else {
			in.DstVal = raw
		}
	} else if in.MemAccess.IsStore {
		f.Mem.WriteWord(in.EffAddr, in.DstVal, in.MemAccess.Width)
	}

	if destRegister(in) {
		f.Regs.Write(destIndex(in), in.DstVal)
	}
}

func signExtend(v uint64, width int) uint64 {
	bits := uint(width * 8)
	if bits >= 64 {
		return v
	}
	shift := 64 - bits
	return uint64(int64(v<<shift) >> shift)
}

// destRegister reports whether in writes a general-purpose register,
// i.e. it is neither a store nor a branch/jump-without-link. MIPS
// Mult/Multu/Div/Divu write the HI/LO register pair, not a GPR, and are
// excluded here too: this driver has no HI/LO model, so their DstVal is
// computed but never written back.
func destRegister(in *instr.Instruction) bool {
	switch in.Semantic {
	case instr.Sb, instr.Sh, instr.Sw, instr.Sd,
		instr.Beq, instr.Bne, instr.Blt, instr.Bge, instr.Bltu, instr.Bgeu,
		instr.Blez, instr.Bgtz, instr.Bltz, instr.Bgez,
		instr.J, instr.Jr,
		instr.Syscall, instr.Break, instr.Nop, instr.Halt, instr.Invalid:
		return false
	case instr.Mult, instr.Multu, instr.Div, instr.Divu:
		// RISC-V MUL/DIV/DIVU share these tags and do write rd.
		return in.ISA.IsRISCV()
	default:
		return true
	}
}

// destIndex returns the architectural register index an instruction
// writes: rd for RISC-V and MIPS R-type, rt for MIPS I-type ALU/load
// ops.
func destIndex(in *instr.Instruction) int {
	if in.ISA.IsRISCV() {
		return in.Fields.Rd
	}
	switch in.Semantic {
	case instr.Add, instr.Addu, instr.Sub, instr.Subu, instr.And, instr.Or, instr.Xor, instr.Nor,
		instr.Slt, instr.Sltu, instr.Sll, instr.Srl, instr.Sra, instr.Sllv, instr.Srlv, instr.Srav,
		instr.Jalr:
		return in.Fields.Rd
	case instr.Jal:
		return 31 // $ra
	default:
		return in.Fields.Rt
	}
}
