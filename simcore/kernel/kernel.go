// Package kernel names the syscall/kernel-shim contract spec.md §6
// describes: a collaborator the functional driver invokes on a SYSCALL
// trap, with read/write access to the register file and memory. Actual
// MARS and Linux syscall tables are out of scope — external
// collaborators' job — this package only names the call shape a driver
// dispatches to.
package kernel

import (
	"simcore/memory"
	"simcore/regfile"
)

// Result is what a Shim reports back after handling one SYSCALL trap.
type Result struct {
	// Exited reports whether the guest program called exit; Resumed
	// execution (Exited == false) means the driver should clear the
	// trap and keep running.
	Exited   bool
	ExitCode int
}

// Shim is the syscall dispatch contract. Implementations own their own
// syscall-number table (MARS, Linux, or a test double); this package
// defines only how the driver calls in and gets a verdict back.
type Shim interface {
	Syscall(regs *regfile.File, mem *memory.Memory) Result
}

// Func adapts a plain function to Shim, the same adapter shape as
// net/http's HandlerFunc, for callers (such as the tests' stub shims)
// that don't need a struct just to satisfy the interface.
type Func func(regs *regfile.File, mem *memory.Memory) Result

// Syscall calls f.
func (f Func) Syscall(regs *regfile.File, mem *memory.Memory) Result {
	return f(regs, mem)
}
