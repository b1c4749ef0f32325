// Command simrun is the thin CLI entry point over simcore: it selects an
// ISA, a trap handler mode, an instruction budget and a predictor mode,
// then runs the functional driver over a freshly allocated guest memory
// and reports the trap the run ended on.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"simcore/buildinfo"
	"simcore/debugdump"
	"simcore/dispatch"
	"simcore/driver"
	"simcore/isa"
	"simcore/isa/mips"
	"simcore/isa/riscv"
	"simcore/memory"
	"simcore/predict"
	"simcore/regfile"
)

func main() {
	isaFlag := flag.String("isa", "mips32", "target ISA: mips32|mips64|mars|riscv32|riscv64|riscv128")
	handlerFlag := flag.String("trap-mode", "stop", "trap handler mode: stop|stop_on_halt|ignore|critical")
	predictFlag := flag.String("predictor", "always_not_taken", "branch predictor mode")
	budget := flag.Uint64("budget", 1000, "instruction budget")
	startPC := flag.Uint64("start-pc", 0x400000, "initial program counter")
	step := flag.Bool("step", false, "single-step with a raw-mode keypress prompt between instructions")
	version := flag.Bool("version", false, "print build info and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: simrun [options] [program.bin]\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Print(buildinfo.String())
		return
	}

	id, err := isa.Parse(*isaFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	handler, err := driver.ParseHandlerMode(*handlerFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	predMode, err := predict.ParseMode(*predictFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	mem, err := memory.New(32, 10, 12)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if flag.NArg() == 1 {
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if _, err := mem.MemcpyHostToGuest(*startPC, data, len(data)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	regs := regfile.New(id)
	regs.SetPC(*startPC)

	pred, err := predict.New(predMode, 4, 16)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	de := newDecodeExecutor(id)
	f := driver.NewFunctional(id, de, mem, regs, handler)

	var trapKind interface{ String() string }
	if *step {
		trapKind = runStepping(f, pred, *budget)
	} else {
		t, err := f.Run(*budget)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		trapKind = t
	}

	fmt.Printf("retired=%d trap=%s pc=0x%x\n", f.Retired, trapKind, regs.PC())
}

func newDecodeExecutor(id isa.ID) dispatch.DecodeExecutor {
	if id.IsRISCV() {
		return riscv.New(id)
	}
	return mips.New(id)
}

// runStepping executes one instruction at a time, printing the register
// file after each step and waiting for a raw-mode keypress ('q' stops)
// before the next, so an operator can watch the driver's register and
// PC state unfold. pred is accepted but not consulted.
func runStepping(f *driver.Functional, pred *predict.Predictor, budget uint64) interface {
	String() string
} {
	fd := int(os.Stdin.Fd())
	oldState, rawErr := term.MakeRaw(fd)
	if rawErr == nil {
		defer term.Restore(fd, oldState)
	}

	var last interface{ String() string }
	for i := uint64(0); i < budget; i++ {
		t, err := f.Run(1)
		last = t
		fmt.Print(debugdump.Registers(f.Regs))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			break
		}
		if rawErr == nil {
			buf := make([]byte, 1)
			if _, err := os.Stdin.Read(buf); err != nil || buf[0] == 'q' {
				break
			}
		}
	}
	return last
}
