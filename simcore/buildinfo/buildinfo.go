// Package buildinfo reports Go runtime/version metadata and the set of
// supported ISAs, the same shape as the teacher's features.go prints at
// startup (Go version, OS/Arch, a sorted feature list) adapted from a
// video/audio-backend feature list to a supported-ISA list.
package buildinfo

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"simcore/isa"
)

// SupportedISAs lists every isa.ID the core's decoders cover, in the
// order printFeatures would sort a feature list.
func SupportedISAs() []string {
	names := []string{
		isa.MIPS32.String(), isa.MIPS64.String(), isa.MARS.String(),
		isa.RISCV32.String(), isa.RISCV64.String(), isa.RISCV128.String(),
	}
	sort.Strings(names)
	return names
}

// String renders the Go runtime version, OS/Arch and the supported-ISA
// list, the same report printFeatures() prints for the teacher's
// video/audio backends.
func String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "simcore\n")
	fmt.Fprintf(&b, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(&b, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(&b, "Supported ISAs:")
	for _, name := range SupportedISAs() {
		fmt.Fprintf(&b, "  %s\n", name)
	}
	return b.String()
}
