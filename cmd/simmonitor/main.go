// Command simmonitor is a local, non-remote visual debugger for the
// performance driver: a bubbletea TUI with a register pane, a memory
// hex-dump pane and a pipeline port-queue pane, modeled directly on the
// teacher's bubbletea debugger model.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

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

type model struct {
	perf   *driver.Performance
	mem    *memory.Memory
	offset uint64
}

// Init performs no additional setup; the pipeline and memory are already
// constructed by main before the program starts.
func (m model) Init() tea.Cmd { return nil }

// Update advances the pipeline by one cycle on space/j, quits on q.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "j":
			m.perf.Step()
		}
	}
	return m, nil
}

func (m model) memoryPane() string {
	lines := []string{"addr     | 00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f"}
	buf := make([]byte, 16)
	for row := uint64(0); row < 8; row++ {
		base := m.offset + row*16
		m.mem.MemcpyGuestToHost(buf, base, len(buf))
		var b strings.Builder
		fmt.Fprintf(&b, "%08x | ", base)
		for _, by := range buf {
			fmt.Fprintf(&b, "%02x ", by)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func (m model) portQueuePane() string {
	lengths := m.perf.PortLengths()
	keys := make([]string, 0, len(lengths))
	for k := range lengths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("pipeline queues\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%-8s %d\n", k, lengths[k])
	}
	fmt.Fprintf(&b, "retired  %d\n", m.perf.Retired)
	return b.String()
}

// View renders registers and memory side-by-side with pipeline queue
// occupancy below them, the same three-pane layout the teacher's
// debugger draws with lipgloss.JoinHorizontal/JoinVertical.
func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			debugdump.Registers(m.perf.Regs),
			m.memoryPane(),
		),
		"",
		m.portQueuePane(),
	)
}

func main() {
	isaFlag := flag.String("isa", "mips32", "target ISA")
	predictFlag := flag.String("predictor", "always_not_taken", "branch predictor mode")
	startPC := flag.Uint64("start-pc", 0x400000, "initial program counter")
	flag.Parse()

	id, err := isa.Parse(*isaFlag)
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
		data, rerr := os.ReadFile(flag.Arg(0))
		if rerr != nil {
			fmt.Fprintln(os.Stderr, rerr)
			os.Exit(1)
		}
		if _, werr := mem.MemcpyHostToGuest(*startPC, data, len(data)); werr != nil {
			fmt.Fprintln(os.Stderr, werr)
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

	var de dispatch.DecodeExecutor
	if id.IsRISCV() {
		de = riscv.New(id)
	} else {
		de = mips.New(id)
	}

	perf := driver.NewPerformance(id, de, mem, regs, pred)

	p := tea.NewProgram(model{perf: perf, mem: mem, offset: *startPC})
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
