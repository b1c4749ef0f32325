package driver

import (
	"simcore/dispatch"
	"simcore/instr"
	"simcore/isa"
	"simcore/memory"
	"simcore/port"
	"simcore/predict"
	"simcore/regfile"
	"simcore/trap"
)

// pipeline register latency: one cycle between adjacent stages.
const stageLatency port.Cycle = 1

// Performance is the five-stage in-order pipeline driver: fetch,
// decode, execute, memory, writeback, each stage connected to the next
// by a simcore/port channel carrying *instr.Instruction. The predictor
// is consulted at fetch; a misprediction discovered at execute flushes
// the fetch and decode stages' in-flight ports, per spec.md §4.3's
// flush-as-a-port cancellation model.
type Performance struct {
	ISA  isa.ID
	DE   dispatch.DecodeExecutor
	Mem  *memory.Memory
	Regs *regfile.File
	Pred *predict.Predictor

	ctx *port.Context

	ifID  *pipelineChannel
	idEX  *pipelineChannel
	exMEM *pipelineChannel
	memWB *pipelineChannel

	flushW *port.WritePort[bool]
	flushR *port.ReadPort[bool]

	cycle    port.Cycle
	fetchPC  uint64
	stalled  bool
	Retired  uint64
	lastTrap trap.Kind
}

// pipelineChannel bundles one stage boundary's write/read pair so the
// driver can treat "is something arriving this cycle" and "push
// something for next cycle" uniformly across the four boundaries.
type pipelineChannel struct {
	w *port.WritePort[*instr.Instruction]
	r *port.ReadPort[*instr.Instruction]
}

func newPipelineChannel(ctx *port.Context, key string) *pipelineChannel {
	w := port.NewWritePort[*instr.Instruction](ctx, key, 1, 1)
	r := port.NewReadPort[*instr.Instruction](ctx, key, stageLatency, w)
	return &pipelineChannel{w: w, r: r}
}

// NewPerformance constructs a five-stage pipeline driver over a fresh
// port.Context. pred may be nil only for tests that never take a
// branch; a real run always configures one of the six predictor modes.
func NewPerformance(id isa.ID, de dispatch.DecodeExecutor, mem *memory.Memory, regs *regfile.File, pred *predict.Predictor) *Performance {
	ctx := port.NewContext()
	p := &Performance{
		ISA:  id,
		DE:   de,
		Mem:  mem,
		Regs: regs,
		Pred: pred,
		ctx:  ctx,

		ifID:  newPipelineChannel(ctx, "if_id"),
		idEX:  newPipelineChannel(ctx, "id_ex"),
		exMEM: newPipelineChannel(ctx, "ex_mem"),
		memWB: newPipelineChannel(ctx, "mem_wb"),
	}
	p.flushW = port.NewWritePort[bool](ctx, "flush", 1, 1)
	p.flushR = port.NewReadPort[bool](ctx, "flush", 0, p.flushW)
	p.fetchPC = regs.PC()

	if err := ctx.Init(); err != nil {
		// Every channel above is wired writer-to-reader in the same
		// call; a failure here means the pipeline's own construction
		// is broken, not anything a caller did.
		panic(err)
	}
	return p
}

// PortLengths reports how many in-flight instructions sit in each
// pipeline stage boundary's reader queue, keyed by the boundary's port
// name (if_id, id_ex, ex_mem, mem_wb). Intended for debug tooling
// (cmd/simmonitor's port-queue pane), not the driver's own logic.
func (p *Performance) PortLengths() map[string]int {
	return map[string]int{
		"if_id":  p.ifID.r.Len(),
		"id_ex":  p.idEX.r.Len(),
		"ex_mem": p.exMEM.r.Len(),
		"mem_wb": p.memWB.r.Len(),
	}
}

// Step advances the pipeline by one cycle, evaluating stages from
// writeback back to fetch so a stage never observes data another stage
// produced in the same cycle (the fixed topological order spec.md §5
// requires).
func (p *Performance) Step() {
	cycle := p.cycle
	p.ctx.CleanUp(cycle)

	flushed := p.flushR.IsReady(cycle)
	if flushed {
		_, _ = p.flushR.Read(cycle)
	}

	p.stageWriteback(cycle)
	p.stageMemory(cycle)
	p.stageExecute(cycle)
	p.stageDecode(cycle)
	p.stageFetch(cycle, flushed)

	p.cycle++
}

// Run advances the pipeline until budget instructions have retired
// (reached writeback) or a halting trap commits, returning the
// committed trap (trap.NoTrap if the budget simply ran out).
func (p *Performance) Run(budget uint64, handler HandlerMode) (trap.Kind, error) {
	h := &Functional{Handler: handler}
	for p.Retired < budget {
		p.Step()
		if p.lastTrap != trap.NoTrap {
			committed := p.lastTrap
			p.lastTrap = trap.NoTrap
			halt, err := h.handle(committed, p.Regs.PC())
			if err != nil {
				return committed, err
			}
			if halt {
				return committed, nil
			}
		}
	}
	return trap.NoTrap, nil
}

func (p *Performance) stageFetch(cycle port.Cycle, flushed bool) {
	if flushed {
		p.fetchPC = p.Regs.PC()
	}
	pc := p.fetchPC
	raw := uint32(p.Mem.ReadWord(pc, 4))
	in := p.DE.Decode(raw, pc)

	if p.Pred != nil {
		in.PredictedNextPC = p.Pred.GetTarget(pc)
	} else {
		in.PredictedNextPC = pc + 4
	}

	if err := p.ifID.w.Write(in, cycle); err != nil {
		return
	}
	p.fetchPC = in.PredictedNextPC
}

func (p *Performance) stageDecode(cycle port.Cycle) {
	in, err := p.ifID.r.Read(cycle)
	if err != nil {
		return
	}
	p.DE.ReadOperands(in, p.Regs)
	_ = p.idEX.w.Write(in, cycle)
}

func (p *Performance) stageExecute(cycle port.Cycle) {
	in, err := p.idEX.r.Read(cycle)
	if err != nil {
		return
	}
	p.DE.Execute(in, p.ISA.WordBits())

	if isBranchLike(in) && p.Pred != nil {
		wasHit := p.Pred.IsHit(in.PC)
		p.Pred.Update(in.PC, in.IsTaken, in.ComputedNextPC, wasHit)
		if in.ComputedNextPC != in.PredictedNextPC {
			_ = p.flushW.Write(true, cycle)
		}
	}

	_ = p.exMEM.w.Write(in, cycle)
}

func (p *Performance) stageMemory(cycle port.Cycle) {
	in, err := p.exMEM.r.Read(cycle)
	if err != nil {
		return
	}
	if in.MemAccess.IsLoad {
		raw := p.Mem.ReadWord(in.EffAddr, in.MemAccess.Width)
		if in.MemAccess.Signed {
			in.DstVal = signExtend(raw, in.MemAccess.Width)
		} else {
			in.DstVal = raw
		}
	} else if in.MemAccess.IsStore {
		p.Mem.WriteWord(in.EffAddr, in.DstVal, in.MemAccess.Width)
	}
	_ = p.memWB.w.Write(in, cycle)
}

func (p *Performance) stageWriteback(cycle port.Cycle) {
	in, err := p.memWB.r.Read(cycle)
	if err != nil {
		return
	}
	if destRegister(in) {
		p.Regs.Write(destIndex(in), in.DstVal)
	}
	p.Retired++
	if in.Trap != trap.NoTrap {
		p.Regs.WriteControl(regfile.EPC, in.PC)
		p.Regs.WriteControl(regfile.Cause, uint64(in.Trap))
		p.lastTrap = in.Trap
	}
}

func isBranchLike(in *instr.Instruction) bool {
	switch in.Semantic {
	case instr.Beq, instr.Bne, instr.Blt, instr.Bge, instr.Bltu, instr.Bgeu,
		instr.Blez, instr.Bgtz, instr.Bltz, instr.Bgez,
		instr.J, instr.Jal, instr.Jr, instr.Jalr:
		return true
	default:
		return false
	}
}
