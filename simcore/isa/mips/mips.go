// Package mips implements the decoder and executor for the MIPS32/MIPS64
// R/I/J instruction formats (and the MARS variant, which shares MIPS32
// semantics). Opcode/funct fields are extracted by fixed masks and fed
// through a flat opcode table, mirroring the teacher's flat
// opcode-constant-block style (cpu_ie32.go's LOAD/STORE/ADD/... consts)
// generalized into "one table per ISA" rather than "one table for the
// whole engine".
package mips

import (
	"simcore/bitfield"
	"simcore/dispatch"
	"simcore/instr"
	"simcore/isa"
	"simcore/regfile"
	"simcore/trap"
)

// ISA implements dispatch.DecodeExecutor for one MIPS-family variant. It holds
// no state beyond which variant it decodes for: every MIPS-family ID
// decodes and executes identically, the ID only tags the decoded
// Instruction, and Execute ignores its width argument, so MIPS64
// arithmetic is computed at 32 bits like MIPS32.
type ISA struct {
	ID isa.ID
}

// New returns a MIPS-family DecodeExecutor for id. id must satisfy
// id.IsMIPS(); callers normally obtain id from isa.Parse.
func New(id isa.ID) ISA { return ISA{ID: id} }

func (m ISA) Decode(raw uint32, pc uint64) *instr.Instruction { return Decode(m.ID, raw, pc) }

func (m ISA) ReadOperands(in *instr.Instruction, regs *regfile.File) { ReadOperands(in, regs) }

func (m ISA) Execute(in *instr.Instruction, width int) { Execute(in, width) }

var _ dispatch.DecodeExecutor = ISA{}

// Decode extracts the opcode/rs/rt/rd/shamt/funct/imm16/imm26 fields from a
// raw 32-bit MIPS instruction word and resolves its Semantic via the
// opcode table.
func Decode(isaID isa.ID, raw uint32, pc uint64) *instr.Instruction {
	opcode := uint32(bitfield.Bits(uint64(raw), 26, 31))
	rs := int(bitfield.Bits(uint64(raw), 21, 25))
	rt := int(bitfield.Bits(uint64(raw), 16, 20))
	rd := int(bitfield.Bits(uint64(raw), 11, 15))
	shamt := uint32(bitfield.Bits(uint64(raw), 6, 10))
	funct := uint32(bitfield.Bits(uint64(raw), 0, 5))
	imm16 := uint32(bitfield.Bits(uint64(raw), 0, 15))
	target26 := uint32(bitfield.Bits(uint64(raw), 0, 25))

	in := &instr.Instruction{
		ISA: isaID,
		Raw: raw,
		PC:  pc,
		Fields: instr.Fields{
			Opcode:   opcode,
			Funct:    funct,
			Rs:       rs,
			Rt:       rt,
			Rd:       rd,
			Shamt:    shamt,
			ImmS:     int64(int32(bitfield.SignExtend(uint64(imm16), 16))),
			ImmU:     bitfield.ZeroExtend(uint64(imm16), 16),
			Target26: target26,
		},
	}

	var entry opcodeEntry
	var ok bool
	if opcode == opSpecial {
		entry, ok = specialTable[funct]
	} else {
		entry, ok = opcodeTable[opcode]
	}
	if !ok {
		in.Semantic = instr.Invalid
		in.Trap = trap.UnknownInstruction
		return in
	}
	in.Semantic = entry.semantic
	in.MemAccess = entry.mem
	in.IsLikelyBranch = entry.likely
	return in
}

type opcodeEntry struct {
	semantic instr.Semantic
	mem      instr.MemKind
	likely   bool
}

const (
	opSpecial = 0x00
	opRegImm  = 0x01

	opAddi  = 0x08
	opAddiu = 0x09
	opAndi  = 0x0C
	opOri   = 0x0D
	opXori  = 0x0E
	opLui   = 0x0F
	opSlti  = 0x0A
	opSltiu = 0x0B

	opLb  = 0x20
	opLh  = 0x21
	opLwl = 0x22
	opLw  = 0x23
	opLbu = 0x24
	opLhu = 0x25
	opSb  = 0x28
	opSh  = 0x29
	opSw  = 0x2B

	opBeq    = 0x04
	opBne    = 0x05
	opBlez   = 0x06
	opBgtz   = 0x07
	opBeqlK  = 0x14
	opBnelK  = 0x15
	opBlezlK = 0x16
	opBgtzlK = 0x17

	opJ   = 0x02
	opJal = 0x03

	// SPECIAL function codes
	fnSll     = 0x00
	fnSrl     = 0x02
	fnSra     = 0x03
	fnSllv    = 0x04
	fnSrlv    = 0x06
	fnSrav    = 0x07
	fnJr      = 0x08
	fnJalr    = 0x09
	fnSyscall = 0x0C
	fnBreak   = 0x0D
	fnMfhi    = 0x10
	fnMthi    = 0x11
	fnMflo    = 0x12
	fnMtlo    = 0x13
	fnMult    = 0x18
	fnMultu   = 0x19
	fnDiv     = 0x1A
	fnDivu    = 0x1B
	fnAdd     = 0x20
	fnAddu    = 0x21
	fnSub     = 0x22
	fnSubu    = 0x23
	fnAnd     = 0x24
	fnOr      = 0x25
	fnXor     = 0x26
	fnNor     = 0x27
	fnSlt     = 0x2A
	fnSltu    = 0x2B
)

// specialTable maps the SPECIAL opcode's (0x00) funct field to its entry.
var specialTable = map[uint32]opcodeEntry{
	fnSll:     {semantic: instr.Sll},
	fnSrl:     {semantic: instr.Srl},
	fnSra:     {semantic: instr.Sra},
	fnSllv:    {semantic: instr.Sllv},
	fnSrlv:    {semantic: instr.Srlv},
	fnSrav:    {semantic: instr.Srav},
	fnJr:      {semantic: instr.Jr},
	fnJalr:    {semantic: instr.Jalr},
	fnSyscall: {semantic: instr.Syscall},
	fnBreak:   {semantic: instr.Break},
	fnMult:    {semantic: instr.Mult},
	fnMultu:   {semantic: instr.Multu},
	fnDiv:     {semantic: instr.Div},
	fnDivu:    {semantic: instr.Divu},
	fnAdd:     {semantic: instr.Add},
	fnAddu:    {semantic: instr.Addu},
	fnSub:     {semantic: instr.Sub},
	fnSubu:    {semantic: instr.Subu},
	fnAnd:     {semantic: instr.And},
	fnOr:      {semantic: instr.Or},
	fnXor:     {semantic: instr.Xor},
	fnNor:     {semantic: instr.Nor},
	fnSlt:     {semantic: instr.Slt},
	fnSltu:    {semantic: instr.Sltu},
}

// opcodeTable maps every non-SPECIAL opcode to its entry.
var opcodeTable = map[uint32]opcodeEntry{
	opAddi:  {semantic: instr.Addi},
	opAddiu: {semantic: instr.Addiu},
	opAndi:  {semantic: instr.Andi},
	opOri:   {semantic: instr.Ori},
	opXori:  {semantic: instr.Xori},
	opLui:   {semantic: instr.Lui},
	opSlti:  {semantic: instr.Slti},
	opSltiu: {semantic: instr.Sltiu},

	opLb:  {semantic: instr.Lb, mem: instr.MemKind{Width: 1, Signed: true, IsLoad: true}},
	opLh:  {semantic: instr.Lh, mem: instr.MemKind{Width: 2, Signed: true, IsLoad: true}},
	opLw:  {semantic: instr.Lw, mem: instr.MemKind{Width: 4, Signed: true, IsLoad: true}},
	opLbu: {semantic: instr.Lbu, mem: instr.MemKind{Width: 1, Signed: false, IsLoad: true}},
	opLhu: {semantic: instr.Lhu, mem: instr.MemKind{Width: 2, Signed: false, IsLoad: true}},
	opSb:  {semantic: instr.Sb, mem: instr.MemKind{Width: 1, IsStore: true}},
	opSh:  {semantic: instr.Sh, mem: instr.MemKind{Width: 2, IsStore: true}},
	opSw:  {semantic: instr.Sw, mem: instr.MemKind{Width: 4, IsStore: true}},

	opBeq:    {semantic: instr.Beq},
	opBne:    {semantic: instr.Bne},
	opBlez:   {semantic: instr.Blez},
	opBgtz:   {semantic: instr.Bgtz},
	opBeqlK:  {semantic: instr.Beq, likely: true},
	opBnelK:  {semantic: instr.Bne, likely: true},
	opBlezlK: {semantic: instr.Blez, likely: true},
	opBgtzlK: {semantic: instr.Bgtz, likely: true},

	opJ:   {semantic: instr.J},
	opJal: {semantic: instr.Jal},
}

// ReadOperands fills SrcVals from the register file according to the
// instruction's decoded fields.
func ReadOperands(in *instr.Instruction, regs *regfile.File) {
	switch in.Semantic {
	case instr.Jr, instr.Jalr, instr.Sllv, instr.Srlv, instr.Srav:
		in.SrcVals[0] = regs.Read(in.Fields.Rs)
		in.SrcVals[1] = regs.Read(in.Fields.Rt)
	case instr.Sll, instr.Srl, instr.Sra, instr.Lui:
		in.SrcVals[1] = regs.Read(in.Fields.Rt)
	case instr.Addi, instr.Addiu, instr.Andi, instr.Ori, instr.Xori,
		instr.Slti, instr.Sltiu, instr.Lb, instr.Lh, instr.Lw, instr.Lbu, instr.Lhu,
		instr.Sb, instr.Sh, instr.Sw:
		in.SrcVals[0] = regs.Read(in.Fields.Rs)
		if in.MemAccess.IsStore {
			in.SrcVals[1] = regs.Read(in.Fields.Rt)
		}
	case instr.Beq, instr.Bne:
		in.SrcVals[0] = regs.Read(in.Fields.Rs)
		in.SrcVals[1] = regs.Read(in.Fields.Rt)
	case instr.Blez, instr.Bgtz:
		in.SrcVals[0] = regs.Read(in.Fields.Rs)
	default:
		in.SrcVals[0] = regs.Read(in.Fields.Rs)
		in.SrcVals[1] = regs.Read(in.Fields.Rt)
	}
}

// Execute computes dst_value, effective address, computed_next_pc,
// is_taken and trap for a decoded MIPS instruction, following the edge
// policies in the design notes: shift-by-zero is a no-op, not a NOP
// dispatch; arithmetic right shift propagates the sign bit; signed
// overflow traps, unsigned wraps. No delay slot is modeled: a taken
// branch or jump goes straight to its target, and the branch-likely
// forms (IsLikelyBranch) execute exactly like their ordinary forms.
func Execute(in *instr.Instruction, width int) {
	straight := in.PC + 4
	in.ComputedNextPC = straight

	s0, s1 := in.SrcVals[0], in.SrcVals[1]

	switch in.Semantic {
	case instr.Add:
		sum := int64(int32(s0)) + int64(int32(s1))
		if sum != int64(int32(sum)) {
			in.Trap = trap.IntegerOverflow
		}
		in.DstVal = uint64(uint32(sum))
	case instr.Addu:
		in.DstVal = uint64(uint32(s0) + uint32(s1))
	case instr.Sub:
		diff := int64(int32(s0)) - int64(int32(s1))
		if diff != int64(int32(diff)) {
			in.Trap = trap.IntegerOverflow
		}
		in.DstVal = uint64(uint32(diff))
	case instr.Subu:
		in.DstVal = uint64(uint32(s0) - uint32(s1))
	case instr.And:
		in.DstVal = s0 & s1
	case instr.Or:
		in.DstVal = s0 | s1
	case instr.Xor:
		in.DstVal = s0 ^ s1
	case instr.Nor:
		in.DstVal = ^(s0 | s1)
	case instr.Slt:
		in.DstVal = boolToU64(int32(s0) < int32(s1))
	case instr.Sltu:
		in.DstVal = boolToU64(uint32(s0) < uint32(s1))
	case instr.Sll:
		if in.Fields.Shamt == 0 {
			in.DstVal = s1 // shift-by-zero: unchanged value, not a NOP dispatch
		} else {
			in.DstVal = uint64(uint32(s1) << in.Fields.Shamt)
		}
	case instr.Srl:
		if in.Fields.Shamt == 0 {
			in.DstVal = s1
		} else {
			in.DstVal = uint64(uint32(s1) >> in.Fields.Shamt)
		}
	case instr.Sra:
		if in.Fields.Shamt == 0 {
			in.DstVal = s1
		} else {
			in.DstVal = bitfield.Sar(s1, uint(in.Fields.Shamt), 32)
		}
	case instr.Sllv:
		in.DstVal = uint64(uint32(s1) << (uint32(s0) & 0x1F))
	case instr.Srlv:
		in.DstVal = uint64(uint32(s1) >> (uint32(s0) & 0x1F))
	case instr.Srav:
		in.DstVal = bitfield.Sar(s1, uint(uint32(s0)&0x1F), 32)
	case instr.Mult, instr.Multu:
		in.DstVal = s0 * s1
	case instr.Div:
		if int32(s1) == 0 {
			in.Trap = trap.DivisionByZero
		} else {
			in.DstVal = uint64(uint32(int32(s0) / int32(s1)))
		}
	case instr.Divu:
		if uint32(s1) == 0 {
			in.Trap = trap.DivisionByZero
		} else {
			in.DstVal = uint64(uint32(s0) / uint32(s1))
		}

	case instr.Addi:
		sum := int64(int32(s0)) + in.Fields.ImmS
		if sum != int64(int32(sum)) {
			in.Trap = trap.IntegerOverflow
		}
		in.DstVal = uint64(uint32(sum))
	case instr.Addiu:
		in.DstVal = uint64(uint32(s0) + uint32(in.Fields.ImmS))
	case instr.Andi:
		in.DstVal = s0 & in.Fields.ImmU
	case instr.Ori:
		in.DstVal = s0 | in.Fields.ImmU
	case instr.Xori:
		in.DstVal = s0 ^ in.Fields.ImmU
	case instr.Lui:
		in.DstVal = uint64(uint32(in.Fields.ImmU) << 16)
	case instr.Slti:
		in.DstVal = boolToU64(int32(s0) < int32(in.Fields.ImmS))
	case instr.Sltiu:
		in.DstVal = boolToU64(uint32(s0) < uint32(in.Fields.ImmS))

	case instr.Lb, instr.Lh, instr.Lw, instr.Lbu, instr.Lhu, instr.Sb, instr.Sh, instr.Sw:
		in.EffAddr = uint64(uint32(s0) + uint32(in.Fields.ImmS))
		if in.MemAccess.IsStore {
			in.DstVal = s1
		}

	case instr.Beq:
		in.IsTaken = s0 == s1
		in.ComputedNextPC = branchTarget(in, straight)
	case instr.Bne:
		in.IsTaken = s0 != s1
		in.ComputedNextPC = branchTarget(in, straight)
	case instr.Blez:
		in.IsTaken = int32(s0) <= 0
		in.ComputedNextPC = branchTarget(in, straight)
	case instr.Bgtz:
		in.IsTaken = int32(s0) > 0
		in.ComputedNextPC = branchTarget(in, straight)

	case instr.J:
		in.ComputedNextPC = jumpTarget(in)
		in.IsTaken = true
	case instr.Jal:
		in.DstVal = straight + 4 // link register = address after delay slot
		in.ComputedNextPC = jumpTarget(in)
		in.IsTaken = true
	case instr.Jr:
		in.ComputedNextPC = s0
		in.IsTaken = true
	case instr.Jalr:
		in.DstVal = straight + 4
		in.ComputedNextPC = s0
		in.IsTaken = true

	case instr.Syscall:
		in.Trap = trap.Syscall
	case instr.Break:
		in.Trap = trap.Breakpoint

	case instr.Invalid:
		in.Trap = trap.UnknownInstruction
	}

	if !in.IsTaken {
		in.ComputedNextPC = straight
	}
}

func branchTarget(in *instr.Instruction, straight uint64) uint64 {
	if !in.IsTaken {
		return straight
	}
	return uint64(int64(straight) + (in.Fields.ImmS << 2))
}

func jumpTarget(in *instr.Instruction) uint64 {
	pcUpper := (in.PC + 4) & 0xF0000000
	return pcUpper | (uint64(in.Fields.Target26) << 2)
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
