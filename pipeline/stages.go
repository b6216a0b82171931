package pipeline

import (
	"mesi4sim/isa"
	"mesi4sim/regfile"
)

// IMem is the per-core instruction memory, read-only from the
// pipeline's point of view. Fetch returns ok=false past the end of
// instruction memory, which stops the fetch stage.
type IMem interface {
	Fetch(pc uint32) (word uint32, ok bool)
}

// DataCache is the narrow view of a core's private cache the pipeline
// needs. Read and Write may enqueue a bus request on a miss and are
// retried every cycle until they hit; Peek is a side-effect-free probe
// used by writeback to refresh a load's data after a fill.
type DataCache interface {
	Read(addr uint32) (hit bool, data uint32)
	Write(addr uint32, data uint32) (hit bool)
	Peek(addr uint32) (hit bool, data uint32)
}

// branchTaken evaluates a conditional branch with signed comparisons.
func branchTaken(op isa.Opcode, rsValue, rtValue uint32) bool {
	rs := int32(rsValue)
	rt := int32(rtValue)

	switch op {
	case isa.OpBEQ:
		return rs == rt
	case isa.OpBNE:
		return rs != rt
	case isa.OpBLT:
		return rs < rt
	case isa.OpBGT:
		return rs > rt
	case isa.OpBLE:
		return rs <= rt
	case isa.OpBGE:
		return rs >= rt
	default:
		return false
	}
}

// executeSlot computes the EX-stage result for s in place: the ALU
// result, or the effective address for LW/SW. SW's store data is read
// from the register file here, not in decode, so it sees the
// architectural value at execute time. Shift amounts use only the low
// 5 bits of rt. Unknown opcodes execute as no-ops.
func executeSlot(s *Slot, regs *regfile.File) {
	rs := s.RsValue
	rt := s.RtValue

	switch s.Inst.Opcode {
	case isa.OpADD:
		s.ALUResult = rs + rt
	case isa.OpSUB:
		s.ALUResult = rs - rt
	case isa.OpAND:
		s.ALUResult = rs & rt
	case isa.OpOR:
		s.ALUResult = rs | rt
	case isa.OpXOR:
		s.ALUResult = rs ^ rt
	case isa.OpMUL:
		s.ALUResult = uint32(int32(rs) * int32(rt))
	case isa.OpSLL:
		s.ALUResult = rs << (rt & 0x1F)
	case isa.OpSRA:
		s.ALUResult = uint32(int32(rs) >> (rt & 0x1F))
	case isa.OpSRL:
		s.ALUResult = rs >> (rt & 0x1F)
	case isa.OpLW:
		s.ALUResult = rs + rt
	case isa.OpSW:
		s.ALUResult = rs + rt
		s.MemData = regs.Read(s.Inst.Rd, s.ImmVal)
	case isa.OpJAL:
		s.ALUResult = (s.PC + 2) & pcMask
	}
}
