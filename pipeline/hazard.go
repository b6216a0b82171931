package pipeline

import "mesi4sim/isa"

// hazardOn reports whether register r is the destination of an
// instruction still in flight in EX, MEM, or this cycle's writeback.
// R0 and R1 never hazard: their reads are not backed by the register
// array.
func (p *Pipeline) hazardOn(r uint8) bool {
	if r == 0 || r == 1 {
		return false
	}
	if p.execute.Valid && p.execute.RegWrite && p.execute.RW == r {
		return true
	}
	if p.mem.Valid && p.mem.RegWrite && p.mem.RW == r {
		return true
	}
	if p.pendingWrite.pending && p.pendingWrite.reg == r {
		return true
	}
	return false
}

// hazard reports whether inst must stall in decode. There is no
// forwarding network: every RAW hazard holds the instruction in ID
// until the producer retires. Branches and JAL consume rd as the jump
// target in ID, and SW consumes rd as store data in EX, so those
// opcodes hazard on rd as well as rs/rt.
func (p *Pipeline) hazard(inst isa.Instruction) bool {
	if p.hazardOn(inst.Rs) || p.hazardOn(inst.Rt) {
		return true
	}
	if inst.IsBranch() || inst.Opcode == isa.OpJAL || inst.IsStore() {
		return p.hazardOn(inst.Rd)
	}
	return false
}
