package pipeline

import "mesi4sim/isa"

// Slot is one pipeline stage's latch. A slot becomes valid when its
// stage pulls from the upstream slot (clearing the upstream valid) and
// is cleared when the downstream stage pulls it in turn.
type Slot struct {
	Valid bool

	// InternalStall marks that the stage holding this slot cannot make
	// progress this cycle: a RAW hazard in decode, or a cache miss in
	// the memory stage. Downstream stages never pull a stalled slot.
	InternalStall bool

	PC   uint32
	Inst isa.Instruction

	RsValue uint32
	RtValue uint32
	ImmVal  uint32

	ALUResult uint32
	MemData   uint32

	RegWrite bool
	IsHalt   bool
	RW       uint8

	// counted marks that this instruction's read/write hit-or-miss
	// statistic has been recorded, so a multi-cycle miss retry only
	// counts once, on the first attempt.
	counted bool

	// decoded marks that the decode stage has finished with this slot:
	// operands read and any branch resolved. Re-running decode on a
	// slot held back by downstream pressure would resolve its branch
	// twice.
	decoded bool
}

// Clear invalidates the slot, leaving a bubble.
func (s *Slot) Clear() {
	*s = Slot{}
}

// StageView is one stage's contribution to a per-cycle trace line.
type StageView struct {
	Valid bool
	PC    uint32
}

// TraceRow records which instruction occupied each stage during one
// cycle, for the per-core trace file.
type TraceRow struct {
	IF  StageView
	ID  StageView
	EX  StageView
	MEM StageView
	WB  StageView
}
