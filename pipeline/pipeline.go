// Package pipeline implements the 5-stage in-order pipeline (IF, ID,
// EX, MEM, WB) shared by every core: one latch slot per stage with
// pull semantics, a full-stall hazard unit, branch resolution in ID
// with a single delay slot, and the cache-miss structural stall driven
// by the memory subsystem.
//
// Within one cycle the stages run downstream first (WB, MEM, EX, ID,
// IF), so each stage pulls the state its upstream produced on the
// previous cycle without explicit double-buffering.
package pipeline

import (
	"mesi4sim/isa"
	"mesi4sim/regfile"
)

// pcMask truncates jump targets and link values to the 10-bit PC space.
const pcMask = 0x3FF

// Stats holds the eight per-core counters reported at the end of a run.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	ReadHit      uint64
	ReadMiss     uint64
	WriteHit     uint64
	WriteMiss    uint64
	DecodeStall  uint64
	MemStall     uint64
}

// Pipeline is one core's 5-stage in-order pipeline. There is no
// forwarding: every RAW hazard stalls decode until the producing
// instruction retires, and a cache miss holds the memory stage (and
// everything behind it) until the bus fill completes.
type Pipeline struct {
	imem  IMem
	regs  *regfile.File
	cache DataCache

	fetch   Slot
	decode  Slot
	execute Slot
	mem     Slot

	pc uint32

	// haltFetch is set the cycle a HALT reaches decode; no further
	// instruction is fetched while the pipeline drains.
	haltFetch bool
	halted    bool

	// A taken branch resolved in decode updates the PC only at the end
	// of the cycle, so the instruction fetched this cycle (the delay
	// slot) still enters the pipeline.
	branchPending  bool
	branchTarget   uint32
	branchSourcePC uint32

	// Register writes commit at the end of the cycle the instruction
	// spends in writeback; decode hazard-checks against this latch.
	pendingWrite struct {
		pending bool
		reg     uint8
		val     uint32
	}
	haltCommit bool

	lastRow TraceRow

	stats Stats
}

// NewPipeline creates a pipeline reading instructions from imem,
// operating on regs, and backed by cache for loads and stores.
func NewPipeline(imem IMem, regs *regfile.File, cache DataCache) *Pipeline {
	return &Pipeline{imem: imem, regs: regs, cache: cache}
}

// PC returns the next fetch address.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// Halted reports whether a HALT instruction has committed.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Empty reports whether every stage slot is invalid.
func (p *Pipeline) Empty() bool {
	return !p.fetch.Valid && !p.decode.Valid && !p.execute.Valid && !p.mem.Valid
}

// Stats returns the pipeline's accumulated statistics.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// LastTraceRow returns the per-stage occupancy of the most recent
// cycle, for the per-core trace file.
func (p *Pipeline) LastTraceRow() TraceRow {
	return p.lastRow
}

// Tick advances the pipeline by one cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}
	p.stats.Cycles++

	var row TraceRow
	p.stageWriteback(&row)
	p.stageMemory(&row)
	p.stageExecute(&row)
	p.stageDecode(&row)
	p.stageFetch(&row)
	p.endOfCycle()
	p.lastRow = row
}

// stageWriteback pulls from MEM (unless MEM is mid-miss) and commits
// the instruction: its register write is staged and applied at end of
// cycle, and a HALT marks the core halted at end of cycle.
func (p *Pipeline) stageWriteback(row *TraceRow) {
	if !p.mem.Valid || p.mem.InternalStall {
		return
	}
	wb := p.mem
	p.mem.Clear()
	row.WB = StageView{Valid: true, PC: wb.PC}

	// A load may have latched its data before a foreign transaction
	// touched the block; refresh it from the cache if the line is
	// still resident.
	if wb.Inst.IsLoad() {
		if hit, data := p.cache.Peek(wb.ALUResult); hit {
			wb.MemData = data
		}
	}

	if wb.RegWrite && wb.RW != 0 && wb.RW != 1 {
		value := wb.ALUResult
		if wb.Inst.IsLoad() {
			value = wb.MemData
		}
		p.pendingWrite.pending = true
		p.pendingWrite.reg = wb.RW
		p.pendingWrite.val = value
	}

	p.stats.Instructions++
	if wb.IsHalt {
		p.haltCommit = true
	}
}

// stageMemory pulls from EX and, for loads and stores, accesses the
// cache every cycle until it hits. The hit-or-miss statistic counts
// only the first attempt; mem_stall counts every miss cycle.
func (p *Pipeline) stageMemory(row *TraceRow) {
	if !p.mem.Valid && p.execute.Valid && !p.execute.InternalStall {
		p.mem = p.execute
		p.execute.Clear()
	}
	if !p.mem.Valid {
		return
	}
	row.MEM = StageView{Valid: true, PC: p.mem.PC}

	inst := p.mem.Inst
	if !inst.IsMemory() {
		return
	}

	var hit bool
	if inst.IsLoad() {
		var data uint32
		hit, data = p.cache.Read(p.mem.ALUResult)
		if hit {
			p.mem.MemData = data
		}
	} else {
		hit = p.cache.Write(p.mem.ALUResult, p.mem.MemData)
	}

	if !p.mem.counted {
		p.mem.counted = true
		switch {
		case inst.IsLoad() && hit:
			p.stats.ReadHit++
		case inst.IsLoad():
			p.stats.ReadMiss++
		case hit:
			p.stats.WriteHit++
		default:
			p.stats.WriteMiss++
		}
	}

	if hit {
		p.mem.InternalStall = false
	} else {
		p.mem.InternalStall = true
		p.stats.MemStall++
	}
}

// stageExecute pulls a decoded instruction and computes its result on
// the pull-in cycle; a slot held back by a stalled MEM keeps its
// already-computed result.
func (p *Pipeline) stageExecute(row *TraceRow) {
	if p.execute.Valid {
		row.EX = StageView{Valid: true, PC: p.execute.PC}
		return
	}
	if !p.decode.Valid || p.decode.InternalStall || !p.decode.decoded {
		return
	}

	s := p.decode
	p.decode.Clear()
	executeSlot(&s, p.regs)
	p.execute = s
	row.EX = StageView{Valid: true, PC: s.PC}
}

// stageDecode pulls from IF, then resolves the instruction: hazard
// check, operand read, branch/JAL resolution, HALT. A hazard holds the
// instruction here, re-checked every cycle, counting decode_stall.
func (p *Pipeline) stageDecode(row *TraceRow) {
	if !p.decode.Valid && p.fetch.Valid {
		p.decode = p.fetch
		p.fetch.Clear()
	}
	if !p.decode.Valid {
		return
	}
	row.ID = StageView{Valid: true, PC: p.decode.PC}
	if p.decode.decoded {
		return
	}

	s := &p.decode
	inst := s.Inst
	s.ImmVal = uint32(inst.Imm)

	if p.hazard(inst) {
		s.InternalStall = true
		p.stats.DecodeStall++
		return
	}
	s.InternalStall = false
	s.decoded = true

	s.RsValue = p.regs.Read(inst.Rs, s.ImmVal)
	s.RtValue = p.regs.Read(inst.Rt, s.ImmVal)
	s.RegWrite = inst.WritesRegister()
	s.RW = inst.DestRegister()

	switch {
	case inst.IsHalt():
		s.IsHalt = true
		p.haltFetch = true
		p.fetch.Clear()
	case inst.Opcode == isa.OpJAL:
		p.branchPending = true
		p.branchTarget = p.regs.Read(inst.Rd, s.ImmVal) & pcMask
		p.branchSourcePC = s.PC
	case inst.IsBranch():
		if branchTaken(inst.Opcode, s.RsValue, s.RtValue) {
			p.branchPending = true
			p.branchTarget = p.regs.Read(inst.Rd, s.ImmVal) & pcMask
			p.branchSourcePC = s.PC
		}
	}
}

// stageFetch reads imem[pc] into the IF slot and advances the PC. It
// does nothing while fetch is halted, while the IF slot is still
// occupied, while decode is stalled, or past the end of instruction
// memory.
func (p *Pipeline) stageFetch(row *TraceRow) {
	if p.haltFetch {
		return
	}
	if p.fetch.Valid {
		row.IF = StageView{Valid: true, PC: p.fetch.PC}
		return
	}
	if p.decodeStalled() {
		p.markStillFetching(row)
		return
	}

	word, ok := p.imem.Fetch(p.pc)
	if !ok {
		return
	}
	p.fetch = Slot{
		Valid: true,
		PC:    p.pc,
		Inst:  isa.Decode(word),
	}
	row.IF = StageView{Valid: true, PC: p.pc}
	p.pc++
}

// decodeStalled is the backpressure seen by fetch: decode holds an
// instruction it cannot resolve, or execute cannot drain into a
// stalled MEM.
func (p *Pipeline) decodeStalled() bool {
	if !p.decode.Valid {
		return false
	}
	return p.decode.InternalStall || (p.execute.Valid && p.mem.InternalStall)
}

// markStillFetching records the current PC in the IF trace column for
// a cycle where nothing was fetched but the fetch stage is still live.
func (p *Pipeline) markStillFetching(row *TraceRow) {
	if _, ok := p.imem.Fetch(p.pc); ok {
		row.IF = StageView{Valid: true, PC: p.pc}
	}
}

// endOfCycle applies the committed register write, redirects the PC
// for a resolved branch, and latches the halt.
func (p *Pipeline) endOfCycle() {
	if p.pendingWrite.pending {
		p.regs.Write(p.pendingWrite.reg, p.pendingWrite.val)
		p.pendingWrite.pending = false
	}
	if p.branchPending {
		p.pc = p.branchTarget
		p.branchPending = false
	}
	if p.haltCommit {
		p.halted = true
		p.haltCommit = false
	}
}
