// Package sim ties the four cores, the shared bus and main memory
// into one globally clocked simulator and drives it to completion.
package sim

import (
	"mesi4sim/bus"
	"mesi4sim/core"
	"mesi4sim/memory"
	"mesi4sim/pipeline"
)

// SafetyCeiling aborts pathological runs that never reach the
// all-halted termination condition.
const SafetyCeiling = 100000

// CoreTraceRecord is one per-core trace line: the cycle, the stage
// occupancy, and the values of R2..R15 at the end of that cycle.
type CoreTraceRecord struct {
	Cycle uint64
	Row   pipeline.TraceRow
	Regs  [14]uint32
}

// Simulator is the whole machine: four cores with private caches, the
// shared bus arbiter, and main memory.
type Simulator struct {
	Mem   *memory.Main
	Bus   *bus.Arbiter
	Cores [bus.NumCores]*core.Core

	Cycle uint64

	traces [bus.NumCores][]CoreTraceRecord
}

// New creates a simulator with zeroed memory, empty caches and all
// cores at PC 0.
func New() *Simulator {
	mem := memory.New()
	arbiter := bus.NewArbiter(mem)
	s := &Simulator{Mem: mem, Bus: arbiter}
	for i := range s.Cores {
		s.Cores[i] = core.NewCore(uint8(i), arbiter)
	}
	return s
}

// Tick advances simulated time by one global cycle: the bus first,
// then main memory, then every core in id order.
func (s *Simulator) Tick() {
	s.Bus.Tick(s.Cycle)

	// Main memory has no clocked behavior of its own: it is read into
	// the bus's fill buffer at the start of a memory-sourced
	// transaction and written word-by-word during Flush.

	for i, c := range s.Cores {
		running := !c.Halted()
		c.Tick()
		if running {
			s.traces[i] = append(s.traces[i], CoreTraceRecord{
				Cycle: s.Cycle,
				Row:   c.Pipeline.LastTraceRow(),
				Regs:  c.Registers().Snapshot(),
			})
		}
	}

	s.Cycle++
}

// Done reports the termination condition: every core has halted and
// every pipeline slot has drained.
func (s *Simulator) Done() bool {
	for _, c := range s.Cores {
		if !c.Halted() || !c.Pipeline.Empty() {
			return false
		}
	}
	return true
}

// Run advances the simulator until every core has halted and drained,
// or the safety ceiling is hit. It returns the final cycle count and
// whether the ceiling cut the run short.
func (s *Simulator) Run() (cycles uint64, hitCeiling bool) {
	for !s.Done() {
		if s.Cycle >= SafetyCeiling {
			return s.Cycle, true
		}
		s.Tick()
	}
	return s.Cycle, false
}

// Trace returns the accumulated trace records for coreID.
func (s *Simulator) Trace(coreID int) []CoreTraceRecord {
	return s.traces[coreID]
}
