// Package core wraps one CPU's instruction memory, register file,
// private MESI cache and 5-stage pipeline into a single tickable unit.
package core

import (
	"mesi4sim/bus"
	"mesi4sim/coherence"
	"mesi4sim/pipeline"
	"mesi4sim/regfile"
)

// IMemWords is the number of words in each core's private instruction
// memory (1024 instructions).
const IMemWords = 1024

// instructionMemory is a core's private, read-only instruction store.
type instructionMemory struct {
	words [IMemWords]uint32
}

func (m *instructionMemory) Fetch(pc uint32) (uint32, bool) {
	if int(pc) >= IMemWords {
		return 0, false
	}
	return m.words[pc], true
}

// Core is one of the four CPUs sharing the bus: its own instruction
// memory and register file, its private cache, and the pipeline
// driving them.
type Core struct {
	ID uint8

	imem     *instructionMemory
	regs     *regfile.File
	cache    *coherence.Cache
	Pipeline *pipeline.Pipeline
}

// NewCore creates core id, wiring its cache into arbiter.
func NewCore(id uint8, arbiter *bus.Arbiter) *Core {
	c := &Core{
		ID:   id,
		imem: &instructionMemory{},
		regs: &regfile.File{},
	}
	c.cache = coherence.NewCache(id, arbiter)
	arbiter.AttachCore(id, c.cache)
	c.Pipeline = pipeline.NewPipeline(c.imem, c.regs, c.cache)
	return c
}

// LoadInstructions copies words into the core's instruction memory,
// starting at address 0. Extra words beyond IMemWords are discarded.
func (c *Core) LoadInstructions(words []uint32) {
	n := len(words)
	if n > IMemWords {
		n = IMemWords
	}
	copy(c.imem.words[:n], words[:n])
}

// Tick advances the core's pipeline by one cycle.
func (c *Core) Tick() {
	c.Pipeline.Tick()
}

// Halted reports whether the core's pipeline has drained after HALT.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Registers returns the core's register file, for result dumps.
func (c *Core) Registers() *regfile.File {
	return c.regs
}

// Cache returns the core's private cache, for DSRAM/TSRAM dumps.
func (c *Core) Cache() *coherence.Cache {
	return c.cache
}

// Stats returns the core's pipeline statistics.
func (c *Core) Stats() pipeline.Stats {
	return c.Pipeline.Stats()
}
