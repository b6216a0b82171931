package coherence

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"mesi4sim/bus"
	"mesi4sim/memory"
)

// Geometry: 512 words, direct-mapped, 8-word blocks.
const (
	NumSets    = 64
	OffsetBits = 3 // log2(memory.BlockWords)
	IndexBits  = 6 // log2(NumSets)
	offsetMask = uint32(memory.BlockWords - 1)
	indexMask  = uint32(NumSets - 1)
)

// Cache is one core's private, direct-mapped MESI data cache: a tag
// store (TSRAM, backed by an Akita cache directory configured as
// direct-mapped), a MESI-state array and a data store (DSRAM) layered
// on top of it, and the bus-facing Snoop/HandleFill callbacks.
//
// The Akita directory tracks tag and validity; it has no notion of
// the four MESI states, so those live in the parallel state array
// here, updated by Read, Write, Snoop and HandleFill.
type Cache struct {
	coreID  uint8
	arbiter *bus.Arbiter

	directory *akitacache.DirectoryImpl
	state     [NumSets]MesiState
	data      [NumSets][memory.BlockWords]uint32
}

// NewCache creates the private cache for coreID, wired to the shared
// arbiter for issuing BusRd/BusRdX requests.
func NewCache(coreID uint8, arbiter *bus.Arbiter) *Cache {
	return &Cache{
		coreID:  coreID,
		arbiter: arbiter,
		directory: akitacache.NewDirectory(
			NumSets,
			1, // direct-mapped: one way per set
			memory.BlockWords,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// decode splits a word address into (index, offset); the tag is
// carried implicitly by the directory's block-aligned address.
func decode(addr uint32) (index, offset uint32) {
	offset = addr & offsetMask
	index = (addr >> OffsetBits) & indexMask
	return
}

func blockBaseOf(addr uint32) uint32 {
	return addr &^ offsetMask
}

// tagOf returns the 12-bit tag field for the TSRAM dump.
func tagOf(blockBase uint32) uint32 {
	return (blockBase >> (OffsetBits + IndexBits)) & 0xFFF
}

// Read is the pipeline's load path: hit iff valid, tag matches and
// the block is not Invalid. On a miss it enqueues a BusRd, unless a
// request for this core is already in flight.
func (c *Cache) Read(addr uint32) (hit bool, data uint32) {
	blockBase := blockBaseOf(addr)
	block := c.directory.Lookup(0, uint64(blockBase))
	if block != nil && block.IsValid {
		index := uint32(block.SetID)
		if c.state[index] != Invalid {
			_, offset := decode(addr)
			return true, c.data[index][offset]
		}
	}

	if !c.arbiter.Busy(c.coreID) {
		c.arbiter.RequestBus(c.coreID, bus.BusRd, addr)
	}
	return false, 0
}

// Peek reports whether addr currently hits, and returns its word,
// without issuing any bus request on a miss. The writeback stage uses
// it to refresh a load's value after a fill.
func (c *Cache) Peek(addr uint32) (hit bool, data uint32) {
	blockBase := blockBaseOf(addr)
	block := c.directory.Lookup(0, uint64(blockBase))
	if block != nil && block.IsValid {
		index := uint32(block.SetID)
		if c.state[index] != Invalid {
			_, offset := decode(addr)
			return true, c.data[index][offset]
		}
	}
	return false, 0
}

// Write is the pipeline's store path: hit iff valid, tag matches
// and the block is Exclusive or Modified. A store to a Shared block is
// not a hit: it must upgrade via BusRdX, which covers both the
// invalid-miss and the Shared-upgrade case with one request kind.
func (c *Cache) Write(addr uint32, data uint32) (hit bool) {
	blockBase := blockBaseOf(addr)
	block := c.directory.Lookup(0, uint64(blockBase))
	if block != nil && block.IsValid {
		index := uint32(block.SetID)
		state := c.state[index]
		if state == Exclusive || state == Modified {
			_, offset := decode(addr)
			c.data[index][offset] = data
			c.state[index] = Modified
			return true
		}
	}

	if !c.arbiter.Busy(c.coreID) {
		c.arbiter.RequestBus(c.coreID, bus.BusRdX, addr)
	}
	return false
}

// Snoop is called by the bus during the Request cycle for every cache
// other than the requester.
func (c *Cache) Snoop(tx bus.Transaction) bus.SnoopResult {
	blockBase := blockBaseOf(tx.Addr)
	block := c.directory.Lookup(0, uint64(blockBase))
	if block == nil || !block.IsValid {
		return bus.SnoopResult{}
	}

	index := uint32(block.SetID)
	state := c.state[index]
	if state == Invalid {
		return bus.SnoopResult{}
	}

	switch tx.Cmd {
	case bus.BusRd:
		switch state {
		case Modified:
			blk := c.data[index]
			c.state[index] = Shared
			return bus.SnoopResult{Provides: true, Block: blk, Shared: true}
		case Exclusive:
			c.state[index] = Shared
			return bus.SnoopResult{Shared: true}
		case Shared:
			return bus.SnoopResult{Shared: true}
		}

	case bus.BusRdX:
		switch state {
		case Modified:
			blk := c.data[index]
			c.state[index] = Invalid
			block.IsValid = false
			return bus.SnoopResult{Provides: true, Block: blk}
		case Exclusive, Shared:
			c.state[index] = Invalid
			block.IsValid = false
			return bus.SnoopResult{}
		}
	}

	return bus.SnoopResult{}
}

// HandleFill is invoked for every word of every Flush observed on the
// bus. Only the transaction's owner acts.
func (c *Cache) HandleFill(blockBase uint32, word uint32, offset int, isOwner bool, finalCmd bus.Command, shared bool) {
	if !isOwner {
		return
	}

	index, _ := decode(blockBase)
	c.data[index][offset] = word

	if offset != memory.BlockWords-1 {
		return
	}

	block := c.directory.FindVictim(uint64(blockBase))
	block.Tag = uint64(blockBase)
	block.IsValid = true
	block.IsDirty = finalCmd == bus.BusRdX

	if finalCmd == bus.BusRdX {
		c.state[index] = Modified
	} else if shared {
		c.state[index] = Shared
	} else {
		c.state[index] = Exclusive
	}
}

// SetEntry describes one TSRAM/DSRAM set for dump output.
type SetEntry struct {
	Valid bool
	State MesiState
	Tag   uint32
	Data  [memory.BlockWords]uint32
}

// Dump returns every set's current state, in index order, for the
// DSRAM/TSRAM textual dumps.
func (c *Cache) Dump() [NumSets]SetEntry {
	var out [NumSets]SetEntry
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			index := uint32(block.SetID)
			out[index] = SetEntry{
				Valid: block.IsValid && c.state[index] != Invalid,
				State: c.state[index],
				Tag:   tagOf(uint32(block.Tag)),
				Data:  c.data[index],
			}
		}
	}
	return out
}
