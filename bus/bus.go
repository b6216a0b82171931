// Package bus implements the shared bus arbiter: round-robin grant
// among the four cores, the Arbitrate→Request→Latency→Flush
// transaction FSM, and cache-to-cache transfer.
package bus

import "mesi4sim/memory"

// Command identifies a bus transaction's operation. Numeric values
// match the bus-trace file encoding.
type Command uint8

// Bus commands.
const (
	None   Command = 0
	BusRd  Command = 1
	BusRdX Command = 2
	Flush  Command = 3
)

// NumCores is the number of cores sharing this bus.
const NumCores = 4

// MemoryOrigin is the origid used by main memory when it is the data
// provider.
const MemoryOrigin = 4

// Transaction is the bus's wire format: the fields visible to every
// snooping cache during a Request cycle.
type Transaction struct {
	OrigID uint8
	Cmd    Command
	Addr   uint32
	Data   uint32
	Shared bool
}

// SnoopResult is returned by a cache's Snoop method.
type SnoopResult struct {
	// Provides is true if this cache supplies the block (it was
	// Modified), enabling cache-to-cache transfer.
	Provides bool
	// Block holds the 8-word block, valid only if Provides is true.
	Block [memory.BlockWords]uint32
	// Shared is asserted on a BusRd if this cache holds the block valid.
	// It is never asserted on a BusRdX.
	Shared bool
}

// Snooper is implemented by each core's private cache so the bus can
// snoop foreign transactions and deliver fill words.
type Snooper interface {
	// Snoop is invoked once per foreign transaction, during the Request
	// cycle, for every cache other than the requester.
	Snoop(tx Transaction) SnoopResult

	// HandleFill is invoked once per word of every Flush, for every
	// cache (only the owner acts on it). finalCmd is the original
	// request command (BusRd or BusRdX) that this Flush is servicing,
	// and shared is the shared_at_request bit latched during Request.
	HandleFill(blockBase uint32, word uint32, offset int, isOwner bool, finalCmd Command, shared bool)
}

// State is one state of the bus transaction FSM.
type State uint8

// FSM states.
const (
	StateIdle State = iota
	StateArbitrate
	StateRequest
	StateLatency
	StateFlush
)

// pendingRequest is one core's queued bus request.
type pendingRequest struct {
	cmd  Command
	addr uint32
}

// TraceEntry is one line of the bus trace.
type TraceEntry struct {
	Cycle  uint64
	OrigID uint8
	Cmd    Command
	Addr   uint32
	Data   uint32
	Shared bool
}

// Arbiter is the shared-bus arbiter and transaction FSM.
type Arbiter struct {
	mem   *memory.Main
	cores [NumCores]Snooper

	pending    [NumCores]bool
	pendingReq [NumCores]pendingRequest

	lastGranted int
	owner       int // -1 when idle, else the requesting core's id
	state       State
	timer       int

	reqCmd          Command
	reqAddr         uint32
	blockBase       uint32
	sharedAtRequest bool
	providerID      int
	fillBuffer      [memory.BlockWords]uint32

	trace []TraceEntry
}

// NewArbiter creates an arbiter wired to main memory. Cores are
// attached afterward with AttachCore, since a core's cache needs a
// pointer back to the arbiter it is attached to.
func NewArbiter(mem *memory.Main) *Arbiter {
	return &Arbiter{
		mem:         mem,
		lastGranted: NumCores - 1, // core 0 is the first round-robin candidate
		owner:       -1,
		state:       StateIdle,
	}
}

// AttachCore registers the Snooper (private cache) for coreID.
func (a *Arbiter) AttachCore(coreID uint8, snooper Snooper) {
	a.cores[coreID] = snooper
}

// Busy reports whether coreID already has a request queued or owns
// the current transaction; a cache must not enqueue a second request
// while this is true.
func (a *Arbiter) Busy(coreID uint8) bool {
	return a.pending[coreID] || a.owner == int(coreID)
}

// RequestBus enqueues a bus request for coreID. Returns false if the
// core is already busy (pending or owning a transaction).
func (a *Arbiter) RequestBus(coreID uint8, cmd Command, addr uint32) bool {
	if a.Busy(coreID) {
		return false
	}
	a.pending[coreID] = true
	a.pendingReq[coreID] = pendingRequest{cmd: cmd, addr: addr}
	return true
}

// State returns the arbiter's current FSM state.
func (a *Arbiter) State() State {
	return a.state
}

// Trace returns the accumulated bus trace entries.
func (a *Arbiter) Trace() []TraceEntry {
	return a.trace
}

// Tick advances the bus FSM by one cycle.
func (a *Arbiter) Tick(cycle uint64) {
	switch a.state {
	case StateIdle:
		coreID, ok := a.arbitrate()
		if !ok {
			return
		}
		a.beginTransaction(coreID, cycle)

	case StateLatency:
		a.timer--
		if a.timer == 0 {
			a.state = StateFlush
			a.timer = memory.BlockWords
		}

	case StateFlush:
		a.emitFlushWord(cycle)
		a.timer--
		if a.timer == 0 {
			a.state = StateIdle
			a.owner = -1
		}
	}
}

// arbitrate scans (last_granted+1, +2, +3, +0) mod NumCores and
// returns the first pending core found.
func (a *Arbiter) arbitrate() (uint8, bool) {
	for offset := 1; offset <= NumCores; offset++ {
		cand := uint8((a.lastGranted + offset) % NumCores)
		if a.pending[cand] {
			return cand, true
		}
	}
	return 0, false
}

// beginTransaction performs the Arbitrate→Request work: it grants the
// bus, snoops every other cache, and decides whether the fill is
// sourced from a cache (cache-to-cache) or from main memory. This all
// happens within the grant cycle, matching ARBITRATE's immediate
// fall-through into REQUEST.
func (a *Arbiter) beginTransaction(coreID uint8, cycle uint64) {
	req := a.pendingReq[coreID]
	a.pending[coreID] = false
	a.lastGranted = int(coreID)
	a.owner = int(coreID)
	a.reqCmd = req.cmd
	a.reqAddr = req.addr
	a.blockBase = req.addr &^ uint32(memory.BlockWords-1)

	tx := Transaction{OrigID: coreID, Cmd: req.cmd, Addr: req.addr}

	shared := false
	providerFound := false
	providerID := MemoryOrigin
	var providerBlock [memory.BlockWords]uint32

	for i := 0; i < NumCores; i++ {
		if i == int(coreID) || a.cores[i] == nil {
			continue
		}
		res := a.cores[i].Snoop(tx)
		if res.Shared {
			shared = true
		}
		if res.Provides {
			providerFound = true
			providerID = i
			providerBlock = res.Block
		}
	}

	a.sharedAtRequest = shared
	a.providerID = providerID
	a.appendTrace(cycle, coreID, req.cmd, req.addr, 0, shared)

	if providerFound {
		a.fillBuffer = providerBlock
		a.state = StateFlush
		a.timer = memory.BlockWords
		return
	}

	a.fillBuffer = a.mem.ReadBlock(a.blockBase)
	a.state = StateLatency
	a.timer = 15
}

// emitFlushWord delivers one word of the Flush transfer to every
// cache and, for a cache-to-cache transfer, writes the word through to
// main memory in parallel.
func (a *Arbiter) emitFlushWord(cycle uint64) {
	wordIndex := memory.BlockWords - a.timer
	addr := a.blockBase + uint32(wordIndex)
	data := a.fillBuffer[wordIndex]

	a.appendTrace(cycle, uint8(a.providerID), Flush, addr, data, a.sharedAtRequest)

	if a.providerID != MemoryOrigin {
		a.mem.WriteWordThrough(addr, data)
	}

	for i := 0; i < NumCores; i++ {
		if a.cores[i] == nil {
			continue
		}
		isOwner := i == a.owner
		a.cores[i].HandleFill(a.blockBase, data, wordIndex, isOwner, a.reqCmd, a.sharedAtRequest)
	}
}

func (a *Arbiter) appendTrace(cycle uint64, origID uint8, cmd Command, addr, data uint32, shared bool) {
	if cmd == None {
		return
	}
	a.trace = append(a.trace, TraceEntry{
		Cycle:  cycle,
		OrigID: origID,
		Cmd:    cmd,
		Addr:   addr,
		Data:   data,
		Shared: shared,
	})
}
