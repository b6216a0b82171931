package bus_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mesi4sim/bus"
	"mesi4sim/memory"
)

func TestBus(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bus Suite")
}

// noopSnooper never holds a block and never provides data.
type noopSnooper struct{}

func (noopSnooper) Snoop(bus.Transaction) bus.SnoopResult { return bus.SnoopResult{} }
func (noopSnooper) HandleFill(uint32, uint32, int, bool, bus.Command, bool) {}

func newArbiterWithNoopCores(mem *memory.Main) *bus.Arbiter {
	a := bus.NewArbiter(mem)
	for i := uint8(0); i < bus.NumCores; i++ {
		a.AttachCore(i, noopSnooper{})
	}
	return a
}

var _ = Describe("Arbiter", func() {
	var (
		mem *memory.Main
		a   *bus.Arbiter
	)

	BeforeEach(func() {
		mem = memory.New()
		a = newArbiterWithNoopCores(mem)
	})

	It("starts idle", func() {
		Expect(a.State()).To(Equal(bus.StateIdle))
	})

	It("grants a lone request and walks Request -> Latency -> Flush -> Idle", func() {
		Expect(a.RequestBus(0, bus.BusRd, 0)).To(BeTrue())

		var cycle uint64
		a.Tick(cycle) // Arbitrate+Request cycle
		Expect(a.State()).To(Equal(bus.StateLatency))

		for i := 0; i < 15; i++ {
			cycle++
			a.Tick(cycle)
		}
		Expect(a.State()).To(Equal(bus.StateFlush))

		for i := 0; i < 8; i++ {
			cycle++
			a.Tick(cycle)
		}
		Expect(a.State()).To(Equal(bus.StateIdle))
	})

	It("produces a Request trace line and 8 Flush trace lines for a cold memory load", func() {
		Expect(a.RequestBus(0, bus.BusRd, 0)).To(BeTrue())

		var cycle uint64
		for a.State() != bus.StateIdle || cycle == 0 {
			a.Tick(cycle)
			cycle++
			if cycle > 30 {
				break
			}
		}

		trace := a.Trace()
		Expect(trace).To(HaveLen(9)) // 1 Request + 8 Flush words
		Expect(trace[0].Cmd).To(Equal(bus.BusRd))
		Expect(trace[0].OrigID).To(Equal(uint8(0)))
		for i := 1; i < 9; i++ {
			Expect(trace[i].Cmd).To(Equal(bus.Flush))
			Expect(trace[i].OrigID).To(Equal(uint8(bus.MemoryOrigin)))
			Expect(trace[i].Addr).To(Equal(uint32(i - 1)))
		}
	})

	It("rejects a second request from a busy core", func() {
		Expect(a.RequestBus(0, bus.BusRd, 0)).To(BeTrue())
		Expect(a.RequestBus(0, bus.BusRd, 8)).To(BeFalse())
	})

	It("grants round-robin in order 0,1,2,3 when all four request simultaneously", func() {
		// last_granted starts such that core 0 is first; request all 4 at once.
		for core := uint8(0); core < bus.NumCores; core++ {
			Expect(a.RequestBus(core, bus.BusRd, uint32(core)*8)).To(BeTrue())
		}

		var granted []uint8
		var cycle uint64
		for len(granted) < 4 {
			before := len(a.Trace())
			a.Tick(cycle)
			if len(a.Trace()) > before {
				granted = append(granted, a.Trace()[len(a.Trace())-1].OrigID)
			}
			cycle++
			// Drain the rest of this owner's transaction before the next grant.
			for a.State() != bus.StateIdle {
				a.Tick(cycle)
				cycle++
			}
			if cycle > 200 {
				break
			}
		}

		Expect(granted).To(Equal([]uint8{0, 1, 2, 3}))
	})
})
