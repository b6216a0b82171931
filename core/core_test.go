package core_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mesi4sim/bus"
	"mesi4sim/core"
	"mesi4sim/isa"
	"mesi4sim/memory"
)

func TestCore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Core Suite")
}

func asmWord(opcode isa.Opcode, rd, rs, rt uint8, imm int32) uint32 {
	return isa.Encode(isa.Instruction{Opcode: opcode, Rd: rd, Rs: rs, Rt: rt, Imm: imm})
}

var _ = Describe("Core", func() {
	It("runs a small program to completion and retires instructions", func() {
		mem := memory.New()
		arbiter := bus.NewArbiter(mem)
		c := core.NewCore(0, arbiter)
		for i := uint8(1); i < bus.NumCores; i++ {
			arbiter.AttachCore(i, noopSnooper{})
		}

		c.LoadInstructions([]uint32{
			asmWord(isa.OpADD, 2, 0, 1, 3),
			asmWord(isa.OpADD, 3, 0, 1, 4),
			asmWord(isa.OpADD, 4, 2, 3, 0),
			asmWord(isa.OpHALT, 0, 0, 0, 0),
		})

		var cycle uint64
		for i := 0; i < 500 && !c.Halted(); i++ {
			arbiter.Tick(cycle)
			c.Tick()
			cycle++
		}

		Expect(c.Halted()).To(BeTrue())
		Expect(c.Registers().Read(4, 0)).To(Equal(uint32(7)))
		Expect(c.Stats().Instructions).To(Equal(uint64(4)))
	})
})

type noopSnooper struct{}

func (noopSnooper) Snoop(bus.Transaction) bus.SnoopResult { return bus.SnoopResult{} }
func (noopSnooper) HandleFill(uint32, uint32, int, bool, bus.Command, bool) {}
