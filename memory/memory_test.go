package memory_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mesi4sim/memory"
)

func TestMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Memory Suite")
}

var _ = Describe("Main", func() {
	var m *memory.Main

	BeforeEach(func() {
		m = memory.New()
	})

	It("is zero-initialized", func() {
		Expect(m.ReadWord(0)).To(Equal(uint32(0)))
		Expect(m.ReadWord(memory.Size - 1)).To(Equal(uint32(0)))
	})

	It("reads back what was written", func() {
		m.WriteWord(8, 0xDEADBEEF)
		Expect(m.ReadWord(8)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("reads out-of-bounds addresses as zero and discards out-of-bounds writes", func() {
		m.WriteWord(memory.Size, 0x1234)
		Expect(m.ReadWord(memory.Size)).To(Equal(uint32(0)))
	})

	It("reads an 8-word block", func() {
		for i := uint32(0); i < memory.BlockWords; i++ {
			m.WriteWord(16+i, i+1)
		}
		block := m.ReadBlock(16)
		for i := 0; i < memory.BlockWords; i++ {
			Expect(block[i]).To(Equal(uint32(i + 1)))
		}
	})

	It("reports -1 for LastNonZero on empty memory", func() {
		Expect(m.LastNonZero()).To(Equal(-1))
	})

	It("reports the highest non-zero address", func() {
		m.WriteWord(100, 5)
		Expect(m.LastNonZero()).To(Equal(100))
	})
})
