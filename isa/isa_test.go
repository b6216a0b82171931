package isa_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mesi4sim/isa"
)

func TestISA(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ISA Suite")
}

var _ = Describe("Decode/Encode", func() {
	It("round-trips every field", func() {
		inst := isa.Instruction{Opcode: isa.OpADD, Rd: 3, Rs: 5, Rt: 9, Imm: -7}
		word := isa.Encode(inst)
		got := isa.Decode(word)
		Expect(got).To(Equal(inst))
	})

	It("sign-extends a negative 12-bit immediate", func() {
		// imm12 = 0xFFF (-1 in 12-bit two's complement)
		word := uint32(0x00000FFF)
		inst := isa.Decode(word)
		Expect(inst.Imm).To(Equal(int32(-1)))
	})

	It("decodes a positive immediate without sign extension", func() {
		word := uint32(0x00000005)
		inst := isa.Decode(word)
		Expect(inst.Imm).To(Equal(int32(5)))
	})

	It("round-trips across the full opcode set", func() {
		opcodes := []isa.Opcode{
			isa.OpADD, isa.OpSUB, isa.OpAND, isa.OpOR, isa.OpXOR, isa.OpMUL,
			isa.OpSLL, isa.OpSRA, isa.OpSRL, isa.OpBEQ, isa.OpBNE, isa.OpBLT,
			isa.OpBGT, isa.OpBLE, isa.OpBGE, isa.OpJAL, isa.OpLW, isa.OpSW,
			isa.OpHALT,
		}
		for _, op := range opcodes {
			inst := isa.Instruction{Opcode: op, Rd: 1, Rs: 2, Rt: 3, Imm: 100}
			Expect(isa.Decode(isa.Encode(inst))).To(Equal(inst))
		}
	})
})

var _ = Describe("Classification predicates", func() {
	It("classifies branches", func() {
		Expect(isa.Instruction{Opcode: isa.OpBEQ}.IsBranch()).To(BeTrue())
		Expect(isa.Instruction{Opcode: isa.OpADD}.IsBranch()).To(BeFalse())
	})

	It("classifies loads and stores", func() {
		Expect(isa.Instruction{Opcode: isa.OpLW}.IsLoad()).To(BeTrue())
		Expect(isa.Instruction{Opcode: isa.OpSW}.IsStore()).To(BeTrue())
		Expect(isa.Instruction{Opcode: isa.OpLW}.IsMemory()).To(BeTrue())
	})

	It("JAL always targets R15 regardless of rd", func() {
		inst := isa.Instruction{Opcode: isa.OpJAL, Rd: 4}
		Expect(inst.DestRegister()).To(Equal(uint8(15)))
	})

	It("non-JAL register writers target rd", func() {
		inst := isa.Instruction{Opcode: isa.OpADD, Rd: 9}
		Expect(inst.WritesRegister()).To(BeTrue())
		Expect(inst.DestRegister()).To(Equal(uint8(9)))
	})

	It("HALT does not write a register", func() {
		Expect(isa.Instruction{Opcode: isa.OpHALT}.WritesRegister()).To(BeFalse())
	})
})
