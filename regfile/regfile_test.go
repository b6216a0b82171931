package regfile_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mesi4sim/regfile"
)

func TestRegfile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Regfile Suite")
}

var _ = Describe("File", func() {
	var f *regfile.File

	BeforeEach(func() {
		f = &regfile.File{}
	})

	It("R0 always reads 0 and ignores writes", func() {
		f.Write(0, 0xDEADBEEF)
		Expect(f.Read(0, 42)).To(Equal(uint32(0)))
	})

	It("R1 reads the supplied immediate and ignores writes", func() {
		f.Write(1, 0xDEADBEEF)
		Expect(f.Read(1, 42)).To(Equal(uint32(42)))
	})

	It("R2..R15 are ordinary read/write registers", func() {
		f.Write(5, 123)
		Expect(f.Read(5, 0)).To(Equal(uint32(123)))
	})

	It("snapshots R2..R15 in order", func() {
		for r := uint8(2); r <= 15; r++ {
			f.Write(r, uint32(r)*10)
		}
		snap := f.Snapshot()
		for i := 0; i < 14; i++ {
			Expect(snap[i]).To(Equal(uint32(i+2) * 10))
		}
	})
})
