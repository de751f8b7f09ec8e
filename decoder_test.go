package v5core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/alphaahb/v5core"
)

var _ = Describe("Decoder", func() {
	decode := func(opcode, funct uint8) (v5core.Op, error) {
		return v5core.Decode(v5core.EncodeInstruction(opcode, funct, 0, 0, 0, 0))
	}

	Describe("R-Type family", func() {
		It("decodes the full arithmetic/logic funct range", func() {
			expected := map[uint8]v5core.Op{
				0x0: v5core.OpADD, 0x1: v5core.OpSUB, 0x2: v5core.OpMUL,
				0x3: v5core.OpDIV, 0x4: v5core.OpMOD, 0x5: v5core.OpAND,
				0x6: v5core.OpOR, 0x7: v5core.OpXOR, 0x8: v5core.OpSHL,
				0x9: v5core.OpSHR, 0xA: v5core.OpROT, 0xB: v5core.OpCMP,
				0xC: v5core.OpCLZ, 0xD: v5core.OpCTZ, 0xE: v5core.OpPOPCNT,
				0xF: v5core.OpNOT,
			}
			for funct, want := range expected {
				op, err := decode(0x0, funct)
				Expect(err).NotTo(HaveOccurred())
				Expect(op).To(Equal(want))
				Expect(op.Family()).To(Equal(uint8(0x0)))
			}
		})
	})

	Describe("memory and branch families", func() {
		It("decodes LOAD only at I-type funct 0x9", func() {
			op, err := decode(0x1, 0x9)
			Expect(err).NotTo(HaveOccurred())
			Expect(op).To(Equal(v5core.OpLOAD))

			_, err = decode(0x1, 0x0)
			Expect(err).To(MatchError(v5core.ErrUnknownOperation))
		})

		It("decodes STORE at S-type funct 0x0", func() {
			op, err := decode(0x2, 0x0)
			Expect(err).NotTo(HaveOccurred())
			Expect(op).To(Equal(v5core.OpSTORE))
		})

		It("decodes the six branch conditions", func() {
			expected := []v5core.Op{
				v5core.OpBEQ, v5core.OpBNE, v5core.OpBLT,
				v5core.OpBLE, v5core.OpBGT, v5core.OpBGE,
			}
			for funct, want := range expected {
				op, err := decode(0x3, uint8(funct))
				Expect(err).NotTo(HaveOccurred())
				Expect(op).To(Equal(want))
			}
		})
	})

	Describe("float, vector, AI and sync families", func() {
		It("decodes F-type operations", func() {
			expected := []v5core.Op{
				v5core.OpFADD, v5core.OpFSUB, v5core.OpFMUL,
				v5core.OpFDIV, v5core.OpFSQRT, v5core.OpFMA,
			}
			for funct, want := range expected {
				op, err := decode(0x8, uint8(funct))
				Expect(err).NotTo(HaveOccurred())
				Expect(op).To(Equal(want))
			}
		})

		It("decodes V-type operations", func() {
			expected := []v5core.Op{
				v5core.OpVADD, v5core.OpVSUB, v5core.OpVMUL, v5core.OpVDIV,
				v5core.OpVFMA, v5core.OpVSQRT, v5core.OpVCMP, v5core.OpVMATMUL,
			}
			for funct, want := range expected {
				op, err := decode(0x6, uint8(funct))
				Expect(err).NotTo(HaveOccurred())
				Expect(op).To(Equal(want))
			}
		})

		It("decodes the sparse A-type table", func() {
			op, err := decode(0x9, 0x0)
			Expect(err).NotTo(HaveOccurred())
			Expect(op).To(Equal(v5core.OpCONV))

			op, err = decode(0x9, 0x2)
			Expect(err).NotTo(HaveOccurred())
			Expect(op).To(Equal(v5core.OpRELU))

			op, err = decode(0x9, 0x5)
			Expect(err).NotTo(HaveOccurred())
			Expect(op).To(Equal(v5core.OpSOFTMAX))

			_, err = decode(0x9, 0x1)
			Expect(err).To(MatchError(v5core.ErrUnknownOperation))
		})

		It("decodes M-type operations", func() {
			expected := []v5core.Op{
				v5core.OpBARRIER, v5core.OpLOCK, v5core.OpUNLOCK, v5core.OpATOMIC,
			}
			for funct, want := range expected {
				op, err := decode(0x7, uint8(funct))
				Expect(err).NotTo(HaveOccurred())
				Expect(op).To(Equal(want))
			}
		})
	})

	Describe("totality", func() {
		It("rejects every pair outside the table and accepts every pair inside", func() {
			valid := 0
			for opcode := 0; opcode < 16; opcode++ {
				for funct := 0; funct < 16; funct++ {
					op, err := decode(uint8(opcode), uint8(funct))
					if err != nil {
						Expect(err).To(MatchError(v5core.ErrUnknownOperation))
						Expect(op).To(Equal(v5core.OpInvalid))
						continue
					}
					Expect(op).NotTo(Equal(v5core.OpInvalid))
					valid++
				}
			}
			// 16 R + 1 I + 1 S + 6 B + 8 V + 4 M + 6 F + 3 A
			Expect(valid).To(Equal(45))
		})

		It("is pure: operand fields never influence classification", func() {
			plain, err := decode(0x0, 0x0)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := v5core.Decode(
				v5core.EncodeInstruction(0x0, 0x0, 0xF, 0xF, 0xFFFF, 0xFFFFFFFF))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(plain))
		})
	})
})
