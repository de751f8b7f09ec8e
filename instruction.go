// instruction.go - Fixed-width 64-bit instruction word for the V5 core

package v5core

// ------------------------------------------------------------------------------
// Instruction Layout
// ------------------------------------------------------------------------------
//
// Every instruction is a single 64-bit word, immutable once fetched:
//
//   Bits 63-60: opcode   (4 bits) - instruction family
//   Bits 59-56: funct    (4 bits) - operation within the family
//   Bits 55-52: rs2      (4 bits) - second source register
//   Bits 51-48: rs1      (4 bits) - first source / destination register
//   Bits 47-32: imm      (16 bits) - immediate
//   Bits 31-0:  extended (32 bits) - auxiliary payload for vector/AI ops

const (
	// InstrSize is the fixed instruction width in bytes. PC advances by
	// this amount after every fetch, taken branches included.
	InstrSize = 8
)

// Instruction is one fetched 64-bit instruction word.
type Instruction uint64

// EncodeInstruction packs the five fields into a 64-bit word. Register
// indices and funct are masked to their field widths.
func EncodeInstruction(opcode, funct, rs2, rs1 uint8, imm uint16, extended uint32) Instruction {
	w := uint64(opcode&0xF) << 60
	w |= uint64(funct&0xF) << 56
	w |= uint64(rs2&0xF) << 52
	w |= uint64(rs1&0xF) << 48
	w |= uint64(imm) << 32
	w |= uint64(extended)
	return Instruction(w)
}

func (ins Instruction) Opcode() uint8    { return uint8(ins >> 60) }
func (ins Instruction) Funct() uint8     { return uint8(ins>>56) & 0xF }
func (ins Instruction) Rs2() uint8       { return uint8(ins>>52) & 0xF }
func (ins Instruction) Rs1() uint8       { return uint8(ins>>48) & 0xF }
func (ins Instruction) Imm() uint16      { return uint16(ins >> 32) }
func (ins Instruction) Extended() uint32 { return uint32(ins) }
