// alu.go - Integer execution unit for the V5 core

package v5core

import (
	"fmt"
	"math/bits"
)

// ------------------------------------------------------------------------------
// Integer ALU
// ------------------------------------------------------------------------------

// WordBits is the declared integer operand width. CLZ/CTZ of an all-zero
// operand return exactly this value; the behavior is pinned here rather
// than inherited from any platform builtin convention.
const WordBits = 64

// ALU is the integer execution unit. It reads gpr[rs1] and gpr[rs2],
// writes the result back to gpr[rs1], and updates the Zero/Sign flags
// after every arithmetic/logic writeback. All add/sub/mul arithmetic is
// two's-complement with wraparound; nothing traps on overflow.
type ALU struct{}

// Execute runs one R-type operation against the register file.
func (ALU) Execute(rf *RegFile, op Op, ins Instruction) error {
	a := rf.GPR[ins.Rs1()]
	b := rf.GPR[ins.Rs2()]

	var result uint64
	switch op {
	case OpADD:
		result = a + b
	case OpSUB:
		result = a - b
	case OpMUL:
		result = a * b
	case OpDIV:
		if b == 0 {
			return fmt.Errorf("DIV gpr[%d]=0: %w", ins.Rs2(), ErrDivideByZero)
		}
		// INT64_MIN / -1 wraps back to INT64_MIN; Go's quotient would
		// panic, so the one overflowing case is handled explicitly.
		if int64(a) == -1<<63 && int64(b) == -1 {
			result = a
		} else {
			result = uint64(int64(a) / int64(b))
		}
	case OpMOD:
		if b == 0 {
			return fmt.Errorf("MOD gpr[%d]=0: %w", ins.Rs2(), ErrDivideByZero)
		}
		if int64(a) == -1<<63 && int64(b) == -1 {
			result = 0
		} else {
			result = uint64(int64(a) % int64(b))
		}
	case OpAND:
		result = a & b
	case OpOR:
		result = a | b
	case OpXOR:
		result = a ^ b
	case OpNOT:
		result = ^a
	case OpSHL:
		result = a << (b & 63)
	case OpSHR:
		result = a >> (b & 63)
	case OpROT:
		result = bits.RotateLeft64(a, int(b&63))
	case OpCMP:
		// Flags-only compare: Zero iff equal, Sign from the signed
		// difference. No writeback.
		rf.setZeroSign(a - b)
		return nil
	case OpCLZ:
		result = uint64(bits.LeadingZeros64(a)) // 64 for a == 0
	case OpCTZ:
		result = uint64(bits.TrailingZeros64(a)) // 64 for a == 0
	case OpPOPCNT:
		result = uint64(bits.OnesCount64(a))
	default:
		return fmt.Errorf("ALU cannot execute %v: %w", op, ErrUnknownOperation)
	}

	rf.GPR[ins.Rs1()] = result
	rf.setZeroSign(result)
	return nil
}
