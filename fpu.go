// fpu.go - Floating-point execution unit (binary32) for the V5 core

package v5core

import (
	"fmt"
	"math"
)

// ------------------------------------------------------------------------------
// Rounding Modes
// ------------------------------------------------------------------------------

// RoundingMode selects the IEEE-754 rounding direction for FPU operations.
// RoundNearestEven is the default and the only mode with fully pinned
// semantics; the directed modes are accepted and defer to the platform's
// native binary32 rounding.
type RoundingMode uint8

const (
	RoundNearestEven RoundingMode = iota
	RoundNearestAway
	RoundTowardZero
	RoundTowardPositive
	RoundTowardNegative
)

// ------------------------------------------------------------------------------
// binary32 Bit Helpers
// ------------------------------------------------------------------------------

func isNaN32(f float32) bool {
	bits := math.Float32bits(f)
	return bits&0x7F800000 == 0x7F800000 && bits&0x007FFFFF != 0
}

func isInf32(f float32) bool {
	return math.Float32bits(f)&0x7FFFFFFF == 0x7F800000
}

func isZero32(f float32) bool {
	return math.Float32bits(f)&0x7FFFFFFF == 0
}

func isFinite32(f float32) bool {
	return math.Float32bits(f)&0x7F800000 != 0x7F800000
}

// ------------------------------------------------------------------------------
// FPU
// ------------------------------------------------------------------------------

// FPU is the floating-point execution unit. Operands are binary32 values
// read from fpr[rs1] and fpr[rs2]; results write back to fpr[rs1].
// NaN operands propagate per IEEE unordered rules.
type FPU struct {
	Mode RoundingMode
}

// Execute runs one F-type operation against the register file. FMA reads
// its addend from the FPR indexed by the low bits of the imm field, so a
// three-operand op fits the two-source instruction word.
func (fpu *FPU) Execute(rf *RegFile, op Op, ins Instruction) error {
	a := rf.FPR[ins.Rs1()]
	b := rf.FPR[ins.Rs2()]

	var result float32
	switch op {
	case OpFADD:
		result = a + b
	case OpFSUB:
		result = a - b
	case OpFMUL:
		result = a * b
	case OpFDIV:
		// Only the explicit zero-divisor case with a finite nonzero
		// dividend is rejected; Inf/NaN results stay representable and
		// must not error.
		if isZero32(b) && isFinite32(a) && !isZero32(a) {
			return fmt.Errorf("FDIV fpr[%d]=%v by zero: %w", ins.Rs1(), a, ErrDivideByZero)
		}
		result = a / b
	case OpFSQRT:
		if a < 0 {
			return fmt.Errorf("FSQRT of %v: %w", a, ErrInvalidOperation)
		}
		// sqrt(+0) = +0, sqrt(-0) = -0, NaN propagates.
		result = float32(math.Sqrt(float64(a)))
	case OpFMA:
		c := rf.FPR[ins.Imm()&(NumFPR-1)]
		result = fpu.fma(a, b, c)
	default:
		return fmt.Errorf("FPU cannot execute %v: %w", op, ErrUnknownOperation)
	}

	rf.FPR[ins.Rs1()] = result
	return nil
}

// fma computes a*b+c with a single rounding step. The binary32 product is
// exact in float64, so math.FMA rounds the whole expression once; the
// final narrowing to binary32 honors the selected mode.
func (fpu *FPU) fma(a, b, c float32) float32 {
	wide := math.FMA(float64(a), float64(b), float64(c))
	return fpu.round32(wide)
}

// round32 narrows a float64 to binary32 under the active rounding mode.
// Nearest-even is the hardware default conversion; the directed modes nudge
// the conversion result when it landed on the wrong side of the exact value.
func (fpu *FPU) round32(v float64) float32 {
	r := float32(v)
	switch fpu.Mode {
	case RoundTowardZero:
		if math.Abs(float64(r)) > math.Abs(v) {
			r = nextToward32(r, 0)
		}
	case RoundTowardPositive:
		if float64(r) < v {
			r = nextToward32(r, float32(math.Inf(1)))
		}
	case RoundTowardNegative:
		if float64(r) > v {
			r = nextToward32(r, float32(math.Inf(-1)))
		}
	}
	return r
}

func nextToward32(from, to float32) float32 {
	return math.Nextafter32(from, to)
}
