// vector.go - 512-bit vector/SIMD execution unit for the V5 core

package v5core

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ------------------------------------------------------------------------------
// Vector Geometry
// ------------------------------------------------------------------------------

// A vector register is a 64-byte opaque buffer. Lane width and element
// type are declared by each operation, never inferred from the register:
// every op below slices the same 512 bits as 16 little-endian 32-bit lanes,
// typed int32 or float32 per operation.
const (
	VectorLanes = 16
	laneBytes   = 4
)

// Per-operation cycle costs for throughput modeling. Absolute values may
// be recalibrated but the ordering SQRT >= MUL >= FMA >= ADD >= CMP must
// hold; downstream benchmarking depends on relative cost only.
const (
	CyclesVCMP    = 1
	CyclesVADD    = 2
	CyclesVSUB    = 2
	CyclesVFMA    = 3
	CyclesVMUL    = 4
	CyclesVDIV    = 6
	CyclesVSQRT   = 8
	CyclesVMATMUL = 64
)

// Result-flags word layout for VFMA: one NaN bit and one Inf bit per lane,
// in non-overlapping regions.
const (
	vfmaNaNShift = 0  // bits 0-15: lane produced NaN
	vfmaInfShift = 16 // bits 16-31: lane produced +/-Inf
)

// VectorResult is the outcome of one vector operation: the 64-byte result
// payload, a per-lane flags word, and the fixed cycle cost.
type VectorResult struct {
	Data   [VectorBytes]byte
	Flags  uint32
	Cycles uint32
}

// ------------------------------------------------------------------------------
// Lane Access
// ------------------------------------------------------------------------------

func laneI32(v *[VectorBytes]byte, i int) int32 {
	return int32(binary.LittleEndian.Uint32(v[i*laneBytes:]))
}

func setLaneI32(v *[VectorBytes]byte, i int, val int32) {
	binary.LittleEndian.PutUint32(v[i*laneBytes:], uint32(val))
}

func laneF32(v *[VectorBytes]byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(v[i*laneBytes:]))
}

func setLaneF32(v *[VectorBytes]byte, i int, val float32) {
	binary.LittleEndian.PutUint32(v[i*laneBytes:], math.Float32bits(val))
}

// PackInt32Lanes builds a vector register image from up to 16 int32 lanes.
func PackInt32Lanes(lanes []int32) [VectorBytes]byte {
	var v [VectorBytes]byte
	for i := 0; i < len(lanes) && i < VectorLanes; i++ {
		setLaneI32(&v, i, lanes[i])
	}
	return v
}

// UnpackInt32Lanes extracts the 16 int32 lanes of a vector register image.
func UnpackInt32Lanes(v [VectorBytes]byte) [VectorLanes]int32 {
	var out [VectorLanes]int32
	for i := range out {
		out[i] = laneI32(&v, i)
	}
	return out
}

// PackFloat32Lanes builds a vector register image from up to 16 float32 lanes.
func PackFloat32Lanes(lanes []float32) [VectorBytes]byte {
	var v [VectorBytes]byte
	for i := 0; i < len(lanes) && i < VectorLanes; i++ {
		setLaneF32(&v, i, lanes[i])
	}
	return v
}

// UnpackFloat32Lanes extracts the 16 float32 lanes of a vector register image.
func UnpackFloat32Lanes(v [VectorBytes]byte) [VectorLanes]float32 {
	var out [VectorLanes]float32
	for i := range out {
		out[i] = laneF32(&v, i)
	}
	return out
}

// ------------------------------------------------------------------------------
// Vector Unit
// ------------------------------------------------------------------------------

// VectorUnit executes 512-bit SIMD operations, each lane independently.
type VectorUnit struct{}

// AddInt32 adds per lane with wraparound. A lane's flag bit is set iff the
// addition overflowed under the same sign test as scalar ADD: both operands
// one sign, result the other.
func (VectorUnit) AddInt32(a, b *[VectorBytes]byte) VectorResult {
	res := VectorResult{Cycles: CyclesVADD}
	for i := 0; i < VectorLanes; i++ {
		va, vb := laneI32(a, i), laneI32(b, i)
		sum := va + vb
		setLaneI32(&res.Data, i, sum)
		if (va > 0 && vb > 0 && sum < 0) || (va < 0 && vb < 0 && sum > 0) {
			res.Flags |= 1 << i
		}
	}
	return res
}

// SubInt32 subtracts per lane with wraparound and the matching sign-based
// overflow test.
func (VectorUnit) SubInt32(a, b *[VectorBytes]byte) VectorResult {
	res := VectorResult{Cycles: CyclesVSUB}
	for i := 0; i < VectorLanes; i++ {
		va, vb := laneI32(a, i), laneI32(b, i)
		diff := va - vb
		setLaneI32(&res.Data, i, diff)
		if (va >= 0 && vb < 0 && diff < 0) || (va < 0 && vb > 0 && diff >= 0) {
			res.Flags |= 1 << i
		}
	}
	return res
}

// MulInt32 multiplies per lane in a widened 64-bit intermediate and
// saturates to the int32 range, setting the lane's flag bit on overflow.
func (VectorUnit) MulInt32(a, b *[VectorBytes]byte) VectorResult {
	res := VectorResult{Cycles: CyclesVMUL}
	for i := 0; i < VectorLanes; i++ {
		wide := int64(laneI32(a, i)) * int64(laneI32(b, i))
		if wide > math.MaxInt32 {
			res.Flags |= 1 << i
			wide = math.MaxInt32
		} else if wide < math.MinInt32 {
			res.Flags |= 1 << i
			wide = math.MinInt32
		}
		setLaneI32(&res.Data, i, int32(wide))
	}
	return res
}

// DivInt32 divides per lane. A zero divisor yields lane result 0 with the
// lane's flag bit set; MinInt32 / -1 saturates to MaxInt32 with the flag
// set. No Go runtime panic can escape a lane.
func (VectorUnit) DivInt32(a, b *[VectorBytes]byte) VectorResult {
	res := VectorResult{Cycles: CyclesVDIV}
	for i := 0; i < VectorLanes; i++ {
		va, vb := laneI32(a, i), laneI32(b, i)
		switch {
		case vb == 0:
			res.Flags |= 1 << i
			setLaneI32(&res.Data, i, 0)
		case va == math.MinInt32 && vb == -1:
			res.Flags |= 1 << i
			setLaneI32(&res.Data, i, math.MaxInt32)
		default:
			setLaneI32(&res.Data, i, va/vb)
		}
	}
	return res
}

// FMAFloat32 computes a*b+c per lane. Lane i's NaN result sets flag bit i;
// an infinite result sets flag bit i+16. The regions never overlap.
func (VectorUnit) FMAFloat32(a, b, c *[VectorBytes]byte) VectorResult {
	res := VectorResult{Cycles: CyclesVFMA}
	for i := 0; i < VectorLanes; i++ {
		val := laneF32(a, i)*laneF32(b, i) + laneF32(c, i)
		setLaneF32(&res.Data, i, val)
		if isNaN32(val) {
			res.Flags |= 1 << (i + vfmaNaNShift)
		}
		if isInf32(val) {
			res.Flags |= 1 << (i + vfmaInfShift)
		}
	}
	return res
}

// SqrtFloat32 takes the per-lane square root. A negative lane input sets
// that lane's invalid flag bit and produces NaN; non-negative lanes
// compute the real root.
func (VectorUnit) SqrtFloat32(a *[VectorBytes]byte) VectorResult {
	res := VectorResult{Cycles: CyclesVSQRT}
	for i := 0; i < VectorLanes; i++ {
		va := laneF32(a, i)
		if va < 0 {
			res.Flags |= 1 << i
			setLaneF32(&res.Data, i, float32(math.NaN()))
			continue
		}
		setLaneF32(&res.Data, i, float32(math.Sqrt(float64(va))))
	}
	return res
}

// MatMul4x4Float32 multiplies two 4x4 float32 matrices, each filling one
// vector register in row-major order: lane 4*i+j is element (i, j). A NaN
// result element sets flag bit 0-15, an infinite one bit 16-31, the same
// regions as FMA.
func (VectorUnit) MatMul4x4Float32(a, b *[VectorBytes]byte) VectorResult {
	res := VectorResult{Cycles: CyclesVMATMUL}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += laneF32(a, 4*i+k) * laneF32(b, 4*k+j)
			}
			lane := 4*i + j
			setLaneF32(&res.Data, lane, sum)
			if isNaN32(sum) {
				res.Flags |= 1 << (lane + vfmaNaNShift)
			}
			if isInf32(sum) {
				res.Flags |= 1 << (lane + vfmaInfShift)
			}
		}
	}
	return res
}

// CmpInt32 is the per-lane greater-than test, producing 1 or 0 per lane
// with no flag side effects.
func (VectorUnit) CmpInt32(a, b *[VectorBytes]byte) VectorResult {
	res := VectorResult{Cycles: CyclesVCMP}
	for i := 0; i < VectorLanes; i++ {
		if laneI32(a, i) > laneI32(b, i) {
			setLaneI32(&res.Data, i, 1)
		}
	}
	return res
}

// Execute dispatches one decoded V-type operation against the register
// file. rs1 indexes the destination/first source vector register, rs2 the
// second source; three-operand VFMA takes its addend register index from
// the low bits of the imm field. The result-flags word is reported back to
// the caller; writeback goes to vector[rs1].
func (vu VectorUnit) Execute(rf *RegFile, op Op, ins Instruction) (VectorResult, error) {
	vd := int(ins.Rs1()) % NumVectorRegs
	vs := int(ins.Rs2()) % NumVectorRegs

	var res VectorResult
	switch op {
	case OpVADD:
		res = vu.AddInt32(&rf.Vector[vd], &rf.Vector[vs])
	case OpVSUB:
		res = vu.SubInt32(&rf.Vector[vd], &rf.Vector[vs])
	case OpVMUL:
		res = vu.MulInt32(&rf.Vector[vd], &rf.Vector[vs])
	case OpVDIV:
		res = vu.DivInt32(&rf.Vector[vd], &rf.Vector[vs])
	case OpVFMA:
		vc := int(ins.Imm()) % NumVectorRegs
		res = vu.FMAFloat32(&rf.Vector[vd], &rf.Vector[vs], &rf.Vector[vc])
	case OpVSQRT:
		res = vu.SqrtFloat32(&rf.Vector[vd])
	case OpVCMP:
		res = vu.CmpInt32(&rf.Vector[vd], &rf.Vector[vs])
	case OpVMATMUL:
		res = vu.MatMul4x4Float32(&rf.Vector[vd], &rf.Vector[vs])
	default:
		return VectorResult{}, fmt.Errorf("vector unit cannot execute %v: %w", op, ErrUnknownOperation)
	}

	rf.Vector[vd] = res.Data
	return res, nil
}
