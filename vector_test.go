package v5core_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/alphaahb/v5core"
)

var _ = Describe("VectorUnit", func() {
	var vu v5core.VectorUnit

	seq := func(start, step int32) [v5core.VectorBytes]byte {
		var lanes [v5core.VectorLanes]int32
		for i := range lanes {
			lanes[i] = start + step*int32(i)
		}
		return v5core.PackInt32Lanes(lanes[:])
	}

	Describe("AddInt32", func() {
		It("adds {1..16} and {2,4,...,32} to {3,6,...,48} with zero flags", func() {
			a := seq(1, 1)
			b := seq(2, 2)
			res := vu.AddInt32(&a, &b)

			lanes := v5core.UnpackInt32Lanes(res.Data)
			for i, v := range lanes {
				Expect(v).To(Equal(int32(3 * (i + 1))))
			}
			Expect(res.Flags).To(Equal(uint32(0)))
			Expect(res.Cycles).To(Equal(uint32(v5core.CyclesVADD)))
		})

		It("wraps on overflow and sets exactly the overflowing lane's bit", func() {
			a := v5core.PackInt32Lanes([]int32{math.MaxInt32, 5})
			b := v5core.PackInt32Lanes([]int32{1, 5})
			res := vu.AddInt32(&a, &b)

			lanes := v5core.UnpackInt32Lanes(res.Data)
			Expect(lanes[0]).To(Equal(int32(math.MinInt32)))
			Expect(lanes[1]).To(Equal(int32(10)))
			Expect(res.Flags).To(Equal(uint32(1)))
		})

		It("flags negative overflow", func() {
			a := v5core.PackInt32Lanes([]int32{0, math.MinInt32})
			b := v5core.PackInt32Lanes([]int32{0, -1})
			res := vu.AddInt32(&a, &b)
			Expect(res.Flags).To(Equal(uint32(1 << 1)))
		})
	})

	Describe("SubInt32", func() {
		It("subtracts per lane with wraparound", func() {
			a := seq(10, 0)
			b := seq(3, 0)
			res := vu.SubInt32(&a, &b)
			for _, v := range v5core.UnpackInt32Lanes(res.Data) {
				Expect(v).To(Equal(int32(7)))
			}
			Expect(res.Flags).To(Equal(uint32(0)))
		})

		It("flags sign-based overflow", func() {
			a := v5core.PackInt32Lanes([]int32{math.MinInt32})
			b := v5core.PackInt32Lanes([]int32{1})
			res := vu.SubInt32(&a, &b)
			Expect(v5core.UnpackInt32Lanes(res.Data)[0]).To(Equal(int32(math.MaxInt32)))
			Expect(res.Flags & 1).To(Equal(uint32(1)))
		})
	})

	Describe("MulInt32", func() {
		It("computes in-range products without flags", func() {
			a := seq(1, 1)
			b := seq(2, 2)
			res := vu.MulInt32(&a, &b)
			lanes := v5core.UnpackInt32Lanes(res.Data)
			for i, v := range lanes {
				n := int32(i + 1)
				Expect(v).To(Equal(n * 2 * n))
			}
			Expect(res.Flags).To(Equal(uint32(0)))
			Expect(res.Cycles).To(Equal(uint32(v5core.CyclesVMUL)))
		})

		It("saturates an overflowing lane to INT32_MAX and flags it", func() {
			a := v5core.PackInt32Lanes([]int32{65536, 2})
			b := v5core.PackInt32Lanes([]int32{65536, 3})
			res := vu.MulInt32(&a, &b)

			lanes := v5core.UnpackInt32Lanes(res.Data)
			Expect(lanes[0]).To(Equal(int32(math.MaxInt32)))
			Expect(lanes[1]).To(Equal(int32(6)))
			Expect(res.Flags).To(Equal(uint32(1)))
		})

		It("saturates negative overflow to INT32_MIN", func() {
			a := v5core.PackInt32Lanes([]int32{-65536})
			b := v5core.PackInt32Lanes([]int32{65536})
			res := vu.MulInt32(&a, &b)
			Expect(v5core.UnpackInt32Lanes(res.Data)[0]).To(Equal(int32(math.MinInt32)))
			Expect(res.Flags).To(Equal(uint32(1)))
		})
	})

	Describe("DivInt32", func() {
		It("divides per lane and flags zero divisors with a zero result", func() {
			divisors := []int32{2, 0, 3}
			for len(divisors) < v5core.VectorLanes {
				divisors = append(divisors, 1)
			}
			a := v5core.PackInt32Lanes([]int32{10, 7, 9})
			b := v5core.PackInt32Lanes(divisors)
			res := vu.DivInt32(&a, &b)

			lanes := v5core.UnpackInt32Lanes(res.Data)
			Expect(lanes[0]).To(Equal(int32(5)))
			Expect(lanes[1]).To(Equal(int32(0)))
			Expect(lanes[2]).To(Equal(int32(3)))
			Expect(res.Flags).To(Equal(uint32(1 << 1)))
		})

		It("saturates MinInt32 / -1", func() {
			a := v5core.PackInt32Lanes([]int32{math.MinInt32})
			b := v5core.PackInt32Lanes([]int32{-1})
			res := vu.DivInt32(&a, &b)
			Expect(v5core.UnpackInt32Lanes(res.Data)[0]).To(Equal(int32(math.MaxInt32)))
			Expect(res.Flags & 1).To(Equal(uint32(1)))
		})
	})

	Describe("FMAFloat32", func() {
		It("computes a*b+c per lane", func() {
			a := v5core.PackFloat32Lanes([]float32{2, 3})
			b := v5core.PackFloat32Lanes([]float32{4, 5})
			c := v5core.PackFloat32Lanes([]float32{1, 1})
			res := vu.FMAFloat32(&a, &b, &c)

			lanes := v5core.UnpackFloat32Lanes(res.Data)
			Expect(lanes[0]).To(Equal(float32(9)))
			Expect(lanes[1]).To(Equal(float32(16)))
			Expect(res.Cycles).To(Equal(uint32(v5core.CyclesVFMA)))
		})

		It("records NaN in bits 0-15 and Inf in bits 16-31", func() {
			inf := float32(math.Inf(1))
			a := v5core.PackFloat32Lanes([]float32{inf, inf})
			b := v5core.PackFloat32Lanes([]float32{0, 2}) // lane0: Inf*0 = NaN
			c := v5core.PackFloat32Lanes([]float32{0, 0})
			res := vu.FMAFloat32(&a, &b, &c)

			Expect(res.Flags & 0xFFFF).To(Equal(uint32(1 << 0)))
			Expect(res.Flags >> 16).To(Equal(uint32(1 << 1)))
		})
	})

	Describe("SqrtFloat32", func() {
		It("roots non-negative lanes and NaN-flags negative ones", func() {
			a := v5core.PackFloat32Lanes([]float32{9, -4, 0, 2.25})
			res := vu.SqrtFloat32(&a)

			lanes := v5core.UnpackFloat32Lanes(res.Data)
			Expect(lanes[0]).To(Equal(float32(3)))
			Expect(math.IsNaN(float64(lanes[1]))).To(BeTrue())
			Expect(lanes[2]).To(Equal(float32(0)))
			Expect(lanes[3]).To(Equal(float32(1.5)))
			Expect(res.Flags).To(Equal(uint32(1 << 1)))
			Expect(res.Cycles).To(Equal(uint32(v5core.CyclesVSQRT)))
		})
	})

	Describe("CmpInt32", func() {
		It("produces 1 for greater-than lanes and 0 otherwise", func() {
			a := v5core.PackInt32Lanes([]int32{5, 2, 3})
			b := v5core.PackInt32Lanes([]int32{2, 5, 3})
			res := vu.CmpInt32(&a, &b)

			lanes := v5core.UnpackInt32Lanes(res.Data)
			Expect(lanes[0]).To(Equal(int32(1)))
			Expect(lanes[1]).To(Equal(int32(0)))
			Expect(lanes[2]).To(Equal(int32(0)))
			Expect(res.Flags).To(Equal(uint32(0)))
			Expect(res.Cycles).To(Equal(uint32(v5core.CyclesVCMP)))
		})
	})

	Describe("MatMul4x4Float32", func() {
		It("multiplies identity by a matrix to the same matrix", func() {
			var ident [v5core.VectorLanes]float32
			for i := 0; i < 4; i++ {
				ident[4*i+i] = 1
			}
			var m [v5core.VectorLanes]float32
			for i := range m {
				m[i] = float32(i + 1)
			}
			a := v5core.PackFloat32Lanes(ident[:])
			b := v5core.PackFloat32Lanes(m[:])
			res := vu.MatMul4x4Float32(&a, &b)

			Expect(v5core.UnpackFloat32Lanes(res.Data)).To(Equal(m))
			Expect(res.Flags).To(Equal(uint32(0)))
			Expect(res.Cycles).To(Equal(uint32(v5core.CyclesVMATMUL)))
		})

		It("computes a hand-checked row-major product", func() {
			// Row 0 of a is [1 2 3 4]; column 0 of b is [1 0 0 0],
			// column 1 is [0 2 0 0], so out(0,0)=1 and out(0,1)=4.
			var scale [v5core.VectorLanes]float32
			for i := 0; i < 4; i++ {
				scale[4*i+i] = float32(i + 1)
			}
			var m [v5core.VectorLanes]float32
			for i := range m {
				m[i] = float32(i + 1)
			}
			a := v5core.PackFloat32Lanes(m[:])
			b := v5core.PackFloat32Lanes(scale[:])
			res := vu.MatMul4x4Float32(&a, &b)

			lanes := v5core.UnpackFloat32Lanes(res.Data)
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					Expect(lanes[4*i+j]).To(Equal(m[4*i+j] * float32(j+1)))
				}
			}
		})

		It("flags NaN and Inf result elements in the FMA regions", func() {
			inf := float32(math.Inf(1))

			// Inf in row 0 against all-zero columns: every row-0 element
			// accumulates Inf*0 = NaN.
			var a, b [v5core.VectorLanes]float32
			a[0] = inf
			av := v5core.PackFloat32Lanes(a[:])
			bv := v5core.PackFloat32Lanes(b[:])
			res := vu.MatMul4x4Float32(&av, &bv)

			lanes := v5core.UnpackFloat32Lanes(res.Data)
			for j := 0; j < 4; j++ {
				Expect(math.IsNaN(float64(lanes[j]))).To(BeTrue())
			}
			Expect(res.Flags).To(Equal(uint32(0xF)))

			// binary32 overflow in a single element: the product escapes
			// to +Inf and only bit 16 is raised.
			var c, d [v5core.VectorLanes]float32
			c[0], d[0] = 2e38, 2e38
			cv := v5core.PackFloat32Lanes(c[:])
			dv := v5core.PackFloat32Lanes(d[:])
			res = vu.MatMul4x4Float32(&cv, &dv)

			Expect(v5core.UnpackFloat32Lanes(res.Data)[0]).To(Equal(inf))
			Expect(res.Flags).To(Equal(uint32(1 << 16)))
		})
	})

	Describe("cycle costs", func() {
		It("keeps the SQRT >= MUL >= FMA >= ADD >= CMP ordering", func() {
			Expect(v5core.CyclesVSQRT).To(BeNumerically(">=", v5core.CyclesVMUL))
			Expect(v5core.CyclesVMUL).To(BeNumerically(">=", v5core.CyclesVFMA))
			Expect(v5core.CyclesVFMA).To(BeNumerically(">=", v5core.CyclesVADD))
			Expect(v5core.CyclesVADD).To(BeNumerically(">=", v5core.CyclesVCMP))
		})
	})
})
