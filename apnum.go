// apnum.go - Arena-backed arbitrary-precision number handles

package v5core

import (
	"fmt"
	"math/bits"
)

// ------------------------------------------------------------------------------
// Arbitrary-Precision Arena
// ------------------------------------------------------------------------------
//
// Big integers live in an arena of fixed-capacity buffers addressed by
// opaque handles. Each handle has a single owner who must Release it; there
// is no reference counting and no shared mutable state. The arithmetic is
// the engine's simplified placeholder contract, not a production bignum.

// APHandle identifies one arena slot. The zero handle is never valid.
type APHandle uint32

// apNumber is one arena slot: sign-magnitude with 64-bit limbs, little
// limb first.
type apNumber struct {
	limbs    []uint64
	bitsCap  uint32
	negative bool
	inUse    bool
}

// APArena owns a fixed set of big-integer buffers.
type APArena struct {
	slots []apNumber
}

// NewAPArena creates an arena with capacity slots.
func NewAPArena(capacity int) (*APArena, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ap arena capacity %d: %w", capacity, ErrResource)
	}
	return &APArena{slots: make([]apNumber, capacity)}, nil
}

// Alloc claims a slot sized for precisionBits and initializes it to value.
func (a *APArena) Alloc(precisionBits uint32, value uint64, negative bool) (APHandle, error) {
	if precisionBits == 0 {
		return 0, fmt.Errorf("ap precision 0: %w", ErrResource)
	}
	for i := range a.slots {
		if a.slots[i].inUse {
			continue
		}
		nlimbs := int(precisionBits+63) / 64
		a.slots[i] = apNumber{
			limbs:    make([]uint64, nlimbs),
			bitsCap:  precisionBits,
			negative: negative,
			inUse:    true,
		}
		a.slots[i].limbs[0] = value
		return APHandle(i + 1), nil
	}
	return 0, fmt.Errorf("ap arena exhausted: %w", ErrResource)
}

// Release returns a slot to the arena. The handle is dead afterwards.
func (a *APArena) Release(h APHandle) {
	if n := a.get(h); n != nil {
		*n = apNumber{}
	}
}

func (a *APArena) get(h APHandle) *apNumber {
	idx := int(h) - 1
	if idx < 0 || idx >= len(a.slots) || !a.slots[idx].inUse {
		return nil
	}
	return &a.slots[idx]
}

// Limb reads limb i of the number behind h, zero beyond its precision.
func (a *APArena) Limb(h APHandle, i int) uint64 {
	n := a.get(h)
	if n == nil || i < 0 || i >= len(n.limbs) {
		return 0
	}
	return n.limbs[i]
}

// Add allocates and returns x+y with full carry propagation. Both inputs
// must be live non-negative handles; the result takes the wider precision
// plus one carry limb.
func (a *APArena) Add(x, y APHandle) (APHandle, error) {
	nx, ny := a.get(x), a.get(y)
	if nx == nil || ny == nil {
		return 0, fmt.Errorf("ap add on dead handle: %w", ErrInvalidOperation)
	}

	prec := nx.bitsCap
	if ny.bitsCap > prec {
		prec = ny.bitsCap
	}
	out, err := a.Alloc(prec+64, 0, false)
	if err != nil {
		return 0, err
	}
	no := a.get(out)

	var carry uint64
	for i := range no.limbs {
		var xi, yi uint64
		if i < len(nx.limbs) {
			xi = nx.limbs[i]
		}
		if i < len(ny.limbs) {
			yi = ny.limbs[i]
		}
		sum, c1 := bits.Add64(xi, yi, carry)
		no.limbs[i] = sum
		carry = c1
	}
	return out, nil
}

// Mul allocates and returns x*y by schoolbook partial products into a
// result sized for the sum of the input precisions. Sign is the XOR of
// the operand signs.
func (a *APArena) Mul(x, y APHandle) (APHandle, error) {
	nx, ny := a.get(x), a.get(y)
	if nx == nil || ny == nil {
		return 0, fmt.Errorf("ap mul on dead handle: %w", ErrInvalidOperation)
	}

	out, err := a.Alloc(nx.bitsCap+ny.bitsCap, 0, nx.negative != ny.negative)
	if err != nil {
		return 0, err
	}
	no := a.get(out)

	for i, xi := range nx.limbs {
		if xi == 0 {
			continue
		}
		var carry uint64
		for j, yj := range ny.limbs {
			if i+j >= len(no.limbs) {
				break
			}
			hi, lo := bits.Mul64(xi, yj)
			sum, c1 := bits.Add64(no.limbs[i+j], lo, 0)
			sum, c2 := bits.Add64(sum, carry, 0)
			no.limbs[i+j] = sum
			carry = hi + c1 + c2
		}
		if i+len(ny.limbs) < len(no.limbs) {
			no.limbs[i+len(ny.limbs)] += carry
		}
	}
	return out, nil
}
