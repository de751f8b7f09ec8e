// errors.go - Error taxonomy and signed status codes for the V5 core

package v5core

import (
	"errors"
	"fmt"
)

// The engine reports failures through four error classes. Execution units
// return wrapped sentinels; callers test with errors.Is and decide whether
// to halt the core, skip the instruction, or abort. No retries are built in.
var (
	// ErrUnknownOperation: the (opcode, funct) pair is absent from the
	// decode table. Never treated as NOP.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrDivideByZero: integer DIV/MOD with zero divisor, or FDIV of a
	// finite nonzero dividend by an exact zero.
	ErrDivideByZero = errors.New("divide by zero")

	// ErrInvalidOperation: operand outside an operation's domain,
	// e.g. FSQRT of a negative value.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrResource: allocation or shape validation failed during setup.
	// Construction fails as a whole; no partially-initialized object is
	// ever returned alongside this error.
	ErrResource = errors.New("resource allocation failed")
)

// ------------------------------------------------------------------------------
// Signed Status Codes
// ------------------------------------------------------------------------------

// Signed status codes matching the execute-call contract: zero is success,
// negative is failure.
const (
	StatusOK               = 0
	StatusUnknownOperation = -1
	StatusDivideByZero     = -2
	StatusInvalidOperation = -3
	StatusResource         = -4
	StatusFault            = -5 // failure outside the four named classes
)

// StatusCode maps an error from Decode/Execute to its signed status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrUnknownOperation):
		return StatusUnknownOperation
	case errors.Is(err, ErrDivideByZero):
		return StatusDivideByZero
	case errors.Is(err, ErrInvalidOperation):
		return StatusInvalidOperation
	case errors.Is(err, ErrResource):
		return StatusResource
	default:
		return StatusFault
	}
}

func decodeErrorf(opcode, funct uint8) error {
	return fmt.Errorf("decode opcode=0x%X funct=0x%X: %w", opcode, funct, ErrUnknownOperation)
}
