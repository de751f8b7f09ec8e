// regfile.go - Architectural register state for one hardware thread

package v5core

// ------------------------------------------------------------------------------
// Register File Geometry
// ------------------------------------------------------------------------------

const (
	NumGPR        = 64 // 64-bit general-purpose registers
	NumFPR        = 64 // binary32 floating-point registers
	NumVectorRegs = 32 // 512-bit vector registers
	VectorBytes   = 64 // bytes per vector register

	// Reset values carried over from the reference machine layout.
	ResetPC = 0x1000
	ResetSP = 0x8000
	ResetFP = 0x8000
)

// FLAGS word bits. Zero and Sign are redefined only by arithmetic/logic
// writeback; loads, stores and branches leave them untouched.
const (
	FlagZero uint64 = 1 << 0
	FlagSign uint64 = 1 << 1
)

// ------------------------------------------------------------------------------
// RegFile
// ------------------------------------------------------------------------------

// RegFile holds all architectural state for one hardware thread context.
// Registers are mutated only by the execution unit performing writeback;
// no register index has hard-wired-zero behavior.
type RegFile struct {
	GPR    [NumGPR]uint64
	FPR    [NumFPR]float32
	Vector [NumVectorRegs][VectorBytes]byte

	PC    uint64
	SP    uint64
	FP    uint64
	LR    uint64
	Flags uint64
}

// NewRegFile returns a zeroed register file with the architectural reset
// values applied.
func NewRegFile() *RegFile {
	rf := &RegFile{}
	rf.Reset()
	return rf
}

// Reset zeroes every register, then applies the reset PC/SP/FP.
func (rf *RegFile) Reset() {
	*rf = RegFile{
		PC: ResetPC,
		SP: ResetSP,
		FP: ResetFP,
	}
}

// setZeroSign updates the Zero and Sign flags from an integer result.
// All other flag bits are preserved.
func (rf *RegFile) setZeroSign(result uint64) {
	flags := rf.Flags &^ (FlagZero | FlagSign)
	if result == 0 {
		flags |= FlagZero
	}
	if result&(1<<63) != 0 {
		flags |= FlagSign
	}
	rf.Flags = flags
}

// ZeroFlag reports the Zero flag.
func (rf *RegFile) ZeroFlag() bool { return rf.Flags&FlagZero != 0 }

// SignFlag reports the Sign flag.
func (rf *RegFile) SignFlag() bool { return rf.Flags&FlagSign != 0 }
