// decoder.go - Two-level data-driven decode table for the V5 core

package v5core

// ------------------------------------------------------------------------------
// Instruction Families
// ------------------------------------------------------------------------------

// Family opcodes. The opcode field selects one of these; the funct field
// then selects the operation inside the family's sub-table.
const (
	FamilyRType  uint8 = 0x0 // Integer arithmetic / logic
	FamilyIType  uint8 = 0x1 // Loads
	FamilySType  uint8 = 0x2 // Stores
	FamilyBType  uint8 = 0x3 // Branches
	FamilyVType  uint8 = 0x6 // 512-bit vector / SIMD
	FamilyMType  uint8 = 0x7 // Multi-core synchronization
	FamilyFType  uint8 = 0x8 // Floating point
	FamilyAType  uint8 = 0x9 // AI/ML
)

// ------------------------------------------------------------------------------
// Operations
// ------------------------------------------------------------------------------

// Op identifies one decoded operation.
type Op uint8

const (
	OpInvalid Op = iota

	// R-Type
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpMOD
	OpAND
	OpOR
	OpXOR
	OpSHL
	OpSHR
	OpROT
	OpCMP
	OpCLZ
	OpCTZ
	OpPOPCNT
	OpNOT

	// I/S-Type
	OpLOAD
	OpSTORE

	// B-Type
	OpBEQ
	OpBNE
	OpBLT
	OpBLE
	OpBGT
	OpBGE

	// F-Type
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
	OpFSQRT
	OpFMA

	// V-Type
	OpVADD
	OpVSUB
	OpVMUL
	OpVDIV
	OpVFMA
	OpVSQRT
	OpVCMP
	OpVMATMUL

	// A-Type
	OpCONV
	OpRELU
	OpSOFTMAX

	// M-Type
	OpBARRIER
	OpLOCK
	OpUNLOCK
	OpATOMIC
)

var opNames = map[Op]string{
	OpADD: "ADD", OpSUB: "SUB", OpMUL: "MUL", OpDIV: "DIV", OpMOD: "MOD",
	OpAND: "AND", OpOR: "OR", OpXOR: "XOR", OpSHL: "SHL", OpSHR: "SHR",
	OpROT: "ROT", OpCMP: "CMP", OpCLZ: "CLZ", OpCTZ: "CTZ", OpPOPCNT: "POPCNT",
	OpNOT: "NOT", OpLOAD: "LOAD", OpSTORE: "STORE",
	OpBEQ: "BEQ", OpBNE: "BNE", OpBLT: "BLT", OpBLE: "BLE", OpBGT: "BGT", OpBGE: "BGE",
	OpFADD: "FADD", OpFSUB: "FSUB", OpFMUL: "FMUL", OpFDIV: "FDIV",
	OpFSQRT: "FSQRT", OpFMA: "FMA",
	OpVADD: "VADD", OpVSUB: "VSUB", OpVMUL: "VMUL", OpVDIV: "VDIV",
	OpVFMA: "VFMA", OpVSQRT: "VSQRT", OpVCMP: "VCMP", OpVMATMUL: "VMATMUL",
	OpCONV: "CONV", OpRELU: "RELU", OpSOFTMAX: "SOFTMAX",
	OpBARRIER: "BARRIER", OpLOCK: "LOCK", OpUNLOCK: "UNLOCK", OpATOMIC: "ATOMIC",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "INVALID"
}

// Family returns the opcode family an operation decodes under, which is
// also the dispatch key for the execution units.
func (op Op) Family() uint8 {
	switch {
	case op >= OpADD && op <= OpNOT:
		return FamilyRType
	case op == OpLOAD:
		return FamilyIType
	case op == OpSTORE:
		return FamilySType
	case op >= OpBEQ && op <= OpBGE:
		return FamilyBType
	case op >= OpFADD && op <= OpFMA:
		return FamilyFType
	case op >= OpVADD && op <= OpVMATMUL:
		return FamilyVType
	case op >= OpCONV && op <= OpSOFTMAX:
		return FamilyAType
	default:
		return FamilyMType
	}
}

// ------------------------------------------------------------------------------
// Decode Table
// ------------------------------------------------------------------------------

// decodeTable is the full (opcode, funct) map. 16x16 array rather than a
// switch so the table stays declarative and testable in isolation; the zero
// value OpInvalid marks every undefined pair.
var decodeTable = [16][16]Op{
	FamilyRType: {
		0x0: OpADD, 0x1: OpSUB, 0x2: OpMUL, 0x3: OpDIV, 0x4: OpMOD,
		0x5: OpAND, 0x6: OpOR, 0x7: OpXOR, 0x8: OpSHL, 0x9: OpSHR,
		0xA: OpROT, 0xB: OpCMP, 0xC: OpCLZ, 0xD: OpCTZ, 0xE: OpPOPCNT,
		0xF: OpNOT,
	},
	FamilyIType: {
		0x9: OpLOAD,
	},
	FamilySType: {
		0x0: OpSTORE,
	},
	FamilyBType: {
		0x0: OpBEQ, 0x1: OpBNE, 0x2: OpBLT, 0x3: OpBLE, 0x4: OpBGT, 0x5: OpBGE,
	},
	FamilyVType: {
		0x0: OpVADD, 0x1: OpVSUB, 0x2: OpVMUL, 0x3: OpVDIV,
		0x4: OpVFMA, 0x5: OpVSQRT, 0x6: OpVCMP, 0x7: OpVMATMUL,
	},
	FamilyMType: {
		0x0: OpBARRIER, 0x1: OpLOCK, 0x2: OpUNLOCK, 0x3: OpATOMIC,
	},
	FamilyFType: {
		0x0: OpFADD, 0x1: OpFSUB, 0x2: OpFMUL, 0x3: OpFDIV, 0x4: OpFSQRT,
		0x5: OpFMA,
	},
	FamilyAType: {
		0x0: OpCONV, 0x2: OpRELU, 0x5: OpSOFTMAX,
	},
}

// Decode classifies an instruction word. It is pure: no architectural state
// is read or written. Pairs absent from the table fail with
// ErrUnknownOperation; the caller must not execute on a decode failure.
func Decode(ins Instruction) (Op, error) {
	op := decodeTable[ins.Opcode()][ins.Funct()]
	if op == OpInvalid {
		return OpInvalid, decodeErrorf(ins.Opcode(), ins.Funct())
	}
	return op, nil
}
