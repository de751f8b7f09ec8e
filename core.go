// core.go - Per-core fetch/decode/dispatch/execute/writeback orchestration

package v5core

import (
	"fmt"
	"sync/atomic"
)

// ------------------------------------------------------------------------------
// Core Constants
// ------------------------------------------------------------------------------

const (
	// NumPipelineStages is the depth of the (placeholder) pipeline stage
	// counter. No hazard detection or stalling is modeled.
	NumPipelineStages = 12

	// BranchPredictorEntries sizes the placeholder prediction table.
	BranchPredictorEntries = 1024

	// NumPerfCounters matches the per-core performance counter bank.
	NumPerfCounters = 8
)

// Performance counter indices.
const (
	PerfInstructions = iota
	PerfCycles
	PerfBranches
	PerfBranchesTaken
	PerfLoads
	PerfStores
	PerfVectorCycles
	PerfFaults
)

// ------------------------------------------------------------------------------
// Core
// ------------------------------------------------------------------------------

// Core owns one register file, its four cache levels, and the per-core
// pipeline/predictor/perf bookkeeping. It steps one instruction per cycle:
// FETCH -> DECODE -> DISPATCH -> EXECUTE -> WRITEBACK. The register file
// is mutated only by the execution unit performing writeback.
type Core struct {
	ID   int
	Regs *RegFile

	L1I *Cache
	L1D *Cache
	L2  *Cache
	L3  *Cache

	alu  ALU
	fpu  FPU
	vu   VectorUnit
	npu  NPU
	sync *SyncUnit

	memory  []byte // flat buffer shared across all cores
	program []Instruction

	pipelineStage int
	stageCycles   [NumPipelineStages]uint64
	predictor     [BranchPredictorEntries]int8
	Perf          [NumPerfCounters]uint64

	debug atomic.Bool
}

// newCore wires a core to the shared memory and sync unit. Cache
// construction failure fails the core as a whole.
func newCore(id int, memory []byte, syncUnit *SyncUnit) (*Core, error) {
	c := &Core{
		ID:     id,
		Regs:   NewRegFile(),
		sync:   syncUnit,
		memory: memory,
	}

	var err error
	if c.L1I, err = NewCache(DefaultL1IConfig()); err != nil {
		return nil, err
	}
	if c.L1D, err = NewCache(DefaultL1DConfig()); err != nil {
		return nil, err
	}
	if c.L2, err = NewCache(DefaultL2Config()); err != nil {
		return nil, err
	}
	if c.L3, err = NewCache(DefaultL3Config()); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDebug toggles per-step trace output.
func (c *Core) SetDebug(on bool) { c.debug.Store(on) }

// NPU exposes the core's AI/ML unit for layer binding.
func (c *Core) NPU() *NPU { return &c.npu }

// SetRoundingMode selects the FPU rounding mode for subsequent F-type ops.
func (c *Core) SetRoundingMode(mode RoundingMode) { c.fpu.Mode = mode }

// LoadProgram installs the synthetic instruction stream and resets PC.
// The caller supplies instruction words; no backing-store fetch is modeled.
func (c *Core) LoadProgram(program []Instruction) {
	c.program = program
	c.Regs.PC = ResetPC
}

// ------------------------------------------------------------------------------
// Step
// ------------------------------------------------------------------------------

// Step executes one instruction. It returns (false, nil) when the program
// is exhausted. Errors from decode or the execution units propagate
// unmasked; the caller decides whether to halt, skip, or abort.
func (c *Core) Step() (bool, error) {
	// FETCH: the stream is synthetic, but the fetch still runs through
	// the instruction-cache hierarchy for hit/miss accounting.
	idx := int((c.Regs.PC - ResetPC) / InstrSize)
	if idx < 0 || idx >= len(c.program) {
		return false, nil
	}
	ins := c.program[idx]
	c.touchICache(c.Regs.PC)

	// PC advances by the fixed instruction width on every fetch, taken
	// branches included.
	c.Regs.PC += InstrSize

	c.stageCycles[c.pipelineStage]++
	c.pipelineStage = (c.pipelineStage + 1) % NumPipelineStages
	c.Perf[PerfInstructions]++
	c.Perf[PerfCycles]++

	// DECODE
	op, err := Decode(ins)
	if err != nil {
		c.Perf[PerfFaults]++
		return true, err
	}

	if c.debug.Load() {
		fmt.Printf("V5: core %d PC=0x%X %v rs1=%d rs2=%d imm=0x%04X\n",
			c.ID, c.Regs.PC-InstrSize, op, ins.Rs1(), ins.Rs2(), ins.Imm())
	}

	// DISPATCH / EXECUTE / WRITEBACK
	if err := c.dispatch(op, ins); err != nil {
		c.Perf[PerfFaults]++
		return true, err
	}
	return true, nil
}

// Run steps the core until its program is exhausted or an instruction
// fails. The first error stops the core and is returned unmasked.
func (c *Core) Run() error {
	for {
		more, err := c.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (c *Core) dispatch(op Op, ins Instruction) error {
	switch op.Family() {
	case FamilyRType:
		return c.alu.Execute(c.Regs, op, ins)
	case FamilyIType:
		return c.executeLoad(ins)
	case FamilySType:
		return c.executeStore(ins)
	case FamilyBType:
		return c.executeBranch(op, ins)
	case FamilyFType:
		return c.fpu.Execute(c.Regs, op, ins)
	case FamilyVType:
		res, err := c.vu.Execute(c.Regs, op, ins)
		c.Perf[PerfVectorCycles] += uint64(res.Cycles)
		return err
	case FamilyAType:
		return c.npu.Execute(c.Regs, op, ins)
	case FamilyMType:
		return c.sync.Execute(op)
	default:
		return fmt.Errorf("dispatch %v: %w", op, ErrUnknownOperation)
	}
}

// ------------------------------------------------------------------------------
// Memory Operations
// ------------------------------------------------------------------------------

func (c *Core) effectiveAddr(ins Instruction) uint64 {
	// Base register plus sign-extended 16-bit displacement.
	return c.Regs.GPR[ins.Rs2()] + uint64(int64(int16(ins.Imm())))
}

func (c *Core) executeLoad(ins Instruction) error {
	addr := c.effectiveAddr(ins)
	// addr+8 can wrap near the top of the address space, so the check
	// subtracts instead of adding.
	if addr >= uint64(len(c.memory)) || uint64(len(c.memory))-addr < 8 {
		return fmt.Errorf("LOAD at 0x%X beyond memory (%d bytes): %w",
			addr, len(c.memory), ErrInvalidOperation)
	}
	c.touchDCache(addr)

	var val uint64
	for i := 0; i < 8; i++ {
		val |= uint64(c.memory[addr+uint64(i)]) << (8 * i)
	}
	c.Regs.GPR[ins.Rs1()] = val
	c.Perf[PerfLoads]++
	return nil
}

func (c *Core) executeStore(ins Instruction) error {
	addr := c.effectiveAddr(ins)
	if addr >= uint64(len(c.memory)) || uint64(len(c.memory))-addr < 8 {
		return fmt.Errorf("STORE at 0x%X beyond memory (%d bytes): %w",
			addr, len(c.memory), ErrInvalidOperation)
	}

	val := c.Regs.GPR[ins.Rs1()]
	for i := 0; i < 8; i++ {
		c.memory[addr+uint64(i)] = byte(val >> (8 * i))
	}
	c.touchDCache(addr)
	c.L1D.Touch(addr)
	c.Perf[PerfStores]++
	return nil
}

// ------------------------------------------------------------------------------
// Branches
// ------------------------------------------------------------------------------

// executeBranch evaluates the condition against gpr[rs1] and gpr[rs2].
// Fetch is synthetic, so a taken branch records its target in LR rather
// than redirecting control flow; flags are left untouched.
func (c *Core) executeBranch(op Op, ins Instruction) error {
	a := int64(c.Regs.GPR[ins.Rs1()])
	b := int64(c.Regs.GPR[ins.Rs2()])

	var taken bool
	switch op {
	case OpBEQ:
		taken = a == b
	case OpBNE:
		taken = a != b
	case OpBLT:
		taken = a < b
	case OpBLE:
		taken = a <= b
	case OpBGT:
		taken = a > b
	case OpBGE:
		taken = a >= b
	default:
		return fmt.Errorf("branch unit cannot execute %v: %w", op, ErrUnknownOperation)
	}

	pc := c.Regs.PC - InstrSize
	c.Perf[PerfBranches]++
	c.trainPredictor(pc, taken)

	if taken {
		c.Regs.LR = pc + uint64(int64(int16(ins.Imm())))
		c.Perf[PerfBranchesTaken]++
	}
	return nil
}

// trainPredictor updates the placeholder 2-bit saturating counter table.
// Prediction accuracy is not modeled beyond this bookkeeping.
func (c *Core) trainPredictor(pc uint64, taken bool) {
	slot := &c.predictor[(pc/InstrSize)%BranchPredictorEntries]
	if taken {
		if *slot < 3 {
			*slot++
		}
	} else if *slot > 0 {
		*slot--
	}
}

// ------------------------------------------------------------------------------
// Cache Plumbing
// ------------------------------------------------------------------------------

// backingLine returns the 64-byte memory line containing addr, truncated
// at the end of the buffer.
func (c *Core) backingLine(addr uint64) []byte {
	start := addr &^ (CacheLineSize - 1)
	end := start + CacheLineSize
	if end > uint64(len(c.memory)) {
		end = uint64(len(c.memory))
	}
	if start >= end {
		return nil
	}
	return c.memory[start:end]
}

// touchICache walks the fetch path L1I -> L2 -> L3. Pass-through model:
// the instruction itself comes from the synthetic stream, the caches only
// account residency.
func (c *Core) touchICache(addr uint64) {
	line := c.backingLine(addr)
	if c.L1I.Lookup(addr, line) {
		return
	}
	if c.L2.Lookup(addr, line) {
		return
	}
	c.L3.Lookup(addr, line)
}

// touchDCache walks the data path L1D -> L2 -> L3.
func (c *Core) touchDCache(addr uint64) {
	line := c.backingLine(addr)
	if c.L1D.Lookup(addr, line) {
		return
	}
	if c.L2.Lookup(addr, line) {
		return
	}
	c.L3.Lookup(addr, line)
}
