// system.go - Multi-core system construction and orchestration

package v5core

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ------------------------------------------------------------------------------
// System Constants
// ------------------------------------------------------------------------------

const (
	// MaxCores bounds the system's core count.
	MaxCores = 16

	// Machine bookkeeping carried from the reference configuration.
	ClockFrequencyMHz = 5000
	WattsPerCore      = 25
)

// SystemConfig specifies system construction: core count and the size of
// the flat shared memory buffer.
type SystemConfig struct {
	Cores      int
	MemorySize uint64
}

// DefaultSystemConfig returns a 4-core system with 16 MiB of memory.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{Cores: 4, MemorySize: 16 * 1024 * 1024}
}

// ------------------------------------------------------------------------------
// System
// ------------------------------------------------------------------------------

// System owns N cores sharing one flat zero-initialized memory buffer, a
// barrier sized to the core count, and the shared sync unit. Its lifetime
// is caller-controlled; there is no process-wide state.
type System struct {
	Cores  []*Core
	Memory []byte

	syncUnit *SyncUnit
	config   SystemConfig
}

// NewSystem builds and zero-initializes a system. Any validation or
// allocation failure fails the entire construction; no partially
// initialized system is ever returned.
func NewSystem(cfg SystemConfig) (*System, error) {
	if cfg.Cores <= 0 || cfg.Cores > MaxCores {
		return nil, fmt.Errorf("core count %d (max %d): %w", cfg.Cores, MaxCores, ErrResource)
	}
	if cfg.MemorySize == 0 {
		return nil, fmt.Errorf("memory size 0: %w", ErrResource)
	}

	syncUnit, err := NewSyncUnit(cfg.Cores)
	if err != nil {
		return nil, err
	}

	sys := &System{
		Memory:   make([]byte, cfg.MemorySize),
		syncUnit: syncUnit,
		config:   cfg,
	}
	for i := 0; i < cfg.Cores; i++ {
		core, err := newCore(i, sys.Memory, syncUnit)
		if err != nil {
			return nil, fmt.Errorf("core %d: %w", i, err)
		}
		sys.Cores = append(sys.Cores, core)
	}
	return sys, nil
}

// Config returns the construction parameters.
func (s *System) Config() SystemConfig { return s.config }

// Barrier returns the system-wide rendezvous object. Its participant
// count equals the core count.
func (s *System) Barrier() *Barrier { return s.syncUnit.Barrier() }

// SyncUnit returns the shared synchronization unit.
func (s *System) SyncUnit() *SyncUnit { return s.syncUnit }

// PowerConsumption reports the modeled wattage of the configured cores.
func (s *System) PowerConsumption() int { return s.config.Cores * WattsPerCore }

// Run executes every core's loaded program, one native thread per core,
// independent except at explicit synchronization points. The first core
// failure is returned; sibling cores run to completion of their own
// programs. No instruction-level cancellation is modeled, and a program
// mid-BARRIER relies on all participants arriving, a liveness requirement
// of the programs themselves.
func (s *System) Run() error {
	var g errgroup.Group
	for _, core := range s.Cores {
		g.Go(core.Run)
	}
	return g.Wait()
}
