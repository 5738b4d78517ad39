package fvm

import (
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/holiman/uint256"
)

// StepInfo describes one executed instruction. Metering layers derive dynamic
// costs from it.
type StepInfo struct {
	Step        uint64
	PC          uint64
	Instruction opcodes.Instruction
	StackDepth  int // depth before the instruction ran

	MemSizeBefore uint64 // bytes
	MemSizeAfter  uint64 // bytes

	StorageKey   *uint256.Int
	StorageValue *uint256.Int // value read or written
	StoragePrev  *uint256.Int // value replaced by a write
	StorageWrite bool

	LogDataLen uint64
}

// MemoryExpanded reports whether the step grew memory.
func (s *StepInfo) MemoryExpanded() bool {
	return s.MemSizeAfter > s.MemSizeBefore
}

// TouchedStorage reports whether the step accessed storage.
func (s *StepInfo) TouchedStorage() bool {
	return s.StorageKey != nil
}

// Tracer observes an engine. OnStep runs after every completed instruction,
// OnFault after every faulting one.
type Tracer interface {
	OnStep(e *Engine, step *StepInfo)
	OnFault(e *Engine, step *StepInfo, err error)
}
