package gas

import (
	"fmt"

	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/colorfulnotion/fvm/log"
)

// Meter charges executed steps against a gas limit. A zero Limit meters
// without ever running out.
type Meter struct {
	Limit uint64
	Used  uint64
}

func NewMeter(limit uint64) *Meter {
	return &Meter{Limit: limit}
}

// Remaining returns the gas left, or the maximum uint64 for an unlimited meter.
func (m *Meter) Remaining() uint64 {
	if m.Limit == 0 {
		return ^uint64(0)
	}
	return m.Limit - m.Used
}

// StepCost prices a completed step, including memory expansion it caused.
func StepCost(step *fvm.StepInfo) (uint64, error) {
	expansion, err := MemoryExpansionCost(step.MemSizeBefore, step.MemSizeAfter)
	if err != nil {
		return 0, err
	}
	instr := step.Instruction
	switch instr.Kind {
	case opcodes.KindMLoad, opcodes.KindMStore, opcodes.KindMStore8:
		return VeryLow + expansion, nil
	case opcodes.KindSLoad:
		return SLoad, nil
	case opcodes.KindSStore:
		if step.StoragePrev != nil && step.StoragePrev.IsZero() &&
			step.StorageValue != nil && !step.StorageValue.IsZero() {
			return SSet, nil
		}
		return SReset, nil
	case opcodes.KindLog:
		base, _ := Cost(instr)
		return base + LogData*step.LogDataLen + expansion, nil
	}
	cost, ok := Cost(instr)
	if !ok {
		return 0, fvmerrors.ErrUnknownOpcode
	}
	return cost + expansion, nil
}

// Charge prices step and deducts it. On ErrOutOfGas Used is left unchanged.
func (m *Meter) Charge(step fvm.StepInfo) (uint64, error) {
	cost, err := StepCost(&step)
	if err != nil {
		return 0, err
	}
	if m.Limit != 0 && cost > m.Limit-m.Used {
		log.Debug(log.GasMonitoring, "out of gas", "pc", step.PC, "op", step.Instruction, "cost", cost, "used", m.Used, "limit", m.Limit)
		return cost, fmt.Errorf("pc %d %s needs %d, %d left: %w", step.PC, step.Instruction, cost, m.Limit-m.Used, fvmerrors.ErrOutOfGas)
	}
	m.Used += cost
	log.Trace(log.GasMonitoring, "charge", "pc", step.PC, "op", step.Instruction, "cost", cost, "used", m.Used)
	return cost, nil
}
