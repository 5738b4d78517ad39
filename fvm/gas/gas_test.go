package gas

import (
	"testing"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCosts(t *testing.T) {
	tests := []struct {
		instr opcodes.Instruction
		cost  uint64
		ok    bool
	}{
		{opcodes.Simple(opcodes.KindStop), 0, true},
		{opcodes.Simple(opcodes.KindJumpDest), 1, true},
		{opcodes.Simple(opcodes.KindMSize), 2, true},
		{opcodes.Simple(opcodes.KindPop), 2, true},
		{opcodes.Simple(opcodes.KindAdd), 3, true},
		{opcodes.Simple(opcodes.KindByte), 3, true},
		{opcodes.Push(32), 3, true},
		{opcodes.Dup(16), 3, true},
		{opcodes.Swap(1), 3, true},
		{opcodes.Simple(opcodes.KindSignExtend), 5, true},
		{opcodes.Simple(opcodes.KindMulMod), 8, true},
		{opcodes.Simple(opcodes.KindExp), 10, true},
		{opcodes.Log(0), 375, true},
		{opcodes.Log(2), 1125, true},
		{opcodes.Log(4), 1875, true},
		{opcodes.Simple(opcodes.KindMLoad), 0, false},
		{opcodes.Simple(opcodes.KindSStore), 0, false},
		{opcodes.Decode(0xfe), 0, false},
	}
	for _, tc := range tests {
		cost, ok := Cost(tc.instr)
		assert.Equal(t, tc.ok, ok, tc.instr.String())
		assert.Equal(t, tc.cost, cost, tc.instr.String())
	}
}

func TestMemoryCost(t *testing.T) {
	assert.Equal(t, uint64(0), MemoryCost(0))
	assert.Equal(t, uint64(3), MemoryCost(1))
	assert.Equal(t, uint64(98), MemoryCost(32))
	assert.Equal(t, uint64(5120), MemoryCost(1024))

	expansion := func(oldBytes, newBytes uint64) uint64 {
		c, err := MemoryExpansionCost(oldBytes, newBytes)
		require.NoError(t, err)
		return c
	}
	assert.Equal(t, uint64(3), expansion(0, 1))
	assert.Equal(t, uint64(3), expansion(0, 32))
	assert.Equal(t, uint64(0), expansion(64, 64))
	assert.Equal(t, uint64(0), expansion(64, 32))
	assert.Equal(t, MemoryCost(1024)-MemoryCost(32), expansion(1024, 32*1024))

	// quadratic growth: doubling a large memory more than doubles its cost
	assert.Greater(t, MemoryCost(1<<16), 2*MemoryCost(1<<15))
}

func TestTable(t *testing.T) {
	entries := Table()
	require.Len(t, entries, 100)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Opcode, entries[i].Opcode)
	}
	for _, e := range entries {
		if e.Name == "SLOAD" {
			assert.True(t, e.Dynamic)
			assert.Equal(t, SLoad, e.Cost)
		}
		if e.Name == "ADD" {
			assert.False(t, e.Dynamic)
		}
	}
}

func runSteps(t *testing.T, src string, cfg fvm.Config) []fvm.StepInfo {
	t.Helper()
	code, err := opcodes.Assemble(src)
	require.NoError(t, err)
	rec := &fvm.StepRecorder{}
	cfg.Tracer = rec
	e, err := fvm.New(code, cfg)
	require.NoError(t, err)
	require.NoError(t, e.Execute())
	return rec.Steps
}

func TestMeterChargesExpansion(t *testing.T) {
	steps := runSteps(t, "PUSH1 1 PUSH1 0 MSTORE PUSH1 1 PUSH2 0x03e0 MSTORE", fvm.Config{Memory: fvm.NewMemory()})
	m := NewMeter(0)
	var costs []uint64
	for _, s := range steps {
		c, err := m.Charge(s)
		require.NoError(t, err)
		costs = append(costs, c)
	}
	// second store grows memory from 1 to 32 words
	assert.Equal(t, []uint64{3, 3, 6, 3, 3, 3 + MemoryCost(32) - MemoryCost(1), 0}, costs)
	assert.Equal(t, uint64(21)+MemoryCost(32)-MemoryCost(1), m.Used)
}

func TestMeterStorage(t *testing.T) {
	s := fvm.NewStorage(common.HexToAddress("0xaa"))
	steps := runSteps(t, "PUSH1 5 PUSH1 1 SSTORE PUSH1 6 PUSH1 1 SSTORE PUSH1 1 SLOAD", fvm.Config{Storage: s})
	m := NewMeter(0)
	for _, s := range steps {
		_, err := m.Charge(s)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(3+3+SSet+3+3+SReset+3+SLoad), m.Used)

	step := fvm.StepInfo{
		Instruction:  opcodes.Simple(opcodes.KindSStore),
		StoragePrev:  uint256.NewInt(0),
		StorageValue: uint256.NewInt(0),
	}
	cost, err := StepCost(&step)
	require.NoError(t, err)
	assert.Equal(t, SReset, cost)
}

func TestMeterLog(t *testing.T) {
	addr := common.HexToAddress("0xaa")
	steps := runSteps(t, "PUSH1 0x11 PUSH1 40 PUSH1 0 LOG1", fvm.Config{Memory: fvm.NewMemory(), Address: &addr})
	logStep := steps[3]
	require.Equal(t, opcodes.KindLog, logStep.Instruction.Kind)
	cost, err := StepCost(&logStep)
	require.NoError(t, err)
	assert.Equal(t, Log+LogTopic+LogData*40+MemoryCost(2), cost)
}

func TestMeterOutOfGas(t *testing.T) {
	m := NewMeter(5)
	add := fvm.StepInfo{Instruction: opcodes.Simple(opcodes.KindAdd)}
	_, err := m.Charge(add)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.Remaining())

	_, err = m.Charge(add)
	assert.ErrorIs(t, err, fvmerrors.ErrOutOfGas)
	assert.Equal(t, uint64(3), m.Used)

	_, err = m.Charge(fvm.StepInfo{Instruction: opcodes.Decode(0xfe)})
	assert.ErrorIs(t, err, fvmerrors.ErrUnknownOpcode)
}

func TestMemoryCostBound(t *testing.T) {
	words := MaxMemorySize / 32
	cost, err := MemoryExpansionCost(0, MaxMemorySize)
	require.NoError(t, err)
	assert.Equal(t, MemoryCost(words), cost)
	// the quadratic term dominates and has not wrapped
	assert.GreaterOrEqual(t, cost, words*words/QuadCoeff)
	assert.Greater(t, cost, Memory*words)

	_, err = MemoryExpansionCost(0, MaxMemorySize+1)
	assert.ErrorIs(t, err, fvmerrors.ErrOutOfGas)

	step := fvm.StepInfo{
		Instruction:   opcodes.Simple(opcodes.KindMLoad),
		MemSizeBefore: 0,
		MemSizeAfter:  1 << 40,
	}
	_, err = StepCost(&step)
	assert.ErrorIs(t, err, fvmerrors.ErrOutOfGas)

	m := NewMeter(0)
	_, err = m.Charge(step)
	assert.ErrorIs(t, err, fvmerrors.ErrOutOfGas)
	assert.Zero(t, m.Used)
}
