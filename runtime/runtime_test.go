package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contract = common.GetDevAccount(2)

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	r, err := New(8)
	require.NoError(t, err)
	return r
}

func asm(t *testing.T, src string) []byte {
	t.Helper()
	code, err := opcodes.Assemble(src)
	require.NoError(t, err)
	return code
}

func TestExecuteHalts(t *testing.T) {
	r := newRuntime(t)
	res, err := r.Execute(context.Background(), asm(t, "PUSH1 2 PUSH1 3 MUL"), Config{})
	require.NoError(t, err)
	assert.Equal(t, fvm.Halted, res.Status)
	require.Len(t, res.Stack, 1)
	assert.Equal(t, uint64(6), res.Stack[0].Uint64())
	assert.Equal(t, uint64(4), res.Steps)
	assert.Equal(t, common.Keccak256(asm(t, "PUSH1 2 PUSH1 3 MUL")), res.CodeHash)
}

func TestExecuteArgs(t *testing.T) {
	r := newRuntime(t)
	res, err := r.Execute(context.Background(), asm(t, "SUB"), Config{
		Args: []*uint256.Int{uint256.NewInt(10), uint256.NewInt(4)},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), res.Stack[0].Uint64())
}

func TestGasMetering(t *testing.T) {
	r := newRuntime(t)
	code := asm(t, "PUSH1 1 PUSH1 2 ADD")

	res, err := r.Execute(context.Background(), code, Config{GasLimit: 100})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), res.GasUsed)

	res, err = r.Execute(context.Background(), code, Config{GasLimit: 8})
	assert.ErrorIs(t, err, fvmerrors.ErrOutOfGas)
	assert.True(t, res.Failed())
	assert.Equal(t, uint64(6), res.GasUsed)
}

func TestStepLimit(t *testing.T) {
	r := newRuntime(t)
	code := asm(t, "PUSH1 1 PUSH1 1 PUSH1 1")
	res, err := r.Execute(context.Background(), code, Config{MaxSteps: 2})
	assert.ErrorIs(t, err, fvmerrors.ErrStepLimit)
	assert.Equal(t, uint64(2), res.Steps)
	assert.Equal(t, fvm.Running, res.Status)

	_, err = r.Execute(context.Background(), code, Config{MaxSteps: 4})
	assert.NoError(t, err)
}

func TestContextCancelled(t *testing.T) {
	r := newRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Execute(ctx, asm(t, "PUSH1 1"), Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStrictRejectsInvalidCode(t *testing.T) {
	r := newRuntime(t)
	res, err := r.Execute(context.Background(), []byte{0x60, 0x01, 0xfe}, Config{Strict: true})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, fvmerrors.ErrUnknownOpcode)

	_, err = r.Execute(context.Background(), []byte{0x61, 0x01}, Config{Strict: true})
	assert.ErrorIs(t, err, fvmerrors.ErrBufferOverrun)

	// without Strict the same code runs until it faults
	res, err = r.Execute(context.Background(), []byte{0x60, 0x01, 0xfe}, Config{})
	assert.ErrorIs(t, err, fvmerrors.ErrUnknownOpcode)
	assert.Equal(t, fvm.Faulted, res.Status)
	assert.Len(t, res.Stack, 1)
}

func seededStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open("", 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	st := fvm.NewStorage(contract)
	require.NoError(t, st.Write(uint256.NewInt(1), uint256.NewInt(40)))
	require.NoError(t, st.Write(uint256.NewInt(2), uint256.NewInt(2)))
	require.NoError(t, s.CommitAccount(st))
	return s
}

func TestPartialRetryFetchesWitness(t *testing.T) {
	r := newRuntime(t)
	s := seededStore(t)
	code := asm(t, "PUSH1 1 SLOAD PUSH1 2 SLOAD ADD PUSH1 3 SSTORE")

	partial := fvm.NewPartialStorage(contract)
	res, err := r.Execute(context.Background(), code, Config{Storage: partial, Witnesses: s})
	require.NoError(t, err)
	assert.Equal(t, 3, res.WitnessFetches)
	assert.Len(t, partial.Witness(), 3)

	require.NoError(t, Commit(s, CallID(res, 0), res))
	v, err := s.Witness(contract, uint256.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v.Uint64())

	slots, err := s.Slots(contract)
	require.NoError(t, err)
	assert.Len(t, slots, 3)
}

func TestPartialWithoutWitnesses(t *testing.T) {
	r := newRuntime(t)
	res, err := r.Execute(context.Background(), asm(t, "PUSH1 1 SLOAD"), Config{Storage: fvm.NewPartialStorage(contract)})
	assert.ErrorIs(t, err, fvmerrors.ErrRequire)
	assert.ErrorIs(t, err, fvmerrors.ErrStorageFault)
	assert.Equal(t, 0, res.WitnessFetches)
}

func TestWitnessRetriesExhausted(t *testing.T) {
	r := newRuntime(t)
	s := seededStore(t)
	_, err := r.Execute(context.Background(), asm(t, "PUSH1 1 SLOAD PUSH1 2 SLOAD"), Config{
		Storage:           fvm.NewPartialStorage(contract),
		Witnesses:         s,
		MaxWitnessRetries: 1,
	})
	assert.ErrorIs(t, err, fvmerrors.ErrRequire)
}

type failingSource struct{}

func (failingSource) Witness(common.Address, *uint256.Int) (uint256.Int, error) {
	return uint256.Int{}, errors.New("backend offline")
}

func TestWitnessSourceFailure(t *testing.T) {
	r := newRuntime(t)
	_, err := r.Execute(context.Background(), asm(t, "PUSH1 1 SLOAD"), Config{
		Storage:   fvm.NewPartialStorage(contract),
		Witnesses: failingSource{},
	})
	assert.ErrorIs(t, err, fvmerrors.ErrWitnessUnavailable)
	assert.Contains(t, err.Error(), "backend offline")
}

func TestExecuteBatch(t *testing.T) {
	r := newRuntime(t)
	code := asm(t, "DUP1 PUSH1 7 SSTORE PUSH1 2 MUL")
	calls := make([]Call, 16)
	for i := range calls {
		calls[i] = Call{Code: code, Config: Config{
			Storage: fvm.NewStorage(contract),
			Args:    []*uint256.Int{uint256.NewInt(uint64(i))},
		}}
	}
	calls = append(calls, Call{Code: []byte{0x01}})
	calls = append(calls, Call{Code: code, Config: Config{
		Storage: fvm.NewStorage(contract),
		Address: &common.Address{},
	}})

	results := r.ExecuteBatch(context.Background(), calls, 4)
	require.Len(t, results, 18)
	for i := 0; i < 16; i++ {
		require.NoError(t, results[i].Err)
		assert.Equal(t, uint64(2*i), results[i].Stack[0].Uint64())
		v, err := results[i].Storage.Read(uint256.NewInt(7))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), v.Uint64())
	}
	assert.ErrorIs(t, results[16].Err, fvmerrors.ErrStackUnderflow)
	assert.ErrorIs(t, results[17].Err, fvmerrors.ErrAddressMismatch)
	assert.Equal(t, 2, r.Programs().Len())
}

func TestProgramCache(t *testing.T) {
	c, err := NewProgramCache(2)
	require.NoError(t, err)
	code := []byte{0x60, 0x01, 0x5b}
	p1 := c.Get(code)
	p2 := c.Get(code)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []uint64{2}, p1.Stats.JumpDests)
	assert.NoError(t, p1.Validate())

	c.Get([]byte{0x01})
	c.Get([]byte{0x02})
	assert.Equal(t, 2, c.Len())
	assert.NotSame(t, p1, c.Get(code))
}

func TestCommitRefusesFailedCall(t *testing.T) {
	s := seededStore(t)
	res := &Result{Err: fvmerrors.ErrOutOfGas, Storage: fvm.NewStorage(contract)}
	err := Commit(s, common.Hash{}, res)
	assert.ErrorIs(t, err, fvmerrors.ErrCommit)
	assert.ErrorIs(t, err, fvmerrors.ErrOutOfGas)

	slots, err := s.Slots(contract)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestCommitArchivesLogs(t *testing.T) {
	r := newRuntime(t)
	s := seededStore(t)
	res, err := r.Execute(context.Background(), asm(t, "PUSH1 0xaa PUSH1 0 MSTORE8 PUSH1 9 PUSH1 1 PUSH1 0 LOG1"), Config{Address: &contract})
	require.NoError(t, err)
	require.Len(t, res.Logs, 1)

	id := CallID(res, 7)
	assert.NotEqual(t, CallID(res, 8), id)
	require.NoError(t, Commit(s, id, res))
	logs, ok, err := s.GetLogs(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0xaa}, logs[0].Data)
	assert.Equal(t, common.BytesToHash([]byte{9}), logs[0].Topics[0])
}

func TestCommitStoresCode(t *testing.T) {
	r := newRuntime(t)
	s := seededStore(t)
	code := asm(t, "PUSH1 4 PUSH1 5 SSTORE")
	res, err := r.Execute(context.Background(), code, Config{Address: &contract, Storage: fvm.NewStorage(contract)})
	require.NoError(t, err)
	require.NoError(t, Commit(s, CallID(res, 0), res))

	stored, ok, err := s.GetCode(res.CodeHash)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, code, stored)

	tampered := *res
	tampered.Code = asm(t, "STOP")
	err = Commit(s, CallID(&tampered, 1), &tampered)
	assert.ErrorIs(t, err, fvmerrors.ErrCommit)
}
