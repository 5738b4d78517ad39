package storage

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.GetDevAccount(0)
	bob   = common.GetDevAccount(1)
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", 16)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func word(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestCommitAndLoadAccount(t *testing.T) {
	s := newTestStore(t)

	st := fvm.NewStorage(alice)
	require.NoError(t, st.Write(word(1), word(100)))
	require.NoError(t, st.Write(word(2), word(200)))
	require.NoError(t, s.CommitAccount(st))

	other := fvm.NewStorage(bob)
	require.NoError(t, other.Write(word(1), word(7)))
	require.NoError(t, s.CommitAccount(other))

	loaded, err := s.LoadAccount(alice)
	require.NoError(t, err)
	assert.Equal(t, st.Entries(), loaded.Entries())
	assert.Empty(t, loaded.Dirty())
	assert.False(t, loaded.Partial())

	loaded, err = s.LoadAccount(bob)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
}

func TestFullCommitReplacesAccount(t *testing.T) {
	s := newTestStore(t)

	st := fvm.NewStorage(alice)
	require.NoError(t, st.Write(word(1), word(100)))
	require.NoError(t, st.Write(word(2), word(200)))
	require.NoError(t, s.CommitAccount(st))

	// warm the cache for the slot about to disappear
	v, err := s.Witness(alice, word(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(200), v.Uint64())

	next := fvm.NewStorageWith(alice, []fvm.StorageEntry{{Key: *word(1), Value: *word(100)}})
	require.NoError(t, next.Write(word(3), word(300)))
	require.NoError(t, s.CommitAccount(next))

	slots, err := s.Slots(alice)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, uint64(1), slots[0].Key.Uint64())
	assert.Equal(t, uint64(3), slots[1].Key.Uint64())

	v, err = s.Witness(alice, word(2))
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestZeroValueDeletesSlot(t *testing.T) {
	s := newTestStore(t)
	st := fvm.NewStorage(alice)
	require.NoError(t, st.Write(word(1), word(100)))
	require.NoError(t, s.CommitAccount(st))

	require.NoError(t, st.Write(word(1), word(0)))
	require.NoError(t, s.CommitAccount(st))
	slots, err := s.Slots(alice)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestPartialCommitOnlyWritesDirty(t *testing.T) {
	s := newTestStore(t)
	st := fvm.NewStorage(alice)
	require.NoError(t, st.Write(word(1), word(100)))
	require.NoError(t, st.Write(word(2), word(200)))
	require.NoError(t, s.CommitAccount(st))

	partial := fvm.NewPartialStorage(alice)
	require.NoError(t, s.CommitWitness(partial, word(2)))
	v, err := partial.Read(word(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(200), v.Uint64())

	_, err = partial.Read(word(1))
	assert.ErrorIs(t, err, fvmerrors.ErrRequire)

	require.NoError(t, partial.Write(word(2), word(201)))
	require.NoError(t, s.CommitAccount(partial))

	slots, err := s.Slots(alice)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, uint64(100), slots[0].Value.Uint64())
	assert.Equal(t, uint64(201), slots[1].Value.Uint64())

	assert.ErrorIs(t, s.CommitWitness(partial, word(2)), fvmerrors.ErrAlreadyCommitted)
}

func TestWitnessCache(t *testing.T) {
	s := newTestStore(t)
	st := fvm.NewStorage(alice)
	require.NoError(t, st.Write(word(9), word(90)))
	require.NoError(t, s.CommitAccount(st))

	c := s.WitnessCache()
	c.Remove(alice, word(9))
	_, misses0 := c.Stats()

	for i := 0; i < 3; i++ {
		v, err := s.Witness(alice, word(9))
		require.NoError(t, err)
		assert.Equal(t, uint64(90), v.Uint64())
	}
	hits, misses := c.Stats()
	assert.Equal(t, misses0+1, misses)
	assert.GreaterOrEqual(t, hits, uint64(2))

	small, err := NewWitnessCache(2)
	require.NoError(t, err)
	for i := uint64(0); i < 5; i++ {
		small.Set(alice, word(i), word(i))
	}
	assert.Equal(t, 2, small.Len())
	_, ok := small.Get(alice, word(0))
	assert.False(t, ok)
}

func TestWitnessCacheFollowsCommits(t *testing.T) {
	s := newTestStore(t)
	key := word(5)
	const rounds = 200

	var done atomic.Bool
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !done.Load() {
				s.WitnessCache().Remove(alice, key)
				_, err := s.Witness(alice, key)
				assert.NoError(t, err)
			}
		}()
	}
	for i := uint64(1); i <= rounds; i++ {
		st := fvm.NewStorage(alice)
		require.NoError(t, st.Write(key, word(i)))
		require.NoError(t, s.CommitAccount(st))
	}
	done.Store(true)
	wg.Wait()

	v, err := s.Witness(alice, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(rounds), v.Uint64())
}

func TestCodeAndLogs(t *testing.T) {
	s := newTestStore(t)

	code := []byte{0x60, 0x01, 0x00}
	h, err := s.PutCode(code)
	require.NoError(t, err)
	assert.Equal(t, common.Keccak256(code), h)
	got, ok, err := s.GetCode(h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, code, got)

	logs := []*fvm.Log{
		fvm.NewLog(alice, nil, []byte{1, 2, 3}),
		fvm.NewLog(alice, []common.Hash{common.BytesToHash([]byte{0x11})}, nil),
	}
	id := common.Keccak256([]byte("call-1"))
	require.NoError(t, s.PutLogs(id, logs))
	back, ok, err := s.GetLogs(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, back, 2)
	assert.Equal(t, logs[0].Hash(), back[0].Hash())
	assert.Equal(t, logs[1].Topics, back[1].Topics)

	_, ok, err = s.GetLogs(common.Hash{})
	require.NoError(t, err)
	assert.False(t, ok)
}
