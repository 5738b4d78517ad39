package fvm

import (
	"testing"

	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGrowsZeroFilled(t *testing.T) {
	m := NewMemory()
	assert.Equal(t, uint64(0), m.Size())

	v, err := m.Load(64)
	require.NoError(t, err)
	assert.True(t, v.IsZero())
	assert.Equal(t, uint64(96), m.Size())
	assert.Equal(t, uint64(3), m.Words())
	assert.Equal(t, uint64(1), m.Expansions())

	// reads inside the current size do not grow
	_, err = m.LoadByte(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.Expansions())
}

func TestMemoryWordRoundTrip(t *testing.T) {
	m := NewMemory()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	want := new(uint256.Int).SetBytes(raw)
	require.NoError(t, m.Store(1, want))
	assert.Equal(t, uint64(64), m.Size())
	assert.Equal(t, uint64(0), m.Size()%WordSize)

	got, err := m.Load(1)
	require.NoError(t, err)
	assert.Equal(t, want, &got)

	b, err := m.LoadByte(1)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)
	b, err = m.LoadByte(32)
	require.NoError(t, err)
	assert.Equal(t, byte(0x20), b)
}

func TestMemoryStoreByte(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.StoreByte(40, 0xab))
	assert.Equal(t, uint64(64), m.Size())
	data := m.Data()
	assert.Equal(t, byte(0xab), data[40])
	assert.Equal(t, byte(0), data[39])
}

func TestMemoryCopyFrom(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CopyInto([]byte{1, 2, 3, 4}, 0, 0, 4))

	out, err := m.CopyFrom(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, out)

	out, err = m.CopyFrom(1000, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, uint64(32), m.Size())

	out, err = m.CopyFrom(30, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
	assert.Equal(t, uint64(64), m.Size())
}

func TestMemoryCopyIntoZeroFillsPastSource(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CopyInto([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 0, 0, 8))
	require.NoError(t, m.CopyInto([]byte{9, 8, 7}, 2, 1, 5))
	out, err := m.CopyFrom(0, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 8, 7, 0, 0, 0, 0xff}, out)

	// a source offset past the end writes zeros only
	require.NoError(t, m.CopyInto([]byte{1}, 0, 5, 2))
	out, _ = m.CopyFrom(0, 2)
	assert.Equal(t, []byte{0, 0}, out)
}

func TestMemoryLimit(t *testing.T) {
	m := NewMemory()
	m.SetLimit(64)
	assert.Equal(t, uint64(64), m.Limit())
	require.NoError(t, m.Store(32, uint256.NewInt(1)))
	assert.ErrorIs(t, m.Store(33, uint256.NewInt(1)), fvmerrors.ErrMemoryLimit)
	assert.ErrorIs(t, m.Check(^uint64(0)-4, 8), fvmerrors.ErrMemoryLimit)
	assert.Equal(t, uint64(64), m.Size())

	m.SetLimit(0)
	assert.Equal(t, uint64(DefaultMaxMemory), m.Limit())
}
