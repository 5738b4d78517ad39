package fvm

import (
	"math"

	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/holiman/uint256"
)

const (
	WordSize = 32
	// DefaultMaxMemory bounds memory growth when the engine config sets no limit.
	DefaultMaxMemory = 16 << 20
)

// Memory is the volatile byte-addressed memory of one execution. It only
// grows, new bytes are zero, and its length is always a multiple of WordSize.
type Memory struct {
	store      []byte
	expansions uint64
	limit      uint64
}

// NewMemory returns an empty memory bounded by DefaultMaxMemory.
func NewMemory() *Memory {
	return &Memory{limit: DefaultMaxMemory}
}

// SetLimit bounds the memory length in bytes; zero restores DefaultMaxMemory.
func (m *Memory) SetLimit(limit uint64) {
	m.limit = limit
}

// Limit returns the effective bound on the memory length.
func (m *Memory) Limit() uint64 {
	if m.limit == 0 {
		return DefaultMaxMemory
	}
	return m.limit
}

// Size returns the memory length in bytes.
func (m *Memory) Size() uint64 {
	return uint64(len(m.store))
}

// Words returns the memory length in 32-byte words.
func (m *Memory) Words() uint64 {
	return uint64(len(m.store)) / WordSize
}

// Expansions returns how many times the memory grew.
func (m *Memory) Expansions() uint64 {
	return m.expansions
}

// Data returns a copy of the memory contents.
func (m *Memory) Data() []byte {
	return append([]byte(nil), m.store...)
}

// toWordSize returns the ceiled word size required for memory expansion.
func toWordSize(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// bounds validates [offset, offset+length) and returns its end.
func (m *Memory) bounds(offset, length uint64) (uint64, error) {
	end := offset + length
	if end < offset {
		return 0, fvmerrors.ErrMemoryLimit
	}
	if toWordSize(end) > m.Limit()/WordSize {
		return 0, fvmerrors.ErrMemoryLimit
	}
	return end, nil
}

// Require checks that [offset, offset+length) is addressable and grows the
// memory to cover it. A zero length touches nothing.
func (m *Memory) Require(offset, length uint64) error {
	if length == 0 {
		return nil
	}
	end, err := m.bounds(offset, length)
	if err != nil {
		return err
	}
	m.resize(end)
	return nil
}

// Check reports whether Require(offset, length) would succeed without growing.
func (m *Memory) Check(offset, length uint64) error {
	if length == 0 {
		return nil
	}
	_, err := m.bounds(offset, length)
	return err
}

func (m *Memory) resize(end uint64) {
	size := toWordSize(end) * WordSize
	if size <= uint64(len(m.store)) {
		return
	}
	m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	m.expansions++
}

// Load reads the 32-byte big-endian word at offset.
func (m *Memory) Load(offset uint64) (uint256.Int, error) {
	var v uint256.Int
	if err := m.Require(offset, WordSize); err != nil {
		return v, err
	}
	v.SetBytes32(m.store[offset : offset+WordSize])
	return v, nil
}

// Store writes value as a 32-byte big-endian word at offset.
func (m *Memory) Store(offset uint64, value *uint256.Int) error {
	if err := m.Require(offset, WordSize); err != nil {
		return err
	}
	value.WriteToSlice(m.store[offset : offset+WordSize])
	return nil
}

func (m *Memory) LoadByte(offset uint64) (byte, error) {
	if err := m.Require(offset, 1); err != nil {
		return 0, err
	}
	return m.store[offset], nil
}

func (m *Memory) StoreByte(offset uint64, b byte) error {
	if err := m.Require(offset, 1); err != nil {
		return err
	}
	m.store[offset] = b
	return nil
}

// CopyFrom returns a copy of length bytes starting at start.
func (m *Memory) CopyFrom(start, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	if err := m.Require(start, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.store[start:start+length])
	return out, nil
}

// CopyInto writes length bytes into memory at start, taken from values
// beginning at valueStart. Positions past the end of values are written as zero.
func (m *Memory) CopyInto(values []byte, start, valueStart, length uint64) error {
	if length == 0 {
		return nil
	}
	if err := m.Require(start, length); err != nil {
		return err
	}
	dst := m.store[start : start+length]
	var n int
	if valueStart < uint64(len(values)) {
		n = copy(dst, values[valueStart:])
	}
	clear(dst[n:])
	return nil
}
