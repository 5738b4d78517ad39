package fvm

import (
	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"
)

// StorageEntry is one key/value slot.
type StorageEntry struct {
	Key   uint256.Int
	Value uint256.Int
}

// Storage is the persistent key/value store of one account.
//
// A full storage holds every slot and reads missing keys as zero. A partial
// storage only answers for keys the host committed beforehand, so that an
// execution can run against a witness instead of the whole account state.
type Storage struct {
	address   common.Address
	partial   bool
	slots     map[uint256.Int]uint256.Int
	committed map[uint256.Int]uint256.Int
	dirty     map[uint256.Int]struct{}
}

// NewStorage returns an empty full storage for address.
func NewStorage(address common.Address) *Storage {
	return &Storage{
		address: address,
		slots:   make(map[uint256.Int]uint256.Int),
		dirty:   make(map[uint256.Int]struct{}),
	}
}

// NewStorageWith returns a full storage for address holding entries. The
// entries are the starting state and are not reported by Dirty.
func NewStorageWith(address common.Address, entries []StorageEntry) *Storage {
	s := NewStorage(address)
	for _, e := range entries {
		s.slots[e.Key] = e.Value
	}
	return s
}

// NewPartialStorage returns an empty partial storage for address.
func NewPartialStorage(address common.Address) *Storage {
	s := NewStorage(address)
	s.partial = true
	s.committed = make(map[uint256.Int]uint256.Int)
	return s
}

func (s *Storage) Address() common.Address {
	return s.address
}

func (s *Storage) Partial() bool {
	return s.partial
}

func (s *Storage) check(key *uint256.Int) error {
	if !s.partial {
		return nil
	}
	if _, ok := s.committed[*key]; !ok {
		return fvmerrors.ErrRequire
	}
	return nil
}

// Read returns the value of key.
func (s *Storage) Read(key *uint256.Int) (uint256.Int, error) {
	if err := s.check(key); err != nil {
		return uint256.Int{}, err
	}
	return s.slots[*key], nil
}

// Write sets key to value.
func (s *Storage) Write(key, value *uint256.Int) error {
	if err := s.check(key); err != nil {
		return err
	}
	s.slots[*key] = *value
	s.dirty[*key] = struct{}{}
	return nil
}

// Commit supplies the current value of key to a partial storage. Each key can
// be committed once.
func (s *Storage) Commit(key, value *uint256.Int) error {
	if !s.partial {
		return fvmerrors.ErrInvalidCommitment
	}
	if _, ok := s.committed[*key]; ok {
		return fvmerrors.ErrAlreadyCommitted
	}
	s.committed[*key] = *value
	s.slots[*key] = *value
	return nil
}

// IsCommitted reports whether key may be accessed. Every key of a full
// storage is accessible.
func (s *Storage) IsCommitted(key *uint256.Int) bool {
	return s.check(key) == nil
}

// Len returns the number of slots held.
func (s *Storage) Len() int {
	return len(s.slots)
}

func (s *Storage) IsEmpty() bool {
	return len(s.slots) == 0
}

// Entries returns every slot, ordered by key.
func (s *Storage) Entries() []StorageEntry {
	out := make([]StorageEntry, 0, len(s.slots))
	for k, v := range s.slots {
		out = append(out, StorageEntry{Key: k, Value: v})
	}
	sortEntries(out)
	return out
}

// Dirty returns the slots written since the storage was created, ordered by key.
func (s *Storage) Dirty() []StorageEntry {
	out := make([]StorageEntry, 0, len(s.dirty))
	for k := range s.dirty {
		out = append(out, StorageEntry{Key: k, Value: s.slots[k]})
	}
	sortEntries(out)
	return out
}

// Witness returns the committed values of a partial storage, ordered by key.
func (s *Storage) Witness() []StorageEntry {
	out := make([]StorageEntry, 0, len(s.committed))
	for k, v := range s.committed {
		out = append(out, StorageEntry{Key: k, Value: v})
	}
	sortEntries(out)
	return out
}

// Copy returns an independent copy of the storage.
func (s *Storage) Copy() *Storage {
	c := NewStorage(s.address)
	c.partial = s.partial
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k := range s.dirty {
		c.dirty[k] = struct{}{}
	}
	if s.partial {
		c.committed = make(map[uint256.Int]uint256.Int, len(s.committed))
		for k, v := range s.committed {
			c.committed[k] = v
		}
	}
	return c
}

func sortEntries(entries []StorageEntry) {
	slices.SortFunc(entries, func(a, b StorageEntry) int {
		return a.Key.Cmp(&b.Key)
	})
}

// WordToHash converts a word to its 32-byte big-endian form.
func WordToHash(w *uint256.Int) common.Hash {
	return common.Hash(w.Bytes32())
}

// HashToWord converts a 32-byte big-endian value to a word.
func HashToWord(h common.Hash) uint256.Int {
	var w uint256.Int
	w.SetBytes32(h[:])
	return w
}
