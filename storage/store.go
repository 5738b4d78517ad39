package storage

import (
	"fmt"
	"sync"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/colorfulnotion/fvm/log"
	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
)

// Key layout:
//
//	's' | blake2(address) | slot   -> 32-byte value (zero values are not stored)
//	'c' | keccak(code)             -> code
//	'l' | id                       -> RLP list of logs
const (
	slotPrefix byte = 's'
	codePrefix byte = 'c'
	logPrefix  byte = 'l'
)

// Store persists account storage, code and emitted logs. It is safe for
// concurrent use.
type Store struct {
	db        *PersistenceStore
	witnesses *WitnessCache

	// mu orders cache fills against commits so a fill never caches a value
	// a commit has already replaced.
	mu sync.Mutex
}

// Open opens a Store at path; an empty path keeps everything in memory.
func Open(path string, cacheSize int) (*Store, error) {
	db, err := NewPersistenceStore(path)
	if err != nil {
		return nil, err
	}
	s, err := NewStore(db, cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewStore(db *PersistenceStore, cacheSize int) (*Store, error) {
	cache, err := NewWitnessCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, witnesses: cache}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) WitnessCache() *WitnessCache {
	return s.witnesses
}

func accountPrefix(address common.Address) []byte {
	h := common.Blake2Hash(address.Bytes())
	out := make([]byte, 0, 1+common.HashLength)
	out = append(out, slotPrefix)
	return append(out, h.Bytes()...)
}

func slotKey(prefix []byte, key *uint256.Int) []byte {
	k := key.Bytes32()
	out := make([]byte, 0, len(prefix)+len(k))
	out = append(out, prefix...)
	return append(out, k[:]...)
}

// Slots returns the persisted slots of address, ordered by key.
func (s *Store) Slots(address common.Address) ([]fvm.StorageEntry, error) {
	prefix := accountPrefix(address)
	pairs, err := s.db.GetWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	entries := make([]fvm.StorageEntry, 0, len(pairs))
	for _, kv := range pairs {
		var e fvm.StorageEntry
		e.Key.SetBytes(kv[0][len(prefix):])
		e.Value.SetBytes(kv[1])
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadAccount returns a full storage holding every persisted slot of address.
func (s *Store) LoadAccount(address common.Address) (*fvm.Storage, error) {
	entries, err := s.Slots(address)
	if err != nil {
		return nil, err
	}
	log.Debug(log.StorageMonitoring, "load account", "address", address, "slots", len(entries))
	return fvm.NewStorageWith(address, entries), nil
}

// Witness returns the persisted value of one slot; missing slots are zero.
func (s *Store) Witness(address common.Address, key *uint256.Int) (uint256.Int, error) {
	if v, ok := s.witnesses.Get(address, key); ok {
		return v, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.witnesses.peek(address, key); ok {
		return v, nil
	}
	data, _, err := s.db.Get(slotKey(accountPrefix(address), key))
	if err != nil {
		return uint256.Int{}, fmt.Errorf("witness %s %s: %w: %w", address.Hex(), key.Hex(), fvmerrors.ErrWitnessUnavailable, err)
	}
	var v uint256.Int
	v.SetBytes(data)
	s.witnesses.Set(address, key, &v)
	return v, nil
}

// CommitWitness fetches the value of key and commits it to a partial storage.
func (s *Store) CommitWitness(st *fvm.Storage, key *uint256.Int) error {
	v, err := s.Witness(st.Address(), key)
	if err != nil {
		return err
	}
	return st.Commit(key, &v)
}

// CommitAccount writes st back. A full storage replaces the persisted account,
// dropping slots it no longer holds. A partial storage only knows part of the
// account, so only its written slots are applied. Zero values delete the slot.
func (s *Store) CommitAccount(st *fvm.Storage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	address := st.Address()
	prefix := accountPrefix(address)
	batch := new(leveldb.Batch)

	var entries []fvm.StorageEntry
	var removed []uint256.Int
	if st.Partial() {
		entries = st.Dirty()
	} else {
		entries = st.Entries()
		keep := make(map[uint256.Int]struct{}, len(entries))
		for _, e := range entries {
			keep[e.Key] = struct{}{}
		}
		keys, err := s.db.KeysWithPrefix(prefix)
		if err != nil {
			return fmt.Errorf("commit %s: %w: %w", address.Hex(), fvmerrors.ErrCommit, err)
		}
		for _, k := range keys {
			var slot uint256.Int
			slot.SetBytes(k[len(prefix):])
			if _, ok := keep[slot]; !ok {
				batch.Delete(k)
				removed = append(removed, slot)
			}
		}
	}
	for i := range entries {
		e := &entries[i]
		if e.Value.IsZero() {
			batch.Delete(slotKey(prefix, &e.Key))
		} else {
			v := e.Value.Bytes32()
			batch.Put(slotKey(prefix, &e.Key), v[:])
		}
	}

	if err := s.db.WriteBatch(batch); err != nil {
		return fmt.Errorf("commit %s: %w: %w", address.Hex(), fvmerrors.ErrCommit, err)
	}
	for i := range entries {
		s.witnesses.Set(address, &entries[i].Key, &entries[i].Value)
	}
	for i := range removed {
		s.witnesses.Remove(address, &removed[i])
	}
	log.Debug(log.StorageMonitoring, "commit account", "address", address, "partial", st.Partial(), "written", len(entries), "removed", len(removed))
	return nil
}

// PutCode stores code under its Keccak256 hash.
func (s *Store) PutCode(code []byte) (common.Hash, error) {
	h := common.Keccak256(code)
	if err := s.db.Put(append([]byte{codePrefix}, h.Bytes()...), code); err != nil {
		return common.Hash{}, err
	}
	return h, nil
}

func (s *Store) GetCode(hash common.Hash) ([]byte, bool, error) {
	return s.db.Get(append([]byte{codePrefix}, hash.Bytes()...))
}

// PutLogs archives logs under id, typically the hash of the call that emitted them.
func (s *Store) PutLogs(id common.Hash, logs []*fvm.Log) error {
	enc, err := fvm.EncodeLogs(logs)
	if err != nil {
		return err
	}
	return s.db.Put(append([]byte{logPrefix}, id.Bytes()...), enc)
}

// GetLogs returns the logs archived under id.
func (s *Store) GetLogs(id common.Hash) ([]*fvm.Log, bool, error) {
	data, ok, err := s.db.Get(append([]byte{logPrefix}, id.Bytes()...))
	if err != nil || !ok {
		return nil, ok, err
	}
	logs, err := fvm.DecodeLogs(data)
	if err != nil {
		return nil, false, err
	}
	return logs, true, nil
}
