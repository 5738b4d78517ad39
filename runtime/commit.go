package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/colorfulnotion/fvm/storage"
)

// CallID identifies the logs of one call in the log archive.
func CallID(res *Result, nonce uint64) common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return common.Keccak256(res.CodeHash.Bytes(), n[:])
}

// Commit hands a successful result to the store: the code is stored under
// its hash, storage is written back and logs are archived under id.
func Commit(s *storage.Store, id common.Hash, res *Result) error {
	if res.Err != nil {
		return fmt.Errorf("refusing failed call: %w: %w", fvmerrors.ErrCommit, res.Err)
	}
	h, err := s.PutCode(res.Code)
	if err != nil {
		return fmt.Errorf("store code: %w: %w", fvmerrors.ErrCommit, err)
	}
	if h != res.CodeHash {
		return fmt.Errorf("code hash %s does not match result %s: %w", h.Hex(), res.CodeHash.Hex(), fvmerrors.ErrCommit)
	}
	if res.Storage != nil {
		if err := s.CommitAccount(res.Storage); err != nil {
			return err
		}
	}
	if len(res.Logs) > 0 {
		if err := s.PutLogs(id, res.Logs); err != nil {
			return fmt.Errorf("archive logs: %w: %w", fvmerrors.ErrCommit, err)
		}
	}
	return nil
}
