package fvm

import (
	"errors"
	"fmt"

	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/holiman/uint256"
)

// ExecError is returned by a faulting step. It unwraps to one of the
// fvmerrors sentinels.
type ExecError struct {
	PC          uint64
	Instruction opcodes.Instruction
	Err         error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("pc %d %s: %v", e.PC, e.Instruction, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// StorageFault reports a storage access the storage refused. It matches both
// fvmerrors.ErrStorageFault and its Reason under errors.Is.
type StorageFault struct {
	Key    uint256.Int
	Write  bool
	Reason error
}

func (f *StorageFault) Error() string {
	op := "read"
	if f.Write {
		op = "write"
	}
	return fmt.Sprintf("%v %s key %s: %v", fvmerrors.ErrStorageFault, op, f.Key.Hex(), f.Reason)
}

func (f *StorageFault) Unwrap() []error {
	return []error{fvmerrors.ErrStorageFault, f.Reason}
}

// AsStorageFault extracts the StorageFault from an error chain.
func AsStorageFault(err error) (*StorageFault, bool) {
	var fault *StorageFault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
