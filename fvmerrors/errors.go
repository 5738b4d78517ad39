package fvmerrors

import (
	"errors"
	"strings"
)

// Execution (V) Errors
var (
	ErrUnknownOpcode      = errors.New("V1|UnknownOpcode: The byte at the program counter does not decode to an executable instruction.")
	ErrStackUnderflow     = errors.New("V2|StackUnderflow: The instruction needs more words than the stack holds.")
	ErrStackOverflow      = errors.New("V3|StackOverflow: The instruction would grow the stack past 1024 words.")
	ErrMemoryUnavailable  = errors.New("V4|MemoryUnavailable: A memory instruction ran on an engine without memory.")
	ErrStorageUnavailable = errors.New("V5|StorageUnavailable: A storage instruction ran on an engine without storage.")
	ErrStorageFault       = errors.New("V6|StorageFault: The storage rejected the access.")
	ErrBufferOverrun      = errors.New("V7|BufferOverrun: Push data extends past the end of the code.")
	ErrAddressUnavailable = errors.New("V8|AddressUnavailable: A log instruction ran on an engine without an address.")
	ErrMemoryLimit        = errors.New("V9|MemoryLimit: The memory access lies beyond the configured memory bound.")
	ErrHalted             = errors.New("V10|Halted: The engine has already stopped.")
	ErrAddressMismatch    = errors.New("V11|AddressMismatch: The storage belongs to a different address than the engine.")
)

// Storage (S) Errors
var (
	ErrRequire           = errors.New("S1|RequireError: The key is not committed in partial storage.")
	ErrCommit            = errors.New("S2|CommitError: The storage changes could not be committed.")
	ErrInvalidCommitment = errors.New("S3|InvalidCommitment: Commitments are only accepted by partial storage.")
	ErrAlreadyCommitted  = errors.New("S4|AlreadyCommitted: The key already has a commitment.")
)

// Host (H) Errors
var (
	ErrOutOfGas           = errors.New("H1|OutOfGas: The gas limit was exhausted.")
	ErrStepLimit          = errors.New("H2|StepLimit: The step limit was reached before the code stopped.")
	ErrWitnessUnavailable = errors.New("H3|WitnessUnavailable: No witness could be produced for the required key.")
)

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

func GetErrorNames(errs []error) []string {
	errStrs := make([]string, len(errs))
	for i, err := range errs {
		errStrs[i] = GetErrorName(err)
	}
	return errStrs
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	code := strings.TrimSpace(parts[0])
	// wrapped errors carry a prefix before the code
	if i := strings.LastIndex(code, " "); i >= 0 {
		code = code[i+1:]
	}
	return code
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(err.Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}

// Kind returns the first taxonomy sentinel err matches, or nil.
func Kind(err error) error {
	for _, sentinel := range all {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

var all = []error{
	ErrUnknownOpcode, ErrStackUnderflow, ErrStackOverflow, ErrMemoryUnavailable,
	ErrStorageUnavailable, ErrStorageFault, ErrBufferOverrun, ErrAddressUnavailable,
	ErrMemoryLimit, ErrHalted, ErrAddressMismatch,
	ErrRequire, ErrCommit, ErrInvalidCommitment, ErrAlreadyCommitted,
	ErrOutOfGas, ErrStepLimit, ErrWitnessUnavailable,
}
