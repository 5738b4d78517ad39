package fvmerrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorNameAndCode(t *testing.T) {
	assert.Equal(t, "UnknownOpcode", GetErrorName(ErrUnknownOpcode))
	assert.Equal(t, "V1", GetErrorCode(ErrUnknownOpcode))
	assert.Equal(t, "S1_RequireError", GetErrorCodeWithName(ErrRequire))
	assert.Equal(t, "No Error", GetErrorName(nil))
	assert.Equal(t, "", GetErrorCode(nil))
	assert.Equal(t, []string{"StackUnderflow", "StackOverflow"}, GetErrorNames([]error{ErrStackUnderflow, ErrStackOverflow}))
}

func TestWrappedErrorCode(t *testing.T) {
	err := fmt.Errorf("pc 7 ADD %w", ErrStackUnderflow)
	assert.Equal(t, "V2", GetErrorCode(err))
	assert.Equal(t, "StackUnderflow", GetErrorName(err))
	assert.Equal(t, ErrStackUnderflow, Kind(err))
}

func TestKindUnknown(t *testing.T) {
	assert.Nil(t, Kind(fmt.Errorf("plain")))
	assert.Equal(t, "plain", GetErrorName(fmt.Errorf("plain")))
}
