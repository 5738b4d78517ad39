package opcodes

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	code, err := Assemble(`
		PUSH1 10   ; first operand
		PUSH1 0x0a
		ADD
		push2 0x01 # widened
		PUSH 0x1234
		STOP`)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x0a, 0x60, 0x0a, 0x01, 0x61, 0x00, 0x01, 0x61, 0x12, 0x34, 0x00}, code)
}

func TestAssembleZeroImmediate(t *testing.T) {
	code, err := Assemble("PUSH 0 PUSH32 0")
	require.NoError(t, err)
	assert.Equal(t, 1+1+1+32, len(code))
	assert.Equal(t, []byte{0x60, 0x00}, code[:2])
}

func TestAssembleErrors(t *testing.T) {
	_, err := Assemble("PUSH1 0x0102")
	assert.Error(t, err)
	_, err = Assemble("FOO")
	assert.Error(t, err)
	_, err = Assemble("PUSH1")
	assert.Error(t, err)
	_, err = Assemble("PUSH1 -1")
	assert.Error(t, err)
}

func TestAssembleRoundTrip(t *testing.T) {
	src := "PUSH1 0x20 PUSH1 0x00 MSTORE8 MSIZE DUP1 SWAP1 LOG0 JUMPDEST STOP"
	code, err := Assemble(src)
	require.NoError(t, err)
	var names []string
	for _, op := range Disassemble(code) {
		names = append(names, op.Instruction.String())
	}
	assert.Equal(t, []string{"PUSH1", "PUSH1", "MSTORE8", "MSIZE", "DUP1", "SWAP1", "LOG0", "JUMPDEST", "STOP"}, names)
}

func TestAssembleImmediateWidths(t *testing.T) {
	code, err := Assemble("PUSH32 0x" + strings.Repeat("ff", 32))
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0x7f}, bytes.Repeat([]byte{0xff}, 32)...), code)

	code, err = Assemble("PUSH 115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	assert.Len(t, code, 33)

	code, err = Assemble("PUSH2 0x0000ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x61, 0x00, 0xff}, code)

	for _, bad := range []string{
		"PUSH 0x1" + strings.Repeat("00", 32),
		"PUSH 115792089237316195423570985008687907853269984665640564039457584007913129639936",
		"PUSH 0x",
		"PUSH 0xzz",
		"PUSH ten",
	} {
		_, err := Assemble(bad)
		assert.Error(t, err, bad)
	}
}
