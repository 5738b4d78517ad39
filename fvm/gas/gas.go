package gas

import (
	"fmt"

	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
)

// Static tiers.
const (
	Zero     uint64 = 0
	JumpDest uint64 = 1
	Base     uint64 = 2
	VeryLow  uint64 = 3
	Low      uint64 = 5
	Mid      uint64 = 8
	Exp      uint64 = 10

	Log      uint64 = 375
	LogTopic uint64 = 375
	LogData  uint64 = 8

	Memory    uint64 = 3
	QuadCoeff uint64 = 512

	SLoad  uint64 = 200
	SSet   uint64 = 20000
	SReset uint64 = 5000
)

// MaxMemorySize is the largest memory, in bytes, whose cost fits in a
// uint64. Larger sizes can never be paid for.
const MaxMemorySize uint64 = 0x1FFFFFFFE0

// Cost returns the static cost of instr. The second result is false for
// instructions whose price depends on runtime state (memory and storage
// access) and for unknown opcodes.
func Cost(instr opcodes.Instruction) (uint64, bool) {
	switch instr.Kind {
	case opcodes.KindStop:
		return Zero, true
	case opcodes.KindJumpDest:
		return JumpDest, true
	case opcodes.KindMSize, opcodes.KindPop:
		return Base, true
	case opcodes.KindAdd, opcodes.KindSub,
		opcodes.KindLt, opcodes.KindGt, opcodes.KindSlt, opcodes.KindSgt, opcodes.KindEq, opcodes.KindIsZero,
		opcodes.KindAnd, opcodes.KindOr, opcodes.KindXor, opcodes.KindNot, opcodes.KindByte,
		opcodes.KindPush, opcodes.KindDup, opcodes.KindSwap:
		return VeryLow, true
	case opcodes.KindMul, opcodes.KindDiv, opcodes.KindSDiv, opcodes.KindMod, opcodes.KindSMod, opcodes.KindSignExtend:
		return Low, true
	case opcodes.KindAddMod, opcodes.KindMulMod:
		return Mid, true
	case opcodes.KindExp:
		return Exp, true
	case opcodes.KindLog:
		return Log + LogTopic*uint64(instr.N), true
	}
	return 0, false
}

// MemoryCost is the total cost of a memory of the given number of words:
// 3 per word plus words²/512. words must not exceed MaxMemorySize/32.
func MemoryCost(words uint64) uint64 {
	return Memory*words + words*words/QuadCoeff
}

// MemoryExpansionCost is the price of growing memory from oldBytes to
// newBytes. Shrinking or equal sizes are free. Growing past MaxMemorySize
// fails with ErrOutOfGas.
func MemoryExpansionCost(oldBytes, newBytes uint64) (uint64, error) {
	if newBytes <= oldBytes {
		return 0, nil
	}
	if newBytes > MaxMemorySize {
		return 0, fmt.Errorf("memory size %d exceeds %d: %w", newBytes, MaxMemorySize, fvmerrors.ErrOutOfGas)
	}
	return MemoryCost(toWordSize(newBytes)) - MemoryCost(toWordSize(oldBytes)), nil
}

func toWordSize(size uint64) uint64 {
	if size > ^uint64(0)-31 {
		return ^uint64(0)/32 + 1
	}
	return (size + 31) / 32
}

// Entry is one row of the static gas table.
type Entry struct {
	Opcode  byte
	Name    string
	Cost    uint64
	Dynamic bool
}

// Table lists every assigned opcode with its static cost, in byte order.
// Dynamic entries carry the fixed part the meter always charges.
func Table() []Entry {
	var entries []Entry
	for b := 0; b < 256; b++ {
		instr := opcodes.Decode(byte(b))
		if instr.IsUnknown() {
			continue
		}
		cost, ok := Cost(instr)
		if !ok {
			cost = dynamicBase(instr)
		}
		entries = append(entries, Entry{Opcode: byte(b), Name: instr.String(), Cost: cost, Dynamic: !ok})
	}
	return entries
}

func dynamicBase(instr opcodes.Instruction) uint64 {
	switch instr.Kind {
	case opcodes.KindMLoad, opcodes.KindMStore, opcodes.KindMStore8:
		return VeryLow
	case opcodes.KindSLoad:
		return SLoad
	case opcodes.KindSStore:
		return SReset
	}
	return 0
}
