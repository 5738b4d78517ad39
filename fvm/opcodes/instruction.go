package opcodes

import "fmt"

// Instruction is a decoded opcode. N carries the parameter of PUSH (byte
// count 1..32), DUP (1..16), SWAP (1..16) and LOG (topic count 0..4) and is
// zero for every other kind. Raw is the byte the instruction was decoded from.
type Instruction struct {
	Kind Kind
	N    uint8
	Raw  byte
}

// Simple returns the instruction for an unparameterized kind.
func Simple(k Kind) Instruction {
	if k.Parameterized() || k == KindUnknown || k >= kindCount {
		panic(fmt.Sprintf("opcodes: %s is not a simple kind", k))
	}
	return Instruction{Kind: k, Raw: byte(opcodeOf[k])}
}

func Push(n int) Instruction {
	if n < 1 || n > MaxPushBytes {
		panic(fmt.Sprintf("opcodes: PUSH%d out of range", n))
	}
	return Instruction{Kind: KindPush, N: uint8(n), Raw: byte(PUSH1) + byte(n-1)}
}

func Dup(n int) Instruction {
	if n < 1 || n > MaxDup {
		panic(fmt.Sprintf("opcodes: DUP%d out of range", n))
	}
	return Instruction{Kind: KindDup, N: uint8(n), Raw: byte(DUP1) + byte(n-1)}
}

func Swap(n int) Instruction {
	if n < 1 || n > MaxSwap {
		panic(fmt.Sprintf("opcodes: SWAP%d out of range", n))
	}
	return Instruction{Kind: KindSwap, N: uint8(n), Raw: byte(SWAP1) + byte(n-1)}
}

func Log(n int) Instruction {
	if n < 0 || n > MaxTopics {
		panic(fmt.Sprintf("opcodes: LOG%d out of range", n))
	}
	return Instruction{Kind: KindLog, N: uint8(n), Raw: byte(LOG0) + byte(n)}
}

// Byte returns the encoding of the instruction.
func (i Instruction) Byte() byte {
	return i.Raw
}

// Width is the number of code bytes the instruction occupies, immediates included.
func (i Instruction) Width() int {
	if i.Kind == KindPush {
		return 1 + int(i.N)
	}
	return 1
}

func (i Instruction) IsUnknown() bool {
	return i.Kind == KindUnknown
}

func (i Instruction) String() string {
	switch i.Kind {
	case KindUnknown:
		return fmt.Sprintf("UNKNOWN(0x%02x)", i.Raw)
	case KindPush, KindDup, KindSwap, KindLog:
		return fmt.Sprintf("%s%d", i.Kind, i.N)
	default:
		return i.Kind.String()
	}
}

// StackEffect returns how many words the instruction pops and pushes.
// DUPn and SWAPn report the depth they touch, so pops is also the minimum
// stack height the instruction needs.
func (i Instruction) StackEffect() (pops, pushes int) {
	switch i.Kind {
	case KindStop, KindJumpDest, KindUnknown:
		return 0, 0
	case KindAdd, KindMul, KindSub, KindDiv, KindSDiv, KindMod, KindSMod, KindExp, KindSignExtend,
		KindLt, KindGt, KindSlt, KindSgt, KindEq, KindAnd, KindOr, KindXor, KindByte:
		return 2, 1
	case KindAddMod, KindMulMod:
		return 3, 1
	case KindIsZero, KindNot, KindMLoad, KindSLoad:
		return 1, 1
	case KindMStore, KindMStore8, KindSStore:
		return 2, 0
	case KindPop:
		return 1, 0
	case KindMSize, KindPush:
		return 0, 1
	case KindDup:
		return int(i.N), int(i.N) + 1
	case KindSwap:
		return int(i.N) + 1, int(i.N) + 1
	case KindLog:
		return int(i.N) + 2, 0
	}
	return 0, 0
}

// InstructionCategory groups instructions for statistics and tracing.
type InstructionCategory int

const (
	CategoryUnknown InstructionCategory = iota
	CategoryArithmetic
	CategoryBitwise
	CategoryMemory
	CategoryStorage
	CategoryStack
	CategoryLog
	CategoryControlFlow
)

// GetInstructionCategory returns the category of an instruction
func GetInstructionCategory(i Instruction) InstructionCategory {
	switch i.Kind {
	case KindStop, KindJumpDest:
		return CategoryControlFlow
	case KindAdd, KindMul, KindSub, KindDiv, KindSDiv, KindMod, KindSMod,
		KindAddMod, KindMulMod, KindExp, KindSignExtend:
		return CategoryArithmetic
	case KindLt, KindGt, KindSlt, KindSgt, KindEq, KindIsZero,
		KindAnd, KindOr, KindXor, KindNot, KindByte:
		return CategoryBitwise
	case KindMLoad, KindMStore, KindMStore8, KindMSize:
		return CategoryMemory
	case KindSLoad, KindSStore:
		return CategoryStorage
	case KindPop, KindPush, KindDup, KindSwap:
		return CategoryStack
	case KindLog:
		return CategoryLog
	default:
		return CategoryUnknown
	}
}

// GetCategoryName returns the string name of an instruction category
func GetCategoryName(category InstructionCategory) string {
	switch category {
	case CategoryArithmetic:
		return "Arithmetic"
	case CategoryBitwise:
		return "Bitwise"
	case CategoryMemory:
		return "Memory"
	case CategoryStorage:
		return "Storage"
	case CategoryStack:
		return "Stack"
	case CategoryLog:
		return "Log"
	case CategoryControlFlow:
		return "ControlFlow"
	default:
		return "Unknown"
	}
}
