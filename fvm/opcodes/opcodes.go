package opcodes

// OpCode is a raw instruction byte.
type OpCode byte

// 0x0 range - arithmetic ops.
const (
	STOP       OpCode = 0x00
	ADD        OpCode = 0x01
	MUL        OpCode = 0x02
	SUB        OpCode = 0x03
	DIV        OpCode = 0x04
	SDIV       OpCode = 0x05
	MOD        OpCode = 0x06
	SMOD       OpCode = 0x07
	ADDMOD     OpCode = 0x08
	MULMOD     OpCode = 0x09
	EXP        OpCode = 0x0a
	SIGNEXTEND OpCode = 0x0b
)

// 0x10 range - comparison and bitwise ops.
const (
	LT     OpCode = 0x10
	GT     OpCode = 0x11
	SLT    OpCode = 0x12
	SGT    OpCode = 0x13
	EQ     OpCode = 0x14
	ISZERO OpCode = 0x15
	AND    OpCode = 0x16
	OR     OpCode = 0x17
	XOR    OpCode = 0x18
	NOT    OpCode = 0x19
	BYTE   OpCode = 0x1a
)

// 0x50 range - stack, memory and storage ops.
const (
	POP      OpCode = 0x50
	MLOAD    OpCode = 0x51
	MSTORE   OpCode = 0x52
	MSTORE8  OpCode = 0x53
	SLOAD    OpCode = 0x54
	SSTORE   OpCode = 0x55
	MSIZE    OpCode = 0x59
	JUMPDEST OpCode = 0x5b
)

// Parameterized ranges. The parameter of a byte inside a range is its
// offset from the range start (plus one for PUSH, DUP and SWAP).
const (
	PUSH1  OpCode = 0x60
	PUSH32 OpCode = 0x7f
	DUP1   OpCode = 0x80
	DUP16  OpCode = 0x8f
	SWAP1  OpCode = 0x90
	SWAP16 OpCode = 0x9f
	LOG0   OpCode = 0xa0
	LOG4   OpCode = 0xa4
)

const (
	MaxPushBytes = 32
	MaxDup       = 16
	MaxSwap      = 16
	MaxTopics    = 4
)

// Kind is the tag of an Instruction.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindStop
	KindAdd
	KindMul
	KindSub
	KindDiv
	KindSDiv
	KindMod
	KindSMod
	KindAddMod
	KindMulMod
	KindExp
	KindSignExtend
	KindLt
	KindGt
	KindSlt
	KindSgt
	KindEq
	KindIsZero
	KindAnd
	KindOr
	KindXor
	KindNot
	KindByte
	KindPop
	KindMLoad
	KindMStore
	KindMStore8
	KindMSize
	KindSLoad
	KindSStore
	KindPush
	KindDup
	KindSwap
	KindLog
	KindJumpDest

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:    "UNKNOWN",
	KindStop:       "STOP",
	KindAdd:        "ADD",
	KindMul:        "MUL",
	KindSub:        "SUB",
	KindDiv:        "DIV",
	KindSDiv:       "SDIV",
	KindMod:        "MOD",
	KindSMod:       "SMOD",
	KindAddMod:     "ADDMOD",
	KindMulMod:     "MULMOD",
	KindExp:        "EXP",
	KindSignExtend: "SIGNEXTEND",
	KindLt:         "LT",
	KindGt:         "GT",
	KindSlt:        "SLT",
	KindSgt:        "SGT",
	KindEq:         "EQ",
	KindIsZero:     "ISZERO",
	KindAnd:        "AND",
	KindOr:         "OR",
	KindXor:        "XOR",
	KindNot:        "NOT",
	KindByte:       "BYTE",
	KindPop:        "POP",
	KindMLoad:      "MLOAD",
	KindMStore:     "MSTORE",
	KindMStore8:    "MSTORE8",
	KindMSize:      "MSIZE",
	KindSLoad:      "SLOAD",
	KindSStore:     "SSTORE",
	KindPush:       "PUSH",
	KindDup:        "DUP",
	KindSwap:       "SWAP",
	KindLog:        "LOG",
	KindJumpDest:   "JUMPDEST",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// Parameterized reports whether instructions of this kind carry a parameter.
func (k Kind) Parameterized() bool {
	return k == KindPush || k == KindDup || k == KindSwap || k == KindLog
}

// simple maps each unparameterized opcode to its kind.
var simple = map[OpCode]Kind{
	STOP:       KindStop,
	ADD:        KindAdd,
	MUL:        KindMul,
	SUB:        KindSub,
	DIV:        KindDiv,
	SDIV:       KindSDiv,
	MOD:        KindMod,
	SMOD:       KindSMod,
	ADDMOD:     KindAddMod,
	MULMOD:     KindMulMod,
	EXP:        KindExp,
	SIGNEXTEND: KindSignExtend,
	LT:         KindLt,
	GT:         KindGt,
	SLT:        KindSlt,
	SGT:        KindSgt,
	EQ:         KindEq,
	ISZERO:     KindIsZero,
	AND:        KindAnd,
	OR:         KindOr,
	XOR:        KindXor,
	NOT:        KindNot,
	BYTE:       KindByte,
	POP:        KindPop,
	MLOAD:      KindMLoad,
	MSTORE:     KindMStore,
	MSTORE8:    KindMStore8,
	MSIZE:      KindMSize,
	SLOAD:      KindSLoad,
	SSTORE:     KindSStore,
	JUMPDEST:   KindJumpDest,
}

// opcodeOf is the inverse of simple.
var opcodeOf = buildOpcodeOf()

// decodeTable holds the decoded form of every byte.
var decodeTable = buildDecodeTable()

func buildOpcodeOf() (t [kindCount]OpCode) {
	for op, k := range simple {
		t[k] = op
	}
	return t
}

func buildDecodeTable() (t [256]Instruction) {
	for i := 0; i < 256; i++ {
		t[i] = decode(byte(i))
	}
	return t
}

func decode(b byte) Instruction {
	op := OpCode(b)
	if k, ok := simple[op]; ok {
		return Instruction{Kind: k, Raw: b}
	}
	switch {
	case op >= PUSH1 && op <= PUSH32:
		return Instruction{Kind: KindPush, N: uint8(op-PUSH1) + 1, Raw: b}
	case op >= DUP1 && op <= DUP16:
		return Instruction{Kind: KindDup, N: uint8(op-DUP1) + 1, Raw: b}
	case op >= SWAP1 && op <= SWAP16:
		return Instruction{Kind: KindSwap, N: uint8(op-SWAP1) + 1, Raw: b}
	case op >= LOG0 && op <= LOG4:
		return Instruction{Kind: KindLog, N: uint8(op - LOG0), Raw: b}
	}
	return Instruction{Kind: KindUnknown, Raw: b}
}

// Decode maps any byte to its instruction. Unassigned bytes decode to an
// instruction of KindUnknown.
func Decode(b byte) Instruction {
	return decodeTable[b]
}

// OpcodeToString returns the mnemonic for a raw byte.
func OpcodeToString(b byte) string {
	return Decode(b).String()
}
