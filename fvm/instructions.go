package fvm

import (
	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/holiman/uint256"
)

// Handlers run after the engine validated stack depth and capabilities.
// Arithmetic and comparison operands are taken in push order: for a op b the
// program pushes a first, so b is on top. Handlers that can still fail read
// their operands with back and only drop them once nothing can go wrong.

func opStop(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	return nil
}

func opAdd(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.Add(a, &b)
	return nil
}

func opSub(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.Sub(a, &b)
	return nil
}

func opMul(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.Mul(a, &b)
	return nil
}

func opDiv(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.Div(a, &b)
	return nil
}

func opSdiv(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.SDiv(a, &b)
	return nil
}

func opMod(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.Mod(a, &b)
	return nil
}

func opSmod(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.SMod(a, &b)
	return nil
}

// opAddmod computes (a + b) mod m without intermediate overflow, with m on
// top of the stack; m == 0 yields 0.
func opAddmod(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	m, b, a := e.stack.pop(), e.stack.pop(), e.stack.peek()
	a.AddMod(a, &b, &m)
	return nil
}

// opMulmod computes (a * b) mod m without intermediate overflow, with m on
// top of the stack; m == 0 yields 0.
func opMulmod(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	m, b, a := e.stack.pop(), e.stack.pop(), e.stack.peek()
	a.MulMod(a, &b, &m)
	return nil
}

func opExp(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	exponent, base := e.stack.pop(), e.stack.peek()
	base.Set(expBySquaring(base, &exponent))
	return nil
}

// expBySquaring walks all 256 exponent bits, least significant first.
func expBySquaring(base, exponent *uint256.Int) *uint256.Int {
	result := uint256.NewInt(1)
	b := new(uint256.Int).Set(base)
	for i := 0; i < 256; i++ {
		if exponent[i/64]&(1<<(uint(i)%64)) != 0 {
			result.Mul(result, b)
		}
		b.Mul(b, b)
	}
	return result
}

// opSignExtend extends the sign bit of byte b (counted from the least
// significant end) of x, where x is on top and b below it.
func opSignExtend(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	x, b := e.stack.pop(), e.stack.peek()
	byteNum := *b
	b.ExtendSign(&x, &byteNum)
	return nil
}

func opLt(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	setBool(a, a.Lt(&b))
	return nil
}

func opGt(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	setBool(a, a.Gt(&b))
	return nil
}

func opSlt(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	setBool(a, a.Slt(&b))
	return nil
}

func opSgt(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	setBool(a, a.Sgt(&b))
	return nil
}

func opEq(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	setBool(a, a.Eq(&b))
	return nil
}

func opIszero(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	x := e.stack.peek()
	setBool(x, x.IsZero())
	return nil
}

func setBool(z *uint256.Int, b bool) {
	if b {
		z.SetOne()
	} else {
		z.Clear()
	}
}

func opAnd(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.And(a, &b)
	return nil
}

func opOr(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.Or(a, &b)
	return nil
}

func opXor(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	b, a := e.stack.pop(), e.stack.peek()
	a.Xor(a, &b)
	return nil
}

func opNot(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	x := e.stack.peek()
	x.Not(x)
	return nil
}

// opByte replaces index i with byte i of w, counting from the most
// significant end; w is on top and i below it.
func opByte(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	w, i := e.stack.pop(), e.stack.peek()
	w.Byte(i)
	i.Set(&w)
	return nil
}

func opPop(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	e.stack.pop()
	return nil
}

// memOffset converts a word to a memory offset.
func memOffset(w *uint256.Int) (uint64, error) {
	if !w.IsUint64() {
		return 0, fvmerrors.ErrMemoryLimit
	}
	return w.Uint64(), nil
}

func opMload(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	v := e.stack.peek()
	offset, err := memOffset(v)
	if err != nil {
		return err
	}
	word, err := e.memory.Load(offset)
	if err != nil {
		return err
	}
	v.Set(&word)
	return nil
}

func opMstore(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	offset, err := memOffset(e.stack.back(0))
	if err != nil {
		return err
	}
	if err := e.memory.Store(offset, e.stack.back(1)); err != nil {
		return err
	}
	e.stack.drop(2)
	return nil
}

func opMstore8(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	offset, err := memOffset(e.stack.back(0))
	if err != nil {
		return err
	}
	if err := e.memory.StoreByte(offset, byte(e.stack.back(1).Uint64())); err != nil {
		return err
	}
	e.stack.drop(2)
	return nil
}

func opMsize(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	e.stack.push(new(uint256.Int).SetUint64(e.memory.Size()))
	return nil
}

func opSload(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	loc := e.stack.peek()
	key := *loc
	step.StorageKey = &key
	val, err := e.storage.Read(&key)
	if err != nil {
		return &StorageFault{Key: key, Reason: err}
	}
	step.StorageValue = &val
	loc.Set(&val)
	return nil
}

func opSstore(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	key, val := *e.stack.back(0), *e.stack.back(1)
	step.StorageKey = &key
	step.StorageValue = &val
	step.StorageWrite = true
	prev, err := e.storage.Read(&key)
	if err != nil {
		return &StorageFault{Key: key, Write: true, Reason: err}
	}
	if err := e.storage.Write(&key, &val); err != nil {
		return &StorageFault{Key: key, Write: true, Reason: err}
	}
	step.StoragePrev = &prev
	e.stack.drop(2)
	return nil
}

// opPush reads instr.N big-endian immediate bytes following the opcode.
func opPush(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	start := e.pc + 1
	end := start + uint64(instr.N)
	if end > uint64(len(e.code)) {
		return fvmerrors.ErrBufferOverrun
	}
	e.stack.push(new(uint256.Int).SetBytes(e.code[start:end]))
	return nil
}

func opDup(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	e.stack.dup(int(instr.N))
	return nil
}

func opSwap(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	e.stack.swap(int(instr.N))
	return nil
}

// opLog pops offset and length, then N topics, and appends a Log holding
// memory[offset:offset+length]. Topics keep the order they were pushed in, so
// the deepest topic word comes first.
func opLog(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	offset, err := memOffset(e.stack.back(0))
	if err != nil {
		return err
	}
	size, err := memOffset(e.stack.back(1))
	if err != nil {
		return err
	}
	data, err := e.memory.CopyFrom(offset, size)
	if err != nil {
		return err
	}
	topics := make([]common.Hash, instr.N)
	for i := range topics {
		topics[i] = WordToHash(e.stack.back(1 + len(topics) - i))
	}
	e.logs = append(e.logs, NewLog(*e.address, topics, data))
	step.LogDataLen = size
	e.stack.drop(int(instr.N) + 2)
	return nil
}

func opJumpdest(e *Engine, instr opcodes.Instruction, step *StepInfo) error {
	return nil
}
