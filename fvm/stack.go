package fvm

import (
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/holiman/uint256"
)

// StackLimit is the maximum number of words on the stack.
const StackLimit = 1024

// Stack is a fixed capacity word stack. The unexported accessors assume the
// caller validated the depth beforehand.
type Stack struct {
	data [StackLimit]uint256.Int
	sp   int
}

func newStack() *Stack {
	return &Stack{}
}

// Len returns the number of words on the stack.
func (st *Stack) Len() int {
	return st.sp
}

// Data returns a copy of the stack contents, bottom first.
func (st *Stack) Data() []uint256.Int {
	out := make([]uint256.Int, st.sp)
	copy(out, st.data[:st.sp])
	return out
}

// Push appends a word, failing when the stack is full.
func (st *Stack) Push(v *uint256.Int) error {
	if st.sp >= StackLimit {
		return fvmerrors.ErrStackOverflow
	}
	st.push(v)
	return nil
}

// Pop removes the top word, failing when the stack is empty.
func (st *Stack) Pop() (uint256.Int, error) {
	if st.sp == 0 {
		return uint256.Int{}, fvmerrors.ErrStackUnderflow
	}
	return st.pop(), nil
}

// Peek returns the word n slots below the top (0 is the top).
func (st *Stack) Peek(n int) (uint256.Int, bool) {
	if n < 0 || n >= st.sp {
		return uint256.Int{}, false
	}
	return *st.back(n), true
}

func (st *Stack) push(d *uint256.Int) {
	st.data[st.sp] = *d
	st.sp++
}

func (st *Stack) pop() (ret uint256.Int) {
	st.sp--
	ret = st.data[st.sp]
	st.data[st.sp].Clear()
	return
}

func (st *Stack) drop(n int) {
	for i := 0; i < n; i++ {
		st.sp--
		st.data[st.sp].Clear()
	}
}

func (st *Stack) peek() *uint256.Int {
	return &st.data[st.sp-1]
}

// back returns the n'th item in stack
func (st *Stack) back(n int) *uint256.Int {
	return &st.data[st.sp-n-1]
}

// swap exchanges the top with the word n slots below it.
func (st *Stack) swap(n int) {
	st.data[st.sp-n-1], st.data[st.sp-1] = st.data[st.sp-1], st.data[st.sp-n-1]
}

// dup pushes a copy of the n'th word from the top (1 is the top).
func (st *Stack) dup(n int) {
	st.data[st.sp] = st.data[st.sp-n]
	st.sp++
}
