package fvm

import (
	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/colorfulnotion/fvm/log"
	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"
)

// Status is the lifecycle state of an Engine.
type Status uint8

const (
	Running Status = iota
	Halted
	Faulted
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	}
	return "unknown"
}

// Config selects the optional capabilities of an Engine.
type Config struct {
	Memory  *Memory
	Storage *Storage
	Address *common.Address
	// MaxMemory bounds Memory in bytes; zero keeps the memory's own limit.
	// New installs it with Memory.SetLimit, so the bound stays on the given
	// Memory after the engine is done with it.
	MaxMemory uint64
	Tracer    Tracer
}

// Engine interprets one code buffer. It is not safe for concurrent use.
type Engine struct {
	code    []byte
	pc      uint64
	stack   *Stack
	memory  *Memory
	storage *Storage
	address *common.Address
	logs    []*Log
	tracer  Tracer

	status Status
	err    error
	steps  uint64
	last   StepInfo
}

// New returns an engine positioned at the first instruction of code.
func New(code []byte, cfg Config) (*Engine, error) {
	e := &Engine{
		code:    append([]byte(nil), code...),
		stack:   newStack(),
		memory:  cfg.Memory,
		storage: cfg.Storage,
		tracer:  cfg.Tracer,
	}
	if cfg.Address != nil {
		addr := *cfg.Address
		e.address = &addr
	}
	if e.storage != nil {
		if e.address == nil {
			addr := e.storage.Address()
			e.address = &addr
		} else if *e.address != e.storage.Address() {
			return nil, fvmerrors.ErrAddressMismatch
		}
	}
	if e.memory != nil && cfg.MaxMemory != 0 {
		e.memory.SetLimit(cfg.MaxMemory)
	}
	return e, nil
}

// NewWithMemory returns an engine with a fresh Memory and no storage.
func NewWithMemory(code []byte) *Engine {
	e, _ := New(code, Config{Memory: NewMemory()})
	return e
}

func (e *Engine) Code() []byte { return e.code }
func (e *Engine) PC() uint64 { return e.pc }
func (e *Engine) Status() Status { return e.status }
func (e *Engine) Err() error { return e.err }
func (e *Engine) Steps() uint64 { return e.steps }
func (e *Engine) LastStep() StepInfo { return e.last }
func (e *Engine) Memory() *Memory { return e.memory }
func (e *Engine) Storage() *Storage { return e.storage }
func (e *Engine) Depth() int { return e.stack.Len() }
func (e *Engine) Stack() []uint256.Int { return e.stack.Data() }
func (e *Engine) Peek(n int) (uint256.Int, bool) { return e.stack.Peek(n) }

// Address returns the account the engine runs as, if any.
func (e *Engine) Address() (common.Address, bool) {
	if e.address == nil {
		return common.Address{}, false
	}
	return *e.address, true
}

// Logs returns the logs emitted so far, in emission order.
func (e *Engine) Logs() []*Log {
	return slices.Clone(e.logs)
}

// PushWord places a word on the stack before execution starts, e.g. call arguments.
func (e *Engine) PushWord(v *uint256.Int) error {
	return e.stack.Push(v)
}

// Resume clears a fault so the next ExecuteOne retries the faulting
// instruction. Faulting steps leave the stack and pc untouched.
func (e *Engine) Resume() {
	if e.status == Faulted {
		e.status = Running
		e.err = nil
	}
}

func (e *Engine) current() opcodes.Instruction {
	if e.pc >= uint64(len(e.code)) {
		return opcodes.Simple(opcodes.KindStop)
	}
	return opcodes.Decode(e.code[e.pc])
}

// ExecuteOne runs the instruction at pc.
func (e *Engine) ExecuteOne() error {
	switch e.status {
	case Halted:
		return fvmerrors.ErrHalted
	case Faulted:
		return e.err
	}

	instr := e.current()
	step := StepInfo{
		Step:        e.steps,
		PC:          e.pc,
		Instruction: instr,
		StackDepth:  e.stack.Len(),
	}
	if e.memory != nil {
		step.MemSizeBefore = e.memory.Size()
	}

	if err := e.run(instr, &step); err != nil {
		if e.memory != nil {
			step.MemSizeAfter = e.memory.Size()
		}
		e.status = Faulted
		e.err = &ExecError{PC: e.pc, Instruction: instr, Err: err}
		e.last = step
		log.Debug(log.FVMMonitoring, "fvm fault", "pc", e.pc, "op", instr, "err", err)
		if e.tracer != nil {
			e.tracer.OnFault(e, &step, e.err)
		}
		return e.err
	}

	if e.memory != nil {
		step.MemSizeAfter = e.memory.Size()
	}
	if instr.Kind == opcodes.KindStop {
		e.status = Halted
	} else {
		e.pc += uint64(instr.Width())
	}
	e.steps++
	e.last = step
	if e.tracer != nil {
		e.tracer.OnStep(e, &step)
	}
	return nil
}

// Execute runs until STOP or the first error, which is returned unchanged.
func (e *Engine) Execute() error {
	for e.status == Running {
		if err := e.ExecuteOne(); err != nil {
			return err
		}
	}
	if e.status == Faulted {
		return e.err
	}
	return nil
}

func (e *Engine) run(instr opcodes.Instruction, step *StepInfo) error {
	op := &jumpTable[instr.Kind]
	if op.execute == nil {
		return fvmerrors.ErrUnknownOpcode
	}
	pops, pushes := instr.StackEffect()
	if e.stack.Len() < pops {
		return fvmerrors.ErrStackUnderflow
	}
	if e.stack.Len()-pops+pushes > StackLimit {
		return fvmerrors.ErrStackOverflow
	}
	if op.memory && e.memory == nil {
		return fvmerrors.ErrMemoryUnavailable
	}
	if op.storage && e.storage == nil {
		return fvmerrors.ErrStorageUnavailable
	}
	if op.address && e.address == nil {
		return fvmerrors.ErrAddressUnavailable
	}
	return op.execute(e, instr, step)
}
