package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/fvm/gas"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/colorfulnotion/fvm/log"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxSteps          = 10_000_000
	DefaultMaxWitnessRetries = 64

	// steps between context checks
	cancelCheckInterval = 1024
)

// WitnessSource supplies the current value of a storage slot so that a
// partial storage can be extended when execution needs a missing key.
type WitnessSource interface {
	Witness(address common.Address, key *uint256.Int) (uint256.Int, error)
}

// Config describes one call.
type Config struct {
	Address *common.Address
	// Storage is used as is and must not be shared with a concurrent call.
	Storage *fvm.Storage
	// Witnesses answers RequireError faults of a partial Storage.
	Witnesses         WitnessSource
	MaxWitnessRetries int

	GasLimit  uint64 // zero runs unmetered
	MaxSteps  uint64 // zero uses DefaultMaxSteps
	MaxMemory uint64 // zero keeps the memory default

	// Args are pushed before the first instruction, first element deepest.
	Args []*uint256.Int
	// Strict rejects code with unknown opcodes or truncated push data
	// before running it.
	Strict bool
	Tracer fvm.Tracer
}

// Result is the outcome of a call. Storage and Logs must be discarded when
// Err is set.
type Result struct {
	Code           []byte
	CodeHash       common.Hash
	Status         fvm.Status
	Err            error
	Stack          []uint256.Int
	Logs           []*fvm.Log
	Storage        *fvm.Storage
	Memory         []byte
	GasUsed        uint64
	Steps          uint64
	WitnessFetches int
	Duration       time.Duration
}

// Failed reports whether the call ended with an error.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Runtime drives engines for a host. It is safe for concurrent use.
type Runtime struct {
	programs *ProgramCache
}

func New(programCacheSize int) (*Runtime, error) {
	programs, err := NewProgramCache(programCacheSize)
	if err != nil {
		return nil, err
	}
	return &Runtime{programs: programs}, nil
}

func (r *Runtime) Programs() *ProgramCache {
	return r.programs
}

// Execute runs code to completion. The returned error is the setup error, or
// else the same error stored in Result.Err.
func (r *Runtime) Execute(ctx context.Context, code []byte, cfg Config) (*Result, error) {
	start := time.Now()
	prog := r.programs.Get(code)
	if cfg.Strict {
		if err := prog.Validate(); err != nil {
			return nil, fmt.Errorf("code %s: %w", prog.Hash.String_short(), err)
		}
	}

	e, err := fvm.New(prog.Code, fvm.Config{
		Memory:    fvm.NewMemory(),
		Storage:   cfg.Storage,
		Address:   cfg.Address,
		MaxMemory: cfg.MaxMemory,
		Tracer:    cfg.Tracer,
	})
	if err != nil {
		return nil, err
	}
	for _, arg := range cfg.Args {
		if err := e.PushWord(arg); err != nil {
			return nil, fmt.Errorf("push argument: %w", err)
		}
	}

	res := &Result{Code: prog.Code, CodeHash: prog.Hash}
	res.Err = r.run(ctx, e, cfg, res)

	res.Status = e.Status()
	res.Stack = e.Stack()
	res.Logs = e.Logs()
	res.Storage = e.Storage()
	res.Memory = e.Memory().Data()
	res.Steps = e.Steps()
	res.Duration = time.Since(start)
	if res.Err != nil {
		log.Debug(log.RuntimeMonitoring, "call failed", "code", prog.Hash.String_short(), "steps", res.Steps, "gas", res.GasUsed, "err", res.Err)
	} else {
		log.Debug(log.RuntimeMonitoring, "call done", "code", prog.Hash.String_short(), "steps", res.Steps, "gas", res.GasUsed, "logs", len(res.Logs), "elapsed", res.Duration)
	}
	return res, res.Err
}

func (r *Runtime) run(ctx context.Context, e *fvm.Engine, cfg Config, res *Result) error {
	maxSteps := cfg.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	maxRetries := cfg.MaxWitnessRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxWitnessRetries
	}
	var meter *gas.Meter
	if cfg.GasLimit != 0 {
		meter = gas.NewMeter(cfg.GasLimit)
	}

	for e.Status() == fvm.Running {
		if e.Steps()%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if e.Steps() >= maxSteps {
			return fmt.Errorf("after %d steps: %w", e.Steps(), fvmerrors.ErrStepLimit)
		}

		err := e.ExecuteOne()
		if err == nil {
			if meter != nil {
				_, err := meter.Charge(e.LastStep())
				res.GasUsed = meter.Used
				if err != nil {
					return err
				}
			}
			continue
		}

		fault, ok := fvm.AsStorageFault(err)
		if !ok || !errors.Is(err, fvmerrors.ErrRequire) || cfg.Witnesses == nil {
			return err
		}
		if res.WitnessFetches >= maxRetries {
			return fmt.Errorf("witness retries exhausted: %w", err)
		}
		st := e.Storage()
		v, werr := cfg.Witnesses.Witness(st.Address(), &fault.Key)
		if werr != nil {
			if !errors.Is(werr, fvmerrors.ErrWitnessUnavailable) {
				werr = fmt.Errorf("%w: %w", fvmerrors.ErrWitnessUnavailable, werr)
			}
			return werr
		}
		if cerr := st.Commit(&fault.Key, &v); cerr != nil {
			return cerr
		}
		res.WitnessFetches++
		log.Trace(log.RuntimeMonitoring, "witness fetched", "address", st.Address(), "key", fault.Key.Hex(), "value", v.Hex())
		e.Resume()
	}
	return e.Err()
}

// Call is one entry of a batch.
type Call struct {
	Code   []byte
	Config Config
}

// ExecuteBatch runs calls concurrently, at most parallelism at a time
// (unbounded when parallelism <= 0), and returns results in input order. A
// failing call does not stop the others; setup errors are reported through
// a Result with only Err set.
func (r *Runtime) ExecuteBatch(ctx context.Context, calls []Call, parallelism int) []*Result {
	results := make([]*Result, len(calls))
	var g errgroup.Group
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i := range calls {
		g.Go(func() error {
			res, err := r.Execute(ctx, calls[i].Code, calls[i].Config)
			if res == nil {
				res = &Result{Err: err}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
