package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/runtime"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/spf13/cobra"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
	"golang.org/x/exp/slices"
)

// stateTest is one fixture: code, pre-state and the expected outcome.
// Words are hex strings; absent expectation fields are not checked.
type stateTest struct {
	Code     string            `json:"code"`
	Address  string            `json:"address,omitempty"`
	Partial  bool              `json:"partial,omitempty"`
	Pre      map[string]string `json:"pre,omitempty"`
	Args     []string          `json:"args,omitempty"`
	GasLimit uint64            `json:"gasLimit,omitempty"`
	Expect   postState         `json:"expect"`
}

type postState struct {
	Status  *string           `json:"status,omitempty"`
	Error   *string           `json:"error,omitempty"`
	Stack   []string          `json:"stack,omitempty"`
	Storage map[string]string `json:"storage,omitempty"`
	Logs    []*fvm.Log        `json:"logs,omitempty"`
	GasUsed *uint64           `json:"gasUsed,omitempty"`
}

func loadStateTests(path string) (map[string]*stateTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tests map[string]*stateTest
	if err := json.Unmarshal(data, &tests); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tests, nil
}

func normWord(s string) (string, error) {
	w, err := parseWord(s)
	if err != nil {
		return "", err
	}
	return w.Hex(), nil
}

// normalize rewrites words to their canonical hex form and drops zero
// storage values, which read the same as absent slots.
func (p *postState) normalize() error {
	for i, s := range p.Stack {
		n, err := normWord(s)
		if err != nil {
			return err
		}
		p.Stack[i] = n
	}
	if p.Storage != nil {
		out := make(map[string]string, len(p.Storage))
		for k, v := range p.Storage {
			nk, err := normWord(k)
			if err != nil {
				return err
			}
			nv, err := normWord(v)
			if err != nil {
				return err
			}
			if nv != "0x0" {
				out[nk] = nv
			}
		}
		p.Storage = out
	}
	return nil
}

// observed builds the actual post-state, with the same fields as want.
func observed(res *runtime.Result, want *postState) *postState {
	got := &postState{}
	if want.Status != nil {
		s := res.Status.String()
		got.Status = &s
	}
	if want.Error != nil {
		e := ""
		if res.Err != nil {
			e = errorName(res.Err)
		}
		got.Error = &e
	}
	if want.Stack != nil {
		got.Stack = make([]string, len(res.Stack))
		for i := range res.Stack {
			got.Stack[i] = res.Stack[i].Hex()
		}
	}
	if want.Storage != nil {
		got.Storage = map[string]string{}
		if res.Storage != nil {
			for _, e := range res.Storage.Entries() {
				if !e.Value.IsZero() {
					got.Storage[e.Key.Hex()] = e.Value.Hex()
				}
			}
		}
	}
	if want.Logs != nil {
		got.Logs = res.Logs
	}
	if want.GasUsed != nil {
		g := res.GasUsed
		got.GasUsed = &g
	}
	return got
}

// call builds the runtime call of t. Partial pre-state is committed to store,
// which then serves the witnesses.
func (t *stateTest) call(store *storage.Store) (runtime.Call, error) {
	code, err := parseCode(t.Code)
	if err != nil {
		return runtime.Call{}, err
	}
	rc, err := t.config(store)
	if err != nil {
		return runtime.Call{}, err
	}
	return runtime.Call{Code: code, Config: rc}, nil
}

func (t *stateTest) config(store *storage.Store) (runtime.Config, error) {
	var rc runtime.Config
	rc.GasLimit = t.GasLimit
	for _, a := range t.Args {
		w, err := parseWord(a)
		if err != nil {
			return rc, err
		}
		rc.Args = append(rc.Args, w)
	}
	if t.Address == "" {
		if len(t.Pre) > 0 || t.Partial {
			return rc, fmt.Errorf("pre-state needs an address")
		}
		return rc, nil
	}
	if !common.IsHexAddress(t.Address) {
		return rc, fmt.Errorf("invalid address %q", t.Address)
	}
	addr := common.HexToAddress(t.Address)
	rc.Address = &addr

	pre := fvm.NewStorage(addr)
	for k, v := range t.Pre {
		kw, err := parseWord(k)
		if err != nil {
			return rc, err
		}
		vw, err := parseWord(v)
		if err != nil {
			return rc, err
		}
		if err := pre.Write(kw, vw); err != nil {
			return rc, err
		}
	}
	if t.Partial {
		if err := store.CommitAccount(pre); err != nil {
			return rc, err
		}
		rc.Storage = fvm.NewPartialStorage(addr)
		rc.Witnesses = store
		return rc, nil
	}
	rc.Storage = fvm.NewStorageWith(addr, pre.Entries())
	return rc, nil
}

// diffJSON reports whether want and got differ, writing an ASCII diff to w.
func diffJSON(w io.Writer, want, got interface{}, color bool) (bool, error) {
	left, err := json.Marshal(want)
	if err != nil {
		return false, err
	}
	right, err := json.Marshal(got)
	if err != nil {
		return false, err
	}
	delta, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return false, err
	}
	if !delta.Modified() {
		return false, nil
	}
	var leftObj interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return true, err
	}
	asciiFmt := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	diff, err := asciiFmt.Format(delta)
	if err != nil {
		return true, err
	}
	fmt.Fprintln(w, diff)
	return true, nil
}

// runStateTests executes every fixture against its own in-memory store,
// at most parallelism at a time, and reports them in name order. It returns
// the names of the failing fixtures.
func runStateTests(ctx context.Context, w io.Writer, tests map[string]*stateTest, parallelism int, color bool) ([]string, error) {
	rt, err := runtime.New(0)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tests))
	for name := range tests {
		names = append(names, name)
	}
	slices.Sort(names)

	calls := make([]runtime.Call, len(names))
	wants := make([]postState, len(names))
	for i, name := range names {
		store, err := storage.Open("", 0)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if calls[i], err = tests[name].call(store); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		wants[i] = tests[name].Expect
		if err := wants[i].normalize(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	results := rt.ExecuteBatch(ctx, calls, parallelism)
	var failed []string
	for i, name := range names {
		got := observed(results[i], &wants[i])
		modified, err := diffJSON(w, &wants[i], got, color)
		if err != nil {
			return failed, fmt.Errorf("%s: %w", name, err)
		}
		if modified {
			fmt.Fprintln(w, common.Colorize("FAIL "+name, common.ColorRed, color))
			failed = append(failed, name)
			continue
		}
		fmt.Fprintln(w, common.Colorize("PASS "+name, common.ColorGreen, color))
	}
	return failed, nil
}

func newStateTestCmd(n *node) *cobra.Command {
	var color bool
	cmd := &cobra.Command{
		Use:   "statetest <fixture.json>...",
		Short: "Run JSON state fixtures and diff expected against actual post-state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed []string
			for _, path := range args {
				tests, err := loadStateTests(path)
				if err != nil {
					return err
				}
				f, err := runStateTests(cmd.Context(), cmd.OutOrStdout(), tests, n.cfg.Parallelism, color)
				if err != nil {
					return err
				}
				failed = append(failed, f...)
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d fixtures failed: %v", len(failed), failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&color, "color", true, "color the diff output")
	return cmd
}
