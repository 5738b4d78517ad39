package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/colorfulnotion/fvm/runtime"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"
)

func newRunCmd(n *node) *cobra.Command {
	var (
		src      codeSource
		address  string
		args     []string
		partial  bool
		commit   bool
		nonce    uint64
		gasLimit uint64
		maxSteps uint64
		trace    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute code and print the resulting stack, logs and storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := src.load()
			if err != nil {
				return err
			}
			rc := n.cfg.Runtime()
			if cmd.Flags().Changed("gas") {
				rc.GasLimit = gasLimit
			}
			if cmd.Flags().Changed("max-steps") {
				rc.MaxSteps = maxSteps
			}
			for _, a := range args {
				w, err := parseWord(a)
				if err != nil {
					return err
				}
				rc.Args = append(rc.Args, w)
			}
			if trace {
				rc.Tracer = &fvm.WriterTracer{W: cmd.OutOrStdout(), Color: readline.IsTerminal(int(os.Stdout.Fd()))}
			}

			addr, ok := n.cfg.ContractAddress()
			if address != "" {
				if !common.IsHexAddress(address) {
					return fmt.Errorf("invalid address %q", address)
				}
				addr, ok = common.HexToAddress(address), true
			}

			store, err := n.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if ok {
				rc.Address = &addr
				if partial {
					rc.Storage = fvm.NewPartialStorage(addr)
					rc.Witnesses = store
				} else if rc.Storage, err = store.LoadAccount(addr); err != nil {
					return err
				}
			}

			rt, err := runtime.New(n.cfg.ProgramCacheSize)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			res, err := rt.Execute(ctx, code, rc)
			if res == nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resultTree(res).String())
			if err != nil {
				return err
			}
			if commit {
				id := runtime.CallID(res, nonce)
				if err := runtime.Commit(store, id, res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored code %s\n", res.CodeHash.Hex())
				fmt.Fprintf(cmd.OutOrStdout(), "committed call %s\n", id.Hex())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&src.hex, "code", "", "code as hex")
	f.StringVar(&src.asm, "asm", "", "code as assembly, e.g. \"PUSH1 1 PUSH1 2 ADD\"")
	f.StringVar(&src.file, "file", "", "code file (.bin raw, .asm assembly, otherwise hex or assembly text)")
	f.StringVar(&address, "address", "", "account the code runs as (default from config)")
	f.StringSliceVar(&args, "arg", nil, "word pushed before execution, repeatable, first is deepest")
	f.BoolVar(&partial, "partial", false, "run against partial storage, fetching witnesses from the database")
	f.BoolVar(&commit, "commit", false, "write storage and logs back to the database on success")
	f.Uint64Var(&nonce, "nonce", 0, "nonce mixed into the call id used for the log archive")
	f.Uint64Var(&gasLimit, "gas", 0, "gas limit, 0 runs unmetered (default from config)")
	f.Uint64Var(&maxSteps, "max-steps", 0, "step limit (default from config)")
	f.BoolVar(&trace, "trace", false, "print every step")
	return cmd
}

func wordHex(w *uint256.Int) string {
	return w.Hex()
}

func resultTree(res *runtime.Result) treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("code %s", res.CodeHash.String_short()))
	status := res.Status.String()
	if res.Err != nil {
		status = fmt.Sprintf("%s (%s)", status, errorName(res.Err))
	}
	tree.AddMetaNode("status", status)
	tree.AddMetaNode("steps", res.Steps)
	tree.AddMetaNode("gas", res.GasUsed)
	tree.AddMetaNode("memory", fmt.Sprintf("%d bytes", len(res.Memory)))
	if res.WitnessFetches > 0 {
		tree.AddMetaNode("witnesses", res.WitnessFetches)
	}
	if res.Err != nil {
		tree.AddMetaNode("error", res.Err.Error())
	}

	stack := tree.AddBranch(fmt.Sprintf("stack (%d)", len(res.Stack)))
	for i := len(res.Stack) - 1; i >= 0; i-- {
		stack.AddMetaNode(len(res.Stack)-1-i, wordHex(&res.Stack[i]))
	}

	logs := tree.AddBranch(fmt.Sprintf("logs (%d)", len(res.Logs)))
	for i, l := range res.Logs {
		lb := logs.AddMetaBranch(i, l.Address.Hex())
		for j, t := range l.Topics {
			lb.AddMetaNode(fmt.Sprintf("topic%d", j), t.Hex())
		}
		lb.AddMetaNode("data", common.Bytes2Hex(l.Data))
	}

	if res.Storage != nil {
		dirty := res.Storage.Dirty()
		sb := tree.AddBranch(fmt.Sprintf("storage %s (%d written)", res.Storage.Address().Hex(), len(dirty)))
		for _, e := range dirty {
			sb.AddMetaNode(wordHex(&e.Key), wordHex(&e.Value))
		}
	}
	return tree
}

// errorName returns the short name of the taxonomy error behind err.
func errorName(err error) string {
	if kind := fvmerrors.Kind(err); kind != nil {
		return fvmerrors.GetErrorName(kind)
	}
	return err.Error()
}
