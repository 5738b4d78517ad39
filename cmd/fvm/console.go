package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
	"github.com/dop251/goja"
	"github.com/spf13/cobra"
)

const consoleHelp = `load(code)        load hex ("0x6001") or assembly ("PUSH1 1")
step([n])         run n instructions (default 1)
run()             run until stop or fault
resume()          clear a fault and retry the faulting instruction
commit(key, val)  supply a witness value to partial storage
stack()           words, top first
memory()          memory as hex
logs()            emitted logs
storage()         written slots
pc(), status()    engine position and state
disasm()          instruction listing
trace(on)         print each step
partial(on)       use partial storage on the next load
exit              leave the console`

// console is a JavaScript stepping debugger around one engine.
type console struct {
	vm      *goja.Runtime
	out     io.Writer
	address common.Address
	partial bool
	tracing bool

	code   []byte
	engine *fvm.Engine
}

func newConsole(out io.Writer, address common.Address) *console {
	c := &console{vm: goja.New(), out: out, address: address}
	c.bind()
	return c
}

func (c *console) eval(src string) (goja.Value, error) {
	return c.vm.RunString(src)
}

func (c *console) current() (*fvm.Engine, error) {
	if c.engine == nil {
		return nil, fmt.Errorf("no code loaded, use load(code)")
	}
	return c.engine, nil
}

func (c *console) reset() error {
	var st *fvm.Storage
	if c.partial {
		st = fvm.NewPartialStorage(c.address)
	} else {
		st = fvm.NewStorage(c.address)
	}
	var tracer fvm.Tracer
	if c.tracing {
		tracer = &fvm.WriterTracer{W: c.out}
	}
	e, err := fvm.New(c.code, fvm.Config{Memory: fvm.NewMemory(), Storage: st, Tracer: tracer})
	if err != nil {
		return err
	}
	c.engine = e
	return nil
}

func describe(e *fvm.Engine) string {
	if err := e.Err(); err != nil {
		return fmt.Sprintf("%s at pc %d: %s", e.Status(), e.PC(), errorName(err))
	}
	return fmt.Sprintf("%s at pc %d", e.Status(), e.PC())
}

func (c *console) bind() {
	vm := c.vm
	vm.Set("print", func(args ...goja.Value) {
		for _, arg := range args {
			fmt.Fprintln(c.out, arg.Export())
		}
	})
	vm.Set("help", func() string { return consoleHelp })

	vm.Set("load", func(src string) (string, error) {
		code, err := parseCode(src)
		if err != nil {
			return "", err
		}
		c.code = code
		if err := c.reset(); err != nil {
			return "", err
		}
		return fmt.Sprintf("loaded %d bytes", len(code)), nil
	})
	vm.Set("reset", func() (string, error) {
		if err := c.reset(); err != nil {
			return "", err
		}
		return describe(c.engine), nil
	})
	vm.Set("step", func(n int) (string, error) {
		e, err := c.current()
		if err != nil {
			return "", err
		}
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n && e.Status() == fvm.Running; i++ {
			if err := e.ExecuteOne(); err != nil {
				break
			}
		}
		last := e.LastStep()
		return fmt.Sprintf("%s, last %s", describe(e), last.Instruction), nil
	})
	vm.Set("run", func() (string, error) {
		e, err := c.current()
		if err != nil {
			return "", err
		}
		_ = e.Execute()
		return describe(e), nil
	})
	vm.Set("resume", func() (string, error) {
		e, err := c.current()
		if err != nil {
			return "", err
		}
		e.Resume()
		return describe(e), nil
	})
	vm.Set("commit", func(key, value string) (string, error) {
		e, err := c.current()
		if err != nil {
			return "", err
		}
		k, err := parseWord(key)
		if err != nil {
			return "", err
		}
		v, err := parseWord(value)
		if err != nil {
			return "", err
		}
		if err := e.Storage().Commit(k, v); err != nil {
			return "", err
		}
		return fmt.Sprintf("committed %s = %s", k.Hex(), v.Hex()), nil
	})
	vm.Set("stack", func() ([]string, error) {
		e, err := c.current()
		if err != nil {
			return nil, err
		}
		words := e.Stack()
		out := make([]string, len(words))
		for i := range words {
			out[len(words)-1-i] = words[i].Hex()
		}
		return out, nil
	})
	vm.Set("memory", func() (string, error) {
		e, err := c.current()
		if err != nil {
			return "", err
		}
		return common.Bytes2Hex(e.Memory().Data()), nil
	})
	vm.Set("logs", func() ([]map[string]interface{}, error) {
		e, err := c.current()
		if err != nil {
			return nil, err
		}
		var out []map[string]interface{}
		for _, l := range e.Logs() {
			topics := make([]string, len(l.Topics))
			for i, t := range l.Topics {
				topics[i] = t.Hex()
			}
			out = append(out, map[string]interface{}{
				"address": l.Address.Hex(),
				"topics":  topics,
				"data":    common.Bytes2Hex(l.Data),
			})
		}
		return out, nil
	})
	vm.Set("storage", func() (map[string]string, error) {
		e, err := c.current()
		if err != nil {
			return nil, err
		}
		out := make(map[string]string)
		for _, entry := range e.Storage().Dirty() {
			out[entry.Key.Hex()] = entry.Value.Hex()
		}
		return out, nil
	})
	vm.Set("pc", func() (uint64, error) {
		e, err := c.current()
		if err != nil {
			return 0, err
		}
		return e.PC(), nil
	})
	vm.Set("status", func() (string, error) {
		e, err := c.current()
		if err != nil {
			return "", err
		}
		return describe(e), nil
	})
	vm.Set("disasm", func() string {
		return opcodes.DisassembleString(c.code)
	})
	vm.Set("trace", func(on bool) bool {
		c.tracing = on
		return on
	})
	vm.Set("partial", func(on bool) bool {
		c.partial = on
		return on
	})
	vm.Set("errors", func() []string {
		return fvmerrors.GetErrorNames([]error{
			fvmerrors.ErrUnknownOpcode, fvmerrors.ErrStackUnderflow, fvmerrors.ErrStackOverflow,
			fvmerrors.ErrStorageFault, fvmerrors.ErrRequire, fvmerrors.ErrMemoryLimit,
		})
	})
}

func newConsoleCmd(n *node) *cobra.Command {
	var src codeSource
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive JavaScript stepping debugger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := n.cfg.ContractAddress()
			c := newConsole(cmd.OutOrStdout(), addr)
			if src.hex != "" || src.asm != "" || src.file != "" {
				code, err := src.load()
				if err != nil {
					return err
				}
				c.code = code
				if err := c.reset(); err != nil {
					return err
				}
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "fvm> ",
				HistoryFile: filepath.Join(os.TempDir(), "fvm_console_history.txt"),
			})
			if err != nil {
				return err
			}
			defer rl.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "fvm console, help() lists commands, exit quits")
			for {
				line, err := rl.Readline()
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				value, err := c.eval(line)
				if err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), common.Colorize(err.Error(), common.ColorRed, true))
					continue
				}
				if value != nil && !goja.IsUndefined(value) {
					fmt.Fprintln(cmd.OutOrStdout(), value.Export())
				}
			}
		},
	}
	f := cmd.Flags()
	f.StringVar(&src.hex, "code", "", "code to load at start, as hex")
	f.StringVar(&src.asm, "asm", "", "code to load at start, as assembly")
	f.StringVar(&src.file, "file", "", "code file to load at start")
	return cmd
}
