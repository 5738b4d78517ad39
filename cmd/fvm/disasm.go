package main

import (
	"fmt"

	"github.com/colorfulnotion/fvm/fvm/gas"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func newDisasmCmd() *cobra.Command {
	var (
		src   codeSource
		stats bool
		costs bool
	)
	cmd := &cobra.Command{
		Use:   "disasm",
		Short: "Print the instruction listing of code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := src.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, op := range opcodes.Disassemble(code) {
				if costs {
					if c, ok := gas.Cost(op.Instruction); ok {
						fmt.Fprintf(out, "%-40s ; gas %d\n", op, c)
					} else {
						fmt.Fprintf(out, "%-40s ; gas dynamic\n", op)
					}
					continue
				}
				fmt.Fprintln(out, op)
			}
			if stats {
				printStats(cmd, opcodes.Analyze(code))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&src.hex, "code", "", "code as hex")
	f.StringVar(&src.asm, "asm", "", "code as assembly")
	f.StringVar(&src.file, "file", "", "code file")
	f.BoolVar(&stats, "stats", false, "print instruction statistics")
	f.BoolVar(&costs, "gas", false, "annotate static gas costs")
	return cmd
}

func printStats(cmd *cobra.Command, s *opcodes.ProgramStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\ninstructions: %d\nunknown: %d\npush data: %d bytes\njumpdests: %v\n",
		s.InstructionCount, s.UnknownCount, s.PushDataBytes, s.JumpDests)
	if s.Truncated {
		fmt.Fprintln(out, "final push is truncated")
	}
	cats := make([]opcodes.InstructionCategory, 0, len(s.CategoryCount))
	for c := range s.CategoryCount {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	for _, c := range cats {
		fmt.Fprintf(out, "  %-12s %d\n", opcodes.GetCategoryName(c), s.CategoryCount[c])
	}
}

func newGasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gas",
		Short: "Print the static gas table",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s %-12s %8s\n", "byte", "name", "gas")
			for _, e := range gas.Table() {
				cost := fmt.Sprintf("%d", e.Cost)
				if e.Dynamic {
					cost += "+"
				}
				fmt.Fprintf(out, "0x%02x   %-12s %8s\n", e.Opcode, e.Name, cost)
			}
			fmt.Fprintf(out, "\nmemory: %d per word + words^2/%d\n", gas.Memory, gas.QuadCoeff)
			fmt.Fprintf(out, "log data: %d per byte\n", gas.LogData)
			fmt.Fprintf(out, "sstore: %d set, %d reset\n", gas.SSet, gas.SReset)
		},
	}
}
