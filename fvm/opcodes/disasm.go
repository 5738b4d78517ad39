package opcodes

import (
	"fmt"
	"strings"
)

// Op is one entry of a disassembly listing.
type Op struct {
	PC          uint64
	Instruction Instruction
	Immediate   []byte
	// Truncated is set when push data runs past the end of the code.
	Truncated bool
}

func (o Op) String() string {
	s := fmt.Sprintf("%04x: %s", o.PC, o.Instruction)
	if o.Instruction.Kind == KindPush {
		s += fmt.Sprintf(" 0x%x", o.Immediate)
		if o.Truncated {
			s += " (truncated)"
		}
	}
	return s
}

// Disassemble walks code linearly and decodes every instruction.
func Disassemble(code []byte) []Op {
	var ops []Op
	for pc := 0; pc < len(code); {
		instr := Decode(code[pc])
		op := Op{PC: uint64(pc), Instruction: instr}
		if instr.Kind == KindPush {
			start := pc + 1
			end := start + int(instr.N)
			if end > len(code) {
				end = len(code)
				op.Truncated = true
			}
			op.Immediate = append([]byte(nil), code[start:end]...)
		}
		ops = append(ops, op)
		pc += instr.Width()
	}
	return ops
}

// DisassembleString returns the listing with one instruction per line.
func DisassembleString(code []byte) string {
	var sb strings.Builder
	for _, op := range Disassemble(code) {
		sb.WriteString(op.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
