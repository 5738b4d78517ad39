package opcodes

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// byName maps every assigned mnemonic to its byte.
var byName = buildNameTable()

func buildNameTable() map[string]byte {
	names := make(map[string]byte)
	for i := 0; i < 256; i++ {
		instr := Decode(byte(i))
		if !instr.IsUnknown() {
			names[instr.String()] = byte(i)
		}
	}
	return names
}

// Assemble turns a whitespace separated mnemonic listing into code. PUSHn
// takes one immediate (hex with 0x prefix, or decimal) that must fit in n
// bytes. "PUSH" alone picks the smallest width that fits. Text after ';' or
// '#' on a line is ignored.
func Assemble(src string) ([]byte, error) {
	var code []byte
	var fields []string
	for _, line := range strings.Split(src, "\n") {
		if i := strings.IndexAny(line, ";#"); i >= 0 {
			line = line[:i]
		}
		fields = append(fields, strings.Fields(line)...)
	}
	for i := 0; i < len(fields); i++ {
		name := strings.ToUpper(fields[i])
		if strings.HasPrefix(name, "PUSH") {
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("asm: %s without immediate", name)
			}
			imm, err := parseImmediate(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("asm: %s %s: %w", name, fields[i+1], err)
			}
			i++
			width := len(imm)
			if width == 0 {
				width = 1
			}
			if name != "PUSH" {
				b, ok := byName[name]
				if !ok {
					return nil, fmt.Errorf("asm: unknown mnemonic %s", name)
				}
				n := int(Decode(b).N)
				if len(imm) > n {
					return nil, fmt.Errorf("asm: immediate %s does not fit %s", fields[i], name)
				}
				width = n
			}
			code = append(code, Push(width).Byte())
			code = append(code, make([]byte, width-len(imm))...)
			code = append(code, imm...)
			continue
		}
		b, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("asm: unknown mnemonic %s", name)
		}
		code = append(code, b)
	}
	return code, nil
}

// parseImmediate reads a 0x-prefixed hex or decimal value of at most 256
// bits and returns its minimal big-endian bytes.
func parseImmediate(s string) ([]byte, error) {
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" && len(s) > 2 {
			digits = "0"
		}
		v, err = uint256.FromHex("0x" + digits)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, err
	}
	return v.Bytes(), nil
}
