package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/holiman/uint256"
)

// codeSource is the set of flags that can supply code.
type codeSource struct {
	hex  string
	file string
	asm  string
}

// parseCode accepts hex (with or without 0x) or assembly text.
func parseCode(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		if !common.IsHex(text) {
			return nil, fmt.Errorf("invalid hex code %q", text)
		}
		return common.FromHex(text), nil
	}
	return opcodes.Assemble(text)
}

func (s codeSource) load() ([]byte, error) {
	switch {
	case s.hex != "":
		if !common.IsHex(s.hex) {
			return nil, fmt.Errorf("invalid hex code %q", s.hex)
		}
		return common.FromHex(s.hex), nil
	case s.asm != "":
		return opcodes.Assemble(s.asm)
	case s.file != "":
		data, err := os.ReadFile(s.file)
		if err != nil {
			return nil, err
		}
		switch filepath.Ext(s.file) {
		case ".bin":
			return data, nil
		case ".asm":
			return opcodes.Assemble(string(data))
		}
		return parseCode(string(data))
	}
	return nil, fmt.Errorf("no code given: use --code, --asm or --file")
}

// parseWord reads a decimal or 0x-prefixed hex word of up to 32 bytes.
func parseWord(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		body := s[2:]
		if len(body)%2 == 1 {
			body = "0" + body
		}
		if body == "" || !common.IsHex(body) {
			return nil, fmt.Errorf("invalid word %q", s)
		}
		b := common.FromHex(body)
		if len(b) > 32 {
			return nil, fmt.Errorf("word %q is longer than 32 bytes", s)
		}
		return new(uint256.Int).SetBytes(b), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid word %q: %w", s, err)
	}
	return v, nil
}
