package runtime

import (
	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm/opcodes"
	"github.com/colorfulnotion/fvm/fvmerrors"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultProgramCacheSize = 256

// Program is decoded code together with its static analysis.
type Program struct {
	Hash  common.Hash
	Code  []byte
	Stats *opcodes.ProgramStats
}

// Validate rejects code that can only fault: unknown opcodes or a push
// running past the end.
func (p *Program) Validate() error {
	if p.Stats.UnknownCount > 0 {
		return fvmerrors.ErrUnknownOpcode
	}
	if p.Stats.Truncated {
		return fvmerrors.ErrBufferOverrun
	}
	return nil
}

// ProgramCache memoizes Program analysis by Keccak256 code hash, the same
// hash the store keys code by.
type ProgramCache struct {
	programs *lru.Cache[common.Hash, *Program]
}

func NewProgramCache(size int) (*ProgramCache, error) {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	programs, err := lru.New[common.Hash, *Program](size)
	if err != nil {
		return nil, err
	}
	return &ProgramCache{programs: programs}, nil
}

// Get returns the analysed program for code, computing it on a miss.
func (c *ProgramCache) Get(code []byte) *Program {
	h := common.Keccak256(code)
	if p, ok := c.programs.Get(h); ok {
		return p
	}
	p := &Program{
		Hash:  h,
		Code:  append([]byte(nil), code...),
		Stats: opcodes.Analyze(code),
	}
	c.programs.Add(h, p)
	return p
}

func (c *ProgramCache) Len() int {
	return c.programs.Len()
}
