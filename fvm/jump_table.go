package fvm

import "github.com/colorfulnotion/fvm/fvm/opcodes"

type executionFunc func(e *Engine, instr opcodes.Instruction, step *StepInfo) error

type operation struct {
	execute executionFunc
	// capabilities the instruction needs attached to the engine
	memory  bool
	storage bool
	address bool
}

// jumpTable is indexed by instruction kind. KindUnknown has no handler.
var jumpTable = [...]operation{
	opcodes.KindStop:       {execute: opStop},
	opcodes.KindAdd:        {execute: opAdd},
	opcodes.KindMul:        {execute: opMul},
	opcodes.KindSub:        {execute: opSub},
	opcodes.KindDiv:        {execute: opDiv},
	opcodes.KindSDiv:       {execute: opSdiv},
	opcodes.KindMod:        {execute: opMod},
	opcodes.KindSMod:       {execute: opSmod},
	opcodes.KindAddMod:     {execute: opAddmod},
	opcodes.KindMulMod:     {execute: opMulmod},
	opcodes.KindExp:        {execute: opExp},
	opcodes.KindSignExtend: {execute: opSignExtend},
	opcodes.KindLt:         {execute: opLt},
	opcodes.KindGt:         {execute: opGt},
	opcodes.KindSlt:        {execute: opSlt},
	opcodes.KindSgt:        {execute: opSgt},
	opcodes.KindEq:         {execute: opEq},
	opcodes.KindIsZero:     {execute: opIszero},
	opcodes.KindAnd:        {execute: opAnd},
	opcodes.KindOr:         {execute: opOr},
	opcodes.KindXor:        {execute: opXor},
	opcodes.KindNot:        {execute: opNot},
	opcodes.KindByte:       {execute: opByte},
	opcodes.KindPop:        {execute: opPop},
	opcodes.KindMLoad:      {execute: opMload, memory: true},
	opcodes.KindMStore:     {execute: opMstore, memory: true},
	opcodes.KindMStore8:    {execute: opMstore8, memory: true},
	opcodes.KindMSize:      {execute: opMsize, memory: true},
	opcodes.KindSLoad:      {execute: opSload, storage: true},
	opcodes.KindSStore:     {execute: opSstore, storage: true},
	opcodes.KindPush:       {execute: opPush},
	opcodes.KindDup:        {execute: opDup},
	opcodes.KindSwap:       {execute: opSwap},
	opcodes.KindLog:        {execute: opLog, memory: true, address: true},
	opcodes.KindJumpDest:   {execute: opJumpdest},
	opcodes.KindUnknown:    {},
}
