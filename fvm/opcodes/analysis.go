package opcodes

// ProgramStats contains statistics about a code buffer
type ProgramStats struct {
	InstructionCount   int          // Total number of decoded instructions
	UnknownCount       int          // Instructions that decode to UNKNOWN
	PushDataBytes      int          // Bytes consumed as push immediates
	JumpDests          []uint64     // Positions of JUMPDEST markers
	Truncated          bool         // Final push runs past the end of code
	OpcodeDistribution map[Kind]int // Distribution of instruction kinds
	CategoryCount      map[InstructionCategory]int
}

// Analyze decodes code linearly and returns statistics about it.
func Analyze(code []byte) *ProgramStats {
	stats := &ProgramStats{
		OpcodeDistribution: make(map[Kind]int),
		CategoryCount:      make(map[InstructionCategory]int),
	}
	for _, op := range Disassemble(code) {
		stats.InstructionCount++
		stats.OpcodeDistribution[op.Instruction.Kind]++
		stats.CategoryCount[GetInstructionCategory(op.Instruction)]++
		switch op.Instruction.Kind {
		case KindUnknown:
			stats.UnknownCount++
		case KindJumpDest:
			stats.JumpDests = append(stats.JumpDests, op.PC)
		case KindPush:
			stats.PushDataBytes += len(op.Immediate)
			if op.Truncated {
				stats.Truncated = true
			}
		}
	}
	return stats
}

// IsJumpDest reports whether pc holds a JUMPDEST that is not inside push data.
func IsJumpDest(code []byte, pc uint64) bool {
	for _, op := range Disassemble(code) {
		if op.PC == pc {
			return op.Instruction.Kind == KindJumpDest
		}
		if op.PC > pc {
			return false
		}
	}
	return false
}
