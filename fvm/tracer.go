package fvm

import (
	"fmt"
	"io"
	"strings"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/log"
)

// LogTracer writes every step to the fvm log module.
type LogTracer struct{}

func (LogTracer) OnStep(e *Engine, step *StepInfo) {
	log.Trace(log.FVMMonitoring, "step", "n", step.Step, "pc", step.PC, "op", step.Instruction, "depth", e.Depth(), "mem", step.MemSizeAfter)
}

func (LogTracer) OnFault(e *Engine, step *StepInfo, err error) {
	log.Debug(log.FVMMonitoring, "fault", "n", step.Step, "pc", step.PC, "op", step.Instruction, "err", err)
}

// StepRecorder keeps every step it observes.
type StepRecorder struct {
	Steps []StepInfo
	Fault error
}

func (r *StepRecorder) OnStep(e *Engine, step *StepInfo) {
	r.Steps = append(r.Steps, *step)
}

func (r *StepRecorder) OnFault(e *Engine, step *StepInfo, err error) {
	r.Steps = append(r.Steps, *step)
	r.Fault = err
}

// WriterTracer prints one line per step, with the top of stack, to W.
type WriterTracer struct {
	W     io.Writer
	Color bool
}

func (t *WriterTracer) OnStep(e *Engine, step *StepInfo) {
	fmt.Fprintf(t.W, "%6d pc:%5d %-10s depth:%4d mem:%6d %s\n", step.Step, step.PC, step.Instruction, e.Depth(), step.MemSizeAfter, topOfStack(e, 3))
}

func (t *WriterTracer) OnFault(e *Engine, step *StepInfo, err error) {
	line := fmt.Sprintf("%6d pc:%5d %-10s FAULT %v", step.Step, step.PC, step.Instruction, err)
	fmt.Fprintln(t.W, common.Colorize(line, common.ColorRed, t.Color))
}

func topOfStack(e *Engine, n int) string {
	var parts []string
	for i := 0; i < n; i++ {
		v, ok := e.Peek(i)
		if !ok {
			break
		}
		parts = append(parts, v.Hex())
	}
	return "[" + strings.Join(parts, " ") + "]"
}
