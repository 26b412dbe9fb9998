// Package program defines the immutable instruction stream executed by the
// tapevm virtual machine.
package program

import (
	"github.com/deepnoodle-ai/tapevm/errz"
	"github.com/deepnoodle-ai/tapevm/op"
	"github.com/hashicorp/go-multierror"
)

// Program is an immutable ordered sequence of instruction characters. Bytes
// outside the instruction set are comments and keep their positions, so
// error reports and listings refer to offsets in the original source.
// A Program is safe for concurrent use; multiple machines may share one.
type Program struct {
	source string
}

// New creates a Program from the given source text.
func New(source string) *Program {
	return &Program{source: source}
}

// Source returns the original source text.
func (p *Program) Source() string {
	return p.source
}

// Len returns the number of bytes in the program.
func (p *Program) Len() int {
	return len(p.source)
}

// At returns the byte at the given offset.
func (p *Program) At(offset int) byte {
	return p.source[offset]
}

// InstructionCount returns the number of recognized instructions, not
// counting comment bytes.
func (p *Program) InstructionCount() int {
	var count int
	for i := 0; i < len(p.source); i++ {
		if op.IsInstruction(p.source[i]) {
			count++
		}
	}
	return count
}

// Validate checks that every bracket in the program has a partner. All
// unmatched brackets are reported, each with its position, aggregated into
// a single error. The machine also detects unmatched brackets on demand
// during execution; Validate lets callers reject malformed programs up
// front.
func (p *Program) Validate() error {
	var result *multierror.Error
	var stack []int
	for i := 0; i < len(p.source); i++ {
		switch op.Code(p.source[i]) {
		case op.LoopBegin:
			stack = append(stack, i)
		case op.LoopEnd:
			if len(stack) == 0 {
				result = multierror.Append(result, errz.New(
					errz.ErrUnmatchedBracket, i, "']' has no matching '['",
				).WithSource(p.source).WithInstruction(']'))
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}
	for _, pos := range stack {
		result = multierror.Append(result, errz.New(
			errz.ErrUnmatchedBracket, pos, "'[' has no matching ']'",
		).WithSource(p.source).WithInstruction('['))
	}
	return result.ErrorOrNil()
}
