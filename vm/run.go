package vm

import (
	"context"

	"github.com/deepnoodle-ai/tapevm/program"
)

// Run executes the given program on a new Machine.
func Run(ctx context.Context, prog *program.Program, options ...Option) error {
	return New(prog, options...).Run(ctx)
}
