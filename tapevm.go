// Package tapevm implements a minimal virtual machine for a byte-oriented,
// tape-based esoteric language: eight single-character instructions
// operating on a fixed-size array of 8-bit cells through a movable data
// pointer. Any other byte in a program is a comment.
package tapevm

import (
	"bytes"
	"context"
	"io"

	"github.com/deepnoodle-ai/tapevm/program"
	"github.com/deepnoodle-ai/tapevm/vm"
)

// EOFPolicy controls what the input instruction does at end-of-input.
type EOFPolicy = vm.EOFPolicy

const (
	// EOFUnchanged leaves the current cell as is. This is the default.
	EOFUnchanged = vm.EOFUnchanged
	// EOFZero stores 0 in the current cell.
	EOFZero = vm.EOFZero
	// EOFError aborts execution with an input exhausted error.
	EOFError = vm.EOFError
)

// Option configures a tapevm execution.
type Option func(*options)

type options struct {
	vmOpts     []vm.Option
	skipChecks bool
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithTapeSize sets the number of cells on the tape (default 256).
func WithTapeSize(size int) Option {
	return func(o *options) {
		o.vmOpts = append(o.vmOpts, vm.WithTapeSize(size))
	}
}

// WithInput sets the reader consumed by the input instruction.
func WithInput(r io.Reader) Option {
	return func(o *options) {
		o.vmOpts = append(o.vmOpts, vm.WithInput(r))
	}
}

// WithOutput sets the writer that receives output bytes.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.vmOpts = append(o.vmOpts, vm.WithOutput(w))
	}
}

// WithEOFPolicy sets the end-of-input policy for the input instruction.
func WithEOFPolicy(policy EOFPolicy) Option {
	return func(o *options) {
		o.vmOpts = append(o.vmOpts, vm.WithEOFPolicy(policy))
	}
}

// WithMaxSteps imposes an instruction budget on the run (default: none).
func WithMaxSteps(n int64) Option {
	return func(o *options) {
		o.vmOpts = append(o.vmOpts, vm.WithMaxSteps(n))
	}
}

// WithObserver sets an observer for execution events.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.vmOpts = append(o.vmOpts, vm.WithObserver(observer))
	}
}

// WithoutValidation skips the up-front bracket check in Run and Eval.
// Unmatched brackets are then detected during execution, at the moment the
// failing bracket is reached.
func WithoutValidation() Option {
	return func(o *options) {
		o.skipChecks = true
	}
}

// Compile creates a Program from source text and checks that every bracket
// has a partner. All unmatched brackets are reported, each with its
// position.
func Compile(source string) (*program.Program, error) {
	prog := program.New(source)
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return prog, nil
}

// Run executes the given source on a new machine, writing output bytes to
// the configured writer (os.Stdout unless WithOutput is given).
func Run(ctx context.Context, source string, opts ...Option) error {
	o := collectOptions(opts...)
	prog := program.New(source)
	if !o.skipChecks {
		if err := prog.Validate(); err != nil {
			return err
		}
	}
	return vm.Run(ctx, prog, o.vmOpts...)
}

// Eval executes the given source on a new machine and returns everything it
// wrote to the output stream. A WithOutput option is ignored; use Run to
// direct output elsewhere.
func Eval(ctx context.Context, source string, opts ...Option) (string, error) {
	var out bytes.Buffer
	opts = append(opts, WithOutput(&out))
	if err := Run(ctx, source, opts...); err != nil {
		return "", err
	}
	return out.String(), nil
}
