package vm

import "io"

// Option is a configuration function for a Machine.
type Option func(*Machine)

// WithTapeSize sets the number of cells on the machine's tape. The default
// is tape.DefaultSize. Values less than 1 fall back to the default.
func WithTapeSize(size int) Option {
	return func(m *Machine) {
		m.tapeSize = size
	}
}

// WithOutput sets the writer that receives bytes emitted by the output
// instruction. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(m *Machine) {
		m.output = w
	}
}

// WithInput sets the reader consumed by the input instruction. The default
// is an empty stream, so by default every input instruction sees
// end-of-input and the configured EOFPolicy applies.
func WithInput(r io.Reader) Option {
	return func(m *Machine) {
		m.input = r
	}
}

// WithEOFPolicy sets what the input instruction does at end-of-input.
// The default is EOFUnchanged.
func WithEOFPolicy(policy EOFPolicy) Option {
	return func(m *Machine) {
		m.eof = policy
	}
}

// WithMaxSteps imposes an instruction budget on the run. Exceeding the
// budget is a fatal step limit error. A value of 0 (the default) means no
// budget.
func WithMaxSteps(n int64) Option {
	return func(m *Machine) {
		m.maxSteps = n
	}
}

// WithContextCheckInterval sets how often the machine checks ctx.Done()
// during execution. The interval is specified in number of instructions. A
// value of 0 disables deterministic checking, relying only on the
// background goroutine that monitors the context. The default is
// DefaultContextCheckInterval (1000).
func WithContextCheckInterval(interval int) Option {
	return func(m *Machine) {
		m.contextCheckInterval = interval
	}
}

// WithObserver sets an observer for machine execution events. The observer
// receives a callback before each instruction executes, enabling tracers
// and debuggers without modifying the core loop.
//
// Observer methods are called synchronously during execution, so
// implementations should be fast. Returning false from OnStep halts
// execution immediately.
func WithObserver(observer Observer) Option {
	return func(m *Machine) {
		m.observer = observer
	}
}
