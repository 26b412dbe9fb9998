package vm

import "github.com/deepnoodle-ai/tapevm/op"

// Observer is an interface for observing machine execution events.
// Implementations can be used for tracing, debugging, or imposing custom
// halting conditions without modifying the execution loop.
type Observer interface {
	// OnStep is called before each instruction executes, with the
	// instruction offset, the instruction itself (which may be a comment
	// byte), and the current data pointer. Returning false halts
	// execution immediately.
	OnStep(offset int, instruction op.Code, pointer int) bool
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(offset int, instruction op.Code, pointer int) bool

// OnStep implements Observer.
func (f ObserverFunc) OnStep(offset int, instruction op.Code, pointer int) bool {
	return f(offset, instruction, pointer)
}
