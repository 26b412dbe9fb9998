// Package vm provides a Machine that executes tapevm programs.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/deepnoodle-ai/tapevm/errz"
	"github.com/deepnoodle-ai/tapevm/op"
	"github.com/deepnoodle-ai/tapevm/program"
	"github.com/deepnoodle-ai/tapevm/tape"
)

// DefaultContextCheckInterval is the number of instructions between
// deterministic checks of ctx.Done(). Set to 0 to disable.
const DefaultContextCheckInterval = 1000

// EOFPolicy controls what the input instruction does when the input stream
// has no bytes remaining.
type EOFPolicy int

const (
	// EOFUnchanged leaves the current cell as is. This is the default.
	EOFUnchanged EOFPolicy = iota
	// EOFZero stores 0 in the current cell.
	EOFZero
	// EOFError aborts execution with an input exhausted error.
	EOFError
)

// Machine executes a program over a fixed-size tape. It owns its tape and
// holds a read-only reference to the program. One Machine runs one program
// at a time; create a new Machine per run, or reuse one sequentially.
type Machine struct {
	ip       int // instruction pointer
	steps    int64
	halt     int32
	prog     *program.Program
	tape     *tape.Tape
	tapeSize int
	input    io.Reader
	output   io.Writer
	eof      EOFPolicy
	maxSteps int64
	running  bool
	runMutex sync.Mutex
	buf [1]byte

	// contextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). A value of 0 disables the
	// deterministic check, relying only on the background goroutine.
	contextCheckInterval int

	// observer receives a callback before each instruction executes.
	// If nil, no callbacks are made.
	observer Observer
}

// New creates a Machine for the given program.
func New(prog *program.Program, options ...Option) *Machine {
	m := &Machine{
		prog:                 prog,
		tapeSize:             tape.DefaultSize,
		input:                emptyReader{},
		output:               os.Stdout,
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() int64 {
	return m.steps
}

// IP returns the current instruction pointer.
func (m *Machine) IP() int {
	return m.ip
}

// Tape returns the machine's tape for inspection. The returned value is
// owned by the machine and must not be used while the machine is running.
func (m *Machine) Tape() *tape.Tape {
	return m.tape
}

func (m *Machine) start(ctx context.Context) error {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	if m.running {
		return fmt.Errorf("machine is already running")
	}
	m.running = true
	m.ip = 0
	m.steps = 0
	m.tape = tape.New(m.tapeSize)
	// Halt execution when the context is cancelled
	m.halt = 0
	if doneChan := ctx.Done(); doneChan != nil {
		go func() {
			<-doneChan
			atomic.StoreInt32(&m.halt, 1)
		}()
	}
	return nil
}

func (m *Machine) stop() {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	m.running = false
}

// Run executes the program to completion or to the first fatal error.
// State from any previous run is discarded.
func (m *Machine) Run(ctx context.Context) (err error) {
	// Set up some guarantees:
	// 1. It is an error to call Run on a Machine that is already running
	// 2. The running flag will always be set to false when Run returns
	// 3. Any panics are translated to errors and the machine is stopped
	if err := m.start(ctx); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		m.stop()
	}()
	return m.eval(ctx)
}

// eval is the fetch-decode-execute loop. The machine halts when the
// instruction pointer reaches the end of the program.
func (m *Machine) eval(ctx context.Context) error {
	source := m.prog.Source()
	size := len(source)
	for m.ip < size {
		if atomic.LoadInt32(&m.halt) == 1 {
			return errz.New(errz.ErrHalted, m.ip, "execution cancelled").
				WithSource(source).WithCause(ctx.Err())
		}
		if m.contextCheckInterval > 0 && m.steps%int64(m.contextCheckInterval) == 0 {
			if err := ctx.Err(); err != nil {
				return errz.New(errz.ErrHalted, m.ip, "execution cancelled").
					WithSource(source).WithCause(err)
			}
		}
		if m.maxSteps > 0 && m.steps >= m.maxSteps {
			return errz.New(errz.ErrStepLimit, m.ip,
				"budget of %d instructions exceeded", m.maxSteps).WithSource(source)
		}
		instruction := op.Code(source[m.ip])
		if m.observer != nil {
			if !m.observer.OnStep(m.ip, instruction, m.tape.Pointer()) {
				return errz.New(errz.ErrHalted, m.ip, "execution stopped by observer").
					WithSource(source)
			}
		}
		m.steps++
		switch instruction {
		case op.MoveRight:
			if err := m.tape.MoveRight(); err != nil {
				return m.located(err)
			}
		case op.MoveLeft:
			if err := m.tape.MoveLeft(); err != nil {
				return m.located(err)
			}
		case op.Increment:
			m.tape.Increment()
		case op.Decrement:
			m.tape.Decrement()
		case op.Output:
			if err := m.writeOutput(m.tape.Get()); err != nil {
				return err
			}
		case op.Input:
			if err := m.readInput(); err != nil {
				return err
			}
		case op.LoopBegin:
			if m.tape.Get() == 0 {
				target, err := m.scanForward(m.ip)
				if err != nil {
					return err
				}
				m.ip = target
				continue
			}
		case op.LoopEnd:
			if m.tape.Get() != 0 {
				target, err := m.scanBackward(m.ip)
				if err != nil {
					return err
				}
				m.ip = target
				continue
			}
		default:
			// Comment byte: no-op
		}
		m.ip++
	}
	return nil
}

// scanForward finds the ] matching the [ at open and returns the position
// immediately after it. A depth counter tracks nested loops; scanning for
// the nearest ] would mispair nested brackets.
func (m *Machine) scanForward(open int) (int, error) {
	source := m.prog.Source()
	depth := 1
	for i := open + 1; i < len(source); i++ {
		switch op.Code(source[i]) {
		case op.LoopBegin:
			depth++
		case op.LoopEnd:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, errz.New(errz.ErrUnmatchedBracket, open, "'[' has no matching ']'").
		WithSource(source).WithInstruction('[')
}

// scanBackward finds the [ matching the ] at close and returns the position
// immediately after it.
func (m *Machine) scanBackward(close int) (int, error) {
	source := m.prog.Source()
	depth := 1
	for i := close - 1; i >= 0; i-- {
		switch op.Code(source[i]) {
		case op.LoopEnd:
			depth++
		case op.LoopBegin:
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, errz.New(errz.ErrUnmatchedBracket, close, "']' has no matching '['").
		WithSource(source).WithInstruction(']')
}

func (m *Machine) writeOutput(value uint8) error {
	m.buf[0] = value
	if _, err := m.output.Write(m.buf[:1]); err != nil {
		return fmt.Errorf("writing output at position %d: %w", m.ip, err)
	}
	return nil
}

// readInput reads one byte from the input stream into the current cell.
// End-of-input behavior follows the configured EOFPolicy; the default
// leaves the cell unchanged.
func (m *Machine) readInput() error {
	n, err := io.ReadFull(m.input, m.buf[:1])
	if n == 1 {
		m.tape.Set(m.buf[0])
		return nil
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("reading input at position %d: %w", m.ip, err)
	}
	switch m.eof {
	case EOFZero:
		m.tape.Set(0)
	case EOFError:
		return errz.New(errz.ErrInputExhausted, m.ip, "',' read with no input remaining").
			WithSource(m.prog.Source()).WithInstruction(',')
	}
	return nil
}

// located stamps a tape error with the failing instruction position.
func (m *Machine) located(err error) error {
	var machineErr *errz.MachineError
	if errors.As(err, &machineErr) {
		machineErr.Position = m.ip
		machineErr.Instruction = m.prog.At(m.ip)
		machineErr.Source = m.prog.Source()
		return machineErr
	}
	return err
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
