package vm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/tapevm/errz"
	"github.com/deepnoodle-ai/tapevm/op"
	"github.com/deepnoodle-ai/tapevm/program"
	"github.com/stretchr/testify/require"
)

// Run the given source on a new machine and return its output. Used for
// testing.
func run(ctx context.Context, t *testing.T, source string, options ...Option) (string, *Machine, error) {
	t.Helper()
	var out bytes.Buffer
	m := New(program.New(source), append([]Option{WithOutput(&out)}, options...)...)
	err := m.Run(ctx)
	return out.String(), m, err
}

func TestEmptyProgram(t *testing.T) {
	out, m, err := run(context.Background(), t, "")
	require.NoError(t, err)
	require.Equal(t, "", out)
	require.Equal(t, 0, m.IP())
}

func TestCellMutation(t *testing.T) {
	_, m, err := run(context.Background(), t, "+++>++>+")
	require.NoError(t, err)
	require.Equal(t, uint8(3), m.Tape().Cell(0))
	require.Equal(t, uint8(2), m.Tape().Cell(1))
	require.Equal(t, uint8(1), m.Tape().Cell(2))
	require.Equal(t, 2, m.Tape().Pointer())
}

func TestCommentsAreNoOps(t *testing.T) {
	_, m, err := run(context.Background(), t, "inc twice: ++ and once more: +")
	require.NoError(t, err)
	require.Equal(t, uint8(3), m.Tape().Cell(0))
}

func TestOutput(t *testing.T) {
	out, _, err := run(context.Background(), t, strings.Repeat("+", 'H')+".")
	require.NoError(t, err)
	require.Equal(t, "H", out)
}

func TestWraparound(t *testing.T) {
	_, m, err := run(context.Background(), t, "-")
	require.NoError(t, err)
	require.Equal(t, uint8(255), m.Tape().Cell(0))

	_, m, err = run(context.Background(), t, strings.Repeat("+", 256))
	require.NoError(t, err)
	require.Equal(t, uint8(0), m.Tape().Cell(0))
}

func TestSimpleLoop(t *testing.T) {
	// Move 5 from cell 0 to cell 1
	_, m, err := run(context.Background(), t, "+++++[>+<-]")
	require.NoError(t, err)
	require.Equal(t, uint8(0), m.Tape().Cell(0))
	require.Equal(t, uint8(5), m.Tape().Cell(1))
}

func TestNestedLoops(t *testing.T) {
	// Outer loop runs twice, inner loop twice per outer iteration
	_, m, err := run(context.Background(), t, "++[>++[>+<-]<-]")
	require.NoError(t, err)
	require.Equal(t, uint8(0), m.Tape().Cell(0))
	require.Equal(t, uint8(4), m.Tape().Cell(1))
	require.Equal(t, uint8(0), m.Tape().Cell(2))
}

func TestSkippedLoop(t *testing.T) {
	// Cell 0 is zero, so the whole loop body is skipped
	_, m, err := run(context.Background(), t, "[>+++++<]>")
	require.NoError(t, err)
	require.Equal(t, uint8(0), m.Tape().Cell(1))
}

func TestBalancedProgramsTerminate(t *testing.T) {
	tests := []string{
		"[]",
		"[[]]",
		"+[-]",
		"++[>++[>+<-]<-]",
		"+++[>+++[>+++<-]<-]",
		"[+][+][+]",
	}
	for _, source := range tests {
		_, m, err := run(context.Background(), t, source)
		require.NoError(t, err, "source %q", source)
		require.Equal(t, len(source), m.IP(), "source %q", source)
	}
}

func TestUnmatchedOpenBracket(t *testing.T) {
	_, _, err := run(context.Background(), t, "[+")
	require.Error(t, err)
	require.True(t, errors.Is(err, &errz.MachineError{Kind: errz.ErrUnmatchedBracket}))
	var machineErr *errz.MachineError
	require.True(t, errors.As(err, &machineErr))
	require.Equal(t, 0, machineErr.Position)
}

func TestUnmatchedCloseBracket(t *testing.T) {
	_, _, err := run(context.Background(), t, "+]")
	require.Error(t, err)
	var machineErr *errz.MachineError
	require.True(t, errors.As(err, &machineErr))
	require.Equal(t, errz.ErrUnmatchedBracket, machineErr.Kind)
	require.Equal(t, 1, machineErr.Position)
}

func TestMoveBelowZero(t *testing.T) {
	_, _, err := run(context.Background(), t, "+<")
	require.Error(t, err)
	var machineErr *errz.MachineError
	require.True(t, errors.As(err, &machineErr))
	require.Equal(t, errz.ErrOutOfBounds, machineErr.Kind)
	require.Equal(t, 1, machineErr.Position)
}

func TestMovePastTapeEnd(t *testing.T) {
	_, _, err := run(context.Background(), t, ">>", WithTapeSize(2))
	require.Error(t, err)
	var machineErr *errz.MachineError
	require.True(t, errors.As(err, &machineErr))
	require.Equal(t, errz.ErrOutOfBounds, machineErr.Kind)
	require.Equal(t, 1, machineErr.Position)
}

func TestInput(t *testing.T) {
	out, _, err := run(context.Background(), t, ",.", WithInput(strings.NewReader("A")))
	require.NoError(t, err)
	require.Equal(t, "A", out)
}

func TestInputEOFUnchanged(t *testing.T) {
	// Default policy: end-of-input leaves the cell as is
	_, m, err := run(context.Background(), t, "+++,")
	require.NoError(t, err)
	require.Equal(t, uint8(3), m.Tape().Cell(0))
}

func TestInputEOFZero(t *testing.T) {
	_, m, err := run(context.Background(), t, "+++,", WithEOFPolicy(EOFZero))
	require.NoError(t, err)
	require.Equal(t, uint8(0), m.Tape().Cell(0))
}

func TestInputEOFError(t *testing.T) {
	_, _, err := run(context.Background(), t, "+++,", WithEOFPolicy(EOFError))
	require.Error(t, err)
	var machineErr *errz.MachineError
	require.True(t, errors.As(err, &machineErr))
	require.Equal(t, errz.ErrInputExhausted, machineErr.Kind)
	require.Equal(t, 3, machineErr.Position)
}

func TestInputEOFAfterStream(t *testing.T) {
	// The first read consumes the only byte; the second sees end-of-input
	_, m, err := run(context.Background(), t, ",>,",
		WithInput(strings.NewReader("B")), WithEOFPolicy(EOFZero))
	require.NoError(t, err)
	require.Equal(t, uint8('B'), m.Tape().Cell(0))
	require.Equal(t, uint8(0), m.Tape().Cell(1))
}

func TestStepLimit(t *testing.T) {
	_, _, err := run(context.Background(), t, "+[]", WithMaxSteps(100))
	require.Error(t, err)
	var machineErr *errz.MachineError
	require.True(t, errors.As(err, &machineErr))
	require.Equal(t, errz.ErrStepLimit, machineErr.Kind)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := run(ctx, t, "+[]", WithContextCheckInterval(1))
	require.Error(t, err)
	var machineErr *errz.MachineError
	require.True(t, errors.As(err, &machineErr))
	require.Equal(t, errz.ErrHalted, machineErr.Kind)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestObserverTrace(t *testing.T) {
	var trace []op.Code
	observer := ObserverFunc(func(offset int, instruction op.Code, pointer int) bool {
		trace = append(trace, instruction)
		return true
	})
	_, _, err := run(context.Background(), t, "+-", WithObserver(observer))
	require.NoError(t, err)
	require.Equal(t, []op.Code{op.Increment, op.Decrement}, trace)
}

func TestObserverHalts(t *testing.T) {
	observer := ObserverFunc(func(offset int, instruction op.Code, pointer int) bool {
		return offset < 2
	})
	_, _, err := run(context.Background(), t, "++++", WithObserver(observer))
	require.Error(t, err)
	var machineErr *errz.MachineError
	require.True(t, errors.As(err, &machineErr))
	require.Equal(t, errz.ErrHalted, machineErr.Kind)
	require.Equal(t, 2, machineErr.Position)
}

func TestScanAgreement(t *testing.T) {
	// A backward scan from the ] found by a forward scan must return to
	// the position just after the originating [.
	source := "++[>++[>+<-]<-][[][[]]]"
	m := New(program.New(source))
	for open := 0; open < len(source); open++ {
		if source[open] != '[' {
			continue
		}
		after, err := m.scanForward(open)
		require.NoError(t, err)
		require.Equal(t, byte(']'), source[after-1])
		back, err := m.scanBackward(after - 1)
		require.NoError(t, err)
		require.Equal(t, open+1, back)
	}
}

func TestRunHelper(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), program.New("++."), WithOutput(&out))
	require.NoError(t, err)
	require.Equal(t, []byte{2}, out.Bytes())
}

func BenchmarkNestedLoops(b *testing.B) {
	prog := program.New("++[>++[>+<-]<-]")
	for i := 0; i < b.N; i++ {
		m := New(prog, WithOutput(io.Discard))
		if err := m.Run(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

func TestRerunResetsState(t *testing.T) {
	m := New(program.New("+++"), WithOutput(&bytes.Buffer{}))
	require.NoError(t, m.Run(context.Background()))
	require.NoError(t, m.Run(context.Background()))
	require.Equal(t, uint8(3), m.Tape().Cell(0))
	require.Equal(t, int64(3), m.Steps())
}
