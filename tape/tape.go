// Package tape provides the fixed-size cell memory used by the tapevm
// virtual machine: an array of 8-bit cells addressed by a movable data
// pointer, with wraparound arithmetic and bounds-checked movement.
package tape

import (
	"github.com/deepnoodle-ai/tapevm/errz"
)

// DefaultSize is the number of cells allocated when no size is specified.
const DefaultSize = 256

// Tape is a fixed-size array of 8-bit unsigned cells with a data pointer
// selecting the current cell. All cells start at zero. The pointer is kept
// inside [0, Size) at all times; moving it outside that range is an
// out of bounds error rather than a wrap or a silent corruption.
type Tape struct {
	cells   []uint8
	pointer int
}

// New creates a Tape with the given number of cells, all zeroed. Sizes less
// than 1 fall back to DefaultSize.
func New(size int) *Tape {
	if size < 1 {
		size = DefaultSize
	}
	return &Tape{cells: make([]uint8, size)}
}

// Size returns the number of cells.
func (t *Tape) Size() int {
	return len(t.cells)
}

// Pointer returns the current data pointer.
func (t *Tape) Pointer() int {
	return t.pointer
}

// Get returns the value of the current cell.
func (t *Tape) Get() uint8 {
	return t.cells[t.pointer]
}

// Set stores value in the current cell.
func (t *Tape) Set(value uint8) {
	t.cells[t.pointer] = value
}

// Cell returns the value at the given index, for inspection by tests and
// tracers. Out-of-range indexes return 0.
func (t *Tape) Cell(index int) uint8 {
	if index < 0 || index >= len(t.cells) {
		return 0
	}
	return t.cells[index]
}

// Increment adds 1 to the current cell. A cell holding 255 wraps to 0.
func (t *Tape) Increment() {
	t.cells[t.pointer]++
}

// Decrement subtracts 1 from the current cell. A cell holding 0 wraps to 255.
func (t *Tape) Decrement() {
	t.cells[t.pointer]--
}

// MoveRight moves the data pointer one cell right. Moving past the last
// cell is an out of bounds error.
func (t *Tape) MoveRight() error {
	if t.pointer+1 >= len(t.cells) {
		return errz.New(errz.ErrOutOfBounds, -1,
			"data pointer moved past the last cell (tape size %d)", len(t.cells))
	}
	t.pointer++
	return nil
}

// MoveLeft moves the data pointer one cell left. Moving below cell 0 is an
// out of bounds error.
func (t *Tape) MoveLeft() error {
	if t.pointer == 0 {
		return errz.New(errz.ErrOutOfBounds, -1, "data pointer moved below cell 0")
	}
	t.pointer--
	return nil
}
