// Package op defines the instruction set recognized by the tapevm virtual
// machine. Instructions are single source bytes; any other byte is a comment.
package op

// Code is a single-byte instruction that indicates an operation to execute.
type Code byte

const (
	MoveRight Code = '>' // move the data pointer one cell right
	MoveLeft  Code = '<' // move the data pointer one cell left
	Increment Code = '+' // increment the current cell, wrapping 255 to 0
	Decrement Code = '-' // decrement the current cell, wrapping 0 to 255
	Output    Code = '.' // write the current cell to the output stream
	Input     Code = ',' // read one byte from the input stream into the current cell
	LoopBegin Code = '[' // jump past the matching ] if the current cell is 0
	LoopEnd   Code = ']' // jump back past the matching [ if the current cell is nonzero
)

// Info contains information about an instruction.
type Info struct {
	Code Code
	Name string
}

var infos = make([]Info, 256)

func init() {
	ops := []Info{
		{MoveRight, "MOVE_RIGHT"},
		{MoveLeft, "MOVE_LEFT"},
		{Increment, "INCREMENT"},
		{Decrement, "DECREMENT"},
		{Output, "OUTPUT"},
		{Input, "INPUT"},
		{LoopBegin, "LOOP_BEGIN"},
		{LoopEnd, "LOOP_END"},
	}
	for _, o := range ops {
		infos[o.Code] = o
	}
}

// GetInfo returns information about the given instruction. The zero Info is
// returned for bytes that are not instructions.
func GetInfo(c Code) Info {
	return infos[c]
}

// IsInstruction returns true if the given byte is one of the eight
// recognized instructions.
func IsInstruction(c byte) bool {
	return infos[c].Name != ""
}

// String returns the instruction's mnemonic, or "NOP" for comment bytes.
func (c Code) String() string {
	if info := infos[c]; info.Name != "" {
		return info.Name
	}
	return "NOP"
}
