// Package dis supports analysis of tapevm programs by listing their
// instructions. It works with the instruction set defined in the op package
// and annotates each bracket with the offset of its partner.
package dis

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/deepnoodle-ai/tapevm/op"
	"github.com/deepnoodle-ai/tapevm/program"
)

// Instruction represents a single instruction in a listing.
type Instruction struct {
	Offset     int
	Name       string
	Code       op.Code
	Annotation string
}

// Disassemble returns a listing of the given program's instructions.
// Comment bytes are omitted; offsets still refer to positions in the
// original source. Each bracket is annotated with its partner's offset,
// using the same pairing execution would compute, or with "unmatched" when
// it has none.
func Disassemble(prog *program.Program) []Instruction {
	matches := matchBrackets(prog)
	var instructions []Instruction
	for i := 0; i < prog.Len(); i++ {
		c := prog.At(i)
		if !op.IsInstruction(c) {
			continue
		}
		code := op.Code(c)
		var annotation string
		switch code {
		case op.LoopBegin, op.LoopEnd:
			if partner, ok := matches[i]; ok {
				annotation = fmt.Sprintf("match %d", partner)
			} else {
				annotation = "unmatched"
			}
		}
		instructions = append(instructions, Instruction{
			Offset:     i,
			Name:       op.GetInfo(code).Name,
			Code:       code,
			Annotation: annotation,
		})
	}
	return instructions
}

// matchBrackets pairs each bracket offset with its partner's offset.
// Unmatched brackets are absent from the result.
func matchBrackets(prog *program.Program) map[int]int {
	matches := map[int]int{}
	var stack []int
	for i := 0; i < prog.Len(); i++ {
		switch op.Code(prog.At(i)) {
		case op.LoopBegin:
			stack = append(stack, i)
		case op.LoopEnd:
			if len(stack) == 0 {
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			matches[open] = i
			matches[i] = open
		}
	}
	return matches
}

// Print writes a string representation of the given instructions to the
// given writer.
func Print(instructions []Instruction, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	for _, instr := range instructions {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%c\t%s\n",
			instr.Offset, instr.Name, instr.Code, instr.Annotation); err != nil {
			return err
		}
	}
	return w.Flush()
}
