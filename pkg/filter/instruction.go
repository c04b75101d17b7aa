package filter

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidJump      = errors.New("jump target is out of program bounds")
	ErrUnsupportedWidth = errors.New("unsupported load width")
	ErrMissingReturn    = errors.New("program does not end with a return")
)

// Instruction is a single untranslated filter instruction. The supported
// set is deliberately small: load a field from the frame into the
// accumulator, compare the accumulator against a constant, and return an
// accept length.
type Instruction interface {
	assemble() (Op, error)
}

// LoadAbsolute loads Size bytes at the fixed frame offset Off into the
// accumulator. Size must be 1, 2 or 4; multibyte fields are read in
// network byte order.
type LoadAbsolute struct {
	Off  uint32
	Size int
}

func (ins LoadAbsolute) assemble() (Op, error) {
	var code uint16
	switch ins.Size {
	case 1:
		code = opLoadAbsByte
	case 2:
		code = opLoadAbsHalf
	case 4:
		code = opLoadAbsWord
	default:
		return Op{}, fmt.Errorf("%w: %d bytes", ErrUnsupportedWidth, ins.Size)
	}
	return Op{Code: code, K: ins.Off}, nil
}

// JumpIfEqual compares the accumulator to Val. On match the next
// SkipTrue instructions are skipped, on mismatch the next SkipFalse
// instructions are skipped; zero means fall through to the next
// instruction.
type JumpIfEqual struct {
	Val       uint32
	SkipTrue  int
	SkipFalse int
}

func (ins JumpIfEqual) assemble() (Op, error) {
	if ins.SkipTrue < 0 || ins.SkipTrue > maxSkip ||
		ins.SkipFalse < 0 || ins.SkipFalse > maxSkip {
		return Op{}, fmt.Errorf("%w: skip %d/%d", ErrInvalidJump, ins.SkipTrue, ins.SkipFalse)
	}
	return Op{
		Code:      opJumpEqual,
		SkipTrue:  uint8(ins.SkipTrue),
		SkipFalse: uint8(ins.SkipFalse),
		K:         ins.Val,
	}, nil
}

// Return terminates the program and accepts Val bytes of the frame.
// Zero drops the frame entirely, AcceptAll retains the whole frame.
type Return struct {
	Val uint32
}

func (ins Return) assemble() (Op, error) {
	return Op{Code: opReturn, K: ins.Val}, nil
}

// Assemble compiles instructions into a Program. The instruction order is
// preserved exactly and no optimization is performed: the same byte
// encoding is handed to the kernel filter machinery, so the output must
// be reproducible. Jumps that escape the program and load widths outside
// {1,2,4} are compile-time errors.
func Assemble(instructions []Instruction) (Program, error) {
	if len(instructions) == 0 {
		return nil, ErrMissingReturn
	}
	if _, ok := instructions[len(instructions)-1].(Return); !ok {
		return nil, ErrMissingReturn
	}
	prog := make(Program, 0, len(instructions))
	for pc, ins := range instructions {
		op, err := ins.assemble()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", pc, err)
		}
		if jmp, ok := ins.(JumpIfEqual); ok {
			if err := checkJump(pc, jmp.SkipTrue, len(instructions)); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", pc, err)
			}
			if err := checkJump(pc, jmp.SkipFalse, len(instructions)); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", pc, err)
			}
		}
		prog = append(prog, op)
	}
	return prog, nil
}

func checkJump(pc, skip, proglen int) error {
	target := pc + 1 + skip
	if target < 0 || target >= proglen {
		return fmt.Errorf("%w: target %d", ErrInvalidJump, target)
	}
	return nil
}

func mustAssemble(instructions []Instruction) Program {
	prog, err := Assemble(instructions)
	if err != nil {
		panic(err)
	}
	return prog
}
