package filter

import (
	"encoding/binary"
	"fmt"
)

// Run executes a compiled program against a raw frame and returns the
// number of frame bytes to retain; zero means the frame is dropped.
//
// The VM keeps a single accumulator and no other state, performs no I/O
// and is safe for concurrent use. A load that reaches past the end of
// the frame drops the frame instead of failing: the kernel engine
// silently discards truncated frames and the software VM reproduces that
// behavior exactly. Errors are only possible for programs that were not
// produced by Assemble.
func Run(p Program, frame []byte) (int, error) {
	accepted, _, err := run(p, frame)
	return accepted, err
}

func run(p Program, frame []byte) (accepted, steps int, err error) {
	var acc uint32
	for pc := 0; pc < len(p); pc++ {
		op := p[pc]
		steps++
		switch op.Code {
		case opLoadAbsByte, opLoadAbsHalf, opLoadAbsWord:
			size := loadSize(op.Code)
			if uint64(op.K)+uint64(size) > uint64(len(frame)) {
				return 0, steps, nil
			}
			off := int(op.K)
			switch size {
			case 1:
				acc = uint32(frame[off])
			case 2:
				acc = uint32(binary.BigEndian.Uint16(frame[off:]))
			default:
				acc = binary.BigEndian.Uint32(frame[off:])
			}
		case opJumpEqual:
			if acc == op.K {
				pc += int(op.SkipTrue)
			} else {
				pc += int(op.SkipFalse)
			}
		case opReturn:
			accepted = int(op.K)
			if uint64(op.K) > uint64(len(frame)) {
				accepted = len(frame)
			}
			return accepted, steps, nil
		default:
			return 0, steps, fmt.Errorf("unknown opcode %#x at instruction %d", op.Code, pc)
		}
	}
	return 0, steps, ErrMissingReturn
}

func loadSize(code uint16) int {
	switch code {
	case opLoadAbsByte:
		return 1
	case opLoadAbsHalf:
		return 2
	default:
		return 4
	}
}
