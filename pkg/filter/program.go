package filter

import "golang.org/x/net/bpf"

// Opcode values follow the classic BPF encoding, so an assembled Op is
// bit-exact with bpf.RawInstruction and syscall.BpfInsn. See bpf(4).
const (
	opLoadAbsWord = 0x20 // BPF_LD | BPF_W | BPF_ABS
	opLoadAbsHalf = 0x28 // BPF_LD | BPF_H | BPF_ABS
	opLoadAbsByte = 0x30 // BPF_LD | BPF_B | BPF_ABS
	opJumpEqual   = 0x15 // BPF_JMP | BPF_JEQ | BPF_K
	opReturn      = 0x06 // BPF_RET | BPF_K

	maxSkip = 255
)

// AcceptAll is the return value that retains the whole frame regardless
// of its length.
const AcceptAll = 0xffffffff

// Op is one fixed-width compiled filter record: operation code, two skip
// counts and a constant. This field layout is the portable contract for
// every kernel backend.
type Op struct {
	Code      uint16
	SkipTrue  uint8
	SkipFalse uint8
	K         uint32
}

// Program is a compiled filter. It is pure data with no behavior of its
// own; it is executed either by the software VM or by the kernel after
// translation to the platform-native structure.
type Program []Op

// RawInstructions translates the program for kernel installation on
// platforms using the golang.org/x/net/bpf representation.
func (p Program) RawInstructions() []bpf.RawInstruction {
	ins := make([]bpf.RawInstruction, 0, len(p))
	for _, op := range p {
		ins = append(ins, bpf.RawInstruction{
			Op: op.Code,
			Jt: op.SkipTrue,
			Jf: op.SkipFalse,
			K:  op.K,
		})
	}
	return ins
}
