//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd
// +build linux darwin dragonfly freebsd netbsd openbsd

package filter

import (
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// CompileExpression compiles a tcpdump-style filter expression into a
// Program. The full pcap opcode set is larger than the subset the
// software VM executes, so expression-compiled programs are meant for
// kernel installation only.
func CompileExpression(expr string, maxPacketLength int) (Program, error) {
	pcapBPF, err := pcap.CompileBPFFilter(layers.LinkTypeEthernet, maxPacketLength, expr)
	if err != nil {
		return nil, err
	}
	prog := make(Program, 0, len(pcapBPF))
	for _, ins := range pcapBPF {
		prog = append(prog, Op{
			Code:      ins.Code,
			SkipTrue:  ins.Jt,
			SkipFalse: ins.Jf,
			K:         ins.K,
		})
	}
	return prog, nil
}
