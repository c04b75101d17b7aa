package filter

// Offsets within an Ethernet frame
const (
	offEtherType = 12 // EtherType field offset
	offARPOpcode = 20 // ARP operation field (14 + 6)

	etherTypeARP = 0x0806
	arpOpReply   = 0x0002
)

var arpReplyProgram = mustAssemble([]Instruction{
	LoadAbsolute{Off: offEtherType, Size: 2},
	JumpIfEqual{Val: etherTypeARP, SkipFalse: 3},
	LoadAbsolute{Off: offARPOpcode, Size: 2},
	JumpIfEqual{Val: arpOpReply, SkipFalse: 1},
	Return{Val: AcceptAll},
	Return{Val: 0},
})

// ARPReply returns the program that accepts exactly the ARP reply frames
// (EtherType 0x0806, operation 2) and drops everything else.
func ARPReply() Program {
	return arpReplyProgram
}
