package filter

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arpFrame(t *testing.T, op uint16) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x1, 0x2, 0x3, 0x4, 0x5, 0x6},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	a := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     uint8(6),
		ProtAddressSize:   uint8(4),
		Operation:         op,
		SourceHwAddress:   net.HardwareAddr{0x1, 0x2, 0x3, 0x4, 0x5, 0x6},
		SourceProtAddress: net.IPv4(192, 168, 0, 3).To4(),
		DstHwAddress:      net.HardwareAddr{0x10, 0x11, 0x12, 0x13, 0x14, 0x15},
		DstProtAddress:    net.IPv4(192, 168, 0, 2).To4(),
	}
	var opt gopacket.SerializeOptions
	err := gopacket.SerializeLayers(buf, opt, eth, a)
	require.NoError(t, err)
	return buf.Bytes()
}

func ipv4Frame(t *testing.T) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x1, 0x2, 0x3, 0x4, 0x5, 0x6},
		DstMAC:       net.HardwareAddr{0x10, 0x11, 0x12, 0x13, 0x14, 0x15},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IPv4(192, 168, 0, 3).To4(), DstIP: net.IPv4(192, 168, 0, 2).To4()}
	opt := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opt, eth, ip)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRunARPReplyProgram(t *testing.T) {
	t.Parallel()

	reply := arpFrame(t, layers.ARPReply)
	request := arpFrame(t, layers.ARPRequest)
	ipv4 := ipv4Frame(t)

	tests := []struct {
		name          string
		frame         []byte
		expectedLen   int
		expectedSteps int
	}{
		{
			name:        "ARPReplyAcceptsWholeFrame",
			frame:       reply,
			expectedLen: len(reply),
			// load, jump, load, jump, return
			expectedSteps: 5,
		},
		{
			name:          "ARPRequestRejected",
			frame:         request,
			expectedLen:   0,
			expectedSteps: 5,
		},
		{
			name:        "IPv4FrameRejected",
			frame:       ipv4,
			expectedLen: 0,
			// only the EtherType check runs before the reject return
			expectedSteps: 3,
		},
	}

	for _, vtt := range tests {
		tt := vtt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			accepted, steps, err := run(ARPReply(), tt.frame)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedLen, accepted)
			assert.Equal(t, tt.expectedSteps, steps)
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	frame := arpFrame(t, layers.ARPReply)
	first, err := Run(ARPReply(), frame)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		accepted, err := Run(ARPReply(), frame)
		require.NoError(t, err)
		require.Equal(t, first, accepted)
	}
}

func TestRunTruncatedFrameIsDropped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "EmptyFrame", frame: nil},
		{name: "TenByteFrame", frame: make([]byte, 10)},
		{name: "CutBeforeOpcodeField", frame: make([]byte, 20)},
	}

	for _, vtt := range tests {
		tt := vtt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			accepted, err := Run(ARPReply(), tt.frame)
			require.NoError(t, err)
			assert.Equal(t, 0, accepted)
		})
	}
}

func TestRunLoadStraddlingFrameEndIsDropped(t *testing.T) {
	t.Parallel()

	prog, err := Assemble([]Instruction{
		// 4-byte load with one byte past the end of a 15-byte frame
		LoadAbsolute{Off: 12, Size: 4},
		Return{Val: AcceptAll},
	})
	require.NoError(t, err)

	accepted, err := Run(prog, make([]byte, 15))
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
}

func TestRunReturnValueCappedAtFrameLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		retval      uint32
		frameLen    int
		expectedLen int
	}{
		{name: "AcceptAllSentinel", retval: AcceptAll, frameLen: 60, expectedLen: 60},
		{name: "SmallerThanFrame", retval: 14, frameLen: 60, expectedLen: 14},
		{name: "LargerThanFrame", retval: 128, frameLen: 60, expectedLen: 60},
		{name: "RejectAll", retval: 0, frameLen: 60, expectedLen: 0},
	}

	for _, vtt := range tests {
		tt := vtt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prog, err := Assemble([]Instruction{Return{Val: tt.retval}})
			require.NoError(t, err)
			accepted, err := Run(prog, make([]byte, tt.frameLen))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedLen, accepted)
		})
	}
}

func TestRunTwoSidedJump(t *testing.T) {
	t.Parallel()

	prog, err := Assemble([]Instruction{
		LoadAbsolute{Off: 0, Size: 1},
		JumpIfEqual{Val: 0x42, SkipTrue: 1},
		Return{Val: 0},
		Return{Val: AcceptAll},
	})
	require.NoError(t, err)

	accepted, err := Run(prog, []byte{0x42, 0x0})
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)

	accepted, err = Run(prog, []byte{0x41, 0x0})
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
}

func TestRunUnknownOpcode(t *testing.T) {
	t.Parallel()

	prog := Program{{Code: 0xff, K: 0}, {Code: opReturn, K: 0}}
	accepted, err := Run(prog, make([]byte, 64))
	require.Error(t, err)
	assert.Equal(t, 0, accepted)
}

func TestRunConcurrentUse(t *testing.T) {
	t.Parallel()

	frame := arpFrame(t, layers.ARPReply)
	prog := ARPReply()

	done := make(chan interface{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- nil }()
			for j := 0; j < 1000; j++ {
				accepted, err := Run(prog, frame)
				if err != nil || accepted != len(frame) {
					t.Error("unexpected result")
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
