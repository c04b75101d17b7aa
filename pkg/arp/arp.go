// Package arp parses address resolution frames into address records and
// serializes broadcast resolution requests. It is single-protocol by
// design: anything that is not Ethernet ARP is rejected, not decoded.
package arp

import (
	"encoding/binary"
	"errors"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// For ARP frames:
// Ethernet header (14 bytes) + ARP packet (28 bytes) + FCS (4 bytes) = 46 bytes
// So it is less than Ethernet minimum frame size = 64 bytes
const MaxFrameLength = 64

// minimum decodable frame: Ethernet header + ARP payload
const minFrameLength = 14 + 28

const offEtherType = 12

var (
	ErrTruncatedFrame      = errors.New("frame is too short for an ARP packet")
	ErrUnsupportedProtocol = errors.New("frame does not carry Ethernet/IPv4 ARP")
	ErrUnknownOperation    = errors.New("unknown ARP operation")
)

type Operation uint16

const (
	OpRequest Operation = 1
	OpReply   Operation = 2
)

// AddressRecord is the decoded hardware/protocol address pairing carried
// by one ARP frame. All byte slices are copies and stay valid after the
// frame buffer is reused.
type AddressRecord struct {
	Operation Operation
	SenderHw  net.HardwareAddr
	SenderIP  net.IP
	TargetHw  net.HardwareAddr
	TargetIP  net.IP
}

// Decoder parses raw frames into AddressRecords. The underlying layer
// parser reuses its decode buffers, so a Decoder must not be shared
// between goroutines.
type Decoder struct {
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
	eth     layers.Ethernet
	arp     layers.ARP
}

func NewDecoder() *Decoder {
	d := &Decoder{}
	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &d.eth, &d.arp)
	parser.IgnoreUnsupported = true
	d.parser = parser
	return d
}

// Decode extracts the operation and both address pairs from a raw frame.
// Frames shorter than an Ethernet ARP packet yield ErrTruncatedFrame,
// frames with a different EtherType yield ErrUnsupportedProtocol; no
// input causes a panic.
func (d *Decoder) Decode(data []byte) (*AddressRecord, error) {
	if len(data) < minFrameLength {
		return nil, ErrTruncatedFrame
	}
	if binary.BigEndian.Uint16(data[offEtherType:]) != uint16(layers.EthernetTypeARP) {
		return nil, ErrUnsupportedProtocol
	}
	if err := d.parser.DecodeLayers(data, &d.decoded); err != nil {
		return nil, ErrTruncatedFrame
	}
	if len(d.decoded) != 2 {
		return nil, ErrUnsupportedProtocol
	}
	if d.arp.HwAddressSize != 6 || d.arp.ProtAddressSize != 4 {
		return nil, ErrUnsupportedProtocol
	}
	op := Operation(d.arp.Operation)
	if op != OpRequest && op != OpReply {
		return nil, ErrUnknownOperation
	}
	return &AddressRecord{
		Operation: op,
		SenderHw:  net.HardwareAddr(append([]byte(nil), d.arp.SourceHwAddress...)),
		SenderIP:  net.IP(append([]byte(nil), d.arp.SourceProtAddress...)),
		TargetHw:  net.HardwareAddr(append([]byte(nil), d.arp.DstHwAddress...)),
		TargetIP:  net.IP(append([]byte(nil), d.arp.DstProtAddress...)),
	}, nil
}
