package arp

import (
	"errors"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var errNotIPv4 = errors.New("protocol address is not IPv4")

// Request serializes a broadcast ARP request asking who holds dstIP.
func Request(srcMAC net.HardwareAddr, srcIP, dstIP net.IP) ([]byte, error) {
	src4, dst4 := srcIP.To4(), dstIP.To4()
	if src4 == nil || dst4 == nil {
		return nil, errNotIPv4
	}

	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}

	a := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     uint8(6),
		ProtAddressSize:   uint8(4),
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: src4,
		DstHwAddress:      net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		DstProtAddress:    dst4,
	}

	buf := gopacket.NewSerializeBuffer()
	var opt gopacket.SerializeOptions
	if err := gopacket.SerializeLayers(buf, opt, eth, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
