// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
	"net"
	"strconv"
	"time"
)

// ServiceFlag identifies services supported by an AXE peer.
type ServiceFlag uint64

const (
	// SFNodeNetwork is a flag used to indicate a peer is a full node.
	SFNodeNetwork ServiceFlag = 1 << 0

	// SFNodeBloom is a flag used to indicate a peer supports bloom
	// filtering.
	SFNodeBloom ServiceFlag = 1 << 2
)

// NetAddress defines information about a peer on the network including the
// time it was last seen, the services it supports, its IP address, and port.
type NetAddress struct {
	// Timestamp is the last time the address was seen.  It is not present
	// in the version message and is only considered present in an addr
	// message.
	Timestamp time.Time

	// Services is a bitfield which identifies the services supported by
	// the address.
	Services ServiceFlag

	// IP is the address of the peer stored as a 16 byte array.  IPv4
	// addresses are stored as IPv4-mapped IPv6 addresses: ten zero bytes,
	// two 0xff bytes, then the four address bytes.
	IP [16]byte

	// Port is the port of the peer.  It is encoded big endian on the wire,
	// unlike everything else in the protocol.
	Port uint16
}

// ipv4MappedPrefix is the 12 byte prefix of an IPv4-mapped IPv6 address.
var ipv4MappedPrefix = [12]byte{10: 0xff, 11: 0xff}

// SetIP stores the provided IP in the IPv4-mapped IPv6 form the wire encoding
// requires.
func (na *NetAddress) SetIP(ip net.IP) {
	if v4 := ip.To4(); v4 != nil {
		copy(na.IP[:], ipv4MappedPrefix[:])
		copy(na.IP[12:], v4)
		return
	}
	copy(na.IP[:], ip.To16())
}

// ToIP returns the address as a net.IP.
func (na *NetAddress) ToIP() net.IP {
	return net.IP(na.IP[:])
}

// Addr returns the address in host:port form, suitable for use as a map key.
func (na *NetAddress) Addr() string {
	return net.JoinHostPort(na.ToIP().String(), strconv.Itoa(int(na.Port)))
}

// NewNetAddress returns a new NetAddress for the provided IP, port and
// services, stamped with the current time.
func NewNetAddress(ip net.IP, port uint16, services ServiceFlag) *NetAddress {
	na := &NetAddress{
		Timestamp: time.Unix(time.Now().Unix(), 0),
		Services:  services,
		Port:      port,
	}
	na.SetIP(ip)
	return na
}

// maxNetAddressPayload returns the max payload size for an AXE NetAddress
// when the timestamp is included.
func maxNetAddressPayload() uint32 {
	// Timestamp 4 bytes + services 8 bytes + ip 16 bytes + port 2 bytes.
	return 30
}

// readNetAddress reads an encoded NetAddress from r depending on the protocol
// version and whether or not the timestamp is included per hasStamp.  Some
// messages like version do not include the timestamp.
func readNetAddress(r io.Reader, pver uint32, na *NetAddress, hasStamp bool) error {
	if hasStamp {
		var stamp uint32Time
		if err := readElement(r, &stamp); err != nil {
			return err
		}
		na.Timestamp = time.Time(stamp)
	}

	var port uint16
	err := readElements(r, &na.Services, &na.IP)
	if err != nil {
		return err
	}
	// The port is encoded big endian, unlike the rest of the protocol.
	err = readUint16BE(r, &port)
	if err != nil {
		return err
	}
	na.Port = port
	return nil
}

// writeNetAddress serializes a NetAddress to w depending on the protocol
// version and whether or not the timestamp is included per hasStamp.
func writeNetAddress(w io.Writer, pver uint32, na *NetAddress, hasStamp bool) error {
	if hasStamp {
		stamp := uint32Time(na.Timestamp)
		if err := writeElement(w, &stamp); err != nil {
			return err
		}
	}

	err := writeElements(w, &na.Services, &na.IP)
	if err != nil {
		return err
	}
	// The port is encoded big endian, unlike the rest of the protocol.
	return writeUint16BE(w, na.Port)
}
