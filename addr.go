package stun

import (
	"fmt"
	"net"
)

// Network names the transport kind carried by a Transport Address.
type Network uint8

const (
	NetworkUDP Network = iota
	NetworkTCP
)

func (n Network) String() string {
	if n == NetworkTCP {
		return "tcp"
	}
	return "udp"
}

// Addr is the core's transport address value: address bytes, a port, and
// a transport kind. It is immutable once constructed and compares equal
// by all three fields, matching the data model's "Transport address"
// tuple.
type Addr struct {
	IP   net.IP
	Port int
	Net  Network
}

// Family reports the STUN address family byte for this address (0x01 for
// IPv4, 0x02 for IPv6).
func (a Addr) Family() IPFamily {
	if a.IP.To4() != nil {
		return FamilyIPv4
	}
	return FamilyIPv6
}

// Bytes returns the address in its wire form: 4 bytes for IPv4, 16 bytes
// for IPv6.
func (a Addr) Bytes() []byte {
	if v4 := a.IP.To4(); v4 != nil {
		return []byte(v4)
	}
	return []byte(a.IP.To16())
}

// Equal reports whether a and b have the same address bytes, port, and
// transport kind.
func (a Addr) Equal(b Addr) bool {
	return a.Port == b.Port && a.Net == b.Net && a.IP.Equal(b.IP)
}

func (a Addr) String() string {
	return fmt.Sprintf("%s:%d/%s", a.IP, a.Port, a.Net)
}

// AddrFromNetAddr extracts a Transport Address from a standard library
// net.Addr, also recording the transport kind.
func AddrFromNetAddr(addr net.Addr) (Addr, error) {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return Addr{IP: a.IP, Port: a.Port, Net: NetworkUDP}, nil
	case *net.TCPAddr:
		return Addr{IP: a.IP, Port: a.Port, Net: NetworkTCP}, nil
	default:
		return Addr{}, fmt.Errorf("stun: unsupported address type %T", addr)
	}
}
