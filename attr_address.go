package stun

import (
	"encoding/binary"
	"net"
)

// IPFamily is the one-byte family discriminant carried by every address
// attribute.
type IPFamily uint8

const (
	FamilyIPv4 IPFamily = 0x01
	FamilyIPv6 IPFamily = 0x02
)

// familyBytes returns ip in its wire form for the given family: 4 bytes
// for IPv4, 16 for IPv6.
func familyBytes(family IPFamily, ip net.IP) []byte {
	if family == FamilyIPv6 {
		return []byte(ip.To16())
	}
	return []byte(ip.To4())
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// AddressAttr is the plain (non-XOR) address attribute layout used by
// MAPPED-ADDRESS, SOURCE-ADDRESS, CHANGED-ADDRESS, RESPONSE-ADDRESS,
// REFLECTED-FROM, ALTERNATE-SERVER, and DESTINATION-ADDRESS: one
// reserved byte, one family byte, a 2-byte port, and 4 or 16 address
// bytes.
type AddressAttr struct {
	Family IPFamily
	IP     net.IP
	Port   uint16
}

func (a AddressAttr) encode(fullID [16]byte) []byte {
	addr := familyBytes(a.Family, a.IP)
	buf := make([]byte, 4+len(addr))
	buf[1] = byte(a.Family)
	binary.BigEndian.PutUint16(buf[2:4], a.Port)
	copy(buf[4:], addr)
	return buf
}

// Equal compares two address attributes by their structured fields, as
// the data model requires (not by raw bytes).
func (a AddressAttr) Equal(b AddressAttr) bool {
	return a.Family == b.Family && a.Port == b.Port && a.IP.Equal(b.IP)
}

func decodeAddressAttr(v []byte, fullID [16]byte) (AttrValue, error) {
	if len(v) != 8 && len(v) != 20 {
		return nil, &MalformedError{AttrType: AttrMappedAddress, Expected: 8, Actual: len(v)}
	}
	family := IPFamily(v[1])
	port := binary.BigEndian.Uint16(v[2:4])
	ip := make(net.IP, len(v)-4)
	copy(ip, v[4:])
	return AddressAttr{Family: family, IP: ip, Port: port}, nil
}

// XorAddressAttr is the XOR-obscured sibling layout, used by
// XOR-MAPPED-ADDRESS, XOR-PEER-ADDRESS, and XOR-RELAYED-ADDRESS. The
// port is XOR-ed with the high 16 bits of the magic cookie; the address
// bytes are XOR-ed with magic-cookie||transaction-id, truncated to the
// address length. Applying the same XOR a second time restores the
// clear value (property law 3).
type XorAddressAttr struct {
	Family IPFamily
	IP     net.IP
	Port   uint16
}

func (a XorAddressAttr) encode(fullID [16]byte) []byte {
	addr := familyBytes(a.Family, a.IP)
	xored := xorBytes(addr, fullID[:len(addr)])
	xorPort := a.Port ^ uint16(magicCookie>>16)

	buf := make([]byte, 4+len(addr))
	buf[1] = byte(a.Family)
	binary.BigEndian.PutUint16(buf[2:4], xorPort)
	copy(buf[4:], xored)
	return buf
}

func (a XorAddressAttr) Equal(b XorAddressAttr) bool {
	return a.Family == b.Family && a.Port == b.Port && a.IP.Equal(b.IP)
}

func decodeXorAddressAttr(v []byte, fullID [16]byte) (AttrValue, error) {
	if len(v) != 8 && len(v) != 20 {
		return nil, &MalformedError{AttrType: AttrXorMappedAddress, Expected: 8, Actual: len(v)}
	}
	family := IPFamily(v[1])
	xorPort := binary.BigEndian.Uint16(v[2:4])
	port := xorPort ^ uint16(magicCookie>>16)
	// The concatenation magic-cookie||transaction-id is always 16 bytes
	// (4 + 12), so slicing fullID to len(v)-4 is safe for both the
	// 4-byte (IPv4) and 16-byte (IPv6) address cases.
	ip := xorBytes(v[4:], fullID[:len(v)-4])
	return XorAddressAttr{Family: family, IP: net.IP(ip), Port: port}, nil
}
