package demux

import (
	"net"

	"github.com/kuuji/stungate"
)

// StunFilter accepts datagrams that look like a STUN Binding message:
// a full header, the top-two-bits-zero discriminant RFC 5389 relies on
// when sharing a port with unrelated protocols, and a method restricted
// to Binding or one of the two reserved legacy methods a STUN-aware
// peer might still emit.
func StunFilter(buf []byte, _ net.Addr) bool {
	return stunShaped(buf)
}

func stunShaped(buf []byte) bool {
	if !stun.IsMessage(buf) {
		return false
	}
	method := (uint16(buf[0]&0xFE) << 8) | uint16(buf[1]&0xEF)
	switch stun.Method(method) {
	case stun.MethodBinding, 0x000, 0x002:
		return true
	default:
		return false
	}
}

// StunFromServerFilter is StunFilter conjoined with a check that the
// datagram's source address matches server, for a socket that must
// only ever see STUN traffic from the one server it is talking to. The
// comparison is on the structured address (IP, port, transport), not
// on string form: a net.Addr's String() ("host:port") and stun.Addr's
// String() ("host:port/udp") are never equal as raw strings even for
// the same address.
func StunFromServerFilter(server stun.Addr) Filter {
	return func(buf []byte, addr net.Addr) bool {
		if !stunShaped(buf) {
			return false
		}
		got, err := stun.AddrFromNetAddr(addr)
		if err != nil {
			return false
		}
		return got.Equal(server)
	}
}

// ChannelDataFilter accepts datagrams that look like a TURN ChannelData
// frame (the 0x40-0x7F leading-byte range).
func ChannelDataFilter(buf []byte, _ net.Addr) bool {
	return stun.IsChannelData(buf)
}

// CatchAll accepts any datagram. Every accepting filter gets its own
// copy, so a CatchAll socket sees all traffic whatever its registration
// order, and nothing then reaches Socket.Default.
func CatchAll(buf []byte, _ net.Addr) bool { return true }
