package stun

import "encoding/binary"

// MagicCookieAttr is a fixed 4-byte marker attribute carrying the STUN
// magic cookie value. Its only use is as a presence marker for legacy
// interop probing; it carries no information beyond "I am here".
type MagicCookieAttr uint32

func (a MagicCookieAttr) encode([16]byte) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(a))
	return buf
}

func decodeMagicCookieAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 4 {
		return nil, &MalformedError{AttrType: AttrMagicCookie, Expected: 4, Actual: len(v)}
	}
	return MagicCookieAttr(binary.BigEndian.Uint32(v)), nil
}

// XorOnlyAttr is a zero-byte marker: its mere presence tells a classic
// STUN server the client only understands XOR-MAPPED-ADDRESS, not the
// older MAPPED-ADDRESS.
type XorOnlyAttr struct{}

func (a XorOnlyAttr) encode([16]byte) []byte { return nil }

func decodeXorOnlyAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 0 {
		return nil, &MalformedError{AttrType: AttrXorOnly, Expected: 0, Actual: len(v)}
	}
	return XorOnlyAttr{}, nil
}

// DontFragmentAttr is a zero-byte marker a TURN client sets on an
// Allocate or ChannelBind request to ask the relay to set the
// don't-fragment bit on its own outbound traffic to the peer.
type DontFragmentAttr struct{}

func (a DontFragmentAttr) encode([16]byte) []byte { return nil }

func decodeDontFragmentAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 0 {
		return nil, &MalformedError{AttrType: AttrDontFragment, Expected: 0, Actual: len(v)}
	}
	return DontFragmentAttr{}, nil
}
