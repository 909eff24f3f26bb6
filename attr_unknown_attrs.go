package stun

import "encoding/binary"

// UnknownAttributesAttr lists the comprehension-required attribute
// types a server rejected, carried on a 420 error response.
type UnknownAttributesAttr []AttrType

func (a UnknownAttributesAttr) encode([16]byte) []byte {
	buf := make([]byte, len(a)*2)
	for i, t := range a {
		binary.BigEndian.PutUint16(buf[i*2:i*2+2], uint16(t))
	}
	return buf
}

func decodeUnknownAttributesAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v)%2 != 0 {
		return nil, &MalformedError{AttrType: AttrUnknownAttributes, Expected: len(v) - len(v)%2, Actual: len(v)}
	}
	out := make(UnknownAttributesAttr, 0, len(v)/2)
	for i := 0; i < len(v); i += 2 {
		out = append(out, AttrType(binary.BigEndian.Uint16(v[i:i+2])))
	}
	return out, nil
}
