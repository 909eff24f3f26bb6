package stun

// DataAttr carries the relayed payload in a TURN Send/Data indication.
//
// Most deployments pad its value to a 4-byte boundary like every other
// attribute. One older dialect (pre-RFC-5766 drafts, still seen from a
// handful of peers) forbids padding on this specific attribute. Because
// that choice is a property of the wire dialect rather than of any one
// message, it is carried on Message.NoPadData rather than per-attribute
// here; DataAttr itself is just the payload bytes.
type DataAttr []byte

func (a DataAttr) encode([16]byte) []byte { return []byte(a) }

func decodeDataAttr(v []byte, _ [16]byte) (AttrValue, error) {
	return DataAttr(append([]byte(nil), v...)), nil
}
