package stun

import "encoding/binary"

// AttrValue is implemented by every recognized attribute variant plus
// the opaque RawAttr used for unrecognized types. The interface is
// unexported-method-gated so the set of variants stays closed, matching
// the "attribute polymorphism via a closed tagged union" design note.
type AttrValue interface {
	// encode returns the attribute's value bytes (header-less,
	// unpadded). fullID is magic-cookie||transaction-id, needed by the
	// XOR address variants.
	encode(fullID [16]byte) []byte
}

// Attribute pairs a type code with its decoded value. Data length and
// padding are derived, never stored, so there is no way for them to
// drift from the value they describe.
type Attribute struct {
	Type  AttrType
	Value AttrValue
}

// DataLen is the number of value bytes this attribute occupies on the
// wire, not counting the 4-byte header or trailing padding.
func (a Attribute) DataLen(fullID [16]byte) int {
	return len(a.Value.encode(fullID))
}

// encode serializes the attribute's 4-byte header, its value, and
// zero-padding out to the next 4-byte boundary.
func (a Attribute) encode(fullID [16]byte) []byte {
	body := a.Value.encode(fullID)
	pad := pad4(len(body))
	buf := make([]byte, 4+len(body)+pad)
	binary.BigEndian.PutUint16(buf[0:2], uint16(a.Type))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(body)))
	copy(buf[4:4+len(body)], body)
	// buf[4+len(body):] is already zero from make.
	return buf
}

// attrDecoder decodes the declared-length value bytes of one attribute
// (padding already stripped by the caller) into a typed AttrValue.
type attrDecoder func(value []byte, fullID [16]byte) (AttrValue, error)

// registry is the dispatch table used by decodeOneAttr. Content-dependent
// attributes (MESSAGE-INTEGRITY, FINGERPRINT) are deliberately absent:
// they are recognized and validated by the message decoder directly,
// since their meaning depends on the bytes that precede them.
var registry = map[AttrType]attrDecoder{
	AttrMappedAddress:      decodeAddressAttr,
	AttrResponseAddress:    decodeAddressAttr,
	AttrSourceAddress:      decodeAddressAttr,
	AttrChangedAddress:     decodeAddressAttr,
	AttrReflectedFrom:      decodeAddressAttr,
	AttrAlternateServer:    decodeAddressAttr,
	AttrDestinationAddr:    decodeAddressAttr,
	AttrXorMappedAddress:   decodeXorAddressAttr,
	AttrXorPeerAddress:     decodeXorAddressAttr,
	AttrXorRelayedAddress:  decodeXorAddressAttr,
	AttrChangeRequest:      decodeChangeRequestAttr,
	AttrErrorCode:          decodeErrorCodeAttr,
	AttrUnknownAttributes:  decodeUnknownAttributesAttr,
	AttrSoftware:           decodeSoftwareAttr,
	AttrUsername:           decodeUsernameAttr,
	AttrRealm:              decodeRealmAttr,
	AttrNonce:              decodeNonceAttr,
	AttrPriority:           decodePriorityAttr,
	AttrIceControlled:      decodeTiebreakerAttr,
	AttrIceControlling:     decodeTiebreakerAttr,
	AttrMagicCookie:        decodeMagicCookieAttr,
	AttrXorOnly:            decodeXorOnlyAttr,
	AttrDontFragment:       decodeDontFragmentAttr,
	AttrChannelNumber:      decodeChannelNumberAttr,
	AttrLifetime:           decodeLifetimeAttr,
	AttrRequestedTransport: decodeRequestedTransportAttr,
	AttrEvenPort:           decodeEvenPortAttr,
	AttrReservationToken:   decodeReservationTokenAttr,
	AttrData:               decodeDataAttr,
}

// decodeOneAttr decodes the declared-length value bytes of a single
// attribute. Unrecognized types are preserved verbatim as RawAttr so a
// later Encode reproduces the original bytes exactly.
func decodeOneAttr(t AttrType, value []byte, fullID [16]byte) (AttrValue, error) {
	if dec, ok := registry[t]; ok {
		return dec(value, fullID)
	}
	raw := make([]byte, len(value))
	copy(raw, value)
	return RawAttr(raw), nil
}

// RawAttr is the opaque variant holding the exact bytes of an
// unrecognized attribute type. Re-encoding it reproduces the input
// bytes, satisfying the "unknown attribute preservation" property law.
type RawAttr []byte

func (r RawAttr) encode([16]byte) []byte { return []byte(r) }
