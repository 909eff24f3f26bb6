package stun

import "encoding/binary"

// ChangeRequestAttr carries the two CHANGE-REQUEST flag bits a classic
// STUN client uses to ask the server to respond from a different
// address and/or port.
type ChangeRequestAttr struct {
	ChangeIP   bool
	ChangePort bool
}

const (
	changeIPBit   = 1 << 2
	changePortBit = 1 << 1
)

func (a ChangeRequestAttr) encode([16]byte) []byte {
	buf := make([]byte, 4)
	var v uint32
	if a.ChangeIP {
		v |= changeIPBit
	}
	if a.ChangePort {
		v |= changePortBit
	}
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

func decodeChangeRequestAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 4 {
		return nil, &MalformedError{AttrType: AttrChangeRequest, Expected: 4, Actual: len(v)}
	}
	flags := binary.BigEndian.Uint32(v)
	return ChangeRequestAttr{
		ChangeIP:   flags&changeIPBit != 0,
		ChangePort: flags&changePortBit != 0,
	}, nil
}

// PriorityAttr carries an ICE candidate priority.
type PriorityAttr uint32

func (a PriorityAttr) encode([16]byte) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(a))
	return buf
}

func decodePriorityAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 4 {
		return nil, &MalformedError{AttrType: AttrPriority, Expected: 4, Actual: len(v)}
	}
	return PriorityAttr(binary.BigEndian.Uint32(v)), nil
}

// TiebreakerAttr carries the 64-bit tie-breaker value used by both
// ICE-CONTROLLED and ICE-CONTROLLING (the attribute type on the
// Attribute wrapping it is what tells the two apart).
type TiebreakerAttr uint64

func (a TiebreakerAttr) encode([16]byte) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(a))
	return buf
}

func decodeTiebreakerAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 8 {
		return nil, &MalformedError{AttrType: AttrIceControlled, Expected: 8, Actual: len(v)}
	}
	return TiebreakerAttr(binary.BigEndian.Uint64(v)), nil
}

// LifetimeAttr carries a TURN allocation's remaining lifetime in
// seconds.
type LifetimeAttr uint32

func (a LifetimeAttr) encode([16]byte) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(a))
	return buf
}

func decodeLifetimeAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 4 {
		return nil, &MalformedError{AttrType: AttrLifetime, Expected: 4, Actual: len(v)}
	}
	return LifetimeAttr(binary.BigEndian.Uint32(v)), nil
}

// ChannelNumberAttr binds a TURN channel number to a peer address.
type ChannelNumberAttr uint16

func (a ChannelNumberAttr) encode([16]byte) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], uint16(a))
	return buf
}

func decodeChannelNumberAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 4 {
		return nil, &MalformedError{AttrType: AttrChannelNumber, Expected: 4, Actual: len(v)}
	}
	return ChannelNumberAttr(binary.BigEndian.Uint16(v[0:2])), nil
}

// TransportProto identifies the requested relay transport for TURN
// Allocate requests. Only UDP (17) is meaningful in this core; TCP
// relays are out of scope.
type TransportProto byte

const TransportUDP TransportProto = 17

// RequestedTransportAttr carries the REQUESTED-TRANSPORT protocol
// number for a TURN Allocate request.
type RequestedTransportAttr struct {
	Proto TransportProto
}

func (a RequestedTransportAttr) encode([16]byte) []byte {
	return []byte{byte(a.Proto), 0, 0, 0}
}

func decodeRequestedTransportAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 4 {
		return nil, &MalformedError{AttrType: AttrRequestedTransport, Expected: 4, Actual: len(v)}
	}
	return RequestedTransportAttr{Proto: TransportProto(v[0])}, nil
}

// EvenPortAttr requests that a TURN relay allocate an even-numbered
// port, optionally reserving the next higher odd port.
//
// The R-flag is specified as the most significant bit of the single
// value byte (0x80). An earlier draft of this core packed it at bit
// position 8 of a byte assignment, which silently truncated to zero;
// that was a bug, not an intended encoding, and is not reproduced here.
type EvenPortAttr struct {
	ReserveNextPort bool
}

const evenPortRFlag = 0x80

func (a EvenPortAttr) encode([16]byte) []byte {
	var b byte
	if a.ReserveNextPort {
		b = evenPortRFlag
	}
	return []byte{b}
}

func decodeEvenPortAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 1 {
		return nil, &MalformedError{AttrType: AttrEvenPort, Expected: 1, Actual: len(v)}
	}
	return EvenPortAttr{ReserveNextPort: v[0]&evenPortRFlag != 0}, nil
}

// ReservationTokenAttr carries an 8-byte token a relay previously
// handed out via EvenPortAttr.ReserveNextPort, redeemed on a later
// Allocate request.
type ReservationTokenAttr [8]byte

func (a ReservationTokenAttr) encode([16]byte) []byte {
	out := make([]byte, 8)
	copy(out, a[:])
	return out
}

func decodeReservationTokenAttr(v []byte, _ [16]byte) (AttrValue, error) {
	if len(v) != 8 {
		return nil, &MalformedError{AttrType: AttrReservationToken, Expected: 8, Actual: len(v)}
	}
	var tok ReservationTokenAttr
	copy(tok[:], v)
	return tok, nil
}
