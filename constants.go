package stun

import "fmt"

// messageHeaderLength is the fixed size, in bytes, of a STUN message
// header: 2 bytes type, 2 bytes length, 4 bytes magic cookie, 12 bytes
// transaction id.
const messageHeaderLength = 20

// magicCookie is the fixed value that lets a STUN message be told apart
// from other protocols sharing the same port, and seeds the XOR used by
// the XOR-address attributes.
const magicCookie uint32 = 0x2112A442

// channelDataHeaderLength is the fixed size of a TURN ChannelData
// framing header: 2 bytes channel number, 2 bytes data length.
const channelDataHeaderLength = 4

// Class is the two-bit STUN message class.
type Class uint8

const (
	ClassRequest Class = iota
	ClassIndication
	ClassSuccessResponse
	ClassErrorResponse
)

func (c Class) String() string {
	switch c {
	case ClassRequest:
		return "request"
	case ClassIndication:
		return "indication"
	case ClassSuccessResponse:
		return "success response"
	case ClassErrorResponse:
		return "error response"
	default:
		return "unknown class"
	}
}

// Method is the 12-bit STUN method identifying what a message is about,
// independent of its class.
type Method uint16

const (
	MethodBinding          Method = 0x001
	MethodAllocate         Method = 0x003
	MethodRefresh          Method = 0x004
	MethodSend             Method = 0x006
	MethodData             Method = 0x007
	MethodCreatePermission Method = 0x008
	MethodChannelBind      Method = 0x009
)

func (m Method) String() string {
	switch m {
	case MethodBinding:
		return "binding"
	case MethodAllocate:
		return "allocate"
	case MethodRefresh:
		return "refresh"
	case MethodSend:
		return "send"
	case MethodData:
		return "data"
	case MethodCreatePermission:
		return "create permission"
	case MethodChannelBind:
		return "channel bind"
	default:
		return fmt.Sprintf("method(0x%03x)", uint16(m))
	}
}

// MessageType is the 14 meaningful bits of the STUN header's type field:
// a Class and a Method packed together. The two most significant bits of
// the 16-bit field are always zero on the wire; that zero pattern is
// what lets a demultiplexer tell a STUN message apart from other
// traffic sharing the same port.
type MessageType struct {
	Class  Class
	Method Method
}

// Convenience values for the three Binding message types (request,
// success response, error response); TURN methods are composed the same
// way via MessageType{Class: ..., Method: stun.MethodAllocate} etc.
var (
	BindingRequest         = MessageType{Class: ClassRequest, Method: MethodBinding}
	BindingSuccessResponse = MessageType{Class: ClassSuccessResponse, Method: MethodBinding}
	BindingErrorResponse   = MessageType{Class: ClassErrorResponse, Method: MethodBinding}
)

// The class bits are not contiguous in the 16-bit type field: the
// method field is split into three groups (A, B, D) with the two class
// bits (C0, C1) inserted between them. See RFC 5389 figure 3.
const (
	methodABits = 0x00f
	methodBBits = 0x070
	methodDBits = 0xf80

	methodBShift = 1
	methodDShift = 2

	classC0Bit   = 0x1
	classC1Bit   = 0x2
	classC0Shift = 4
	classC1Shift = 7
)

// Value packs Class and Method into the 16-bit wire representation.
func (t MessageType) Value() uint16 {
	m := uint16(t.Method)
	a := m & methodABits
	b := m & methodBBits
	d := m & methodDBits
	method := a + (b << methodBShift) + (d << methodDShift)

	c := uint16(t.Class)
	c0 := (c & classC0Bit) << classC0Shift
	c1 := (c & classC1Bit) << classC1Shift

	return method + c0 + c1
}

// messageTypeFromValue unpacks the 16-bit wire representation back into
// a MessageType.
func messageTypeFromValue(v uint16) MessageType {
	c0 := (v >> classC0Shift) & classC0Bit
	c1 := (v >> classC1Shift) & classC1Bit

	a := v & methodABits
	b := (v >> methodBShift) & methodBBits
	d := (v >> methodDShift) & methodDBits

	return MessageType{
		Class:  Class(c0 + c1),
		Method: Method(a + b + d),
	}
}

func (t MessageType) String() string {
	return fmt.Sprintf("%s %s", t.Method, t.Class)
}

// IsChannelData reports whether the first byte of b falls in the
// ChannelData framing range (0x40-0x7F). ChannelData frames are TURN's
// lightweight relay framing and are never STUN messages.
func IsChannelData(b []byte) bool {
	return len(b) >= channelDataHeaderLength && b[0]&0xC0 == 0x40
}

// IsMessage reports whether b looks like a STUN message: at least a
// full header, and the top two bits of the first byte clear (the
// discriminant STUN relies on when sharing a port with other traffic).
func IsMessage(b []byte) bool {
	return len(b) >= messageHeaderLength && b[0]&0xC0 == 0
}
