package stun

import "encoding/binary"

// ChannelData is a TURN ChannelData frame: a lightweight 4-byte header
// (channel number plus data length) followed by the relayed payload. It
// deliberately has nothing to do with Message's attribute model — a
// demultiplexer must tell the two framings apart by their leading byte
// before trying to decode either (see IsChannelData / IsMessage).
type ChannelData struct {
	Channel ChannelNumberAttr
	Data    []byte
}

// minChannelNumber and maxChannelNumber bound the legal TURN channel
// number range (RFC 5766 section 11).
const (
	minChannelNumber = 0x4000
	maxChannelNumber = 0x7FFE
)

// EncodeChannelData serializes a ChannelData frame. On UDP transports
// the payload is not padded; on a stream transport the caller is
// responsible for padding between successive frames, since padding
// there is a framing concern rather than a per-frame one.
func EncodeChannelData(cd ChannelData) []byte {
	buf := make([]byte, channelDataHeaderLength+len(cd.Data))
	binary.BigEndian.PutUint16(buf[0:2], uint16(cd.Channel))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(cd.Data)))
	copy(buf[channelDataHeaderLength:], cd.Data)
	return buf
}

// DecodeChannelData parses a ChannelData frame from buf. It does not
// require the channel number to be in the legal bound-channel range;
// callers that care (e.g. a server validating an incoming relay frame)
// should check Channel themselves via IsBoundChannel.
func DecodeChannelData(buf []byte) (ChannelData, error) {
	if len(buf) < channelDataHeaderLength {
		return ChannelData{}, ErrShortBuffer
	}
	channel := binary.BigEndian.Uint16(buf[0:2])
	length := binary.BigEndian.Uint16(buf[2:4])
	if channelDataHeaderLength+int(length) > len(buf) {
		return ChannelData{}, &MalformedError{
			Expected: channelDataHeaderLength + int(length),
			Actual:   len(buf),
		}
	}
	data := make([]byte, length)
	copy(data, buf[channelDataHeaderLength:channelDataHeaderLength+int(length)])
	return ChannelData{Channel: ChannelNumberAttr(channel), Data: data}, nil
}

// IsBoundChannel reports whether n falls within the channel number
// range TURN reserves for bound channels (0x4000-0x7FFE); the top of
// the 16-bit space (0x7FFF and above) is reserved for future use.
func IsBoundChannel(n ChannelNumberAttr) bool {
	return uint16(n) >= minChannelNumber && uint16(n) <= maxChannelNumber
}
