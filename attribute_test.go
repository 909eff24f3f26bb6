package stun

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponseRoundTrip(t *testing.T) {
	req := NewRequest(MethodBinding)
	resp := NewErrorResponse(req, CodeUnauthorized, "Unauthorized")

	buf := resp.Encode()
	got, derr := Decode(buf, nil)
	require.Nil(t, derr)

	assert.Equal(t, ClassErrorResponse, got.Type.Class)
	attr, ok := got.Get(AttrErrorCode)
	require.True(t, ok)
	ec := attr.Value.(ErrorCodeAttr)
	assert.Equal(t, CodeUnauthorized, ec.Code)
	assert.Equal(t, "Unauthorized", ec.Reason)
}

func TestUnknownAttributesRoundTrip(t *testing.T) {
	req := NewRequest(MethodBinding)
	req.Add(AttrUnknownAttributes, UnknownAttributesAttr{AttrChannelNumber, AttrLifetime})

	buf := req.Encode()
	got, derr := Decode(buf, nil)
	require.Nil(t, derr)

	attr, ok := got.Get(AttrUnknownAttributes)
	require.True(t, ok)
	ua := attr.Value.(UnknownAttributesAttr)
	require.Len(t, ua, 2)
	assert.Equal(t, AttrChannelNumber, ua[0])
	assert.Equal(t, AttrLifetime, ua[1])
}

func TestMarkerAttributesRoundTrip(t *testing.T) {
	req := NewRequest(MethodBinding)
	req.Add(AttrXorOnly, XorOnlyAttr{})
	req.Add(AttrDontFragment, DontFragmentAttr{})

	buf := req.Encode()
	got, derr := Decode(buf, nil)
	require.Nil(t, derr)

	_, ok := got.Get(AttrXorOnly)
	assert.True(t, ok)
	_, ok = got.Get(AttrDontFragment)
	assert.True(t, ok)
}

// TestUsernameTrailingZerosTrimmed covers a known peer quirk: some
// implementations declare trailing zero bytes as part of USERNAME's
// length. The decoder shrinks the reported value until no trailing
// zero remains.
func TestUsernameTrailingZerosTrimmed(t *testing.T) {
	req := NewRequest(MethodBinding)
	req.Add(AttrUsername, ByteStringAttr("alice\x00\x00\x00"))
	buf := req.Encode()

	got, derr := Decode(buf, nil)
	require.Nil(t, derr)

	username, ok := got.Username()
	require.True(t, ok)
	assert.Equal(t, "alice", username)
}

func TestDataNoPadDialectRoundTrip(t *testing.T) {
	ind := NewIndication(MethodSend)
	ind.NoPadData = true
	ind.Add(AttrData, DataAttr("abc"))

	buf := ind.Encode()
	// header(20) + attr header(4) + 3 value bytes, no padding.
	require.Equal(t, 27, len(buf))

	got, derr := DecodeNoPad(buf, nil)
	require.Nil(t, derr)
	require.True(t, got.NoPadData)

	attr, ok := got.Get(AttrData)
	require.True(t, ok)
	assert.Equal(t, DataAttr("abc"), attr.Value)
	assert.Equal(t, buf, got.Encode())
}

// When the XOR key's leading bytes equal the address bytes, the encoded
// address comes out all-zero.
func TestXorAddressAllZeroWhenKeyEqualsAddress(t *testing.T) {
	var id [16]byte
	copy(id[:4], []byte{0x21, 0x12, 0xA4, 0x42})

	attr := XorAddressAttr{
		Family: FamilyIPv4,
		IP:     net.IPv4(0x21, 0x12, 0xA4, 0x42).To4(),
		Port:   0x2112, // equals the cookie's high half, so it zeroes too
	}
	encoded := attr.encode(id)
	require.Len(t, encoded, 8)
	assert.Equal(t, []byte{0, 0, 0, 0}, encoded[4:8])
	assert.Equal(t, []byte{0, 0}, encoded[2:4])
}

func TestErrorCodeAttrMalformedTooShort(t *testing.T) {
	_, err := decodeErrorCodeAttr([]byte{0, 0, 4}, [16]byte{})
	require.Error(t, err)
}

func TestErrorCodeAttrMalformedBadClass(t *testing.T) {
	_, err := decodeErrorCodeAttr([]byte{0, 0, 2, 0}, [16]byte{})
	require.Error(t, err)
}
