package stun

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	req := NewRequest(MethodBinding)
	req.Add(AttrUsername, ByteStringAttr("alice"))
	req.Add(AttrXorMappedAddress, XorAddressAttr{
		Family: FamilyIPv4,
		IP:     net.ParseIP("203.0.113.5"),
		Port:   54321,
	})

	buf := req.Encode()
	got, derr := Decode(buf, nil)
	require.Nil(t, derr, "decode should succeed: %v", derr)

	assert.Equal(t, req.Type, got.Type)
	assert.Equal(t, req.TransactionID, got.TransactionID)

	username, ok := got.Username()
	require.True(t, ok)
	assert.Equal(t, "alice", username)

	addr, ok := got.Get(AttrXorMappedAddress)
	require.True(t, ok)
	xa := addr.Value.(XorAddressAttr)
	assert.True(t, xa.IP.Equal(net.ParseIP("203.0.113.5")))
	assert.Equal(t, uint16(54321), xa.Port)
}

func TestBindingRequestWireFormat(t *testing.T) {
	m := &Message{Type: BindingRequest}
	copy(m.TransactionID[:], []byte{
		0x05, 0x06, 0x07, 0x08,
		0x09, 0x10, 0x11, 0x12,
		0x13, 0x14, 0x15, 0x16,
	})

	want := []byte{
		0x00, 0x01, 0x00, 0x00,
		0x21, 0x12, 0xA4, 0x42,
		0x05, 0x06, 0x07, 0x08,
		0x09, 0x10, 0x11, 0x12,
		0x13, 0x14, 0x15, 0x16,
	}
	assert.Equal(t, want, m.Encode())
}

func TestAttributePadding(t *testing.T) {
	req := NewRequest(MethodBinding)
	req.Add(AttrUsername, ByteStringAttr("a")) // 1 byte value, needs 3 bytes padding
	buf := req.Encode()

	// header(20) + attr header(4) + value(1) + pad(3) = 28
	assert.Equal(t, 28, len(buf))
}

func TestXorAddressIsSelfInverse(t *testing.T) {
	var id [16]byte
	copy(id[:], []byte{0x21, 0x12, 0xA4, 0x42, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})

	orig := XorAddressAttr{Family: FamilyIPv4, IP: net.ParseIP("198.51.100.2").To4(), Port: 12345}
	encoded := orig.encode(id)

	decoded, err := decodeXorAddressAttr(encoded, id)
	require.NoError(t, err)

	roundTripped := decoded.(XorAddressAttr)
	assert.True(t, roundTripped.IP.Equal(orig.IP))
	assert.Equal(t, orig.Port, roundTripped.Port)
}

func TestFingerprintValidation(t *testing.T) {
	req := NewRequest(MethodBinding)
	req.AddFingerprint()
	buf := req.Encode()

	got, derr := Decode(buf, nil)
	require.Nil(t, derr)
	assert.Equal(t, IntegrityValid, got.FingerprintStatus)

	// Corrupt a header byte covered by the checksum; FINGERPRINT must catch it.
	buf[10] ^= 0xFF
	_, derr = Decode(buf, nil)
	require.NotNil(t, derr)
	var ierr *IntegrityError
	require.ErrorAs(t, derr, &ierr)
	assert.Equal(t, IntegrityFingerprint, ierr.Kind)
}

func TestMessageIntegrityValidation(t *testing.T) {
	creds := StaticCredentials{Passwords: map[string]string{"alice": "secret"}}
	key, _ := creds.GetKey("alice")

	req := NewRequest(MethodBinding)
	req.Add(AttrUsername, ByteStringAttr("alice"))
	req.SetIntegrityKey(key)
	buf := req.Encode()

	got, derr := Decode(buf, creds)
	require.Nil(t, derr)
	assert.Equal(t, IntegrityValid, got.IntegrityStatus)
}

func TestMessageIntegrityUnknownUsername(t *testing.T) {
	creds := StaticCredentials{Passwords: map[string]string{"alice": "secret"}}

	req := NewRequest(MethodBinding)
	req.Add(AttrUsername, ByteStringAttr("mallory"))
	req.SetIntegrityKey([]byte("whatever"))
	buf := req.Encode()

	got, derr := Decode(buf, creds)
	require.Nil(t, derr)
	assert.Equal(t, IntegrityUnknown, got.IntegrityStatus)
}

func TestUnknownAttributePreserved(t *testing.T) {
	req := NewRequest(MethodBinding)
	const weirdType AttrType = 0x7001 // comprehension-required, not in the registry
	req.Add(weirdType, RawAttr{0xDE, 0xAD, 0xBE, 0xEF})
	buf := req.Encode()

	got, derr := Decode(buf, nil)
	require.Nil(t, derr)

	unknown := got.UnknownComprehensionRequired()
	require.Len(t, unknown, 1)
	assert.Equal(t, weirdType, unknown[0])

	reencoded := got.Encode()
	assert.Equal(t, buf, reencoded)
}

func TestShortBufferRejected(t *testing.T) {
	_, derr := Decode([]byte{0, 1, 2}, nil)
	require.NotNil(t, derr)
	assert.ErrorIs(t, derr, ErrShortBuffer)
}

func TestTransactionIDsAreUnique(t *testing.T) {
	seen := make(map[[12]byte]bool)
	for i := 0; i < 1000; i++ {
		m := NewRequest(MethodBinding)
		require.False(t, seen[m.TransactionID], "transaction id collision")
		seen[m.TransactionID] = true
	}
}

func TestEvenPortRFlagUsesHighBit(t *testing.T) {
	attr := EvenPortAttr{ReserveNextPort: true}
	encoded := attr.encode([16]byte{})
	require.Len(t, encoded, 1)
	assert.Equal(t, byte(0x80), encoded[0])
}
