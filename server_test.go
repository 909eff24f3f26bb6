package stun

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBindingRoundTrip exercises the Binding flow end to end: a Client
// dialing a live Server gets back a Binding Success Response whose
// XOR-MAPPED-ADDRESS reflects the client's own source address, within
// 200ms.
func TestBindingRoundTrip(t *testing.T) {
	srv := NewServer(ServerConfig{
		Addr:    "127.0.0.1",
		Port:    "0",
		Logger:  NewDefaultLogger(),
		Timeout: time.Second,
	})

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer conn.Close()

	go func() {
		for {
			srv.HandleUDPConn(conn)
		}
	}()

	client := NewClient(conn.LocalAddr().String())

	req := NewRequest(MethodBinding)

	done := make(chan *Message, 1)
	errc := make(chan error, 1)
	go func() {
		resp, err := client.Dial(req)
		if err != nil {
			errc <- err
			return
		}
		done <- resp
	}()

	select {
	case resp := <-done:
		assert.Equal(t, ClassSuccessResponse, resp.Class())
		assert.Equal(t, req.TransactionID, resp.TransactionID)

		a, ok := resp.Get(AttrXorMappedAddress)
		require.True(t, ok, "response must carry XOR-MAPPED-ADDRESS")
		xa := a.Value.(XorAddressAttr)
		assert.True(t, xa.IP.Equal(net.ParseIP("127.0.0.1")))
		assert.NotZero(t, xa.Port)
	case err := <-errc:
		t.Fatalf("client dial failed: %v", err)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("transaction did not terminate within 200ms")
	}
}

// TestServerIgnoresFingerprintTamper checks that a Binding Request
// with a tampered byte before FINGERPRINT fails decoding with a
// FINGERPRINT IntegrityError, the decode failure on which
// Server.HandleUDPConn drops the datagram without answering it.
func TestServerIgnoresFingerprintTamper(t *testing.T) {
	req := NewRequest(MethodBinding)
	req.AddFingerprint()
	buf := req.Encode()

	// Flip the first magic-cookie byte, which precedes FINGERPRINT.
	buf[4] ^= 0xFF

	_, derr := Decode(buf, nil)
	require.NotNil(t, derr)
	ierr, ok := derr.Err.(*IntegrityError)
	require.True(t, ok, "expected an IntegrityError, got %v (%T)", derr.Err, derr.Err)
	assert.Equal(t, IntegrityFingerprint, ierr.Kind)
}
