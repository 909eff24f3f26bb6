package demux

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuuji/stungate"
)

func TestStunFromServerFilterMatchesOnlyConfiguredServer(t *testing.T) {
	server, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	other, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer other.Close()

	serverAddr, err := stun.AddrFromNetAddr(server.LocalAddr())
	require.NoError(t, err)

	filter := StunFromServerFilter(serverAddr)

	req := stun.NewRequest(stun.MethodBinding).Encode()

	assert.True(t, filter(req, server.LocalAddr()))
	assert.False(t, filter(req, other.LocalAddr()))
}

func TestStunFromServerFilterRejectsNonStunFromServer(t *testing.T) {
	server, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	serverAddr, err := stun.AddrFromNetAddr(server.LocalAddr())
	require.NoError(t, err)

	filter := StunFromServerFilter(serverAddr)

	assert.False(t, filter([]byte("not stun shaped"), server.LocalAddr()))
}
