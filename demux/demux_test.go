package demux

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuuji/stungate"
)

func TestVirtualSocketsRouteByFilter(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	sock := NewSocket(conn)
	defer sock.Close()

	stunSocket := sock.NewVirtualSocket(StunFilter)

	peer, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer peer.Close()

	req := stun.NewRequest(stun.MethodBinding)
	_, err = peer.WriteTo(req.Encode(), sock.LocalAddr())
	require.NoError(t, err)

	app := []byte("not a stun message, just app data")
	_, err = peer.WriteTo(app, sock.LocalAddr())
	require.NoError(t, err)

	buf := make([]byte, 1500)
	n, _, err := stunSocket.ReadFrom(buf)
	require.NoError(t, err)
	assert.True(t, stun.IsMessage(buf[:n]))

	// Nothing registered a filter for the app datagram, so it falls
	// through to the implicit default queue.
	n, _, err = sock.Default().ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, app, buf[:n])
}

func TestOverlappingFiltersEachGetAClone(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	sock := NewSocket(conn)
	defer sock.Close()

	// Two registered filters that both accept every STUN-shaped
	// datagram: per the fan-out algorithm this is not a race, each
	// VirtualSocket gets its own cloned copy of the same datagram.
	first := sock.NewVirtualSocket(StunFilter)
	second := sock.NewVirtualSocket(StunFilter)

	peer, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer peer.Close()

	req := stun.NewRequest(stun.MethodBinding)
	_, err = peer.WriteTo(req.Encode(), sock.LocalAddr())
	require.NoError(t, err)

	buf1 := make([]byte, 1500)
	buf2 := make([]byte, 1500)
	n1, _, err := first.ReadFrom(buf1)
	require.NoError(t, err)
	n2, _, err := second.ReadFrom(buf2)
	require.NoError(t, err)
	assert.Equal(t, buf1[:n1], buf2[:n2])
}

func TestCloseUnblocksReadFrom(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	sock := NewSocket(conn)
	vs := sock.NewVirtualSocket(CatchAll)

	errc := make(chan error, 1)
	go func() {
		_, _, err := vs.ReadFrom(make([]byte, 64))
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, vs.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("ReadFrom did not unblock on Close")
	}
	sock.Close()
}
