package demux

import (
	"context"
	"net"

	"github.com/kuuji/stungate"
)

// Options configures how Listen binds the shared socket.
type Options struct {
	// ReusePort sets SO_REUSEPORT (Linux only; a no-op elsewhere) so
	// multiple processes can share one listening UDP port.
	ReusePort bool
	// Logger, if set, is attached to the returned Socket. May be left
	// nil.
	Logger *stun.Logger
}

// Listen binds a UDP socket at addr and wraps it in a demultiplexing
// Socket.
func Listen(addr string, opts Options) (*Socket, error) {
	lc := net.ListenConfig{}
	if opts.ReusePort {
		lc.Control = reusePortControl
	}
	conn, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, err
	}
	sock := NewSocket(conn)
	sock.Logger = opts.Logger
	sock.logDebug("demux socket listening", map[string]interface{}{
		"component":  "stun_demux",
		"local_addr": conn.LocalAddr().String(),
		"reuseport":  opts.ReusePort,
	})
	return sock, nil
}
