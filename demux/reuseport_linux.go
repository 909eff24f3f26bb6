//go:build linux

package demux

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reusePortControl is a net.ListenConfig.Control function that sets
// SO_REUSEPORT on the listening socket, letting several processes (or
// goroutines, each with its own Socket) bind the same STUN/TURN port —
// useful for a load-balanced relay fleet sharing one listening address.
func reusePortControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
