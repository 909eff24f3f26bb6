//go:build !linux

package demux

import "syscall"

// reusePortControl is a no-op on platforms where SO_REUSEPORT isn't a
// portable concept in golang.org/x/sys/unix's shared surface.
func reusePortControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
