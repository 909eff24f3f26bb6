package stun

import (
	"fmt"
	"net"
)

// GetPortFromAddr extracts the port number from a net.Addr, supporting
// the address types net.DialUDP/net.ListenUDP hand back.
func GetPortFromAddr(addr net.Addr) (int, error) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.Port, nil
	case *net.UDPAddr:
		return a.Port, nil
	case *net.UnixAddr:
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported address type: %T", addr)
	}
}

// GetPortAndIPFromAddr extracts both port and IP from a net.Addr.
func GetPortAndIPFromAddr(addr net.Addr) (int, net.IP, error) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.Port, a.IP, nil
	case *net.UDPAddr:
		return a.Port, a.IP, nil
	case *net.UnixAddr:
		return 0, nil, nil
	default:
		return 0, nil, fmt.Errorf("unsupported address type: %T", addr)
	}
}
