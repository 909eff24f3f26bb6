package stun

import (
	"fmt"
	"net"
)

// Packet pairs a decoded Message with the local and remote transport
// addresses it arrived on; Server uses it to decode a request and
// write the reply.
type Packet struct {
	Conn    *net.UDPConn
	Local   Addr
	Remote  Addr
	Message *Message
}

// NewPacket decodes buff (a single datagram read from con) into a
// Packet. creds may be nil; see Decode.
func NewPacket(con *net.UDPConn, buff []byte, remoteAddr *net.UDPAddr, creds Credentials) (*Packet, error) {
	msg, derr := Decode(buff, creds)
	if derr != nil {
		return nil, derr
	}

	localAddr := con.LocalAddr()
	if localAddr == nil {
		return nil, fmt.Errorf("stun: connection has no local address")
	}
	local, err := AddrFromNetAddr(localAddr)
	if err != nil {
		return nil, fmt.Errorf("stun: local address: %w", err)
	}

	if remoteAddr == nil {
		return nil, fmt.Errorf("stun: missing remote address")
	}
	remote, err := AddrFromNetAddr(remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("stun: remote address: %w", err)
	}

	return &Packet{
		Conn:    con,
		Local:   local,
		Remote:  remote,
		Message: msg,
	}, nil
}

// WriteMessage encodes msg and writes it to remoteAddr over the
// packet's connection, erroring if the write is short.
func (p *Packet) WriteMessage(msg *Message, remoteAddr *net.UDPAddr) (int, error) {
	buf := msg.Encode()
	n, err := p.Conn.WriteTo(buf, remoteAddr)
	if err != nil {
		return n, err
	}
	if n < len(buf) {
		return n, ErrShortWrite
	}
	return n, nil
}
