// Package demux multiplexes several logical protocols off one shared
// UDP socket. STUN, TURN ChannelData, and arbitrary application
// traffic (DTLS, SRTP) routinely all need to share a single
// five-tuple; demux reads from the real socket in one place and fans
// each incoming datagram out to every VirtualSocket whose filter
// accepts it.
package demux

import (
	"errors"
	"net"
	"sync"

	"github.com/kuuji/stungate"
)

// ErrClosed is returned by ReadFrom/WriteTo once the VirtualSocket or its
// underlying Socket has been closed.
var ErrClosed = errors.New("demux: socket closed")

// Filter decides whether a datagram (its bytes and the address it
// arrived from) belongs to a particular VirtualSocket. Filters are
// consulted in registration order on every inbound datagram; per the
// fan-out algorithm, EVERY filter that accepts gets its own cloned
// copy — a datagram matching several filters is not a race, it is
// delivered to each of them.
type Filter func(buf []byte, addr net.Addr) bool

// Socket owns the real net.PacketConn and fans out each inbound
// datagram to every VirtualSocket whose Filter accepts it. A datagram
// no registered filter accepts is enqueued onto the implicit default
// queue (see Default).
type Socket struct {
	conn net.PacketConn

	// Logger, if set, receives routing and lifecycle events. May be
	// left nil.
	Logger *stun.Logger

	def *VirtualSocket

	mu      sync.Mutex
	clients []*VirtualSocket
	closed  bool
}

// NewSocket wraps conn for demultiplexing and starts its read loop.
func NewSocket(conn net.PacketConn) *Socket {
	s := &Socket{conn: conn}
	s.def = newVirtualSocket(s, nil)
	go s.readLoop()
	return s
}

func (s *Socket) logDebug(msg string, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Debug(msg, fields)
	}
}

// LocalAddr returns the underlying socket's local address.
func (s *Socket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Default returns the implicit virtual socket that receives any
// datagram no registered filter accepted.
func (s *Socket) Default() *VirtualSocket { return s.def }

// NewVirtualSocket registers a new filtered view onto this Socket.
// Filters are tried in registration order on every inbound datagram;
// a datagram is cloned to every VirtualSocket whose filter accepts it,
// so overlapping filters each see their own copy.
func (s *Socket) NewVirtualSocket(filter Filter) *VirtualSocket {
	vs := newVirtualSocket(s, filter)
	s.mu.Lock()
	// Copy-on-write: the read loop iterates its snapshot of this slice
	// without holding the lock, so the backing array is never mutated
	// in place.
	clients := make([]*VirtualSocket, len(s.clients)+1)
	copy(clients, s.clients)
	clients[len(s.clients)] = vs
	s.clients = clients
	n := len(s.clients)
	s.mu.Unlock()
	s.logDebug("registered virtual socket", map[string]interface{}{
		"component":    "stun_demux",
		"local_addr":   s.conn.LocalAddr().String(),
		"client_count": n,
	})
	return vs
}

// Close shuts down the underlying socket and every VirtualSocket
// registered on it.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clients := append([]*VirtualSocket{s.def}, s.clients...)
	s.mu.Unlock()

	for _, vs := range clients {
		vs.closeLocal()
	}
	s.logDebug("socket closed", map[string]interface{}{
		"component":  "stun_demux",
		"local_addr": s.conn.LocalAddr().String(),
	})
	return s.conn.Close()
}

func (s *Socket) readLoop() {
	buf := make([]byte, 1500)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if s.Logger != nil {
				s.Logger.LogError("demux read loop exiting", err, map[string]interface{}{
					"component":  "stun_demux",
					"local_addr": s.conn.LocalAddr().String(),
				})
			}
			return
		}
		data := buf[:n]

		s.mu.Lock()
		clients := s.clients
		s.mu.Unlock()

		matched := false
		for _, vs := range clients {
			if vs.filter(data, addr) {
				matched = true
				vs.deliver(packet{data: append([]byte(nil), data...), addr: addr})
			}
		}
		if !matched {
			s.def.deliver(packet{data: append([]byte(nil), data...), addr: addr})
		}
	}
}

func (s *Socket) removeClient(vs *VirtualSocket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c == vs {
			clients := make([]*VirtualSocket, 0, len(s.clients)-1)
			clients = append(clients, s.clients[:i]...)
			clients = append(clients, s.clients[i+1:]...)
			s.clients = clients
			return
		}
	}
}

type packet struct {
	data []byte
	addr net.Addr
}

// VirtualSocket is a filtered view onto a shared Socket: it behaves
// like an ordinary net.PacketConn for the subset of traffic its Filter
// accepts. Close only detaches this view; the underlying Socket and
// its other VirtualSockets are unaffected.
type VirtualSocket struct {
	parent *Socket
	filter Filter

	inbox chan packet
	done  chan struct{}

	// inReceive counts callers currently blocked inside ReadFrom. Close
	// signals them via done, then waits on cond until the count drains
	// to zero, so the socket is never torn down while a reader still
	// references it.
	mu        sync.Mutex
	cond      *sync.Cond
	inReceive int
	closed    bool
}

func newVirtualSocket(parent *Socket, filter Filter) *VirtualSocket {
	vs := &VirtualSocket{
		parent: parent,
		filter: filter,
		inbox:  make(chan packet, 32),
		done:   make(chan struct{}),
	}
	vs.cond = sync.NewCond(&vs.mu)
	return vs
}

func (vs *VirtualSocket) deliver(p packet) {
	select {
	case vs.inbox <- p:
	case <-vs.done:
	}
}

// ReadFrom reads the next datagram this VirtualSocket's filter claimed.
func (vs *VirtualSocket) ReadFrom(buf []byte) (int, net.Addr, error) {
	vs.mu.Lock()
	if vs.closed {
		vs.mu.Unlock()
		return 0, nil, ErrClosed
	}
	vs.inReceive++
	vs.mu.Unlock()

	defer func() {
		vs.mu.Lock()
		vs.inReceive--
		vs.cond.Broadcast()
		vs.mu.Unlock()
	}()

	select {
	case p := <-vs.inbox:
		n := copy(buf, p.data)
		return n, p.addr, nil
	case <-vs.done:
		return 0, nil, ErrClosed
	}
}

// WriteTo writes buf to addr over the shared underlying socket.
func (vs *VirtualSocket) WriteTo(buf []byte, addr net.Addr) (int, error) {
	vs.mu.Lock()
	closed := vs.closed
	vs.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	return vs.parent.conn.WriteTo(buf, addr)
}

// LocalAddr returns the shared socket's local address.
func (vs *VirtualSocket) LocalAddr() net.Addr { return vs.parent.conn.LocalAddr() }

// Close detaches this VirtualSocket from its parent Socket, unblocking
// any in-flight ReadFrom.
func (vs *VirtualSocket) Close() error {
	vs.parent.removeClient(vs)
	vs.closeLocal()
	return nil
}

func (vs *VirtualSocket) closeLocal() {
	vs.mu.Lock()
	if vs.closed {
		vs.mu.Unlock()
		return
	}
	vs.closed = true
	close(vs.done)
	// Closing done unblocks every reader; wait for them to actually
	// leave ReadFrom before reporting the socket closed.
	for vs.inReceive > 0 {
		vs.cond.Wait()
	}
	vs.mu.Unlock()
}
