package transaction

import (
	"net"
	"sync"
	"time"

	"github.com/kuuji/stungate"
)

// ServerState is the state of a ServerTransaction.
type ServerState int

const (
	ServerAwaitingResponse ServerState = iota
	ServerResponded
	ServerExpired
)

// serverKey identifies a server transaction by the tuple RFC 5389
// scopes retransmission matching to: the transaction id plus the
// client's transport address, so two different clients colliding on a
// transaction id (astronomically unlikely, but not impossible with a
// misbehaving peer) never merge into one transaction.
type serverKey struct {
	id     [12]byte
	remote string
}

// ServerTransaction tracks one client request on the server side, so a
// retransmission of that exact request can be answered from cache
// instead of re-running application logic.
type ServerTransaction struct {
	key   serverKey
	state ServerState
	resp  []byte
	timer *time.Timer
}

// Manager dispatches incoming datagrams to the matching client or
// server transaction, creating server transactions for new requests
// and caching their eventual response.
type Manager struct {
	cfg    Config
	sender Sender

	mu       sync.Mutex
	clients  map[[12]byte]*ClientTransaction
	servers  map[serverKey]*ServerTransaction
	onNewReq func(remote net.Addr, req *stun.Message)
}

// NewManager creates a Manager. onNewRequest is invoked for a request
// with no existing server transaction; the caller is expected to
// eventually call Respond with the answer.
func NewManager(cfg Config, sender Sender, onNewRequest func(remote net.Addr, req *stun.Message)) *Manager {
	return &Manager{
		cfg:      cfg,
		sender:   sender,
		clients:  make(map[[12]byte]*ClientTransaction),
		servers:  make(map[serverKey]*ServerTransaction),
		onNewReq: onNewRequest,
	}
}

// StartClient begins a new client transaction and registers it so a
// matching inbound response is routed to it by HandlePacket. The
// transaction removes itself from the correlation map on every way out
// of the Waiting state, including Cancel.
func (m *Manager) StartClient(dest net.Addr, req *stun.Message, onResponse func(*stun.Message), onFailure func(stun.ErrorKind)) *ClientTransaction {
	t := newClientTransaction(m.cfg, m.sender, dest, req, onResponse, onFailure)
	t.onTerminate = func() {
		m.mu.Lock()
		delete(m.clients, req.TransactionID)
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.clients[req.TransactionID] = t
	m.mu.Unlock()

	t.start()
	return t
}

// HandlePacket routes one decoded inbound message: a response is
// delivered to its waiting ClientTransaction (and silently dropped if
// none matches, per RFC 5389); a request is answered from cache if a
// ServerTransaction already has a response, absorbed if one is still
// awaiting a response (or redelivered, when
// PropagateReceivedRetransmissions is set), and otherwise handed to
// onNewRequest.
func (m *Manager) HandlePacket(remote net.Addr, msg *stun.Message) {
	switch msg.Type.Class {
	case stun.ClassSuccessResponse, stun.ClassErrorResponse:
		m.mu.Lock()
		ct, ok := m.clients[msg.TransactionID]
		m.mu.Unlock()
		if ok {
			ct.Deliver(msg)
		}

	case stun.ClassRequest:
		key := serverKey{id: msg.TransactionID, remote: remote.String()}
		m.mu.Lock()
		st, exists := m.servers[key]
		if !exists {
			m.servers[key] = &ServerTransaction{key: key, state: ServerAwaitingResponse}
			m.mu.Unlock()
			if m.onNewReq != nil {
				m.onNewReq(remote, msg)
			}
			return
		}
		state := st.state
		resp := st.resp
		m.mu.Unlock()

		if state == ServerResponded {
			// A retransmission of a request that already has an answer
			// is never redelivered, regardless of the propagate flag:
			// the cached bytes are replayed verbatim.
			if m.cfg.Logger != nil {
				m.cfg.Logger.Debug("replaying cached response to retransmitted request", map[string]interface{}{
					"remote_addr":    remote.String(),
					"transaction_id": msg.TransactionID,
					"component":      "stun_transaction",
				})
			}
			_, _ = m.sender.WriteTo(resp, remote)
			return
		}

		if !m.cfg.PropagateReceivedRetransmissions {
			if m.cfg.Logger != nil {
				m.cfg.Logger.Debug("absorbing retransmitted request", map[string]interface{}{
					"remote_addr":    remote.String(),
					"transaction_id": msg.TransactionID,
					"component":      "stun_transaction",
				})
			}
			return
		}
		if m.onNewReq != nil {
			m.onNewReq(remote, msg)
		}

	case stun.ClassIndication:
		if m.onNewReq != nil {
			m.onNewReq(remote, msg)
		}
	}
}

// Respond records resp as the answer to req's server transaction and
// sends it. When Config.KeepCachedAfterResponse is true, the cache
// entry survives for Config.TransactionLifetime so a retransmission of
// req arriving before expiry gets resp replayed from cache rather than
// re-invoking application logic; when false (the default) the entry is
// discarded immediately, so a later retransmission cache-misses and is
// redelivered to onNewRequest instead.
func (m *Manager) Respond(remote net.Addr, req *stun.Message, resp *stun.Message) error {
	key := serverKey{id: req.TransactionID, remote: remote.String()}
	buf := resp.Encode()

	m.mu.Lock()
	if !m.cfg.KeepCachedAfterResponse {
		delete(m.servers, key)
		m.mu.Unlock()
		_, err := m.sender.WriteTo(buf, remote)
		return err
	}

	st, ok := m.servers[key]
	if !ok {
		st = &ServerTransaction{key: key}
		m.servers[key] = st
	}
	st.state = ServerResponded
	st.resp = buf
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = time.AfterFunc(m.cfg.TransactionLifetime, func() {
		m.mu.Lock()
		st.state = ServerExpired
		delete(m.servers, key)
		m.mu.Unlock()
	})
	m.mu.Unlock()

	_, err := m.sender.WriteTo(buf, remote)
	return err
}
