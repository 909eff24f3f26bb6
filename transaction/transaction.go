// Package transaction implements the STUN client and server transaction
// state machines described in RFC 5389 section 7: client-side
// retransmission with exponential backoff, and server-side caching that
// absorbs a client's retransmissions of a request it already answered.
package transaction

import (
	"errors"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/kuuji/stungate"
)

// Config tunes the timers both transaction kinds use. The zero value is
// not usable; call DefaultConfig for the standard schedule.
type Config struct {
	// FirstRetransAfter is RTO, the interval before the first
	// retransmission of a client request.
	FirstRetransAfter time.Duration
	// MaxRetransTimer caps the exponential backoff between retransmits.
	MaxRetransTimer time.Duration
	// MaxRetransCount is how many times a request is retransmitted
	// before the transaction fails with a timeout; the initial send is
	// not counted.
	MaxRetransCount int
	// TransactionLifetime bounds how long a server transaction's cached
	// response is kept after being Responded, to absorb a client's
	// retransmission of a request it already has an answer for. Only
	// consulted when KeepCachedAfterResponse is true.
	TransactionLifetime time.Duration
	// PropagateReceivedRetransmissions, when true, re-delivers a
	// request to the listener every time it is retransmitted rather
	// than only on first receipt. Most servers want this false.
	PropagateReceivedRetransmissions bool
	// KeepCachedAfterResponse, when true, keeps a server transaction's
	// cached response alive for TransactionLifetime after it is sent,
	// so a retransmitted request is answered from cache. When false
	// (the default), the cache entry is discarded the instant the
	// response is sent; a later retransmission then cache-misses,
	// recreating the entry and redelivering to the request listener.
	KeepCachedAfterResponse bool
	// Logger, if set, receives retransmission and failure events via
	// LogRetransmit/LogTransactionFailure. May be left nil.
	Logger *stun.Logger
}

// DefaultConfig returns the retransmission schedule this package's
// exponential-backoff timer is built around: a 100ms first retransmit,
// doubling up to a 1600ms cap, six retransmissions after the initial
// send (seven sends total before giving up), and a 16s server-side
// cache quiescence for when KeepCachedAfterResponse is enabled.
func DefaultConfig() Config {
	return Config{
		FirstRetransAfter:   100 * time.Millisecond,
		MaxRetransTimer:     1600 * time.Millisecond,
		MaxRetransCount:     6,
		TransactionLifetime: 16 * time.Second,
	}
}

// Sender is the minimal transport a transaction needs: write a message
// to a remote address.
type Sender interface {
	WriteTo(buf []byte, addr net.Addr) (int, error)
}

// ClientState is the state of a ClientTransaction.
type ClientState int

const (
	ClientWaiting ClientState = iota
	ClientTerminated
)

// ClientTransaction drives one outstanding request: it retransmits on
// an exponential-backoff schedule until either a response arrives (via
// Deliver) or MaxRetransCount is exceeded. Exactly one of onResponse or
// onFailure fires per transaction, on its own goroutine, never from
// under the transaction's lock; Cancel suppresses both.
type ClientTransaction struct {
	cfg    Config
	sender Sender
	dest   net.Addr
	req    *stun.Message

	onResponse func(resp *stun.Message)
	onFailure  func(kind stun.ErrorKind)

	// onTerminate runs synchronously on every path out of ClientWaiting
	// (response, failure, cancel), before any user callback. The Manager
	// hooks it to drop the transaction from its correlation map.
	onTerminate func()

	mu      sync.Mutex
	state   ClientState
	timer   *time.Timer
	attempt int
}

// NewClientTransaction sends req to dest over sender and starts the
// retransmission schedule. req must already have its transaction id and
// any integrity/fingerprint attributes set. Either callback may be nil.
func NewClientTransaction(cfg Config, sender Sender, dest net.Addr, req *stun.Message,
	onResponse func(*stun.Message), onFailure func(stun.ErrorKind)) *ClientTransaction {
	t := newClientTransaction(cfg, sender, dest, req, onResponse, onFailure)
	t.start()
	return t
}

func newClientTransaction(cfg Config, sender Sender, dest net.Addr, req *stun.Message,
	onResponse func(*stun.Message), onFailure func(stun.ErrorKind)) *ClientTransaction {
	return &ClientTransaction{
		cfg:        cfg,
		sender:     sender,
		dest:       dest,
		req:        req,
		onResponse: onResponse,
		onFailure:  onFailure,
		state:      ClientWaiting,
	}
}

// start performs the initial send. A send that fails immediately
// terminates the transaction with a failure event rather than waiting
// out the full retransmission schedule against a dead transport.
func (t *ClientTransaction) start() {
	if err := t.send(); err != nil {
		t.fail(failureKind(err))
		return
	}
	t.scheduleNext()
}

func (t *ClientTransaction) send() error {
	_, err := t.sender.WriteTo(t.req.Encode(), t.dest)
	return err
}

// failureKind maps a transport write error onto the failure taxonomy:
// ICMP-style rejections surface as Unreachable, everything else as a
// generic I/O error.
func failureKind(err error) stun.ErrorKind {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return stun.KindUnreachable
	}
	return stun.KindIoError
}

func (t *ClientTransaction) rto() time.Duration {
	rto := t.cfg.FirstRetransAfter << uint(t.attempt)
	if rto > t.cfg.MaxRetransTimer || rto <= 0 {
		rto = t.cfg.MaxRetransTimer
	}
	return rto
}

func (t *ClientTransaction) scheduleNext() {
	t.mu.Lock()
	if t.state != ClientWaiting {
		t.mu.Unlock()
		return
	}
	d := t.rto()
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.state != ClientWaiting {
			t.mu.Unlock()
			return
		}
		t.attempt++
		if t.attempt > t.cfg.MaxRetransCount {
			t.mu.Unlock()
			t.fail(stun.KindTimeout)
			return
		}
		if t.cfg.Logger != nil {
			t.cfg.Logger.LogRetransmit(t.req.TransactionID, t.attempt, d)
		}
		t.mu.Unlock()
		if err := t.send(); err != nil {
			t.fail(failureKind(err))
			return
		}
		t.scheduleNext()
	})
	t.mu.Unlock()
}

// terminate moves the transaction out of ClientWaiting, stopping any
// pending timer and running the onTerminate hook. It reports false if
// the transaction had already terminated.
func (t *ClientTransaction) terminate() bool {
	t.mu.Lock()
	if t.state != ClientWaiting {
		t.mu.Unlock()
		return false
	}
	t.state = ClientTerminated
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	if t.onTerminate != nil {
		t.onTerminate()
	}
	return true
}

func (t *ClientTransaction) fail(kind stun.ErrorKind) {
	if !t.terminate() {
		return
	}
	if t.cfg.Logger != nil {
		t.cfg.Logger.LogTransactionFailure(t.req.TransactionID, kind)
	}
	if t.onFailure != nil {
		go t.onFailure(kind)
	}
}

// Deliver feeds a matching response to the transaction, terminating it.
// Responses for a terminated transaction (a late duplicate) are
// ignored, matching RFC 5389's "silently discard" guidance for a
// response with no matching outstanding transaction.
func (t *ClientTransaction) Deliver(resp *stun.Message) {
	if !t.terminate() {
		return
	}
	if t.onResponse != nil {
		go t.onResponse(resp)
	}
}

// Cancel terminates the transaction without delivering a response or
// failure callback (e.g. the caller gave up waiting). Best-effort: a
// callback already in flight is allowed to finish.
func (t *ClientTransaction) Cancel() {
	t.terminate()
}

// State reports the transaction's current state.
func (t *ClientTransaction) State() ClientState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
