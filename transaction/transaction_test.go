package transaction

import (
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuuji/stungate"
)

type fakeSender struct {
	mu    sync.Mutex
	sends int
	err   error
}

func (f *fakeSender) WriteTo(buf []byte, addr net.Addr) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.err != nil {
		return 0, f.err
	}
	return len(buf), nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

type fakeAddr struct{ s string }

func (a fakeAddr) Network() string { return "udp" }
func (a fakeAddr) String() string  { return a.s }

func TestClientTransactionDeliversResponse(t *testing.T) {
	sender := &fakeSender{}
	req := stun.NewRequest(stun.MethodBinding)

	done := make(chan *stun.Message, 1)
	ct := NewClientTransaction(DefaultConfig(), sender, fakeAddr{"peer:3478"}, req,
		func(resp *stun.Message) { done <- resp }, nil)

	resp := stun.NewSuccessResponse(req)
	ct.Deliver(resp)

	select {
	case got := <-done:
		assert.Equal(t, req.TransactionID, got.TransactionID)
	case <-time.After(time.Second):
		t.Fatal("response not delivered")
	}
	assert.Equal(t, ClientTerminated, ct.State())
	assert.Equal(t, 1, sender.count())
}

func TestClientTransactionTimesOutAfterMaxRetrans(t *testing.T) {
	sender := &fakeSender{}
	req := stun.NewRequest(stun.MethodBinding)

	cfg := Config{
		FirstRetransAfter: 5 * time.Millisecond,
		MaxRetransTimer:   20 * time.Millisecond,
		MaxRetransCount:   2,
	}

	failed := make(chan stun.ErrorKind, 1)
	ct := NewClientTransaction(cfg, sender, fakeAddr{"peer:3478"}, req,
		nil, func(kind stun.ErrorKind) { failed <- kind })

	select {
	case kind := <-failed:
		assert.Equal(t, stun.KindTimeout, kind)
	case <-time.After(time.Second):
		t.Fatal("transaction did not time out")
	}
	assert.Equal(t, ClientTerminated, ct.State())
	assert.GreaterOrEqual(t, sender.count(), 3) // initial send + 2 retransmits
}

func TestClientTransactionFailsOnSendError(t *testing.T) {
	sender := &fakeSender{err: syscall.ECONNREFUSED}
	req := stun.NewRequest(stun.MethodBinding)

	failed := make(chan stun.ErrorKind, 1)
	ct := NewClientTransaction(DefaultConfig(), sender, fakeAddr{"peer:3478"}, req,
		nil, func(kind stun.ErrorKind) { failed <- kind })

	select {
	case kind := <-failed:
		assert.Equal(t, stun.KindUnreachable, kind)
	case <-time.After(time.Second):
		t.Fatal("send failure not delivered")
	}
	assert.Equal(t, ClientTerminated, ct.State())
}

func TestClientTransactionCancelSuppressesEvents(t *testing.T) {
	sender := &fakeSender{}
	req := stun.NewRequest(stun.MethodBinding)

	cfg := Config{
		FirstRetransAfter: 5 * time.Millisecond,
		MaxRetransTimer:   10 * time.Millisecond,
		MaxRetransCount:   1,
	}

	events := make(chan string, 2)
	ct := NewClientTransaction(cfg, sender, fakeAddr{"peer:3478"}, req,
		func(*stun.Message) { events <- "response" },
		func(stun.ErrorKind) { events <- "failure" })

	ct.Cancel()
	assert.Equal(t, ClientTerminated, ct.State())

	// Even after the full schedule would have elapsed, neither callback
	// may fire.
	select {
	case ev := <-events:
		t.Fatalf("cancelled transaction delivered %q", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManagerCachesServerResponse(t *testing.T) {
	sender := &fakeSender{}
	var received int
	cfg := DefaultConfig()
	cfg.KeepCachedAfterResponse = true
	mgr := NewManager(cfg, sender, func(remote net.Addr, req *stun.Message) {
		received++
	})

	remote := fakeAddr{"client:4000"}
	req := stun.NewRequest(stun.MethodBinding)

	mgr.HandlePacket(remote, req)
	require.Equal(t, 1, received)

	resp := stun.NewSuccessResponse(req)
	require.NoError(t, mgr.Respond(remote, req, resp))
	assert.Equal(t, 1, sender.count())

	// A retransmission of the same request should be answered from
	// cache, not re-invoke application logic.
	mgr.HandlePacket(remote, req)
	assert.Equal(t, 1, received)
	assert.Equal(t, 2, sender.count())
}

func TestManagerWithoutKeepCachedRedeliversAfterResponse(t *testing.T) {
	sender := &fakeSender{}
	var received int
	mgr := NewManager(DefaultConfig(), sender, func(remote net.Addr, req *stun.Message) {
		received++
	})

	remote := fakeAddr{"client:4001"}
	req := stun.NewRequest(stun.MethodBinding)

	mgr.HandlePacket(remote, req)
	require.Equal(t, 1, received)

	resp := stun.NewSuccessResponse(req)
	require.NoError(t, mgr.Respond(remote, req, resp))

	// KeepCachedAfterResponse defaults to false: the cache entry was
	// discarded the instant the response went out, so a retransmission
	// cache-misses and is redelivered to the request listener instead
	// of being answered from a (now-gone) cache.
	mgr.HandlePacket(remote, req)
	assert.Equal(t, 2, received)
}

func TestManagerAbsorbsRetransmissionsBeforeResponse(t *testing.T) {
	sender := &fakeSender{}
	var received int
	mgr := NewManager(DefaultConfig(), sender, func(remote net.Addr, req *stun.Message) {
		received++
	})

	remote := fakeAddr{"client:4002"}
	req := stun.NewRequest(stun.MethodBinding)

	mgr.HandlePacket(remote, req)
	mgr.HandlePacket(remote, req)
	mgr.HandlePacket(remote, req)

	// PropagateReceivedRetransmissions defaults to false: while the
	// transaction is still AwaitingResponse, retransmissions are
	// absorbed rather than redelivered.
	assert.Equal(t, 1, received)
}

func TestManagerPropagatesRetransmissionsWhenConfigured(t *testing.T) {
	sender := &fakeSender{}
	var received int
	cfg := DefaultConfig()
	cfg.PropagateReceivedRetransmissions = true
	mgr := NewManager(cfg, sender, func(remote net.Addr, req *stun.Message) {
		received++
	})

	remote := fakeAddr{"client:4003"}
	req := stun.NewRequest(stun.MethodBinding)

	mgr.HandlePacket(remote, req)
	mgr.HandlePacket(remote, req)
	mgr.HandlePacket(remote, req)

	assert.Equal(t, 3, received)
}

func TestManagerCancelRemovesClientFromCorrelationMap(t *testing.T) {
	sender := &fakeSender{}
	mgr := NewManager(DefaultConfig(), sender, nil)

	req := stun.NewRequest(stun.MethodBinding)
	delivered := make(chan struct{}, 1)
	ct := mgr.StartClient(fakeAddr{"peer:3478"}, req,
		func(*stun.Message) { delivered <- struct{}{} }, nil)
	ct.Cancel()

	mgr.mu.Lock()
	_, stillMapped := mgr.clients[req.TransactionID]
	mgr.mu.Unlock()
	assert.False(t, stillMapped)

	// The response arrives after cancellation; with the transaction
	// gone from the map it must be dropped silently.
	mgr.HandlePacket(fakeAddr{"peer:3478"}, stun.NewSuccessResponse(req))
	select {
	case <-delivered:
		t.Fatal("cancelled transaction received a response")
	case <-time.After(50 * time.Millisecond):
	}
}
