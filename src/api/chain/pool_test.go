package chain

import (
	"testing"
	"time"
)

func TestPoolIdleTeardownClosesClient(t *testing.T) {
	p := NewPool("ws://unreachable.example", 5*time.Millisecond)

	closed := make(chan struct{})
	p.mu.Lock()
	p.conn = &Conn{closeFn: func() { close(closed) }}
	p.refs = 1
	p.mu.Unlock()

	p.Release()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("idle teardown never closed the underlying client")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		t.Error("idle teardown must drop the connection")
	}
}

func TestPoolCloseClosesClient(t *testing.T) {
	p := NewPool("ws://unreachable.example", time.Minute)

	closed := false
	p.mu.Lock()
	p.conn = &Conn{closeFn: func() { closed = true }}
	p.mu.Unlock()

	p.Close()
	if !closed {
		t.Error("Close must close the underlying client")
	}
}

func TestPoolAcquireWhileHeldSkipsTeardown(t *testing.T) {
	p := NewPool("ws://unreachable.example", 5*time.Millisecond)

	closed := false
	p.mu.Lock()
	p.conn = &Conn{closeFn: func() { closed = true }}
	p.refs = 2
	p.mu.Unlock()

	// One of two holders releases; the survivor keeps the connection alive.
	p.Release()
	time.Sleep(50 * time.Millisecond)

	p.mu.Lock()
	defer p.mu.Unlock()
	if closed || p.conn == nil {
		t.Error("connection must survive while a holder remains")
	}
}
