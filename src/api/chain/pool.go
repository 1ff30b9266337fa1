// Package chain owns substrate RPC connections. Callers acquire a handle
// from a Pool instead of reaching for an ambient API singleton; idle
// connections are torn down after a timeout.
package chain

import (
	"fmt"
	"log"
	"sync"
	"time"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	gsrpctypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Conn is a live substrate RPC connection.
type Conn struct {
	api     *gsrpc.SubstrateAPI
	closeFn func()
}

// Pool hands out a shared connection on demand. The connection is opened on
// first Acquire and closed after the pool has been idle for idleTimeout.
type Pool struct {
	url         string
	idleTimeout time.Duration

	mu        sync.Mutex
	conn      *Conn
	refs      int
	idleTimer *time.Timer
}

func NewPool(url string, idleTimeout time.Duration) *Pool {
	if idleTimeout <= 0 {
		idleTimeout = 60 * time.Second
	}
	return &Pool{url: url, idleTimeout: idleTimeout}
}

// Acquire returns a connected handle, dialing if necessary. Every Acquire
// must be paired with a Release.
func (p *Pool) Acquire() (*Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}

	if p.conn == nil {
		api, err := gsrpc.NewSubstrateAPI(p.url)
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", p.url, err)
		}
		p.conn = &Conn{api: api, closeFn: func() {
			if cl, ok := api.Client.(interface{ Close() }); ok {
				cl.Close()
			}
		}}
		log.Printf("chain: connected to %s", p.url)
	}

	p.refs++
	return p.conn, nil
}

// Release returns the handle. When no handles remain, an idle timer is armed
// that drops the connection.
func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.refs > 0 {
		p.refs--
	}
	if p.refs > 0 || p.conn == nil {
		return
	}

	p.idleTimer = time.AfterFunc(p.idleTimeout, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.refs == 0 && p.conn != nil {
			log.Printf("chain: closing idle connection to %s", p.url)
			p.dropLocked()
		}
	})
}

// Close drops the connection immediately.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}
	p.dropLocked()
	p.refs = 0
}

// dropLocked closes the underlying websocket client before releasing the
// reference; the client keeps dispatch goroutines alive until closed.
func (p *Pool) dropLocked() {
	if p.conn == nil {
		return
	}
	if p.conn.closeFn != nil {
		p.conn.closeFn()
	}
	p.conn = nil
}

// FreeBalance reads System.Account for the given 32-byte account id and
// returns the free balance in smallest units as a decimal string.
func (c *Conn) FreeBalance(accountID []byte) (string, error) {
	if len(accountID) != 32 {
		return "", fmt.Errorf("account id must be 32 bytes, got %d", len(accountID))
	}

	key := gsrpctypes.NewStorageKey(SystemAccountKey(accountID))

	var info gsrpctypes.AccountInfo
	ok, err := c.api.RPC.State.GetStorageLatest(key, &info)
	if err != nil {
		return "", fmt.Errorf("get storage: %w", err)
	}
	if !ok {
		return "0", nil
	}
	return info.Data.Free.Int.String(), nil
}
