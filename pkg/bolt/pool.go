package bolt

import (
	"context"
	"log"
	"sync"
	"time"
)

// PoolConfig tunes a Pool. Zero value is not usable; use
// DefaultPoolConfig.
type PoolConfig struct {
	MaxSize     int
	IdleTimeout time.Duration
	PingEvery   time.Duration
	Breaker     BreakerConfig
}

// DefaultPoolConfig matches the teacher's connection-pool-adjacent
// defaults in pkg/replication (bounded size, periodic idle check):
// 10 connections, evict after 5 minutes idle, ping every 30s.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxSize:     10,
		IdleTimeout: 5 * time.Minute,
		PingEvery:   30 * time.Second,
		Breaker:     DefaultBreakerConfig(),
	}
}

type pooledConn struct {
	conn     *Connection
	returned time.Time
}

// Pool is a bounded free list of Connections to one server address,
// guarded by a CircuitBreaker. It does not itself retry — callers
// combine Pool.Checkout with WithRetry when they want retried
// connect attempts.
//
// Grounded in the teacher's pkg/replication connection pooling
// pattern: a mutex-guarded slice free list plus a background ticker
// that evicts/pings idle entries, adapted here to health-check with
// Bolt's own RESET instead of the teacher's custom ping RPC.
type Pool struct {
	cfg     PoolConfig
	connCfg ConnConfig
	breaker *CircuitBreaker

	mu     sync.Mutex
	free   []*pooledConn
	size   int
	closed bool

	stopTicker chan struct{}
}

// NewPool constructs a Pool dialing connCfg.Address on demand, up to
// cfg.MaxSize concurrently checked-out connections.
func NewPool(connCfg ConnConfig, cfg PoolConfig) *Pool {
	if cfg.MaxSize <= 0 {
		cfg = DefaultPoolConfig()
	}
	p := &Pool{
		cfg:        cfg,
		connCfg:    connCfg,
		breaker:    NewCircuitBreaker(cfg.Breaker),
		stopTicker: make(chan struct{}),
	}
	go p.idleLoop()
	return p
}

func (p *Pool) idleLoop() {
	ticker := time.NewTicker(p.cfg.PingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.sweepIdle()
		case <-p.stopTicker:
			return
		}
	}
}

func (p *Pool) sweepIdle() {
	// Take the whole free list so no caller can check out a connection
	// mid-ping; healthy entries go back afterwards.
	p.mu.Lock()
	taken := p.free
	p.free = nil
	now := time.Now()
	p.mu.Unlock()

	var healthy []*pooledConn
	for _, pc := range taken {
		if now.Sub(pc.returned) >= p.cfg.IdleTimeout {
			pc.conn.Close()
			p.mu.Lock()
			p.size--
			p.mu.Unlock()
			continue
		}
		if err := pc.conn.Ping(); err != nil {
			log.Printf("[bolt] pool evicting unhealthy connection %s: %v", pc.conn.ID(), err)
			pc.conn.Close()
			p.mu.Lock()
			p.size--
			p.mu.Unlock()
			continue
		}
		healthy = append(healthy, pc)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		for _, pc := range healthy {
			pc.conn.Close()
		}
		return
	}
	p.free = append(p.free, healthy...)
	p.mu.Unlock()
}

// Checkout returns a ready Connection, reusing one from the free list
// if available, else dialing a new one (subject to MaxSize and the
// breaker). The caller must Checkin when done; Checkin drops a
// connection that is Defunct (for example after Close) instead of
// reusing it.
func (p *Pool) Checkout(ctx context.Context) (*Connection, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	if n := len(p.free); n > 0 {
		pc := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return pc.conn, nil
	}
	if p.size >= p.cfg.MaxSize {
		p.mu.Unlock()
		return nil, newErr(ErrKindConnection, "pool exhausted (max %d)", p.cfg.MaxSize)
	}
	p.size++
	p.mu.Unlock()

	if !p.breaker.Allow() {
		p.mu.Lock()
		p.size--
		p.mu.Unlock()
		return nil, newErr(ErrKindConnection, "circuit breaker open for %s", p.connCfg.Address)
	}
	conn, err := Connect(ctx, p.connCfg)
	if err != nil {
		p.breaker.RecordFailure()
		p.mu.Lock()
		p.size--
		p.mu.Unlock()
		return nil, err
	}
	p.breaker.RecordSuccess()
	return conn, nil
}

// Checkin resets conn and returns it to the free list. A connection
// that fails to reset (defunct) is dropped instead.
func (p *Pool) Checkin(conn *Connection) {
	if conn.State() == StateDefunct {
		p.drop(conn)
		return
	}
	if err := conn.Reset(); err != nil {
		p.drop(conn)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		conn.Close()
		p.size--
		return
	}
	p.free = append(p.free, &pooledConn{conn: conn, returned: time.Now()})
}

// drop removes conn from the pool's accounting and closes it; Checkin
// uses it for a connection that is already Defunct or whose Reset
// failed.
func (p *Pool) drop(conn *Connection) {
	conn.Close()
	p.mu.Lock()
	p.size--
	p.mu.Unlock()
}

// Close stops the idle-sweep loop and closes every free connection.
// Connections still checked out are closed as they're returned.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	free := p.free
	p.free = nil
	p.mu.Unlock()

	close(p.stopTicker)
	for _, pc := range free {
		pc.conn.Goodbye()
	}
	return nil
}

// Len reports the number of connections currently idle in the free
// list (not the total outstanding).
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
