// Package sandbox gives each test (or test-like unit of work) its own
// isolated view of a shared connection pool: in ModeAuto and ModeShared
// every lease runs inside a transaction that is always rolled back,
// never committed, so nothing a test does is ever visible to another
// test or left behind for the next run. A ModeManual lease opens no
// transaction; its connection is only checked out and back in.
//
// Grounded on the same checkout/checkin discipline as pkg/bolt's own
// Pool (post-checkout/pre-checkin hooks bracketing the lease), adapted
// here to begin a transaction on checkout and roll it back on checkin
// rather than merely resetting the connection.
package sandbox

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/orneryd/boltclient/pkg/bolt"
)

// Mode selects how a Lease is shared across concurrent owners.
type Mode int

const (
	// ModeManual requires every owner to call Acquire and Release
	// itself; no transaction wrap and no reentrancy is tracked.
	ModeManual Mode = iota
	// ModeAuto begins the transaction on first Acquire and rolls it
	// back on the matching Release, collapsing nested Acquire/Release
	// pairs from the same owner into no-ops except the outermost.
	ModeAuto
	// ModeShared routes every owner's Acquire to the lease of the
	// owner that acquired with Shared set, so all callers see (and
	// roll back with) the same uncommitted transaction.
	ModeShared
)

// DefaultOwnershipTimeout bounds how long a lease may be held before
// the sandbox forcibly rolls it back and reclaims the connection.
const DefaultOwnershipTimeout = 120 * time.Second

// AcquireOptions tunes a single Acquire call.
type AcquireOptions struct {
	// Shared switches the sandbox to ModeShared with this owner as the
	// shared lease holder.
	Shared bool
	// OwnershipTimeout overrides DefaultOwnershipTimeout; zero keeps
	// the default, negative disables the timeout entirely.
	OwnershipTimeout time.Duration
}

// Sandbox owns a bolt.Pool and hands out Leases, each wrapping one
// pooled Connection in an auto-rolled-back transaction.
type Sandbox struct {
	pool *bolt.Pool

	mu          sync.Mutex
	mode        Mode
	sharedOwner string
	leases      map[string]*Lease // owner -> lease
	allowed     map[string]string // child owner -> parent owner
}

// New wraps pool for per-owner sandboxed leases under mode.
func New(pool *bolt.Pool, mode Mode) *Sandbox {
	return &Sandbox{
		pool:    pool,
		mode:    mode,
		leases:  make(map[string]*Lease),
		allowed: make(map[string]string),
	}
}

// SetMode switches the sandbox's sharing mode. Leases already
// outstanding keep the semantics they were acquired under.
func (s *Sandbox) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	if mode != ModeShared {
		s.sharedOwner = ""
	}
}

// Lease is one owner's checked-out, transaction-wrapped connection.
// Depth tracks reentrant Acquire calls from the same owner: only the
// outermost Release actually rolls back and checks the connection in.
type Lease struct {
	Owner string
	Conn  *bolt.Connection

	depth    int
	manual   bool
	released bool
	timer    *time.Timer
}

// Allow lets childOwner reuse the calling owner's lease: a subsequent
// Acquire(ctx, childOwner) returns the same Lease instead of checking
// out a new connection.
func (s *Sandbox) Allow(owner, childOwner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed[childOwner] = owner
}

// Acquire returns owner's Lease with default options, checking out a
// fresh connection and beginning a transaction on first acquisition
// (or resolving to a parent's lease if Allow was called for owner).
// Nested calls from the same owner increment depth and return the
// existing lease unchanged.
func (s *Sandbox) Acquire(ctx context.Context, owner string) (*Lease, error) {
	return s.AcquireWithOptions(ctx, owner, AcquireOptions{})
}

// AcquireWithOptions is Acquire with explicit sharing and timeout
// control.
func (s *Sandbox) AcquireWithOptions(ctx context.Context, owner string, opts AcquireOptions) (*Lease, error) {
	s.mu.Lock()
	if opts.Shared {
		s.mode = ModeShared
		s.sharedOwner = owner
	}
	resolved := s.resolveLocked(owner)
	// ModeManual never dedups by owner: every Acquire is an
	// independent checkout, and the caller drives its own
	// Begin/Commit/Rollback directly on the returned Conn.
	if s.mode != ModeManual {
		if l, ok := s.leases[resolved]; ok {
			l.depth++
			s.mu.Unlock()
			return l, nil
		}
	}
	manual := s.mode == ModeManual
	s.mu.Unlock()

	conn, err := s.pool.Checkout(ctx)
	if err != nil {
		return nil, fmt.Errorf("sandbox: acquiring connection for %q: %w", owner, err)
	}
	if !manual {
		if err := conn.Begin(nil); err != nil {
			s.pool.Checkin(conn)
			return nil, fmt.Errorf("sandbox: beginning isolation transaction for %q: %w", owner, err)
		}
	}
	l := &Lease{Owner: resolved, Conn: conn, depth: 1, manual: manual}
	if manual {
		return l, nil
	}

	timeout := opts.OwnershipTimeout
	if timeout == 0 {
		timeout = DefaultOwnershipTimeout
	}
	if timeout > 0 {
		l.timer = time.AfterFunc(timeout, func() { s.expire(l) })
	}
	s.mu.Lock()
	s.leases[resolved] = l
	s.mu.Unlock()
	return l, nil
}

func (s *Sandbox) resolveLocked(owner string) string {
	if s.mode == ModeShared && s.sharedOwner != "" {
		return s.sharedOwner
	}
	seen := map[string]bool{owner: true}
	for {
		parent, ok := s.allowed[owner]
		if !ok || seen[parent] {
			return owner
		}
		owner = parent
		seen[owner] = true
	}
}

// Release decrements the lease's depth, rolling back the transaction
// and returning the connection to the pool only when depth reaches
// zero — every nested Acquire/Release pair short of the outermost is
// a no-op. Releasing a lease the ownership timeout already reclaimed
// is a no-op too.
func (s *Sandbox) Release(l *Lease) error {
	if l.manual {
		s.pool.Checkin(l.Conn)
		return nil
	}

	s.mu.Lock()
	if l.released {
		s.mu.Unlock()
		return nil
	}
	l.depth--
	done := l.depth <= 0
	if done {
		s.retireLocked(l)
	}
	s.mu.Unlock()

	if !done {
		return nil
	}
	return s.rollbackAndCheckin(l)
}

// expire is the ownership-timeout path: the owner held the lease past
// its deadline, so the sandbox reclaims the connection exactly as an
// outermost Release would.
func (s *Sandbox) expire(l *Lease) {
	s.mu.Lock()
	if l.released {
		s.mu.Unlock()
		return
	}
	s.retireLocked(l)
	s.mu.Unlock()

	log.Printf("[sandbox] ownership timeout for owner %q, reclaiming connection %s", l.Owner, l.Conn.ID())
	s.rollbackAndCheckin(l)
}

func (s *Sandbox) retireLocked(l *Lease) {
	l.released = true
	delete(s.leases, l.Owner)
	if s.sharedOwner == l.Owner {
		s.sharedOwner = ""
	}
	if l.timer != nil {
		l.timer.Stop()
	}
}

func (s *Sandbox) rollbackAndCheckin(l *Lease) error {
	if l.Conn.State() == bolt.StateTxReady || l.Conn.State() == bolt.StateTxStreaming {
		if err := l.Conn.Rollback(); err != nil {
			log.Printf("[sandbox] rollback failed for owner %q, dropping connection: %v", l.Owner, err)
			s.pool.Checkin(l.Conn) // Checkin's own Reset-or-drop handles the unhealthy case.
			return err
		}
	}
	s.pool.Checkin(l.Conn)
	return nil
}

// Depth reports a lease's current reentrancy depth, mostly useful for
// tests asserting that nested acquisitions collapsed correctly.
func (l *Lease) Depth() int {
	return l.depth
}
