package sandbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/orneryd/boltclient/pkg/bolt"
	"github.com/orneryd/boltclient/pkg/fixture"
	"github.com/orneryd/boltclient/pkg/sandbox"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T) *bolt.Pool {
	t.Helper()
	return newPoolWithExecutor(t, &fixture.StaticExecutor{Script: &fixture.Script{Fields: []string{"n"}}})
}

func newPoolWithExecutor(t *testing.T, exec fixture.QueryExecutor) *bolt.Pool {
	t.Helper()
	srv := fixture.New(exec, bolt.V5_4)
	require.NoError(t, srv.Listen())
	t.Cleanup(func() { srv.Close() })

	cfg := bolt.DefaultConnConfig(srv.Addr())
	cfg.Auth = map[string]any{"scheme": "none"}
	pool := bolt.NewPool(cfg, bolt.PoolConfig{MaxSize: 4, IdleTimeout: time.Minute, PingEvery: time.Minute, Breaker: bolt.DefaultBreakerConfig()})
	t.Cleanup(func() { pool.Close() })
	return pool
}

// echoExecutor answers RETURN $i-style queries with the i parameter,
// so a soak loop can verify every cycle got its own answer back.
type echoExecutor struct{}

func (echoExecutor) Execute(cypher string, params map[string]any) (*fixture.Script, error) {
	return &fixture.Script{Fields: []string{"n"}, Rows: [][]any{{params["i"]}}}, nil
}

func TestAcquireBeginsAndReleaseRollsBack(t *testing.T) {
	sb := sandbox.New(newPool(t), sandbox.ModeAuto)

	l, err := sb.Acquire(context.Background(), "test-1")
	require.NoError(t, err)
	require.Equal(t, bolt.StateTxReady, l.Conn.State())

	require.NoError(t, sb.Release(l))
	require.Equal(t, bolt.StateReady, l.Conn.State())
}

func TestReentrantAcquireCollapsesToOneTransaction(t *testing.T) {
	sb := sandbox.New(newPool(t), sandbox.ModeAuto)
	ctx := context.Background()

	outer, err := sb.Acquire(ctx, "owner-a")
	require.NoError(t, err)
	require.Equal(t, 1, outer.Depth())

	inner, err := sb.Acquire(ctx, "owner-a")
	require.NoError(t, err)
	require.Same(t, outer, inner)
	require.Equal(t, 2, inner.Depth())

	require.NoError(t, sb.Release(inner))
	require.Equal(t, bolt.StateTxReady, outer.Conn.State(), "still in tx after inner release")

	require.NoError(t, sb.Release(outer))
	require.Equal(t, bolt.StateReady, outer.Conn.State())
}

func TestAllowPropagatesLeaseToChildOwner(t *testing.T) {
	sb := sandbox.New(newPool(t), sandbox.ModeAuto)
	ctx := context.Background()

	parent, err := sb.Acquire(ctx, "parent")
	require.NoError(t, err)
	sb.Allow("parent", "child")

	child, err := sb.Acquire(ctx, "child")
	require.NoError(t, err)
	require.Same(t, parent, child)

	require.NoError(t, sb.Release(child))
	require.NoError(t, sb.Release(parent))
}

func TestManualModeDoesNotWrapTransaction(t *testing.T) {
	sb := sandbox.New(newPool(t), sandbox.ModeManual)

	l, err := sb.Acquire(context.Background(), "owner")
	require.NoError(t, err)
	require.Equal(t, bolt.StateReady, l.Conn.State())

	require.NoError(t, sb.Release(l))
}

func TestSharedModeRoutesOtherOwnersToSharedLease(t *testing.T) {
	sb := sandbox.New(newPool(t), sandbox.ModeAuto)
	ctx := context.Background()

	owner, err := sb.AcquireWithOptions(ctx, "shared-owner", sandbox.AcquireOptions{Shared: true})
	require.NoError(t, err)

	// Any other owner now lands on the shared lease without calling
	// Allow first.
	other, err := sb.Acquire(ctx, "bystander")
	require.NoError(t, err)
	require.Same(t, owner, other)

	require.NoError(t, sb.Release(other))
	require.NoError(t, sb.Release(owner))
	require.Equal(t, bolt.StateReady, owner.Conn.State())
}

func TestOwnershipTimeoutReclaimsLease(t *testing.T) {
	pool := newPool(t)
	sb := sandbox.New(pool, sandbox.ModeAuto)

	l, err := sb.AcquireWithOptions(context.Background(), "slow-owner", sandbox.AcquireOptions{
		OwnershipTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return pool.Len() == 1 }, 2*time.Second, 10*time.Millisecond,
		"expired lease's connection should be back in the pool")

	// A release after expiry is a harmless no-op.
	require.NoError(t, sb.Release(l))
	require.Equal(t, 1, pool.Len())
}

// TestSoakAcquireReleaseCycles runs 1,600 sequential
// acquire→RUN→release cycles against one owner, verifying each
// cycle's RETURN $i answer and persisting the count through a
// fixture.LeaseStore, the bookkeeping a longer unattended soak run
// keeps so it can resume after a restart instead of recounting from
// zero.
func TestSoakAcquireReleaseCycles(t *testing.T) {
	store, err := fixture.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	sb := sandbox.New(newPoolWithExecutor(t, echoExecutor{}), sandbox.ModeAuto)
	ctx := context.Background()

	const cycles = 1600
	for i := 0; i < cycles; i++ {
		l, err := sb.Acquire(ctx, "soak-owner")
		require.NoError(t, err)

		_, err = l.Conn.Run("RETURN $i AS n", map[string]any{"i": int64(i)}, nil)
		require.NoError(t, err)
		var got []any
		_, err = l.Conn.Pull(-1, -1, func(r *bolt.Record) error {
			got = append(got, r.Values[0])
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []any{int64(i)}, got, "cycle %d", i)

		rec, err := store.IncrementCycle("soak-owner", l.Conn.ID())
		require.NoError(t, err)
		require.Equal(t, i+1, rec.Cycle)

		require.NoError(t, sb.Release(l))
	}

	final, err := store.GetLease("soak-owner")
	require.NoError(t, err)
	require.Equal(t, cycles, final.Cycle)

	// The pool is still healthy after the full soak.
	l, err := sb.Acquire(ctx, "post-soak")
	require.NoError(t, err)
	_, err = l.Conn.Run("RETURN $i AS n", map[string]any{"i": "ok"}, nil)
	require.NoError(t, err)
	_, err = l.Conn.Discard(-1, -1)
	require.NoError(t, err)
	require.NoError(t, sb.Release(l))
}
