package bolt_test

import (
	"context"
	"testing"
	"time"

	"github.com/orneryd/boltclient/pkg/bolt"
	"github.com/orneryd/boltclient/pkg/fixture"
	"github.com/stretchr/testify/require"
)

func TestPoolCheckoutReusesConnection(t *testing.T) {
	srv := startFixture(t, &fixture.Script{}, bolt.V5_4)
	connCfg := bolt.DefaultConnConfig(srv.Addr())
	connCfg.Auth = map[string]any{"scheme": "none"}
	pool := bolt.NewPool(connCfg, bolt.PoolConfig{MaxSize: 2, IdleTimeout: time.Minute, PingEvery: time.Minute, Breaker: bolt.DefaultBreakerConfig()})
	defer pool.Close()

	c1, err := pool.Checkout(context.Background())
	require.NoError(t, err)
	id1 := c1.ID()
	pool.Checkin(c1)
	require.Equal(t, 1, pool.Len())

	c2, err := pool.Checkout(context.Background())
	require.NoError(t, err)
	require.Equal(t, id1, c2.ID())
	pool.Checkin(c2)
}

func TestPoolExhaustionReturnsError(t *testing.T) {
	srv := startFixture(t, &fixture.Script{}, bolt.V5_4)
	connCfg := bolt.DefaultConnConfig(srv.Addr())
	connCfg.Auth = map[string]any{"scheme": "none"}
	pool := bolt.NewPool(connCfg, bolt.PoolConfig{MaxSize: 1, IdleTimeout: time.Minute, PingEvery: time.Minute, Breaker: bolt.DefaultBreakerConfig()})
	defer pool.Close()

	c1, err := pool.Checkout(context.Background())
	require.NoError(t, err)

	_, err = pool.Checkout(context.Background())
	require.Error(t, err)

	pool.Checkin(c1)
}
