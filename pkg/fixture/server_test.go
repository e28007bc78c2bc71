package fixture

import (
	"io"
	"net"
	"testing"

	"github.com/orneryd/boltclient/pkg/bolt"
	"github.com/orneryd/boltclient/pkg/packstream"
	"github.com/stretchr/testify/require"
)

func dialAndHandshake(t *testing.T, addr string) (net.Conn, error) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(bolt.EncodeHandshake(bolt.DefaultProposal())); err != nil {
		conn.Close()
		return nil, err
	}
	resp := make([]byte, 4)
	if _, err := io.ReadFull(conn, resp); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := bolt.DecodeHandshakeResponse(resp); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func readResponse(t *testing.T, conn net.Conn) (any, error) {
	t.Helper()
	u := packstream.NewUnchunker(conn)
	payload, err := u.Next()
	if err != nil {
		return nil, err
	}
	return bolt.DecodeResponse(payload)
}

func TestFixtureHandshakeAndHello(t *testing.T) {
	srv := New(&StaticExecutor{Script: &Script{Fields: []string{"n"}}}, bolt.V5_4)
	require.NoError(t, srv.Listen())
	defer srv.Close()

	conn, err := dialAndHandshake(t, srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	enc := bolt.NewEncoder(bolt.V5_4)
	msg, err := enc.Hello(bolt.HelloOptions{UserAgent: "test/1.0", Auth: map[string]any{"scheme": "none"}})
	require.NoError(t, err)
	_, err = conn.Write(msg)
	require.NoError(t, err)

	resp, err := readResponse(t, conn)
	require.NoError(t, err)
	succ, ok := resp.(*bolt.Success)
	require.True(t, ok)
	require.Equal(t, "fixture-1", succ.ConnectionID)
}
