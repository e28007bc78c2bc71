package bolt

import (
	"testing"

	"github.com/orneryd/boltclient/pkg/packstream"
	"github.com/stretchr/testify/require"
)

func packMessage(t *testing.T, sig byte, fieldCount int, build func(*packstream.Packer)) []byte {
	t.Helper()
	var p packstream.Packer
	p.StructHeader(sig, fieldCount)
	build(&p)
	require.NoError(t, p.Err())
	return p.Bytes()
}

func TestDecodeSuccessHello(t *testing.T) {
	payload := packMessage(t, sigSuccess, 1, func(p *packstream.Packer) {
		p.Map(map[string]any{
			"connection_id": "bolt-17",
			"server":        "Neo4j/5.21.0",
			"hints": map[string]any{
				"connection.recv_timeout_seconds": int64(30),
				"telemetry.enabled":               true,
			},
		})
	})
	v, err := DecodeResponse(payload)
	require.NoError(t, err)
	succ, ok := v.(*Success)
	require.True(t, ok)
	require.Equal(t, "bolt-17", succ.ConnectionID)
	require.Equal(t, "Neo4j/5.21.0", succ.Server)
	require.Equal(t, int64(30), succ.Hints["connection.recv_timeout_seconds"])
	require.Equal(t, true, succ.Hints["telemetry.enabled"])
}

func TestDecodeSuccessRunFields(t *testing.T) {
	payload := packMessage(t, sigSuccess, 1, func(p *packstream.Packer) {
		p.Map(map[string]any{
			"fields":  []any{"n", "m"},
			"t_first": int64(5),
			"qid":     int64(3),
		})
	})
	v, err := DecodeResponse(payload)
	require.NoError(t, err)
	succ := v.(*Success)
	require.Equal(t, []string{"n", "m"}, succ.Fields)
	require.EqualValues(t, 5, succ.TFirst)
	require.EqualValues(t, 3, succ.Qid)
}

func TestDecodeSuccessEmptyMeta(t *testing.T) {
	payload := packMessage(t, sigSuccess, 1, func(p *packstream.Packer) {
		p.Map(map[string]any{})
	})
	v, err := DecodeResponse(payload)
	require.NoError(t, err)
	succ := v.(*Success)
	require.EqualValues(t, -1, succ.Qid)
}

func TestDecodeSuccessRoutingTable(t *testing.T) {
	payload := packMessage(t, sigSuccess, 1, func(p *packstream.Packer) {
		p.Map(map[string]any{
			"rt": map[string]any{
				"ttl": int64(300),
				"servers": []any{
					map[string]any{"addresses": []any{"a:7687"}, "role": "WRITE"},
					map[string]any{"addresses": []any{"b:7687", "c:7687"}, "role": "READ"},
				},
			},
		})
	})
	v, err := DecodeResponse(payload)
	require.NoError(t, err)
	succ := v.(*Success)
	require.NotNil(t, succ.RoutingTable)
	require.EqualValues(t, 300, succ.RoutingTable.TTL)
	require.Len(t, succ.RoutingTable.Servers, 2)
	require.Equal(t, "WRITE", succ.RoutingTable.Servers[0].Role)
	require.Equal(t, []string{"b:7687", "c:7687"}, succ.RoutingTable.Servers[1].Addresses)
}

func TestDecodeFailureClassification(t *testing.T) {
	payload := packMessage(t, sigFailure, 1, func(p *packstream.Packer) {
		p.Map(map[string]any{
			"code":    "Neo.ClientError.Statement.SyntaxError",
			"message": "bad query",
		})
	})
	v, err := DecodeResponse(payload)
	require.NoError(t, err)
	f := v.(*Failure)
	require.Equal(t, "ClientError", f.Classification)
	require.Equal(t, "bad query", f.Message)
}

func TestDecodeIgnored(t *testing.T) {
	payload := packMessage(t, sigIgnored, 0, func(*packstream.Packer) {})
	v, err := DecodeResponse(payload)
	require.NoError(t, err)
	_, ok := v.(*Ignored)
	require.True(t, ok)
}

func TestDecodeRecord(t *testing.T) {
	payload := packMessage(t, sigRecord, 1, func(p *packstream.Packer) {
		p.ListHeader(2)
		p.Int(1)
		p.String("hi")
	})
	v, err := DecodeResponse(payload)
	require.NoError(t, err)
	rec := v.(*Record)
	require.Len(t, rec.Values, 2)
	require.EqualValues(t, 1, rec.Values[0])
	require.Equal(t, "hi", rec.Values[1])
}

func TestDecodeResponseUnknownSignature(t *testing.T) {
	payload := packMessage(t, 0x01, 0, func(*packstream.Packer) {})
	_, err := DecodeResponse(payload)
	require.Error(t, err)
}
