package packstream

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()
	var p Packer
	p.Any(v)
	require.NoError(t, p.Err())
	d := NewDecoder(p.Bytes())
	out, err := d.Unpack()
	require.NoError(t, err)
	assert.True(t, d.Empty())
	return out
}

func TestIntBoundaries(t *testing.T) {
	values := []int64{
		-1 << 63, -1<<31 - 1, -1 << 31, -1<<15 - 1, -1 << 15,
		-1<<7 - 1, -17, -16, 0, 127, 128, 255, 65535, 65536,
		1<<31 - 1, 1 << 31, 1<<63 - 1,
	}
	for _, v := range values {
		got := roundTrip(t, v)
		assert.Equal(t, v, got, "value %d", v)
	}
}

func TestStringSizeClasses(t *testing.T) {
	for _, n := range []int{0, 15, 16, 255, 256, 65535, 65536} {
		s := make([]byte, n)
		for i := range s {
			s[i] = 'a'
		}
		got := roundTrip(t, string(s))
		assert.Equal(t, string(s), got)
	}
}

func TestBoolAndNil(t *testing.T) {
	assert.Equal(t, true, roundTrip(t, true))
	assert.Equal(t, false, roundTrip(t, false))
	assert.Nil(t, roundTrip(t, nil))
}

func TestFloat64(t *testing.T) {
	for _, v := range []float64{0, -0.5, 3.14159, 1e300, -1e-300} {
		assert.Equal(t, v, roundTrip(t, v))
	}
}

func TestListSizeClasses(t *testing.T) {
	for _, n := range []int{0, 15, 16, 255, 256} {
		list := make([]any, n)
		for i := range list {
			list[i] = int64(i)
		}
		got := roundTrip(t, list)
		gotList, ok := got.([]any)
		require.True(t, ok)
		require.Len(t, gotList, n)
		for i := range list {
			assert.Equal(t, list[i], gotList[i])
		}
	}
}

func TestMapDistinctKeys(t *testing.T) {
	m := map[string]any{"a": int64(1), "b": "two", "c": true}
	got := roundTrip(t, m)
	assert.Equal(t, m, got)
}

func TestMapDuplicateKeyRejectedOnDecode(t *testing.T) {
	// Hand-build a map with a duplicate key: {"a": 1, "a": 2}
	var p Packer
	p.MapHeader(2)
	p.String("a")
	p.Int(1)
	p.String("a")
	p.Int(2)
	require.NoError(t, p.Err())

	d := NewDecoder(p.Bytes())
	_, err := d.Unpack()
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindDuplicateMapKey, pe.Kind)
}

func TestNodeLegacyAndV5Shapes(t *testing.T) {
	// Legacy: 3 fields, no element_id.
	var legacy Packer
	legacy.StructHeader(SigNode, nodeFieldsLegacy)
	legacy.Int(1)
	legacy.StringList([]string{"Person"})
	legacy.Map(map[string]any{"name": "Ada"})
	require.NoError(t, legacy.Err())

	d := NewDecoder(legacy.Bytes())
	v, err := d.Unpack()
	require.NoError(t, err)
	n, ok := v.(Node)
	require.True(t, ok)
	assert.Equal(t, int64(1), n.ID)
	assert.Equal(t, []string{"Person"}, n.Labels)
	assert.Equal(t, "", n.ElementID)

	// V5: round trip through the packer's native shape.
	v5 := Node{ID: 1, Labels: []string{"Person"}, Properties: map[string]any{"name": "Ada"}, ElementID: "4:abc:1"}
	got := roundTrip(t, v5)
	assert.Equal(t, v5, got)
}

func TestRelationshipShapes(t *testing.T) {
	r := Relationship{
		ID: 1, StartNodeID: 2, EndNodeID: 3, Type: "KNOWS",
		Properties: map[string]any{"since": int64(2020)},
		ElementID:  "5:abc:1", StartNodeElementID: "4:abc:2", EndNodeElementID: "4:abc:3",
	}
	assert.Equal(t, r, roundTrip(t, r))

	ur := UnboundRelationship{ID: 1, Type: "KNOWS", Properties: map[string]any{}, ElementID: "5:abc:1"}
	assert.Equal(t, ur, roundTrip(t, ur))
}

func TestRelationshipLegacyShape(t *testing.T) {
	// Legacy: 5 fields, no element IDs.
	var legacy Packer
	legacy.StructHeader(SigRelationship, relFieldsLegacy)
	legacy.Int(1)
	legacy.Int(2)
	legacy.Int(3)
	legacy.String("KNOWS")
	legacy.Map(map[string]any{"since": int64(2020)})
	require.NoError(t, legacy.Err())

	v, err := NewDecoder(legacy.Bytes()).Unpack()
	require.NoError(t, err)
	r, ok := v.(Relationship)
	require.True(t, ok)
	assert.Equal(t, int64(1), r.ID)
	assert.Equal(t, int64(2), r.StartNodeID)
	assert.Equal(t, int64(3), r.EndNodeID)
	assert.Equal(t, "KNOWS", r.Type)
	assert.Equal(t, "", r.ElementID)

	// Legacy unbound: 3 fields.
	var unbound Packer
	unbound.StructHeader(SigUnboundRelationship, unboundRelFieldsLegacy)
	unbound.Int(9)
	unbound.String("REL")
	unbound.Map(map[string]any{})
	require.NoError(t, unbound.Err())

	v, err = NewDecoder(unbound.Bytes()).Unpack()
	require.NoError(t, err)
	ur, ok := v.(UnboundRelationship)
	require.True(t, ok)
	assert.Equal(t, int64(9), ur.ID)
	assert.Equal(t, "", ur.ElementID)
}

func TestPathRoundTrip(t *testing.T) {
	n1 := Node{ID: 1, Labels: []string{"A"}, Properties: map[string]any{}}
	n2 := Node{ID: 2, Labels: []string{"B"}, Properties: map[string]any{}}
	r := UnboundRelationship{ID: 9, Type: "REL", Properties: map[string]any{}}
	path := Path{Nodes: []Node{n1, n2}, Relationships: []UnboundRelationship{r}, Sequence: []int64{1, 1}}
	assert.Equal(t, path, roundTrip(t, path))
}

func TestUnknownMarkerFails(t *testing.T) {
	d := NewDecoder([]byte{0xC5})
	_, err := d.Unpack()
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindUnknownMarker, pe.Kind)
}

func TestTruncatedInput(t *testing.T) {
	d := NewDecoder([]byte{markerInt64, 0x01, 0x02})
	_, err := d.Unpack()
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindTruncatedInput, pe.Kind)
}

func TestChunkingSplitsLargeMessages(t *testing.T) {
	payload := make([]byte, MaxChunkSize+10)
	for i := range payload {
		payload[i] = byte(i)
	}
	var c Chunker
	c.Frame(payload)

	u := NewUnchunker(&sliceReader{data: c.Bytes()})
	got, err := u.Next()
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

type sliceReader struct {
	data []byte
	pos  int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}
