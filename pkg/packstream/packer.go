package packstream

import (
	"encoding/binary"
	"math"
)

// Packer accumulates PackStream-encoded bytes into an internal buffer.
// Zero value is ready to use. Modeled on the teacher's direct-to-buffer
// chunk writer (pkg/bolt/server.go's sendChunk): no intermediate tree of
// values, every call appends its marker and payload immediately.
type Packer struct {
	buf []byte
	err error
}

// Reset clears the buffer and any accumulated error, returning the
// packer ready for reuse.
func (p *Packer) Reset() {
	p.buf = p.buf[:0]
	p.err = nil
}

// Bytes returns the encoded buffer built so far.
func (p *Packer) Bytes() []byte {
	return p.buf
}

// Err returns the first encoding error encountered, if any. Once set,
// subsequent calls are no-ops so callers can chain without checking
// every call.
func (p *Packer) Err() error {
	return p.err
}

func (p *Packer) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Nil writes the null marker.
func (p *Packer) Nil() {
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, markerNull)
}

// Bool writes a boolean marker.
func (p *Packer) Bool(v bool) {
	if p.err != nil {
		return
	}
	if v {
		p.buf = append(p.buf, markerTrue)
	} else {
		p.buf = append(p.buf, markerFalse)
	}
}

// Int writes a signed integer using the smallest legal marker: tiny-int
// for -16..127, then INT_8/16/32/64 as needed.
func (p *Packer) Int(v int64) {
	if p.err != nil {
		return
	}
	switch {
	case v >= minTinyInt && v <= maxTinyInt:
		p.buf = append(p.buf, byte(v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		p.buf = append(p.buf, markerInt8, byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		p.buf = append(p.buf, markerInt16)
		p.buf = binary.BigEndian.AppendUint16(p.buf, uint16(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		p.buf = append(p.buf, markerInt32)
		p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(v))
	default:
		p.buf = append(p.buf, markerInt64)
		p.buf = binary.BigEndian.AppendUint64(p.buf, uint64(v))
	}
}

// Float64 writes an IEEE-754 double, always 8 bytes big-endian.
func (p *Packer) Float64(v float64) {
	if p.err != nil {
		return
	}
	p.buf = append(p.buf, markerFloat64)
	p.buf = binary.BigEndian.AppendUint64(p.buf, math.Float64bits(v))
}

// String writes a UTF-8 string using the smallest legal size class.
func (p *Packer) String(v string) {
	if p.err != nil {
		return
	}
	n := len(v)
	switch {
	case n <= 15:
		p.buf = append(p.buf, byte(markerTinyStringBase|n))
	case n <= 0xFF:
		p.buf = append(p.buf, markerString8, byte(n))
	case n <= 0xFFFF:
		p.buf = append(p.buf, markerString16)
		p.buf = binary.BigEndian.AppendUint16(p.buf, uint16(n))
	case int64(n) <= 0xFFFFFFFF:
		p.buf = append(p.buf, markerString32)
		p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(n))
	default:
		p.fail(newError(KindUnsupportedValue, "string too long: %d bytes", n))
		return
	}
	p.buf = append(p.buf, v...)
}

// ByteArray writes a PackStream byte array (distinct from String; used for
// raw binary payloads, not part of the core domain model but kept for
// wire completeness).
func (p *Packer) ByteArray(v []byte) {
	if p.err != nil {
		return
	}
	n := len(v)
	switch {
	case n <= 0xFF:
		p.buf = append(p.buf, markerBytes8, byte(n))
	case n <= 0xFFFF:
		p.buf = append(p.buf, markerBytes16)
		p.buf = binary.BigEndian.AppendUint16(p.buf, uint16(n))
	default:
		p.buf = append(p.buf, markerBytes32)
		p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(n))
	}
	p.buf = append(p.buf, v...)
}

// ListHeader writes a list marker for n upcoming elements; the caller
// packs each element immediately after.
func (p *Packer) ListHeader(n int) {
	if p.err != nil {
		return
	}
	switch {
	case n <= 15:
		p.buf = append(p.buf, byte(markerTinyListBase|n))
	case n <= 0xFF:
		p.buf = append(p.buf, markerList8, byte(n))
	case n <= 0xFFFF:
		p.buf = append(p.buf, markerList16)
		p.buf = binary.BigEndian.AppendUint16(p.buf, uint16(n))
	default:
		p.buf = append(p.buf, markerList32)
		p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(n))
	}
}

// MapHeader writes a map marker for n upcoming key/value pairs.
func (p *Packer) MapHeader(n int) {
	if p.err != nil {
		return
	}
	switch {
	case n <= 15:
		p.buf = append(p.buf, byte(markerTinyMapBase|n))
	case n <= 0xFF:
		p.buf = append(p.buf, markerMap8, byte(n))
	case n <= 0xFFFF:
		p.buf = append(p.buf, markerMap16)
		p.buf = binary.BigEndian.AppendUint16(p.buf, uint16(n))
	default:
		p.buf = append(p.buf, markerMap32)
		p.buf = binary.BigEndian.AppendUint32(p.buf, uint32(n))
	}
}

// StructHeader writes a struct marker carrying a field count and a
// 1-byte signature.
func (p *Packer) StructHeader(signature byte, n int) {
	if p.err != nil {
		return
	}
	switch {
	case n <= 15:
		p.buf = append(p.buf, byte(markerTinyStructBase|n))
	case n <= 0xFF:
		p.buf = append(p.buf, markerStruct8, byte(n))
	default:
		p.buf = append(p.buf, markerStruct16)
		p.buf = binary.BigEndian.AppendUint16(p.buf, uint16(n))
	}
	p.buf = append(p.buf, signature)
}

// Map writes a map[string]any. The keys come from a Go map, so the
// encoded wire map never repeats a key.
func (p *Packer) Map(m map[string]any) {
	if p.err != nil {
		return
	}
	p.MapHeader(len(m))
	for k, v := range m {
		p.String(k)
		p.Any(v)
	}
}

// StringList writes a []string as a PackStream list.
func (p *Packer) StringList(v []string) {
	if p.err != nil {
		return
	}
	p.ListHeader(len(v))
	for _, s := range v {
		p.String(s)
	}
}

// Any dispatches on the dynamic type of v, writing the matching
// PackStream representation. Unsupported types set Err() and leave the
// buffer unterminated rather than panicking: callers should check Err
// after encoding a message.
func (p *Packer) Any(v any) {
	if p.err != nil {
		return
	}
	switch x := v.(type) {
	case nil:
		p.Nil()
	case bool:
		p.Bool(x)
	case int:
		p.Int(int64(x))
	case int8:
		p.Int(int64(x))
	case int16:
		p.Int(int64(x))
	case int32:
		p.Int(int64(x))
	case int64:
		p.Int(x)
	case float32:
		p.Float64(float64(x))
	case float64:
		p.Float64(x)
	case string:
		p.String(x)
	case []byte:
		p.ByteArray(x)
	case []string:
		p.StringList(x)
	case []any:
		p.ListHeader(len(x))
		for _, e := range x {
			p.Any(e)
		}
	case map[string]any:
		p.Map(x)
	case map[string]string:
		p.MapHeader(len(x))
		for k, s := range x {
			p.String(k)
			p.String(s)
		}
	case Node:
		p.packNode(x)
	case Relationship:
		p.packRelationship(x)
	case UnboundRelationship:
		p.packUnboundRelationship(x)
	case Path:
		p.packPath(x)
	case *Struct:
		p.StructHeader(x.Signature, len(x.Fields))
		for _, f := range x.Fields {
			p.Any(f)
		}
	default:
		p.fail(newError(KindUnsupportedValue, "%T", v))
	}
}

// packNode always emits the Bolt-5 shape (with element_id); callers
// targeting legacy connections never need to encode a Node, since only
// the server sends them.
func (p *Packer) packNode(n Node) {
	p.StructHeader(SigNode, nodeFieldsV5)
	p.Int(n.ID)
	p.StringList(n.Labels)
	p.Map(n.Properties)
	p.String(n.ElementID)
}

func (p *Packer) packRelationship(r Relationship) {
	p.StructHeader(SigRelationship, relFieldsV5)
	p.Int(r.ID)
	p.Int(r.StartNodeID)
	p.Int(r.EndNodeID)
	p.String(r.Type)
	p.Map(r.Properties)
	p.String(r.ElementID)
	p.String(r.StartNodeElementID)
	p.String(r.EndNodeElementID)
}

func (p *Packer) packUnboundRelationship(r UnboundRelationship) {
	p.StructHeader(SigUnboundRelationship, unboundRelFieldsV5)
	p.Int(r.ID)
	p.String(r.Type)
	p.Map(r.Properties)
	p.String(r.ElementID)
}

func (p *Packer) packPath(path Path) {
	p.StructHeader(SigPath, pathFields)
	p.ListHeader(len(path.Nodes))
	for _, n := range path.Nodes {
		p.packNode(n)
	}
	p.ListHeader(len(path.Relationships))
	for _, r := range path.Relationships {
		p.packUnboundRelationship(r)
	}
	p.ListHeader(len(path.Sequence))
	for _, s := range path.Sequence {
		p.Int(s)
	}
}
