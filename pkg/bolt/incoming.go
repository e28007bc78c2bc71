package bolt

import (
	"strings"

	"github.com/orneryd/boltclient/pkg/packstream"
)

// Success is the decoded SUCCESS response metadata. Not every field is
// present on every SUCCESS: which ones are populated depends on which
// request it answers (HELLO vs RUN vs PULL vs COMMIT...).
type Success struct {
	// HELLO/LOGON
	ConnectionID string
	Server       string
	Hints        map[string]any

	// RUN
	Fields []string
	TFirst int64
	Qid    int64 // -1 if absent

	// PULL/DISCARD
	HasMore  bool
	Bookmark string
	Type     string // "r" | "w" | "rw" | "s"

	// ROUTE
	RoutingTable *RoutingTable

	Raw map[string]any
}

// RoutingTable is the typed shape of a ROUTE response's rt field.
// Caching is explicitly left to the collaborator (spec §9 open
// question); this type carries no TTL bookkeeping of its own.
type RoutingTable struct {
	TTL     int64
	Servers []RoutingServer
}

// RoutingServer is one addresses/role entry inside a RoutingTable.
type RoutingServer struct {
	Addresses []string
	Role      string // "READ" | "WRITE" | "ROUTE"
}

// Failure is the decoded FAILURE response.
type Failure struct {
	Code           string
	Message        string
	Classification string
}

// Ignored is the (empty) decoded IGNORED response.
type Ignored struct{}

// Record is a single decoded RECORD: one row of values, in the order
// of the fields the owning RUN reported.
type Record struct {
	Values []any
}

// DecodeResponse reads one complete (unframed) message payload and
// returns one of *Success, *Failure, *Ignored, or *Record.
func DecodeResponse(payload []byte) (any, error) {
	d := packstream.NewDecoder(payload)
	v, err := d.Unpack()
	if err != nil {
		return nil, wrapErr(ErrKindProtocol, err, "decoding response")
	}
	s, ok := v.(*packstream.Struct)
	if !ok {
		return nil, newErr(ErrKindProtocol, "expected a message struct, got %T", v)
	}
	switch s.Signature {
	case sigSuccess:
		return decodeSuccess(s)
	case sigFailure:
		return decodeFailure(s)
	case sigIgnored:
		return &Ignored{}, nil
	case sigRecord:
		return decodeRecord(s)
	default:
		return nil, newErr(ErrKindProtocol, "unexpected response signature 0x%02x", s.Signature)
	}
}

func decodeSuccess(s *packstream.Struct) (*Success, error) {
	if len(s.Fields) != 1 {
		return nil, newErr(ErrKindProtocol, "SUCCESS expects 1 field, got %d", len(s.Fields))
	}
	meta, ok := s.Fields[0].(map[string]any)
	if !ok {
		if s.Fields[0] == nil {
			meta = map[string]any{}
		} else {
			return nil, newErr(ErrKindProtocol, "SUCCESS metadata: expected map, got %T", s.Fields[0])
		}
	}
	succ := &Success{Raw: meta, Qid: -1}
	if v, ok := meta["connection_id"].(string); ok {
		succ.ConnectionID = v
	}
	if v, ok := meta["server"].(string); ok {
		succ.Server = v
	}
	if v, ok := meta["hints"].(map[string]any); ok {
		succ.Hints = v
	}
	if v, ok := meta["fields"].([]any); ok {
		for _, f := range v {
			if str, ok := f.(string); ok {
				succ.Fields = append(succ.Fields, str)
			}
		}
	}
	if v, ok := meta["t_first"].(int64); ok {
		succ.TFirst = v
	}
	if v, ok := meta["qid"].(int64); ok {
		succ.Qid = v
	}
	if v, ok := meta["has_more"].(bool); ok {
		succ.HasMore = v
	}
	if v, ok := meta["bookmark"].(string); ok {
		succ.Bookmark = v
	}
	if v, ok := meta["type"].(string); ok {
		succ.Type = v
	}
	if rt, ok := meta["rt"].(map[string]any); ok {
		succ.RoutingTable = decodeRoutingTable(rt)
	}
	return succ, nil
}

func decodeRoutingTable(m map[string]any) *RoutingTable {
	rt := &RoutingTable{}
	if ttl, ok := m["ttl"].(int64); ok {
		rt.TTL = ttl
	}
	servers, ok := m["servers"].([]any)
	if !ok {
		return rt
	}
	for _, raw := range servers {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		rs := RoutingServer{}
		if role, ok := entry["role"].(string); ok {
			rs.Role = role
		}
		if addrs, ok := entry["addresses"].([]any); ok {
			for _, a := range addrs {
				if s, ok := a.(string); ok {
					rs.Addresses = append(rs.Addresses, s)
				}
			}
		}
		rt.Servers = append(rt.Servers, rs)
	}
	return rt
}

func decodeFailure(s *packstream.Struct) (*Failure, error) {
	if len(s.Fields) != 1 {
		return nil, newErr(ErrKindProtocol, "FAILURE expects 1 field, got %d", len(s.Fields))
	}
	meta, ok := s.Fields[0].(map[string]any)
	if !ok {
		return nil, newErr(ErrKindProtocol, "FAILURE metadata: expected map, got %T", s.Fields[0])
	}
	f := &Failure{}
	if v, ok := meta["code"].(string); ok {
		f.Code = v
		f.Classification = classificationFromCode(v)
	}
	if v, ok := meta["message"].(string); ok {
		f.Message = v
	}
	return f, nil
}

// classificationFromCode extracts the Neo4j status code's
// classification segment, e.g. "Neo.ClientError.Statement.SyntaxError"
// -> "ClientError".
func classificationFromCode(code string) string {
	parts := strings.Split(code, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func decodeRecord(s *packstream.Struct) (*Record, error) {
	if len(s.Fields) != 1 {
		return nil, newErr(ErrKindProtocol, "RECORD expects 1 field, got %d", len(s.Fields))
	}
	values, ok := s.Fields[0].([]any)
	if !ok {
		return nil, newErr(ErrKindProtocol, "RECORD values: expected list, got %T", s.Fields[0])
	}
	return &Record{Values: values}, nil
}
