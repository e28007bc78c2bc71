package packstream

import "fmt"

// Field counts accepted for each domain struct. The legacy shape
// predates Bolt 5's element IDs; the decoder picks a shape purely from
// the field count the struct declares, per spec §4.1.
const (
	nodeFieldsLegacy = 3 // id, labels, props
	nodeFieldsV5     = 4 // + element_id

	relFieldsLegacy = 5 // id, start, end, type, props
	relFieldsV5     = 8 // + element_id, start_element_id, end_element_id

	unboundRelFieldsLegacy = 3 // id, type, props
	unboundRelFieldsV5     = 4 // + element_id

	pathFields = 3 // nodes, rels, sequence
)

func asInt64(v any, field string) (int64, error) {
	i, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("packstream: field %s: expected int64, got %T", field, v)
	}
	return i, nil
}

func asString(v any, field string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("packstream: field %s: expected string, got %T", field, v)
	}
	return s, nil
}

func asStringList(v any, field string) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("packstream: field %s: expected list, got %T", field, v)
	}
	out := make([]string, len(list))
	for i, e := range list {
		s, err := asString(e, field)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func asProps(v any, field string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("packstream: field %s: expected map, got %T", field, v)
	}
	return m, nil
}

func hydrateNode(fields []any) (Node, error) {
	switch len(fields) {
	case nodeFieldsLegacy, nodeFieldsV5:
	default:
		return Node{}, newError(KindUnknownStructSig, "NODE with %d fields", len(fields))
	}
	id, err := asInt64(fields[0], "id")
	if err != nil {
		return Node{}, err
	}
	labels, err := asStringList(fields[1], "labels")
	if err != nil {
		return Node{}, err
	}
	props, err := asProps(fields[2], "properties")
	if err != nil {
		return Node{}, err
	}
	n := Node{ID: id, Labels: labels, Properties: props}
	if len(fields) == nodeFieldsV5 {
		n.ElementID, err = asString(fields[3], "element_id")
		if err != nil {
			return Node{}, err
		}
	}
	return n, nil
}

func hydrateRelationship(fields []any) (Relationship, error) {
	switch len(fields) {
	case relFieldsLegacy, relFieldsV5:
	default:
		return Relationship{}, newError(KindUnknownStructSig, "RELATIONSHIP with %d fields", len(fields))
	}
	id, err := asInt64(fields[0], "id")
	if err != nil {
		return Relationship{}, err
	}
	start, err := asInt64(fields[1], "start")
	if err != nil {
		return Relationship{}, err
	}
	end, err := asInt64(fields[2], "end")
	if err != nil {
		return Relationship{}, err
	}
	typ, err := asString(fields[3], "type")
	if err != nil {
		return Relationship{}, err
	}
	props, err := asProps(fields[4], "properties")
	if err != nil {
		return Relationship{}, err
	}
	r := Relationship{ID: id, StartNodeID: start, EndNodeID: end, Type: typ, Properties: props}
	if len(fields) == relFieldsV5 {
		if r.ElementID, err = asString(fields[5], "element_id"); err != nil {
			return Relationship{}, err
		}
		if r.StartNodeElementID, err = asString(fields[6], "start_element_id"); err != nil {
			return Relationship{}, err
		}
		if r.EndNodeElementID, err = asString(fields[7], "end_element_id"); err != nil {
			return Relationship{}, err
		}
	}
	return r, nil
}

func hydrateUnboundRelationship(fields []any) (UnboundRelationship, error) {
	switch len(fields) {
	case unboundRelFieldsLegacy, unboundRelFieldsV5:
	default:
		return UnboundRelationship{}, newError(KindUnknownStructSig, "UNBOUND_RELATIONSHIP with %d fields", len(fields))
	}
	id, err := asInt64(fields[0], "id")
	if err != nil {
		return UnboundRelationship{}, err
	}
	typ, err := asString(fields[1], "type")
	if err != nil {
		return UnboundRelationship{}, err
	}
	props, err := asProps(fields[2], "properties")
	if err != nil {
		return UnboundRelationship{}, err
	}
	r := UnboundRelationship{ID: id, Type: typ, Properties: props}
	if len(fields) == unboundRelFieldsV5 {
		if r.ElementID, err = asString(fields[3], "element_id"); err != nil {
			return UnboundRelationship{}, err
		}
	}
	return r, nil
}

func hydratePath(fields []any) (Path, error) {
	if len(fields) != pathFields {
		return Path{}, newError(KindUnknownStructSig, "PATH with %d fields", len(fields))
	}
	rawNodes, ok := fields[0].([]any)
	if !ok {
		return Path{}, fmt.Errorf("packstream: PATH.nodes: expected list, got %T", fields[0])
	}
	nodes := make([]Node, len(rawNodes))
	for i, rn := range rawNodes {
		n, ok := rn.(Node)
		if !ok {
			return Path{}, fmt.Errorf("packstream: PATH.nodes[%d]: expected Node, got %T", i, rn)
		}
		nodes[i] = n
	}
	rawRels, ok := fields[1].([]any)
	if !ok {
		return Path{}, fmt.Errorf("packstream: PATH.rels: expected list, got %T", fields[1])
	}
	rels := make([]UnboundRelationship, len(rawRels))
	for i, rr := range rawRels {
		r, ok := rr.(UnboundRelationship)
		if !ok {
			return Path{}, fmt.Errorf("packstream: PATH.rels[%d]: expected UnboundRelationship, got %T", i, rr)
		}
		rels[i] = r
	}
	rawSeq, ok := fields[2].([]any)
	if !ok {
		return Path{}, fmt.Errorf("packstream: PATH.sequence: expected list, got %T", fields[2])
	}
	seq := make([]int64, len(rawSeq))
	for i, rs := range rawSeq {
		v, err := asInt64(rs, "sequence")
		if err != nil {
			return Path{}, err
		}
		seq[i] = v
	}
	return Path{Nodes: nodes, Relationships: rels, Sequence: seq}, nil
}
