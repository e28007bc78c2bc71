package bolt

import "fmt"

// Signature constants for every Bolt message, fixed across all
// versions this package supports (spec §4.2).
const (
	sigInitOrHello byte = 0x01
	sigGoodbye     byte = 0x02
	sigAckFailure  byte = 0x0E
	sigReset       byte = 0x0F
	sigRun         byte = 0x10
	sigBegin       byte = 0x11
	sigCommit      byte = 0x12
	sigRollback    byte = 0x13
	sigDiscard     byte = 0x2F
	sigPull        byte = 0x3F
	sigTelemetry   byte = 0x54
	sigRoute       byte = 0x66
	sigLogon       byte = 0x6A
	sigLogoff      byte = 0x6B

	sigSuccess byte = 0x70
	sigRecord  byte = 0x71
	sigIgnored byte = 0x7E
	sigFailure byte = 0x7F
)

// Kind identifies a Bolt message type independent of wire shape.
type Kind int

const (
	KindInit Kind = iota
	KindHello
	KindLogon
	KindLogoff
	KindTelemetry
	KindGoodbye
	KindAckFailure
	KindReset
	KindRun
	KindDiscard
	KindPull
	KindBegin
	KindCommit
	KindRollback
	KindRoute

	KindSuccess
	KindRecord
	KindIgnored
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "INIT"
	case KindHello:
		return "HELLO"
	case KindLogon:
		return "LOGON"
	case KindLogoff:
		return "LOGOFF"
	case KindTelemetry:
		return "TELEMETRY"
	case KindGoodbye:
		return "GOODBYE"
	case KindAckFailure:
		return "ACK_FAILURE"
	case KindReset:
		return "RESET"
	case KindRun:
		return "RUN"
	case KindDiscard:
		return "DISCARD"
	case KindPull:
		return "PULL"
	case KindBegin:
		return "BEGIN"
	case KindCommit:
		return "COMMIT"
	case KindRollback:
		return "ROLLBACK"
	case KindRoute:
		return "ROUTE"
	case KindSuccess:
		return "SUCCESS"
	case KindRecord:
		return "RECORD"
	case KindIgnored:
		return "IGNORED"
	case KindFailure:
		return "FAILURE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// isResponse reports whether k is a server-to-client response kind.
func (k Kind) isResponse() bool {
	return k == KindSuccess || k == KindRecord || k == KindIgnored || k == KindFailure
}

// Legal reports whether kind may be sent (as a request) or received
// (as a response) on a connection negotiated at version v. Response
// kinds are always legal: the server may emit SUCCESS/RECORD/IGNORED/
// FAILURE at any version.
func Legal(v Version, kind Kind) bool {
	if kind.isResponse() {
		return true
	}
	p := profileFor(v)
	switch kind {
	case KindInit:
		return p.initWithAuth
	case KindHello:
		return p.helloAuthInline || p.helloThenLogon
	case KindLogon, KindLogoff:
		return p.helloThenLogon
	case KindTelemetry:
		return p.telemetry
	case KindGoodbye:
		return true
	case KindAckFailure:
		return p.ackFailure
	case KindReset:
		return true
	case KindRun:
		return true
	case KindDiscard, KindPull:
		return p.pullAllNoArgs || p.pullWithArgs
	case KindBegin, KindCommit, KindRollback:
		return p.transactions
	case KindRoute:
		return p.route
	default:
		return false
	}
}

// Message is the normalized, version-independent shape of a single
// Bolt request or response: a kind plus its fields. Encoding for the
// wire happens in outgoing.go; decoding produces this shape in
// incoming.go.
type Message struct {
	Kind   Kind
	Fields map[string]any

	// Cypher/Params are only meaningful for KindRun.
	Cypher string
	Params map[string]any

	// N/Qid are only meaningful for KindDiscard/KindPull.
	N   int
	Qid int64
}
