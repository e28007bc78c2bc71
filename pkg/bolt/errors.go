package bolt

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a client-visible failure per spec §7's
// taxonomy. Callers use errors.As against *ProtocolError and switch on
// Kind rather than matching error strings.
type ErrorKind string

const (
	ErrKindHandshake    ErrorKind = "Handshake"
	ErrKindAuth         ErrorKind = "Auth"
	ErrKindCypher       ErrorKind = "Cypher"
	ErrKindProtocol     ErrorKind = "Protocol"
	ErrKindConnection   ErrorKind = "Connection"
	ErrKindIgnored      ErrorKind = "Ignored"
	ErrKindInvalidInput ErrorKind = "InvalidInput"
)

// ProtocolError is the error type returned by every operation in this
// package. It always carries a Kind and a human message, and may carry
// the server's own code/message when the failure originated from a
// Neo4jError response.
type ProtocolError struct {
	Kind       ErrorKind
	Message    string
	ServerCode string
	ServerMsg  string
	cause      error
}

func (e *ProtocolError) Error() string {
	if e.ServerCode != "" {
		return fmt.Sprintf("bolt: %s: %s (%s: %s)", e.Kind, e.Message, e.ServerCode, e.ServerMsg)
	}
	return fmt.Sprintf("bolt: %s: %s", e.Kind, e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.cause
}

func newErr(kind ErrorKind, format string, args ...any) *ProtocolError {
	return &ProtocolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind ErrorKind, cause error, format string, args ...any) *ProtocolError {
	return &ProtocolError{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Sentinel errors for conditions callers commonly check with errors.Is.
var (
	ErrHandshakeRejected   = newErr(ErrKindHandshake, "server rejected all advertised versions")
	ErrServerInFailedState = newErr(ErrKindIgnored, "server in FAILED state, request ignored")
	ErrConnectionClosed    = newErr(ErrKindConnection, "connection closed")
)

// Is supports errors.Is comparisons between two *ProtocolError values
// of the same Kind and Message, so sentinels declared above compare
// equal to freshly constructed errors of the same shape.
func (e *ProtocolError) Is(target error) bool {
	other, ok := target.(*ProtocolError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind && e.Message == other.Message
}

// neo4jErrorToProtocolError classifies a server FAILURE payload into
// the taxonomy, distinguishing authentication failures (Auth) from
// ordinary Cypher/runtime failures (Cypher) by whether the code contains
// one of the Security.* authentication categories listed in isAuthCode.
func neo4jErrorToProtocolError(code, message string) *ProtocolError {
	kind := ErrKindCypher
	if isAuthCode(code) {
		kind = ErrKindAuth
	}
	return &ProtocolError{Kind: kind, Message: message, ServerCode: code, ServerMsg: message}
}

func isAuthCode(code string) bool {
	return containsAny(code, []string{
		"Security.Unauthorized",
		"Security.AuthenticationRateLimit",
		"Security.CredentialsExpired",
		"Security.Forbidden",
	})
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// isFatal reports whether a server FAILURE should defunct the
// connection instead of leaving it in the recoverable Failed state: a
// well-formed Neo4j classification is recoverable with RESET; a
// FAILURE without one means the server and client no longer agree on
// the protocol.
func isFatal(classification string) bool {
	switch classification {
	case "ClientError", "TransientError", "DatabaseError":
		return false
	default:
		return true
	}
}
