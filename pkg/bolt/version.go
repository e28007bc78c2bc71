// Package bolt implements the Bolt message vocabulary, the
// per-version legality and handshake rules (Bolt protocol versions 1
// through 5.6), and the connection state machine that drives them over
// a live socket. It is the client-side counterpart of the server this
// module's teacher (github.com/orneryd/nornicdb, pkg/bolt) speaks to.
package bolt

import "fmt"

// Version identifies a negotiated Bolt protocol version. Versions 1-3
// are bare majors (Minor is always 0); 4.0+ use both fields.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string {
	if v.Major < 4 {
		return fmt.Sprintf("%d", v.Major)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// atLeast reports whether v is at or above major.minor, within the
// same major line. Bolt's minor numbering resets at each major bump,
// so this is never used to compare across majors directly — callers
// gate on Major first when a feature only applies from one major
// onward.
func (v Version) atLeast(major, minor int) bool {
	return v.Major == major && v.Minor >= minor
}

var (
	V1   = Version{1, 0}
	V2   = Version{2, 0}
	V3   = Version{3, 0}
	V4_0 = Version{4, 0}
	V4_1 = Version{4, 1}
	V4_2 = Version{4, 2}
	V4_3 = Version{4, 3}
	V4_4 = Version{4, 4}
	V5_0 = Version{5, 0}
	V5_1 = Version{5, 1}
	V5_2 = Version{5, 2}
	V5_3 = Version{5, 3}
	V5_4 = Version{5, 4}
	V5_6 = Version{5, 6}
)

// featureProfile captures per-version feature availability as boolean
// flags, chosen over a function-pointer table since the flags read more
// directly against the version matrix. profileFor builds it from the
// version on every call; it is not cached per connection.
type featureProfile struct {
	initWithAuth           bool // v1, v2: INIT carries auth directly
	helloAuthInline        bool // v3-v4.4, v5.0: HELLO carries auth directly
	helloThenLogon         bool // v5.1+: HELLO carries no auth, LOGON follows
	pullAllNoArgs          bool // v1-v3: PULL_ALL/DISCARD_ALL take no arguments
	pullWithArgs           bool // v4+: PULL/DISCARD take {n, qid}
	ackFailure             bool // v1-v3: ACK_FAILURE is legal
	transactions           bool // v3+: BEGIN/COMMIT/ROLLBACK
	txMetadata             bool // v3+ (partial v3): db/mode/bookmarks/tx_timeout
	impersonatedUser       bool // v4.3+: imp_user
	route                  bool // v4.3+: ROUTE
	notificationsMinSev    bool // v5.2+: notifications_minimum_severity
	boltAgent              bool // v5.0+: bolt_agent in HELLO
	telemetry              bool // v5.4+: TELEMETRY
	notificationsDisabled  bool // v5.6+: notifications_disabled_classifications
}

// profileFor computes the feature set legal for v. Bolt 5.5 has no case
// of its own: DecodeHandshakeResponse refuses it (see Supported), so no
// negotiated connection runs at 5.5, and a hand-built Version{5, 5}
// gets the 5.4 feature set.
func profileFor(v Version) featureProfile {
	var p featureProfile
	switch {
	case v.Major <= 2:
		p.initWithAuth = true
		p.pullAllNoArgs = true
		p.ackFailure = true
	case v.Major == 3:
		p.helloAuthInline = true
		p.pullAllNoArgs = true
		p.ackFailure = true
		p.transactions = true
		p.txMetadata = true // partial: db/imp_user not yet available
	case v.Major == 4:
		p.helloAuthInline = true
		p.pullWithArgs = true
		p.transactions = true
		p.txMetadata = true
		if v.atLeast(4, 3) {
			p.impersonatedUser = true
			p.route = true
		}
	case v.Major == 5:
		p.pullWithArgs = true
		p.transactions = true
		p.txMetadata = true
		p.impersonatedUser = true
		p.route = true
		p.boltAgent = true
		if v.Minor == 0 {
			p.helloAuthInline = true
		} else {
			p.helloThenLogon = true
		}
		if v.atLeast(5, 2) {
			p.notificationsMinSev = true
		}
		if v.atLeast(5, 4) {
			p.telemetry = true
		}
		if v.atLeast(5, 6) {
			p.notificationsDisabled = true
		}
	}
	return p
}

// Supported reports whether v is one this package knows how to drive.
func Supported(v Version) bool {
	switch {
	case v.Major >= 1 && v.Major <= 3:
		return true
	case v.Major == 4:
		return v.Minor >= 0 && v.Minor <= 4
	case v.Major == 5:
		return v.Minor >= 0 && v.Minor <= 6 && v.Minor != 5
	default:
		return false
	}
}
