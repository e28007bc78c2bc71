package bolt

// Magic is the 4-byte preamble that precedes the handshake's version
// slots on every Bolt connection.
var Magic = [4]byte{0x60, 0x60, 0xB0, 0x17}

// numSlots is the fixed number of version slots a client advertises.
const numSlots = 4

// slot encodes a single advertised version. For majors 1-3 the wire
// form is {0,0,0,major}; for 4+ it is {0,range,minor,major}, where
// range is how many additional minors below minor the server may pick
// (inclusive), letting one slot cover a contiguous band of minors.
type slot struct {
	major int
	minor int
	// rangeDown is how many minors below minor are also acceptable:
	// the slot covers [minor-rangeDown, minor].
	rangeDown int
}

func (s slot) encode() [4]byte {
	if s.major == 0 && s.minor == 0 && s.rangeDown == 0 {
		return [4]byte{}
	}
	if s.major < 4 {
		return [4]byte{0, 0, 0, byte(s.major)}
	}
	return [4]byte{0, byte(s.rangeDown), byte(s.minor), byte(s.major)}
}

func decodeSlot(b [4]byte) slot {
	if b == ([4]byte{}) {
		return slot{}
	}
	if b[1] == 0 && b[2] == 0 {
		return slot{major: int(b[3])}
	}
	return slot{major: int(b[3]), minor: int(b[2]), rangeDown: int(b[1])}
}

// DefaultProposal returns the four-slot negotiation policy: latest
// supported (5.6 with range 4, covering 5.2-5.6), then 4.4 with range
// 4 (covering 4.0-4.4), then bare v3, then bare v2.
//
// Bolt's slot format can only express contiguous minor ranges, so slot
// 0 numerically spans the unused 5.5; no server ever answers with it
// (the version was never released), and Supported rejects it should
// one somehow try.
func DefaultProposal() [numSlots]slot {
	return [numSlots]slot{
		{major: 5, minor: 6, rangeDown: 4},
		{major: 4, minor: 4, rangeDown: 4},
		{major: 3},
		{major: 2},
	}
}

// EncodeHandshake builds the full handshake message: magic preamble
// followed by the four encoded version slots.
func EncodeHandshake(proposal [numSlots]slot) []byte {
	out := make([]byte, 0, 4+numSlots*4)
	out = append(out, Magic[:]...)
	for _, s := range proposal {
		enc := s.encode()
		out = append(out, enc[:]...)
	}
	return out
}

// DecodeHandshakeResponse parses the server's single 4-byte version
// reply. A zero slot means the server rejected every proposal.
func DecodeHandshakeResponse(b []byte) (Version, error) {
	if len(b) != 4 {
		return Version{}, wrapErr(ErrKindHandshake, nil, "malformed handshake response: %d bytes", len(b))
	}
	var arr [4]byte
	copy(arr[:], b)
	if arr == ([4]byte{}) {
		return Version{}, ErrHandshakeRejected
	}
	s := decodeSlot(arr)
	v := Version{Major: s.major, Minor: s.minor}
	if !Supported(v) {
		return Version{}, wrapErr(ErrKindHandshake, nil, "server selected unsupported version %s", v)
	}
	return v, nil
}

// ServerSelect picks the version a server would reply with given a
// proposal and the server's own descending-preference supported list.
// Used by the in-process fixture server (pkg/fixture) and tests; real
// servers implement their own selection.
func ServerSelect(proposal [4][4]byte, serverSupports []Version) [4]byte {
	for _, raw := range proposal {
		s := decodeSlot(raw)
		if s.major == 0 && s.minor == 0 && s.rangeDown == 0 {
			continue
		}
		for _, sv := range serverSupports {
			if s.major < 4 {
				if sv.Major == s.major {
					return slot{major: sv.Major}.encodeNoRange()
				}
				continue
			}
			if sv.Major != s.major {
				continue
			}
			if sv.Minor <= s.minor && sv.Minor >= s.minor-s.rangeDown {
				return slot{major: sv.Major, minor: sv.Minor}.encodeNoRange()
			}
		}
	}
	return [4]byte{}
}

func (s slot) encodeNoRange() [4]byte {
	if s.major < 4 {
		return [4]byte{0, 0, 0, byte(s.major)}
	}
	return [4]byte{0, 0, byte(s.minor), byte(s.major)}
}
