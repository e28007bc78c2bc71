package boltlog

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint computes a short, non-reversible hash of a connection's
// auth token (HELLO/LOGON's scheme/principal/credentials map) for use
// in log lines and as a cache key, so credentials are never written
// out in the clear. Grounded in the same "hash what you must expose"
// instinct as the teacher's pkg/encryption, but blake2b rather than
// the teacher's PBKDF2/AES since this is a one-way fingerprint, not a
// reversible encryption at rest.
//
// Fingerprint is order-independent: the same auth map always hashes
// to the same value regardless of map iteration order.
func Fingerprint(auth map[string]any) string {
	if len(auth) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(auth))
	for k := range auth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h, _ := blake2b.New256(nil)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, auth[k])
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}
