// Package fingerprint derives the stable content identity of a posting.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Job returns the deterministic id for a posting, a hex digest over the
// identity fields. Each field is length-prefixed before hashing so that
// content shifting between fields always changes the id. The id is computed
// once at fetch time and never recomputed for a stored job; it is the dedup
// key across runs.
func Job(source, companyToken, canonicalURL string) string {
	h := sha256.New()
	for _, field := range []string{source, companyToken, canonicalURL} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}
