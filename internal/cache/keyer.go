// Package cache provides the request fingerprint derivation and the
// process-wide bounded result cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// keyInputs is the canonical, fixed-order tuple of the semantically
// relevant request fields. Marshaling a struct (not a map) guarantees
// the same byte stream for logically identical requests regardless of
// how the caller ordered its arguments.
type keyInputs struct {
	Query     string   `json:"query"`
	Depth     int      `json:"depth"`
	Breadth   int      `json:"breadth"`
	Learnings []string `json:"learnings"`
}

// Fingerprint derives a deterministic hex digest identifying a logical
// research request. Identical field values always produce the same
// fingerprint; any field difference changes it.
//
// Canonicalization is best-effort: if JSON encoding ever fails, the
// fingerprint degrades to hashing a printf rendering of the inputs. A
// degraded key can only cause a cache miss, which is an acceptable
// cost; failing the tool call over a cache key is not.
func Fingerprint(query string, depth, breadth int, learnings []string) string {
	in := keyInputs{Query: query, Depth: depth, Breadth: breadth, Learnings: learnings}

	canonical, err := json.Marshal(in)
	if err != nil {
		canonical = []byte(fmt.Sprintf("%s|%d|%d|%v", query, depth, breadth, learnings))
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
