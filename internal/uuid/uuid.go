// Package uuid generates the opaque identifiers gostomp uses as
// subscription payload seeds (spec §3, §6 "Random capability"). Entropy
// comes from github.com/google/uuid rather than a hand-rolled crypto/rand
// call, the same library the reference codebase reaches for anywhere it
// needs a random 16-byte identifier.
package uuid

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// New returns 16 random bytes, rendered to base64url: standard base64 with
// '+' replaced by '-' and '/' replaced by '_', matching spec §3's Uuid
// type exactly. Padding is deliberately left untouched rather than
// stripped — the spec calls out that "length/padding not sanitized" is
// part of the contract, not an oversight to fix.
func New() string {
	id := uuid.New()
	s := base64.StdEncoding.EncodeToString(id[:])
	s = strings.ReplaceAll(s, "+", "-")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
