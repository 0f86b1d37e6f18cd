// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the number of password bytes bcrypt reads. Longer passwords
// are truncated, so they hash and verify like their first MaxLength bytes.
const MaxLength = 72

// Hasher hashes passwords at a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// New returns a Hasher. Costs outside bcrypt's accepted range fall back to
// bcrypt.DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(truncate(plain), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password failed")
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. Malformed digests never match.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), truncate(plain)) == nil
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > MaxLength {
		b = b[:MaxLength]
	}
	return b
}
