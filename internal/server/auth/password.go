package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength is the shortest password the hasher accepts.
const MinSecretLength = 6

// bcrypt ignores input past 72 bytes.
const bcryptMaxInput = 72

// PasswordHasher hashes and verifies user passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher with the given bcrypt cost. Costs outside
// bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of secret. Empty or too short secrets
// yield common.ErrorInvalidInput.
func (h *PasswordHasher) Hash(secret string) (string, error) {
	if len(secret) < MinSecretLength {
		return "", common.ErrorInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword(prepare(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash. Malformed hashes are a mismatch.
func (h *PasswordHasher) Verify(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(secret)) == nil
}

// prepare condenses secrets longer than bcrypt's input limit so that every
// byte of them counts.
func prepare(secret string) []byte {
	if len(secret) <= bcryptMaxInput {
		return []byte(secret)
	}
	sum := sha256.Sum256([]byte(secret))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
