package signing

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/unionhall/ballotproof/internal/core/domain"
)

const (
	// Iteration count calibrated for current hardware; revisit periodically.
	kdfIterations = 600_000
	kdfKeyLen     = 32

	saltPrefix = "voting:"
)

// DeriveSessionKey derives the 256-bit signing key for one voting session
// from the long-lived secret. The salt is bound to the session id so two
// sessions never share a key even under the same secret.
func DeriveSessionKey(sessionID, secret string) ([]byte, error) {
	if secret == "" {
		return nil, domain.ErrMissingVotingSecret
	}
	salt := []byte(saltPrefix + sessionID)
	return pbkdf2.Key([]byte(secret), salt, kdfIterations, kdfKeyLen, sha256.New), nil
}
