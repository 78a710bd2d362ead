package signing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/unionhall/ballotproof/internal/core/domain"
)

// DefaultMaxSignatureAge is the hard TTL on a vote signature's timestamp.
const DefaultMaxSignatureAge = 300 * time.Second

const nonceSize = 16

// timeNow is swapped out in tests to pin the verification clock.
var timeNow = time.Now

// SignVote computes the keyed hash of the vote content and signs it together
// with a fresh random nonce. Two calls over identical content produce the
// same vote hash but different signatures.
func SignVote(data domain.VoteData, sessionKey []byte) (domain.VoteSignature, error) {
	if data.Timestamp <= 0 {
		return domain.VoteSignature{}, domain.ErrInvalidTimestamp
	}

	voteHash := hmacHex(sessionKey, []byte(canonicalVote(data)))

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return domain.VoteSignature{}, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonceHex := hex.EncodeToString(nonce)

	return domain.VoteSignature{
		VoteHash:  voteHash,
		Signature: outerSignature(sessionKey, voteHash, nonceHex, data.Timestamp),
		Nonce:     nonceHex,
	}, nil
}

// VerifyVoteSignature re-derives both hashes from the vote content and the
// signature's own nonce. The three rejection paths return distinct errors so
// callers can log them apart.
func VerifyVoteSignature(data domain.VoteData, sig domain.VoteSignature, sessionKey []byte, maxAge time.Duration) error {
	if maxAge <= 0 {
		maxAge = DefaultMaxSignatureAge
	}
	if timeNow().Unix()-data.Timestamp > int64(maxAge.Seconds()) {
		return domain.ErrSignatureExpired
	}

	expectedHash := hmacHex(sessionKey, []byte(canonicalVote(data)))
	if !hmac.Equal([]byte(expectedHash), []byte(sig.VoteHash)) {
		return domain.ErrVoteHashMismatch
	}

	expectedSig := outerSignature(sessionKey, sig.VoteHash, sig.Nonce, data.Timestamp)
	if !hmac.Equal([]byte(expectedSig), []byte(sig.Signature)) {
		return domain.ErrSignatureMismatch
	}
	return nil
}

// VerifySignatureParts re-checks the outer signature from its committed
// parts. The integrity scan uses this with the persisted nonce to validate
// entries long after the original vote content is gone.
func VerifySignatureParts(voteHash, nonce string, timestamp int64, signature string, sessionKey []byte) bool {
	expected := outerSignature(sessionKey, voteHash, nonce, timestamp)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// canonicalVote produces the order-stable serialization the vote hash commits
// to. Each field is length-prefixed so caller-supplied values cannot shift
// content between fields and collide. Field order and framing are fixed here
// and must never change once receipts exist.
func canonicalVote(data domain.VoteData) string {
	var b strings.Builder
	for _, field := range []string{data.SessionID, data.OptionID, data.VoterID} {
		fmt.Fprintf(&b, "%d:%s|", len(field), field)
	}
	fmt.Fprintf(&b, "%d", data.Timestamp)
	return b.String()
}

func outerSignature(sessionKey []byte, voteHash, nonce string, timestamp int64) string {
	payload := fmt.Sprintf("%s:%s:%d", voteHash, nonce, timestamp)
	return hmacHex(sessionKey, []byte(payload))
}

func hmacHex(key, payload []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
