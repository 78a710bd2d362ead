package signing

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/unionhall/ballotproof/internal/core/domain"
)

// ZeroAuditHash is the sentinel previous-hash for the first entry of a
// session's chain: 32 zero bytes, hex-encoded.
const ZeroAuditHash = "0000000000000000000000000000000000000000000000000000000000000000"

const auditHashWidth = len(ZeroAuditHash)

// auditDomainKey is a fixed constant, deliberately distinct from any derived
// session key, so chain integrity stays checkable even if a session's
// signing secret is rotated away.
var auditDomainKey = []byte("ballotproof/audit-chain/v1")

const receiptIDSize = 16

// NewVoteReceipt builds the voter-facing receipt for a signed vote and links
// it to the previous audit entry. Pass an empty prevAuditHash for the first
// vote of a session. Pure construction; persisting the matching audit entry
// is the caller's job.
func NewVoteReceipt(data domain.VoteData, sig domain.VoteSignature, prevAuditHash string) (domain.VoteReceipt, error) {
	idBytes := make([]byte, receiptIDSize)
	if _, err := rand.Read(idBytes); err != nil {
		return domain.VoteReceipt{}, fmt.Errorf("failed to generate receipt id: %w", err)
	}
	receiptID := hex.EncodeToString(idBytes)

	code, err := newVerificationCode()
	if err != nil {
		return domain.VoteReceipt{}, err
	}

	return domain.VoteReceipt{
		ReceiptID:        receiptID,
		VoteHash:         sig.VoteHash,
		Signature:        sig.Signature,
		VotedAt:          data.Timestamp,
		SessionID:        data.SessionID,
		OptionID:         data.OptionID,
		IsAnonymous:      data.VoterID == "",
		VerificationCode: code,
		AuditHash:        ChainAuditHash(prevAuditHash, receiptID, sig.VoteHash),
	}, nil
}

// ChainAuditHash computes the hash linking one audit entry to its
// predecessor. Deterministic given its three inputs, so the integrity scan
// can recompute every link of a stored chain.
func ChainAuditHash(prevAuditHash, receiptID, voteHash string) string {
	payload := padAuditHash(prevAuditHash) + receiptID + voteHash
	return hmacHex(auditDomainKey, []byte(payload))
}

// VerifyVoteReceipt checks a receipt against the vote data the voter claims
// to have cast. It fails closed on a wrong verification code and recomputes
// the vote hash only; the outer signature needs the original nonce, which
// receipts do not carry.
func VerifyVoteReceipt(receipt domain.VoteReceipt, verificationCode string, dataAtCast domain.VoteData, sessionKey []byte) domain.ReceiptCheck {
	if verificationCode != receipt.VerificationCode {
		return domain.ReceiptCheck{Valid: false, Reason: "verification code does not match"}
	}

	expectedHash := hmacHex(sessionKey, []byte(canonicalVote(dataAtCast)))
	if !hmac.Equal([]byte(expectedHash), []byte(receipt.VoteHash)) {
		return domain.ReceiptCheck{Valid: false, Reason: "vote hash mismatch: content differs from what was signed"}
	}

	return domain.ReceiptCheck{
		Valid:         true,
		MatchesOption: receipt.OptionID == dataAtCast.OptionID,
	}
}

// newVerificationCode draws a random 24-bit value and folds it into six
// digits. The code is a human-facing confirmation, not a uniqueness or
// security guarantee; collisions across sessions are accepted.
func newVerificationCode() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	v := binary.BigEndian.Uint32([]byte{0, b[0], b[1], b[2]})
	return fmt.Sprintf("%06d", v%1_000_000), nil
}

func padAuditHash(prev string) string {
	if prev == "" {
		return ZeroAuditHash
	}
	if len(prev) >= auditHashWidth {
		return prev
	}
	return strings.Repeat("0", auditHashWidth-len(prev)) + prev
}
