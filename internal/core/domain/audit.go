package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry is one persisted link of a session's hash chain. Entries are
// append-only; only the tamper-flag fields are ever updated, and only by the
// integrity scan.
type AuditLogEntry struct {
	ID               uuid.UUID `json:"id"`
	SessionID        string    `json:"session_id"`
	MemberID         string    `json:"member_id,omitempty"`
	ReceiptID        string    `json:"receipt_id"`
	VoteHash         string    `json:"vote_hash"`
	Signature        string    `json:"signature"`
	Nonce            string    `json:"nonce"`
	AuditHash        string    `json:"audit_hash"`
	PrevAuditHash    string    `json:"prev_audit_hash"`
	VotedAt          int64     `json:"voted_at"`
	VerificationCode string    `json:"verification_code"`
	IsAnonymous      bool      `json:"is_anonymous"`
	ChainValid       bool      `json:"chain_valid"`
	TamperNotes      string    `json:"tamper_notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// IntegrityReport aggregates a full-chain verification pass over one session.
type IntegrityReport struct {
	SessionID     string   `json:"session_id"`
	Valid         bool     `json:"valid"`
	VoteCount     int      `json:"vote_count"`
	ChainValid    bool     `json:"chain_valid"`
	TamperedVotes int      `json:"tampered_votes,omitempty"`
	Issues        []string `json:"issues,omitempty"`
}
