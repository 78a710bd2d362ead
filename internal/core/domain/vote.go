package domain

// VoteData is the transient content of a cast vote. It is never persisted
// directly; only its keyed hash reaches the audit log.
type VoteData struct {
	SessionID string `json:"session_id"`
	OptionID  string `json:"option_id"`
	VoterID   string `json:"voter_id"`
	Timestamp int64  `json:"timestamp"`
}

// VoteSignature binds a vote's content to a fresh nonce. It lives for the
// duration of the cast request.
type VoteSignature struct {
	VoteHash  string `json:"vote_hash"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

// VoteReceipt is returned to the voter after a successful cast. The
// verification code is handed over out-of-band and is a human convenience,
// not a cryptographic credential.
type VoteReceipt struct {
	ReceiptID        string `json:"receipt_id"`
	VoteHash         string `json:"vote_hash"`
	Signature        string `json:"signature"`
	VotedAt          int64  `json:"voted_at"`
	SessionID        string `json:"session_id"`
	OptionID         string `json:"option_id"`
	IsAnonymous      bool   `json:"is_anonymous"`
	VerificationCode string `json:"verification_code"`
	AuditHash        string `json:"audit_hash"`
}

// ReceiptCheck is the outcome of verifying a receipt against the vote data
// supplied at cast time. This path recomputes the vote hash only; the outer
// signature needs the original nonce and is checked by the integrity scan.
type ReceiptCheck struct {
	Valid         bool   `json:"valid"`
	Reason        string `json:"reason,omitempty"`
	MatchesOption bool   `json:"matches_option"`
}
