package domain

import "errors"

var (
	ErrMissingVotingSecret = errors.New("voting secret is not configured")
	ErrInvalidTimestamp    = errors.New("vote timestamp must be a positive epoch value")
	ErrSignatureExpired    = errors.New("vote signature is older than the allowed window")
	ErrVoteHashMismatch    = errors.New("vote hash does not match the signed content")
	ErrSignatureMismatch   = errors.New("vote signature does not match")
	ErrChainConflict       = errors.New("audit chain tail changed during append")
	ErrSessionNotFound     = errors.New("no audit entries for this session")
)
