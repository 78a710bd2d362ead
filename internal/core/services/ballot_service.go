package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unionhall/ballotproof/internal/core/domain"
	"github.com/unionhall/ballotproof/internal/core/ports"
	"github.com/unionhall/ballotproof/internal/core/signing"
)

// maxAppendRetries bounds the optimistic re-reads of the chain tail when a
// concurrent cast in the same session wins the race.
const maxAppendRetries = 3

type ballotService struct {
	auditRepo ports.AuditLogRepository
	secret    string
	maxSigAge time.Duration
	log       *zap.SugaredLogger

	// Both maps grow with the number of distinct session ids this process
	// has seen and are never evicted. A deployment handles a handful of
	// concurrent elections; revisit if sessions ever become unbounded
	// caller input.
	keyMu sync.Mutex
	keys  map[string][]byte

	lockMu       sync.Mutex
	sessionLocks map[string]*sync.Mutex

	now func() time.Time
}

// NewBallotService wires the cast-vote flow. The voting secret is checked
// lazily on first use, not here, so a misconfigured deployment fails at the
// first cast rather than at startup.
func NewBallotService(auditRepo ports.AuditLogRepository, secret string, log *zap.SugaredLogger) ports.BallotService {
	return &ballotService{
		auditRepo:    auditRepo,
		secret:       secret,
		maxSigAge:    signing.DefaultMaxSignatureAge,
		log:          log,
		keys:         make(map[string][]byte),
		sessionLocks: make(map[string]*sync.Mutex),
		now:          time.Now,
	}
}

func (s *ballotService) CastVote(ctx context.Context, input ports.CastVoteInput) (*ports.CastVoteOutput, error) {
	key, err := s.sessionKey(input.SessionID)
	if err != nil {
		return nil, err
	}

	voterID := input.MemberID
	if input.Anonymous {
		voterID = ""
	}
	data := domain.VoteData{
		SessionID: input.SessionID,
		OptionID:  input.OptionID,
		VoterID:   voterID,
		Timestamp: s.now().Unix(),
	}

	sig, err := signing.SignVote(data, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign vote: %w", err)
	}

	// Appends for one session are serialized in-process; the unique
	// constraint on (session_id, prev_audit_hash) backstops other writers.
	lock := s.sessionLock(input.SessionID)
	lock.Lock()
	defer lock.Unlock()

	var receipt domain.VoteReceipt
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		tail, err := s.auditRepo.TailHash(ctx, input.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to read audit chain tail: %w", err)
		}

		receipt, err = signing.NewVoteReceipt(data, sig, tail)
		if err != nil {
			return nil, err
		}

		entry := s.auditEntry(receipt, sig, tail, input)
		err = s.auditRepo.Append(ctx, entry)
		if err == nil {
			return &ports.CastVoteOutput{Receipt: receipt, Audited: true}, nil
		}
		if errors.Is(err, domain.ErrChainConflict) {
			s.log.Warnw("audit chain tail moved, retrying append",
				"session_id", input.SessionID, "attempt", attempt+1)
			continue
		}

		// Optimistic persistence: the voter keeps the receipt even when the
		// audit write fails. Audited=false lets stricter deployments reject
		// the cast at the handler instead.
		s.log.Errorw("failed to persist audit entry, returning unaudited receipt",
			"session_id", input.SessionID, "receipt_id", receipt.ReceiptID, "error", err)
		return &ports.CastVoteOutput{Receipt: receipt, Audited: false}, nil
	}

	s.log.Errorw("audit append retries exhausted, returning unaudited receipt",
		"session_id", input.SessionID, "receipt_id", receipt.ReceiptID)
	return &ports.CastVoteOutput{Receipt: receipt, Audited: false}, nil
}

func (s *ballotService) CheckReceipt(ctx context.Context, input ports.CheckReceiptInput) (*domain.ReceiptCheck, error) {
	key, err := s.sessionKey(input.VoteData.SessionID)
	if err != nil {
		return nil, err
	}

	check := signing.VerifyVoteReceipt(input.Receipt, input.VerificationCode, input.VoteData, key)
	if !check.Valid {
		s.log.Warnw("receipt verification failed",
			"session_id", input.VoteData.SessionID,
			"receipt_id", input.Receipt.ReceiptID,
			"reason", check.Reason)
	}
	return &check, nil
}

func (s *ballotService) VerifySignature(ctx context.Context, data domain.VoteData, sig domain.VoteSignature) error {
	key, err := s.sessionKey(data.SessionID)
	if err != nil {
		return err
	}

	err = signing.VerifyVoteSignature(data, sig, key, s.maxSigAge)
	switch {
	case errors.Is(err, domain.ErrSignatureExpired):
		s.log.Warnw("vote signature expired", "session_id", data.SessionID, "timestamp", data.Timestamp)
	case errors.Is(err, domain.ErrVoteHashMismatch):
		s.log.Warnw("vote hash mismatch", "session_id", data.SessionID)
	case errors.Is(err, domain.ErrSignatureMismatch):
		s.log.Warnw("vote signature mismatch", "session_id", data.SessionID)
	}
	return err
}

// sessionKey derives and caches the per-session signing key. PBKDF2 at the
// configured iteration count is too slow to re-run on every cast.
func (s *ballotService) sessionKey(sessionID string) ([]byte, error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	if key, ok := s.keys[sessionID]; ok {
		return key, nil
	}
	key, err := signing.DeriveSessionKey(sessionID, s.secret)
	if err != nil {
		return nil, err
	}
	s.keys[sessionID] = key
	return key, nil
}

func (s *ballotService) sessionLock(sessionID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	return lock
}

func (s *ballotService) auditEntry(receipt domain.VoteReceipt, sig domain.VoteSignature, tail string, input ports.CastVoteInput) *domain.AuditLogEntry {
	prev := tail
	if prev == "" {
		prev = signing.ZeroAuditHash
	}
	memberID := input.MemberID
	if input.Anonymous {
		memberID = ""
	}
	return &domain.AuditLogEntry{
		ID:               uuid.New(),
		SessionID:        receipt.SessionID,
		MemberID:         memberID,
		ReceiptID:        receipt.ReceiptID,
		VoteHash:         receipt.VoteHash,
		Signature:        receipt.Signature,
		Nonce:            sig.Nonce,
		AuditHash:        receipt.AuditHash,
		PrevAuditHash:    prev,
		VotedAt:          receipt.VotedAt,
		VerificationCode: receipt.VerificationCode,
		IsAnonymous:      receipt.IsAnonymous,
		ChainValid:       true,
	}
}
