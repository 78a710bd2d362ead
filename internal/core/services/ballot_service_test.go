package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unionhall/ballotproof/internal/core/domain"
	"github.com/unionhall/ballotproof/internal/core/ports"
	"github.com/unionhall/ballotproof/internal/core/signing"
)

const testSecret = "test-secret-please-rotate"

func newTestBallotService(repo *memoryAuditRepo) ports.BallotService {
	return NewBallotService(repo, testSecret, zap.NewNop().Sugar())
}

func castInput(option, member string) ports.CastVoteInput {
	return ports.CastVoteInput{
		SessionID: "election-2025-q1",
		OptionID:  option,
		MemberID:  member,
	}
}

func TestCastVoteThreadsAuditChain(t *testing.T) {
	repo := newMemoryAuditRepo()
	svc := newTestBallotService(repo)
	ctx := context.Background()

	for i, option := range []string{"candidate-A", "candidate-B", "candidate-A"} {
		out, err := svc.CastVote(ctx, castInput(option, "member-123"))
		require.NoError(t, err)
		require.True(t, out.Audited)
		assert.Equal(t, option, out.Receipt.OptionID, "vote %d", i)
		assert.Len(t, out.Receipt.ReceiptID, 32)
		assert.Regexp(t, `^\d{6}$`, out.Receipt.VerificationCode)
	}

	entries, err := repo.ListBySession(ctx, "election-2025-q1")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, signing.ZeroAuditHash, entries[0].PrevAuditHash)
	assert.Equal(t, entries[0].AuditHash, entries[1].PrevAuditHash)
	assert.Equal(t, entries[1].AuditHash, entries[2].PrevAuditHash)

	for _, e := range entries {
		assert.Equal(t, signing.ChainAuditHash(e.PrevAuditHash, e.ReceiptID, e.VoteHash), e.AuditHash)
		assert.True(t, e.ChainValid)
		assert.NotEmpty(t, e.Nonce)
	}
}

func TestCastVoteAnonymousOmitsMember(t *testing.T) {
	repo := newMemoryAuditRepo()
	svc := newTestBallotService(repo)

	input := castInput("candidate-A", "member-123")
	input.Anonymous = true
	out, err := svc.CastVote(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, out.Receipt.IsAnonymous)

	entries, err := repo.ListBySession(context.Background(), "election-2025-q1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].MemberID)
	assert.True(t, entries[0].IsAnonymous)
}

func TestCastVoteRetriesOnChainConflict(t *testing.T) {
	repo := newMemoryAuditRepo()
	repo.conflictOnce = true
	svc := newTestBallotService(repo)

	out, err := svc.CastVote(context.Background(), castInput("candidate-A", "member-123"))
	require.NoError(t, err)
	assert.True(t, out.Audited)

	entries, err := repo.ListBySession(context.Background(), "election-2025-q1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCastVoteReturnsReceiptWhenPersistenceFails(t *testing.T) {
	repo := newMemoryAuditRepo()
	repo.appendErr = errors.New("connection refused")
	svc := newTestBallotService(repo)

	out, err := svc.CastVote(context.Background(), castInput("candidate-A", "member-123"))
	require.NoError(t, err)
	assert.False(t, out.Audited)
	assert.NotEmpty(t, out.Receipt.ReceiptID)
}

func TestCastVoteRequiresSecret(t *testing.T) {
	svc := NewBallotService(newMemoryAuditRepo(), "", zap.NewNop().Sugar())

	_, err := svc.CastVote(context.Background(), castInput("candidate-A", "member-123"))
	assert.ErrorIs(t, err, domain.ErrMissingVotingSecret)
}

func TestCheckReceiptRoundTrip(t *testing.T) {
	repo := newMemoryAuditRepo()
	svc := newTestBallotService(repo)
	ctx := context.Background()

	out, err := svc.CastVote(ctx, castInput("candidate-A", "member-123"))
	require.NoError(t, err)

	dataAtCast := domain.VoteData{
		SessionID: out.Receipt.SessionID,
		OptionID:  out.Receipt.OptionID,
		VoterID:   "member-123",
		Timestamp: out.Receipt.VotedAt,
	}

	check, err := svc.CheckReceipt(ctx, ports.CheckReceiptInput{
		Receipt:          out.Receipt,
		VerificationCode: out.Receipt.VerificationCode,
		VoteData:         dataAtCast,
	})
	require.NoError(t, err)
	assert.True(t, check.Valid)
	assert.True(t, check.MatchesOption)

	wrongCode, err := svc.CheckReceipt(ctx, ports.CheckReceiptInput{
		Receipt:          out.Receipt,
		VerificationCode: "999999",
		VoteData:         dataAtCast,
	})
	require.NoError(t, err)
	if out.Receipt.VerificationCode != "999999" {
		assert.False(t, wrongCode.Valid)
	}
}

func TestVerifySignatureWithinRequest(t *testing.T) {
	svc := newTestBallotService(newMemoryAuditRepo())
	ctx := context.Background()

	key, err := signing.DeriveSessionKey("election-2025-q1", testSecret)
	require.NoError(t, err)

	data := domain.VoteData{
		SessionID: "election-2025-q1",
		OptionID:  "candidate-A",
		VoterID:   "member-123",
		Timestamp: time.Now().Unix(),
	}
	sig, err := signing.SignVote(data, key)
	require.NoError(t, err)

	assert.NoError(t, svc.VerifySignature(ctx, data, sig))

	altered := data
	altered.OptionID = "candidate-B"
	assert.ErrorIs(t, svc.VerifySignature(ctx, altered, sig), domain.ErrVoteHashMismatch)

	badSig := sig
	badSig.Signature = badSig.Signature[:63] + "0"
	if badSig.Signature == sig.Signature {
		badSig.Signature = badSig.Signature[:63] + "1"
	}
	assert.ErrorIs(t, svc.VerifySignature(ctx, data, badSig), domain.ErrSignatureMismatch)
}
