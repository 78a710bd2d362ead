package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unionhall/ballotproof/internal/core/domain"
	"github.com/unionhall/ballotproof/internal/core/ports"
)

// seedChain casts three sequential votes into the repo and returns the
// integrity service sharing the same secret.
func seedChain(t *testing.T, repo *memoryAuditRepo) ports.IntegrityService {
	t.Helper()
	svc := newTestBallotService(repo)
	for _, option := range []string{"candidate-A", "candidate-B", "candidate-A"} {
		_, err := svc.CastVote(context.Background(), castInput(option, "member-123"))
		require.NoError(t, err)
	}
	return NewIntegrityService(repo, testSecret, zap.NewNop().Sugar())
}

func TestVerifySessionCleanChain(t *testing.T) {
	repo := newMemoryAuditRepo()
	integrity := seedChain(t, repo)

	report, err := integrity.VerifySession(context.Background(), "election-2025-q1")
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.True(t, report.ChainValid)
	assert.Equal(t, 3, report.VoteCount)
	assert.Zero(t, report.TamperedVotes)
	assert.Empty(t, report.Issues)
}

func TestVerifySessionFlagsTamperedReceiptID(t *testing.T) {
	repo := newMemoryAuditRepo()
	integrity := seedChain(t, repo)

	// Flip the second entry's receipt id: its audit hash no longer
	// recomputes, and every later link inherits the divergence.
	repo.entries[1].ReceiptID = "00000000000000000000000000000000"

	report, err := integrity.VerifySession(context.Background(), "election-2025-q1")
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.False(t, report.ChainValid)
	assert.Equal(t, 3, report.VoteCount)
	assert.Equal(t, 2, report.TamperedVotes)
	assert.NotEmpty(t, report.Issues)

	assert.True(t, repo.entries[0].ChainValid)
	assert.False(t, repo.entries[1].ChainValid)
	assert.False(t, repo.entries[2].ChainValid)
	assert.NotEmpty(t, repo.entries[1].TamperNotes)
}

func TestVerifySessionFlagsTamperedAuditHash(t *testing.T) {
	repo := newMemoryAuditRepo()
	integrity := seedChain(t, repo)

	// Overwriting a stored audit hash must not let the recomputed chain
	// quietly take over: the entry and everything after it are suspect.
	repo.entries[1].AuditHash = "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

	report, err := integrity.VerifySession(context.Background(), "election-2025-q1")
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.False(t, report.ChainValid)
	assert.Equal(t, 2, report.TamperedVotes)

	assert.True(t, repo.entries[0].ChainValid)
	assert.False(t, repo.entries[1].ChainValid)
	assert.False(t, repo.entries[2].ChainValid)
}

func TestVerifySessionFlagsTamperedVoteHash(t *testing.T) {
	repo := newMemoryAuditRepo()
	integrity := seedChain(t, repo)

	// A flipped vote hash breaks the head's audit hash and signature, and
	// taints the whole chain after it.
	repo.entries[0].VoteHash = "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

	report, err := integrity.VerifySession(context.Background(), "election-2025-q1")
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.Equal(t, 3, report.TamperedVotes)
}

func TestVerifySessionFlagsTamperedSignature(t *testing.T) {
	repo := newMemoryAuditRepo()
	integrity := seedChain(t, repo)

	// The signature is not part of the chain hash, so only this entry is
	// reported and the rest of the chain still verifies.
	repo.entries[2].Signature = "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

	report, err := integrity.VerifySession(context.Background(), "election-2025-q1")
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.True(t, report.ChainValid)
	assert.Equal(t, 1, report.TamperedVotes)
	assert.True(t, repo.entries[0].ChainValid)
	assert.True(t, repo.entries[1].ChainValid)
	assert.False(t, repo.entries[2].ChainValid)
}

func TestVerifySessionUnknownSession(t *testing.T) {
	repo := newMemoryAuditRepo()
	integrity := NewIntegrityService(repo, testSecret, zap.NewNop().Sugar())

	_, err := integrity.VerifySession(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestVerifySessionRequiresSecret(t *testing.T) {
	repo := newMemoryAuditRepo()
	integrity := NewIntegrityService(repo, "", zap.NewNop().Sugar())

	_, err := integrity.VerifySession(context.Background(), "election-2025-q1")
	assert.ErrorIs(t, err, domain.ErrMissingVotingSecret)
}
