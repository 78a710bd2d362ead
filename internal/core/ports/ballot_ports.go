package ports

import (
	"context"

	"github.com/unionhall/ballotproof/internal/core/domain"
)

type CastVoteInput struct {
	SessionID string
	OptionID  string
	MemberID  string
	Anonymous bool
}

// CastVoteOutput carries the receipt plus whether the matching audit entry
// actually landed. Persistence is optimistic: the receipt is returned even
// when the append failed, and Audited tells the caller which case this is.
type CastVoteOutput struct {
	Receipt domain.VoteReceipt
	Audited bool
}

type CheckReceiptInput struct {
	Receipt          domain.VoteReceipt
	VerificationCode string
	VoteData         domain.VoteData
}

type BallotService interface {
	CastVote(ctx context.Context, input CastVoteInput) (*CastVoteOutput, error)
	CheckReceipt(ctx context.Context, input CheckReceiptInput) (*domain.ReceiptCheck, error)
	// VerifySignature re-checks a vote signature within the cast request's
	// lifecycle; the nonce must come from the original signing call.
	VerifySignature(ctx context.Context, data domain.VoteData, sig domain.VoteSignature) error
}
