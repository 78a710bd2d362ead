package ports

import (
	"context"

	"github.com/unionhall/ballotproof/internal/core/domain"
)

type IntegrityService interface {
	VerifySession(ctx context.Context, sessionID string) (*domain.IntegrityReport, error)
}
