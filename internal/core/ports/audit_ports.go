package ports

import (
	"context"

	"github.com/unionhall/ballotproof/internal/core/domain"
)

// AuditLogRepository is the append-only store behind the per-session hash
// chains. Append must fail with domain.ErrChainConflict when another writer
// has already claimed the same previous hash for the session.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	TailHash(ctx context.Context, sessionID string) (string, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.AuditLogEntry, error)
	FlagTampered(ctx context.Context, entryID string, notes string) error
}
