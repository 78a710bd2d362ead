package services

import (
	"context"
	"sync"

	"github.com/unionhall/ballotproof/internal/core/domain"
)

// memoryAuditRepo is an in-memory AuditLogRepository mirroring the Postgres
// adapter's contract, including the single-tail uniqueness rule.
type memoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry

	appendErr    error
	conflictOnce bool
}

func newMemoryAuditRepo() *memoryAuditRepo {
	return &memoryAuditRepo{}
}

func (r *memoryAuditRepo) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflictOnce {
		r.conflictOnce = false
		return domain.ErrChainConflict
	}
	if r.appendErr != nil {
		return r.appendErr
	}
	for _, e := range r.entries {
		if e.SessionID == entry.SessionID && e.PrevAuditHash == entry.PrevAuditHash {
			return domain.ErrChainConflict
		}
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memoryAuditRepo) TailHash(ctx context.Context, sessionID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tail := ""
	for _, e := range r.entries {
		if e.SessionID == sessionID {
			tail = e.AuditHash
		}
	}
	return tail, nil
}

func (r *memoryAuditRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []domain.AuditLogEntry
	for _, e := range r.entries {
		if e.SessionID == sessionID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (r *memoryAuditRepo) FlagTampered(ctx context.Context, entryID string, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].ID.String() == entryID {
			r.entries[i].ChainValid = false
			r.entries[i].TamperNotes = notes
			return nil
		}
	}
	return nil
}
