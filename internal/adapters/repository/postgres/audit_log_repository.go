package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/unionhall/ballotproof/internal/core/domain"
	"github.com/unionhall/ballotproof/internal/core/ports"
)

// uniqueViolation is the Postgres error code raised when two appends claim
// the same chain tail; the unique index on (session_id, prev_audit_hash)
// turns that race into a retryable conflict.
const uniqueViolation = "23505"

type auditLogRepository struct {
	db *sql.DB
}

func NewAuditLogRepository(db *sql.DB) ports.AuditLogRepository {
	return &auditLogRepository{
		db: db,
	}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (
			id, session_id, member_id, receipt_id, vote_hash, signature, nonce,
			audit_hash, prev_audit_hash, voted_at, verification_code,
			is_anonymous, chain_valid
		)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SessionID, entry.MemberID, entry.ReceiptID,
		entry.VoteHash, entry.Signature, entry.Nonce,
		entry.AuditHash, entry.PrevAuditHash, entry.VotedAt,
		entry.VerificationCode, entry.IsAnonymous, entry.ChainValid,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrChainConflict
		}
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *auditLogRepository) TailHash(ctx context.Context, sessionID string) (string, error) {
	query := `
		SELECT audit_hash FROM audit_log
		WHERE session_id = $1
		ORDER BY voted_at DESC, created_at DESC
		LIMIT 1
	`
	var tail string
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&tail)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to read audit chain tail: %w", err)
	}
	return tail, nil
}

func (r *auditLogRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.AuditLogEntry, error) {
	query := `
		SELECT id, session_id, COALESCE(member_id, ''), receipt_id, vote_hash,
			signature, nonce, audit_hash, prev_audit_hash, voted_at,
			verification_code, is_anonymous, chain_valid,
			COALESCE(tamper_notes, ''), created_at
		FROM audit_log
		WHERE session_id = $1
		ORDER BY voted_at ASC, created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		err := rows.Scan(
			&e.ID, &e.SessionID, &e.MemberID, &e.ReceiptID, &e.VoteHash,
			&e.Signature, &e.Nonce, &e.AuditHash, &e.PrevAuditHash, &e.VotedAt,
			&e.VerificationCode, &e.IsAnonymous, &e.ChainValid,
			&e.TamperNotes, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

func (r *auditLogRepository) FlagTampered(ctx context.Context, entryID string, notes string) error {
	query := `
		UPDATE audit_log
		SET chain_valid = FALSE, tamper_notes = $2
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, entryID, notes)
	if err != nil {
		return fmt.Errorf("failed to flag audit entry: %w", err)
	}
	return nil
}
