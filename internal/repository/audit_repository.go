package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// AuditLogRepository reads the append-only transition journal. Writes go
// through TicketRepository so the entry lands in the same transaction as
// the ticket mutation it records.
type AuditLogRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEntry, error)
	CountByTicket(ctx context.Context, ticketID string) (int, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditEntry, error) {
	const query = `
        SELECT id, ticket_id, event_kind, resulting_status, actor_type, actor_id, actor_name, note, created_at
        FROM ticket_audit WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.EventKind,
			&entry.ResultingStatus,
			&entry.ActorType,
			&entry.ActorID,
			&entry.ActorName,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *auditLogRepository) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_audit WHERE ticket_id=$1`, ticketID).Scan(&count)
	return count, err
}
