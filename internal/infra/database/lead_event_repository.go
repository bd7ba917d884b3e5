package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type LeadEventRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewLeadEventRepository(db *sql.DB, timeout time.Duration) *LeadEventRepository {
	return &LeadEventRepository{DB: db, Timeout: timeout}
}

// Append grava o evento. O log é só de inserção: não há update nem delete.
func (r *LeadEventRepository) Append(ctx context.Context, event *entity.LeadEvent) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	var data *string
	if len(event.Data) > 0 {
		s := string(event.Data)
		data = &s
	}

	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO lead_events (id, lead_id, event_type, event_data)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING created_at
	`, event.ID, event.LeadID, string(event.Type), data).Scan(&event.CreatedAt)
	if err != nil {
		if code := pgCode(err); code == pgInvalidText || code == pgForeignKeyViolation {
			return entity.ErrLeadNotFound
		}
		return classify(err)
	}
	return nil
}

func (r *LeadEventRepository) ListByLead(ctx context.Context, leadID string) ([]entity.LeadEvent, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, lead_id, event_type, event_data, created_at
		FROM lead_events
		WHERE lead_id = $1
		ORDER BY created_at DESC, id
	`, leadID)
	if err != nil {
		if pgCode(err) == pgInvalidText {
			return []entity.LeadEvent{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	events := []entity.LeadEvent{}
	for rows.Next() {
		var (
			e    entity.LeadEvent
			kind string
			data []byte
		)
		if err := rows.Scan(&e.ID, &e.LeadID, &kind, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = entity.EventType(kind)
		if len(data) > 0 {
			e.Data = data
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
