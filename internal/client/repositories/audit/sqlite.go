package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/satkeeper/internal/dbx"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append stores e, filling in ID and OccurredAt when they are empty.
func (r *SQLiteRepository) Append(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auth_events (id, occurred_at, event, username, session_id, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.OccurredAt.UTC(), string(e.Event), e.Username, e.SessionID, e.Detail)
	if err != nil {
		return fmt.Errorf("failed to append audit event %s: %w", e.Event, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, occurred_at, event, username, session_id, detail
		FROM auth_events
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var result []*Entry
	for rows.Next() {
		e := &Entry{}
		var event string
		if err := rows.Scan(&e.ID, &e.OccurredAt, &event, &e.Username, &e.SessionID, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		e.Event = Event(event)
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_events`); err != nil {
		return fmt.Errorf("failed to clear audit events: %w", err)
	}
	return nil
}
