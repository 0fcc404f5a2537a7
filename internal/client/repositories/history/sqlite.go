package history

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventpass/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append inserts e and fills in its ID. A zero CreatedAt is set to now.
func (r *SQLiteRepository) Append(ctx context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO registration_history (name, email, event_name, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Name, e.Email, e.EventName, e.Payload, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get history entry id: %w", err)
	}
	e.ID = id
	return nil
}

// List returns every entry, oldest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, event_name, payload, created_at
		FROM registration_history ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.EventName, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return result, nil
}
