// Package history stores the tickets the client has issued, in the order
// they were issued. Entries are never updated or removed.
package history

import (
	"context"
	"time"
)

type Entry struct {
	ID        int64
	Name      string
	Email     string
	EventName string
	// Payload is the exact QR content that was issued.
	Payload   string
	CreatedAt time.Time
}

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context) ([]Entry, error)
}
