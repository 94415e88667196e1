package audit

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("audit entry not found")

// Store persists access-log entries. The interface is deliberately
// append-plus-read: there is no way to mutate or remove an entry.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ListByWorker(ctx context.Context, workerID string) ([]*Entry, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Entry, error)
	ListAll(ctx context.Context) ([]*Entry, error)
}
