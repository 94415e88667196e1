package audit

import (
	"context"
	"database/sql"
	"fmt"
)

const auditColumns = `id, action, verdict, reason, occurred_at, source_address, client_info, patient_id, worker_id`

// PostgresStore persists audit entries in the access_logs table.
// There are intentionally no UPDATE or DELETE statements in this file.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO access_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Action),
		string(entry.Verdict),
		entry.Reason,
		entry.Timestamp,
		entry.SourceAddress,
		entry.ClientInfo,
		entry.PatientID,
		entry.WorkerID,
	)
	if err != nil {
		return fmt.Errorf("inserting access log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByWorker(ctx context.Context, workerID string) ([]*Entry, error) {
	return s.list(ctx, `WHERE worker_id = $1`, workerID)
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string) ([]*Entry, error) {
	return s.list(ctx, `WHERE patient_id = $1`, patientID)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*Entry, error) {
	return s.list(ctx, ``)
}

func (s *PostgresStore) list(ctx context.Context, where string, args ...any) ([]*Entry, error) {
	query := `SELECT ` + auditColumns + ` FROM access_logs ` + where + ` ORDER BY occurred_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying access logs: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		e       Entry
		action  string
		verdict string
	)
	err := rows.Scan(
		&e.ID,
		&action,
		&verdict,
		&e.Reason,
		&e.Timestamp,
		&e.SourceAddress,
		&e.ClientInfo,
		&e.PatientID,
		&e.WorkerID,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning access log: %w", err)
	}
	e.Action = Action(action)
	e.Verdict = Verdict(verdict)
	return &e, nil
}
