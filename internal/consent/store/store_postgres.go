package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"medgate/internal/consent/models"
)

// PostgresStore persists consent records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed consent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const consentColumns = `id, consent_kind, granted_at, expires_at, purpose, status, patient_id, facility_id, granted_by, revoked_at, created_at`

func (s *PostgresStore) Save(ctx context.Context, consent *models.Record) error {
	if consent == nil {
		return fmt.Errorf("consent record is required")
	}
	query := `
		INSERT INTO consent_records (` + consentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		consent.ID,
		string(consent.Kind),
		consent.GrantedAt,
		consent.ExpiresAt,
		consent.Purpose,
		string(consent.Status),
		consent.PatientID,
		consent.FacilityID,
		consent.GrantedBy,
		consent.RevokedAt,
		consent.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, consentID string) (*models.Record, error) {
	query := `SELECT ` + consentColumns + ` FROM consent_records WHERE id = $1`
	record, err := scanConsent(s.db.QueryRowContext(ctx, query, consentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get consent: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string) ([]*models.Record, error) {
	query := `SELECT ` + consentColumns + ` FROM consent_records WHERE patient_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, patientID)
}

func (s *PostgresStore) ListByFacility(ctx context.Context, facilityID string) ([]*models.Record, error) {
	query := `SELECT ` + consentColumns + ` FROM consent_records WHERE facility_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, facilityID)
}

func (s *PostgresStore) ListByPatientAndFacility(ctx context.Context, patientID, facilityID string) ([]*models.Record, error) {
	query := `SELECT ` + consentColumns + ` FROM consent_records WHERE patient_id = $1 AND facility_id = $2 ORDER BY created_at DESC`
	return s.list(ctx, query, patientID, facilityID)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanConsent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consents: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, consentID string, revokedAt time.Time) (*models.Record, error) {
	// Already-revoked records keep their original revoked_at; the flip is
	// one-way and idempotent in outcome.
	query := `
		UPDATE consent_records
		SET status = 'revoked',
		    revoked_at = COALESCE(revoked_at, $2)
		WHERE id = $1
		RETURNING ` + consentColumns
	record, err := scanConsent(s.db.QueryRowContext(ctx, query, consentID, revokedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("revoke consent: %w", err)
	}
	return record, nil
}

type consentRow interface {
	Scan(dest ...any) error
}

func scanConsent(row consentRow) (*models.Record, error) {
	var record models.Record
	var kind, status string
	var grantedAt, expiresAt, revokedAt sql.NullTime
	if err := row.Scan(
		&record.ID, &kind, &grantedAt, &expiresAt, &record.Purpose, &status,
		&record.PatientID, &record.FacilityID, &record.GrantedBy, &revokedAt, &record.CreatedAt,
	); err != nil {
		return nil, err
	}
	record.Kind = models.Kind(kind)
	record.Status = models.Status(status)
	if grantedAt.Valid {
		record.GrantedAt = &grantedAt.Time
	}
	if expiresAt.Valid {
		record.ExpiresAt = &expiresAt.Time
	}
	if revokedAt.Valid {
		record.RevokedAt = &revokedAt.Time
	}
	return &record, nil
}

var _ Store = (*PostgresStore)(nil)
