package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists identity entities in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed directory store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`
	var user User
	var role string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.Role = Role(role)
	return &user, nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET email = $2, password_hash = $3, role = $4
	`
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFacility(ctx context.Context, facilityID string) (*Facility, error) {
	return s.findFacility(ctx, "id = $1", facilityID)
}

func (s *PostgresStore) GetFacilityByName(ctx context.Context, name string) (*Facility, error) {
	return s.findFacility(ctx, "name = $1", name)
}

func (s *PostgresStore) findFacility(ctx context.Context, where, arg string) (*Facility, error) {
	query := `
		SELECT id, name, facility_type, license_number, location, created_at
		FROM healthcare_facilities
		WHERE ` + where
	var facility Facility
	var ftype string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&facility.ID, &facility.Name, &ftype, &facility.LicenseNumber, &facility.Location, &facility.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find facility: %w", err)
	}
	facility.Type = FacilityType(ftype)
	return &facility, nil
}

func (s *PostgresStore) ListFacilities(ctx context.Context) ([]*Facility, error) {
	query := `
		SELECT id, name, facility_type, license_number, location, created_at
		FROM healthcare_facilities
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []*Facility
	for rows.Next() {
		var facility Facility
		var ftype string
		if err := rows.Scan(&facility.ID, &facility.Name, &ftype, &facility.LicenseNumber, &facility.Location, &facility.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		facility.Type = FacilityType(ftype)
		facilities = append(facilities, &facility)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facilities: %w", err)
	}
	return facilities, nil
}

func (s *PostgresStore) SaveFacility(ctx context.Context, facility *Facility) error {
	query := `
		INSERT INTO healthcare_facilities (id, name, facility_type, license_number, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET name = $2, facility_type = $3, license_number = $4, location = $5
	`
	if facility.CreatedAt.IsZero() {
		facility.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		facility.ID, facility.Name, string(facility.Type), facility.LicenseNumber, facility.Location, facility.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save facility: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPatient(ctx context.Context, patientID string) (*Patient, error) {
	return s.findPatient(ctx, "id = $1", patientID)
}

func (s *PostgresStore) GetPatientByUser(ctx context.Context, userID string) (*Patient, error) {
	return s.findPatient(ctx, "user_id = $1", userID)
}

func (s *PostgresStore) findPatient(ctx context.Context, where, arg string) (*Patient, error) {
	query := `
		SELECT id, national_id_encrypted, first_name, last_name, date_of_birth, user_id, created_at
		FROM patients
		WHERE ` + where
	var patient Patient
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&patient.ID, &patient.NationalIDEncrypted, &patient.FirstName, &patient.LastName,
		&patient.DateOfBirth, &patient.UserID, &patient.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return &patient, nil
}

func (s *PostgresStore) SavePatient(ctx context.Context, patient *Patient) error {
	query := `
		INSERT INTO patients (id, national_id_encrypted, first_name, last_name, date_of_birth, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			national_id_encrypted = $2, first_name = $3, last_name = $4, date_of_birth = $5, user_id = $6
	`
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		patient.ID, patient.NationalIDEncrypted, patient.FirstName, patient.LastName,
		patient.DateOfBirth, patient.UserID, patient.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePatientDemographics(ctx context.Context, patientID, firstName, lastName string, dateOfBirth time.Time) error {
	query := `
		UPDATE patients
		SET first_name = $2, last_name = $3, date_of_birth = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, patientID, firstName, lastName, dateOfBirth)
	if err != nil {
		return fmt.Errorf("update patient demographics: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update patient demographics rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetWorkerByUser(ctx context.Context, userID string) (*Worker, error) {
	query := `
		SELECT id, license_number, job_title, user_id, facility_id, created_at
		FROM healthcare_workers
		WHERE user_id = $1
	`
	var worker Worker
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&worker.ID, &worker.LicenseNumber, &worker.JobTitle, &worker.UserID, &worker.FacilityID, &worker.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get worker: %w", err)
	}
	return &worker, nil
}

func (s *PostgresStore) SaveWorker(ctx context.Context, worker *Worker) error {
	query := `
		INSERT INTO healthcare_workers (id, license_number, job_title, user_id, facility_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET license_number = $2, job_title = $3, user_id = $4, facility_id = $5
	`
	if worker.CreatedAt.IsZero() {
		worker.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, query,
		worker.ID, worker.LicenseNumber, worker.JobTitle, worker.UserID, worker.FacilityID, worker.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save worker: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
