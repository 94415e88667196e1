package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medgate/internal/consent/models"
	consentstore "medgate/internal/consent/store"
	"medgate/internal/directory"
)

// Cipher encrypts national IDs before they touch the patient cache.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
}

// Seeder populates stores with demo data for local development.
type Seeder struct {
	directory directory.Store
	consents  consentstore.Store
	cipher    Cipher
	logger    *slog.Logger
}

// New creates a new seeder.
func New(dir directory.Store, consents consentstore.Store, cipher Cipher, logger *slog.Logger) *Seeder {
	return &Seeder{
		directory: dir,
		consents:  consents,
		cipher:    cipher,
		logger:    logger,
	}
}

// SeedAll populates all stores with demo data.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data...")

	if err := s.seedFacilities(ctx); err != nil {
		return fmt.Errorf("failed to seed facilities: %w", err)
	}
	if err := s.seedUsersAndPatients(ctx); err != nil {
		return fmt.Errorf("failed to seed patients: %w", err)
	}
	if err := s.seedWorkers(ctx); err != nil {
		return fmt.Errorf("failed to seed workers: %w", err)
	}
	if err := s.seedConsents(ctx); err != nil {
		return fmt.Errorf("failed to seed consents: %w", err)
	}

	s.logger.Info("demo data seeded successfully")
	return nil
}

func (s *Seeder) seedFacilities(ctx context.Context) error {
	facilities := []*directory.Facility{
		{ID: "FAC-001", Name: "City General Hospital", Type: directory.FacilityHospital, LicenseNumber: "HOSP-2201", Location: "14 Harbor Road"},
		{ID: "FAC-002", Name: "Northside Family Clinic", Type: directory.FacilityClinic, LicenseNumber: "CLIN-0834", Location: "3 Acacia Avenue"},
		{ID: "FAC-003", Name: "Central Pharmacy", Type: directory.FacilityPharmacy, LicenseNumber: "PHAR-1190", Location: "27 Market Street"},
	}
	for _, f := range facilities {
		f.CreatedAt = time.Now()
		if err := s.directory.SaveFacility(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedUsersAndPatients(ctx context.Context) error {
	patients := []struct {
		userID     string
		email      string
		patientID  string
		nationalID string
		firstName  string
		lastName   string
		birthYear  int
	}{
		{"user_amina", "amina@example.com", "PAT-100001", "NID-552001", "Amina", "Diallo", 1991},
		{"user_joy", "joy@example.com", "PAT-100002", "NID-552002", "Joy", "Mwangi", 1987},
		{"user_samuel", "samuel@example.com", "PAT-100003", "NID-552003", "Samuel", "Okafor", 1975},
		{"user_leila", "leila@example.com", "PAT-100004", "NID-552004", "Leila", "Hassan", 2001},
		{"user_peter", "peter@example.com", "PAT-100005", "NID-552005", "Peter", "Banda", 1968},
	}

	for _, p := range patients {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := s.directory.SaveUser(ctx, &directory.User{
			ID:           p.userID,
			Email:        p.email,
			PasswordHash: string(hash),
			Role:         directory.RolePatient,
			CreatedAt:    time.Now(),
		}); err != nil {
			return err
		}

		encrypted, err := s.cipher.Encrypt(p.nationalID)
		if err != nil {
			return err
		}
		if err := s.directory.SavePatient(ctx, &directory.Patient{
			ID:                  p.patientID,
			NationalIDEncrypted: encrypted,
			FirstName:           p.firstName,
			LastName:            p.lastName,
			DateOfBirth:         time.Date(p.birthYear, 6, 15, 0, 0, 0, 0, time.UTC),
			UserID:              p.userID,
			CreatedAt:           time.Now(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedWorkers(ctx context.Context) error {
	workers := []struct {
		userID     string
		email      string
		workerID   string
		license    string
		jobTitle   string
		facilityID string
	}{
		{"user_dr_okoro", "dr.okoro@example.com", "WRK-001", "MD-44501", "General Practitioner", "FAC-001"},
		{"user_nurse_achieng", "nurse.achieng@example.com", "WRK-002", "RN-20983", "Registered Nurse", "FAC-001"},
		{"user_dr_farah", "dr.farah@example.com", "WRK-003", "MD-61277", "Pediatrician", "FAC-002"},
		{"user_pharm_otieno", "pharm.otieno@example.com", "WRK-004", "PH-08841", "Pharmacist", "FAC-003"},
	}

	for _, w := range workers {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := s.directory.SaveUser(ctx, &directory.User{
			ID:           w.userID,
			Email:        w.email,
			PasswordHash: string(hash),
			Role:         directory.RoleWorker,
			CreatedAt:    time.Now(),
		}); err != nil {
			return err
		}
		if err := s.directory.SaveWorker(ctx, &directory.Worker{
			ID:            w.workerID,
			LicenseNumber: w.license,
			JobTitle:      w.jobTitle,
			UserID:        w.userID,
			FacilityID:    w.facilityID,
			CreatedAt:     time.Now(),
		}); err != nil {
			return err
		}
	}

	// one admin account for the back-office endpoints
	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.directory.SaveUser(ctx, &directory.User{
		ID:           "user_admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         directory.RoleAdmin,
		CreatedAt:    time.Now(),
	})
}

func (s *Seeder) seedConsents(ctx context.Context) error {
	now := time.Now()
	in30Days := now.Add(30 * 24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	type seed struct {
		id        string
		kind      models.Kind
		patientID string
		facility  string
		grantedBy string
		purpose   string
		grantedAt time.Time
		expiresAt *time.Time
		revoked   bool
	}

	seeds := []seed{
		{"consent_seed_01", models.KindView, "PAT-100001", "FAC-001", "user_amina", "ongoing treatment", lastWeek, &in30Days, false},
		{"consent_seed_02", models.KindShare, "PAT-100001", "FAC-002", "user_amina", "pediatric referral", lastWeek, nil, false},
		{"consent_seed_03", models.KindView, "PAT-100002", "FAC-001", "user_joy", "annual checkup", lastWeek, &in30Days, true},
		{"consent_seed_04", models.KindEdit, "PAT-100003", "FAC-002", "user_samuel", "chronic care plan", lastWeek, nil, false},
		{"consent_seed_05", models.KindView, "PAT-100004", "FAC-003", "user_leila", "prescription pickup", lastWeek, &in30Days, false},
	}

	for _, c := range seeds {
		record, err := models.NewRecord(c.id, c.kind, c.patientID, c.facility, c.grantedBy, c.purpose, c.grantedAt, c.expiresAt)
		if err != nil {
			return err
		}
		if err := s.consents.Save(ctx, record); err != nil {
			return err
		}
		if c.revoked {
			if _, err := s.consents.Revoke(ctx, c.id, now.Add(-24*time.Hour)); err != nil {
				return err
			}
		}
	}
	return nil
}
