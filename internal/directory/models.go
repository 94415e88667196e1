package directory

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RolePatient Role = "patient"
	RoleWorker  Role = "healthcare_worker"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether the role is one of the known variants.
func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleWorker, RoleAdmin:
		return true
	}
	return false
}

// FacilityType is the closed set of facility categories.
type FacilityType string

const (
	FacilityHospital FacilityType = "hospital"
	FacilityClinic   FacilityType = "clinic"
	FacilityPharmacy FacilityType = "pharmacy"
)

// User is an account in any role. Registration and login live outside this
// system; we only read accounts to resolve roles and ownership.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Patient is the locally cached demographic projection of a registry entity.
// The registry is the system of record for demographics; this row adds local
// linkage (consents, audit entries) the registry cannot hold.
type Patient struct {
	ID                  string // shared key with the external registry
	NationalIDEncrypted string
	FirstName           string
	LastName            string
	DateOfBirth         time.Time
	UserID              string
	CreatedAt           time.Time
}

// Worker belongs to exactly one facility. Consent is scoped to the facility,
// so any worker employed there inherits a patient's grant.
type Worker struct {
	ID            string
	LicenseNumber string
	JobTitle      string
	UserID        string
	FacilityID    string
	CreatedAt     time.Time
}

// Facility is a consent-receiving healthcare organization.
type Facility struct {
	ID            string
	Name          string
	Type          FacilityType
	LicenseNumber string
	Location      string
	CreatedAt     time.Time
}
