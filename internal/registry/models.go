package registry

import "time"

// Snapshot is the national registry's view of one patient at lookup time.
// The registry is the system of record for demographics; local patient rows
// are a cache reconciled against snapshots on allowed accesses.
type Snapshot struct {
	PatientID        string
	NationalID       string
	FirstName        string
	LastName         string
	DateOfBirth      time.Time
	Gender           string
	Phone            string
	Email            string
	Address          string
	EmergencyContact string
}
