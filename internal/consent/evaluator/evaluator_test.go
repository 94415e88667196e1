package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medgate/internal/consent/models"
	"medgate/internal/consent/store"
	dErrors "medgate/pkg/domain-errors"
)

type EvaluatorSuite struct {
	suite.Suite
	store *store.InMemoryStore
	eval  *Evaluator
	ctx   context.Context
}

func (s *EvaluatorSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.eval = New(s.store)
	s.ctx = context.Background()
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) save(id string, status models.Status, grantedAt time.Time, expiresAt *time.Time) {
	rec := &models.Record{
		ID:         id,
		Kind:       models.KindView,
		GrantedAt:  &grantedAt,
		ExpiresAt:  expiresAt,
		Status:     status,
		PatientID:  "PAT-1",
		FacilityID: "FAC-1",
		GrantedBy:  "user-1",
		CreatedAt:  grantedAt,
	}
	s.Require().NoError(s.store.Save(s.ctx, rec))
}

func (s *EvaluatorSuite) TestNoConsent() {
	verdict, err := s.eval.Evaluate(s.ctx, "PAT-1", "FAC-1")
	s.Require().NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonNoConsent, verdict.Reason)
	s.Nil(verdict.Consent)
}

func (s *EvaluatorSuite) TestActiveNoExpiry() {
	s.save("c1", models.StatusActive, time.Now().Add(-time.Hour), nil)

	verdict, err := s.eval.Evaluate(s.ctx, "PAT-1", "FAC-1")
	s.Require().NoError(err)
	s.True(verdict.Allowed)
	s.Equal(ReasonActive, verdict.Reason)
	s.Require().NotNil(verdict.Consent)
	s.Equal("c1", verdict.Consent.ID)
}

func (s *EvaluatorSuite) TestRevoked() {
	s.save("c1", models.StatusRevoked, time.Now().Add(-time.Hour), nil)

	verdict, err := s.eval.Evaluate(s.ctx, "PAT-1", "FAC-1")
	s.Require().NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonRevoked, verdict.Reason)
}

func (s *EvaluatorSuite) TestExpiredByTimeNotByStatus() {
	// stored status still says active; only expires_at has passed
	yesterday := time.Now().Add(-24 * time.Hour)
	s.save("c1", models.StatusActive, time.Now().Add(-48*time.Hour), &yesterday)

	verdict, err := s.eval.Evaluate(s.ctx, "PAT-1", "FAC-1")
	s.Require().NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonExpired, verdict.Reason)

	// the evaluator must not have written the expiry back
	stored, err := s.store.Get(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(models.StatusActive, stored.Status)
}

func (s *EvaluatorSuite) TestMostRecentGrantGoverns() {
	// older active grant, newer revoked grant: the newer one governs
	s.save("old-active", models.StatusActive, time.Now().Add(-48*time.Hour), nil)
	s.save("new-revoked", models.StatusRevoked, time.Now().Add(-time.Hour), nil)

	verdict, err := s.eval.Evaluate(s.ctx, "PAT-1", "FAC-1")
	s.Require().NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonRevoked, verdict.Reason)
	s.Equal("new-revoked", verdict.Consent.ID)
}

func (s *EvaluatorSuite) TestWrongFacilityIsNoConsent() {
	s.save("c1", models.StatusActive, time.Now().Add(-time.Hour), nil)

	verdict, err := s.eval.Evaluate(s.ctx, "PAT-1", "FAC-2")
	s.Require().NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonNoConsent, verdict.Reason)
}

type failingSource struct{}

func (failingSource) ListByPatientAndFacility(context.Context, string, string) ([]*models.Record, error) {
	return nil, errors.New("connection refused")
}

func (s *EvaluatorSuite) TestStoreFailurePropagates() {
	eval := New(failingSource{})
	_, err := eval.Evaluate(s.ctx, "PAT-1", "FAC-1")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeStorage))
}
