package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"medgate/internal/directory"
	"medgate/internal/platform/middleware"
)

type HandlerSuite struct {
	suite.Suite
	ctx    context.Context
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	dir := directory.NewInMemoryStore()
	s.Require().NoError(dir.SavePatient(s.ctx, &directory.Patient{ID: "PAT-100001", UserID: "user_patient"}))
	s.Require().NoError(dir.SaveWorker(s.ctx, &directory.Worker{ID: "WRK-001", UserID: "user_worker", FacilityID: "FAC-001"}))

	store := NewInMemoryStore()
	recorder := NewRecorder(store, logger)
	for _, req := range []RecordRequest{
		{Action: ActionView, Verdict: VerdictAllowed, Reason: "active", PatientID: "PAT-100001", WorkerID: "WRK-001"},
		{Action: ActionView, Verdict: VerdictDenied, Reason: "revoked", PatientID: "PAT-100001", WorkerID: "WRK-002"},
		{Action: ActionEdit, Verdict: VerdictDenied, Reason: "no_consent", PatientID: "PAT-100002", WorkerID: "WRK-001"},
	} {
		_, err := recorder.Record(s.ctx, req)
		s.Require().NoError(err)
	}

	h := NewHandler(recorder, dir, logger)
	r := chi.NewRouter()
	h.Register(r)
	r.Route("/admin", func(r chi.Router) {
		h.RegisterAdmin(r)
	})
	s.router = r
}

func TestAuditHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func asUser(req *http.Request, userID, role string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	return req.WithContext(ctx)
}

func (s *HandlerSuite) list(path, userID, role string) (*httptest.ResponseRecorder, []entryResponse) {
	req := asUser(httptest.NewRequest(http.MethodGet, path, nil), userID, role)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env struct {
		Success bool            `json:"success"`
		Data    []entryResponse `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env.Data
}

func (s *HandlerSuite) TestPatientReadsOwnTrail() {
	rec, entries := s.list("/access-logs/PAT-100001", "user_patient", "patient")
	s.Equal(http.StatusOK, rec.Code)
	s.Len(entries, 2)
	for _, e := range entries {
		s.Equal("PAT-100001", e.PatientID)
	}
}

func (s *HandlerSuite) TestPatientCannotReadForeignTrail() {
	rec, _ := s.list("/access-logs/PAT-100002", "user_patient", "patient")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestWorkerReadsOwnTrail() {
	rec, entries := s.list("/access-logs/WRK-001", "user_worker", "healthcare_worker")
	s.Equal(http.StatusOK, rec.Code)
	s.Len(entries, 2)
	for _, e := range entries {
		s.Equal("WRK-001", e.WorkerID)
	}
}

func (s *HandlerSuite) TestAdminReadsAnySubject() {
	rec, entries := s.list("/access-logs/PAT-100001", "user_admin", "admin")
	s.Equal(http.StatusOK, rec.Code)
	s.Len(entries, 2)

	rec, entries = s.list("/access-logs/WRK-002", "user_admin", "admin")
	s.Equal(http.StatusOK, rec.Code)
	s.Len(entries, 1)
}

func (s *HandlerSuite) TestAdminListAll() {
	rec, entries := s.list("/admin/access-logs", "user_admin", "admin")
	s.Equal(http.StatusOK, rec.Code)
	s.Len(entries, 3)
}
