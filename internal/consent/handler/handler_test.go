package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"medgate/internal/consent/service"
	"medgate/internal/consent/store"
	"medgate/internal/directory"
	"medgate/internal/platform/middleware"
)

type HandlerSuite struct {
	suite.Suite
	ctx      context.Context
	consents *store.InMemoryStore
	router   http.Handler
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.consents = store.NewInMemoryStore()
	dir := directory.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	s.Require().NoError(dir.SaveUser(s.ctx, &directory.User{
		ID: "user_patient", Role: directory.RolePatient,
	}))
	s.Require().NoError(dir.SaveFacility(s.ctx, &directory.Facility{
		ID: "FAC-001", Name: "City General Hospital", Type: directory.FacilityHospital,
	}))
	s.Require().NoError(dir.SavePatient(s.ctx, &directory.Patient{
		ID: "PAT-100001", UserID: "user_patient",
	}))

	svc := service.NewService(s.consents, dir, logger)
	h := New(svc, logger)

	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

// asUser injects the auth context the same way RequireAuth does, so the
// handler is tested without minting real tokens.
func asUser(req *http.Request, userID, role string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	return req.WithContext(ctx)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *HandlerSuite) do(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	body, err := io.ReadAll(rec.Body)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(body, &env))
	return rec, env
}

func (s *HandlerSuite) createConsent() string {
	body := `{"facility_name": "City General Hospital", "kind": "view", "purpose": "follow-up"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/consents", strings.NewReader(body)),
		"user_patient", "patient")
	rec, env := s.do(req)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var resp struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &resp))
	return resp.ID
}

func (s *HandlerSuite) TestCreateConsent() {
	expires := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"facility_name": "City General Hospital", "kind": "share", "purpose": "referral", "expires_at": "` + expires + `"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/consents", strings.NewReader(body)),
		"user_patient", "patient")

	rec, env := s.do(req)
	s.Equal(http.StatusCreated, rec.Code)
	s.True(env.Success)

	var resp struct {
		ID         string `json:"id"`
		Kind       string `json:"kind"`
		Status     string `json:"status"`
		PatientID  string `json:"patient_id"`
		FacilityID string `json:"facility_id"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &resp))
	s.NotEmpty(resp.ID)
	s.Equal("share", resp.Kind)
	s.Equal("active", resp.Status)
	s.Equal("PAT-100001", resp.PatientID)
	s.Equal("FAC-001", resp.FacilityID)
}

func (s *HandlerSuite) TestCreateConsentMalformedBody() {
	req := asUser(httptest.NewRequest(http.MethodPost, "/consents", strings.NewReader("{")),
		"user_patient", "patient")

	rec, env := s.do(req)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(env.Success)
}

func (s *HandlerSuite) TestCreateConsentUnknownFacility() {
	body := `{"facility_name": "Nowhere Clinic", "kind": "view"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/consents", strings.NewReader(body)),
		"user_patient", "patient")

	rec, env := s.do(req)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("facility_not_found", env.Message)
}

func (s *HandlerSuite) TestRevokeConsent() {
	id := s.createConsent()

	req := asUser(httptest.NewRequest(http.MethodPatch, "/consents/"+id+"/revoke", nil),
		"user_patient", "patient")
	rec, env := s.do(req)
	s.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Status    string  `json:"status"`
		RevokedAt *string `json:"revoked_at"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &resp))
	s.Equal("revoked", resp.Status)
	s.NotNil(resp.RevokedAt)
}

func (s *HandlerSuite) TestRevokeByStrangerRejected() {
	id := s.createConsent()

	req := asUser(httptest.NewRequest(http.MethodPatch, "/consents/"+id+"/revoke", nil),
		"user_stranger", "patient")
	rec, _ := s.do(req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestListForPatient() {
	s.createConsent()
	s.createConsent()

	req := asUser(httptest.NewRequest(http.MethodGet, "/consents/PAT-100001", nil),
		"user_patient", "patient")
	rec, env := s.do(req)
	s.Equal(http.StatusOK, rec.Code)

	var resp []json.RawMessage
	s.Require().NoError(json.Unmarshal(env.Data, &resp))
	s.Len(resp, 2)
}

func (s *HandlerSuite) TestListForeignPatientRejected() {
	req := asUser(httptest.NewRequest(http.MethodGet, "/consents/PAT-999999", nil),
		"user_patient", "patient")
	rec, _ := s.do(req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}
