package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "medgate/pkg/domain-errors"
)

type ClientSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) newServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	s.T().Cleanup(srv.Close)
	return srv, NewClient(srv.URL, "test-api-key", 2*time.Second)
}

// matchBody is the registry's 200 response: the demographic object flat at
// the top level, no envelope.
const matchBody = `{
	"patient_id": "PAT-100001",
	"national_id": "NID-552001",
	"first_name": "Amina",
	"last_name": "Diallo",
	"date_of_birth": "1991-04-17",
	"gender": "female",
	"phone": "+2547-0000-0001",
	"email": "amina@example.com",
	"address": "12 Harbor Rd",
	"emergency_contact": "Ousmane Diallo +2547-0000-0002"
}`

func (s *ClientSuite) TestLookupFound() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/api/registry/patients", r.URL.Path)
		s.Equal("NID-552001", r.URL.Query().Get("national_id"))
		s.Equal("test-api-key", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(matchBody))
	})

	snapshot, err := client.Lookup(s.ctx, "NID-552001")
	s.Require().NoError(err)
	s.Equal("PAT-100001", snapshot.PatientID)
	s.Equal("Amina", snapshot.FirstName)
	s.Equal("Diallo", snapshot.LastName)
	s.Equal(time.Date(1991, 4, 17, 0, 0, 0, 0, time.UTC), snapshot.DateOfBirth)
	s.Equal("female", snapshot.Gender)
}

func (s *ClientSuite) TestLookupNotFound() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"data": "not found!"}`))
	})

	_, err := client.Lookup(s.ctx, "NID-000000")
	s.Require().ErrorIs(err, ErrNotFound)
	s.False(dErrors.HasCode(err, dErrors.CodeTransport))
}

func (s *ClientSuite) TestLookupServerErrorIsTransport() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Lookup(s.ctx, "NID-552001")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransport))
}

func (s *ClientSuite) TestLookupUnreachableIsTransport() {
	client := NewClient("http://127.0.0.1:1", "test-api-key", 500*time.Millisecond)

	_, err := client.Lookup(s.ctx, "NID-552001")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransport))
}

func (s *ClientSuite) TestLookupTimeoutIsTransport() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.timeout = 50 * time.Millisecond
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.Lookup(s.ctx, "NID-552001")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransport))
}

func (s *ClientSuite) TestLookupMalformedPayloadIsTransport() {
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.Lookup(s.ctx, "NID-552001")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransport))
}

func (s *ClientSuite) TestLookupCollapsedCallSurvivesCallerCancel() {
	var hits atomic.Int32
	_, client := s.newServer(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(matchBody))
	})

	firstCtx, cancel := context.WithCancel(s.ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.Lookup(firstCtx, "NID-552001") //nolint:errcheck // only the second caller's result matters here
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	snapshot, err := client.Lookup(s.ctx, "NID-552001")
	wg.Wait()

	s.Require().NoError(err)
	s.Equal("PAT-100001", snapshot.PatientID)
	s.Equal(int32(1), hits.Load())
}
