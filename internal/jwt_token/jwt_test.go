package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "medgate/pkg/domain-errors"
)

type JWTSuite struct {
	suite.Suite
	svc *Service
}

func (s *JWTSuite) SetupTest() {
	s.svc = NewService("test-signing-key", 15*time.Minute)
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTSuite))
}

func (s *JWTSuite) TestRoundTrip() {
	token, err := s.svc.GenerateAccessToken("user-42", "patient")
	s.Require().NoError(err)

	claims, err := s.svc.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal("user-42", claims.UserID)
	s.Equal("patient", claims.Role)
}

func (s *JWTSuite) TestRejectsWrongKey() {
	other := NewService("different-key", 15*time.Minute)
	token, err := other.GenerateAccessToken("user-42", "admin")
	s.Require().NoError(err)

	_, err = s.svc.ValidateToken(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestRejectsExpired() {
	expired := NewService("test-signing-key", -1*time.Minute)
	token, err := expired.GenerateAccessToken("user-42", "healthcare_worker")
	s.Require().NoError(err)

	_, err = s.svc.ValidateToken(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestRejectsGarbage() {
	_, err := s.svc.ValidateToken("not-a-token")
	s.Require().Error(err)
}
