package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// These are the primitives every trust boundary relies on; the tests pin the
// invariants "wrapped domain errors preserve the original code" and
// "errors.Is matches by code".
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "patient not found"}
		s.Equal("patient not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeTransport}
		s.Equal("transport_error", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("connection refused")
		err := &Error{Code: CodeStorage, Message: "consent lookup failed", Err: inner}
		s.Equal(inner, errors.Unwrap(err))
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeNotFound}
		s.Nil(errors.Unwrap(err))
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeUnauthorized, Message: "not the grantor"}
		err2 := &Error{Code: CodeUnauthorized, Message: "unknown worker"}
		s.True(errors.Is(err1, err2))
	})

	s.Run("does not match different codes", func() {
		s.False(errors.Is(New(CodeNotFound, ""), New(CodeTransport, "")))
	})
}

func (s *DomainErrorsSuite) TestWrapPreservesCode() {
	s.Run("wrapping a domain error keeps its code", func() {
		inner := New(CodeAuditWrite, "append failed")
		wrapped := Wrap(inner, CodeInternal, "lookup aborted")
		s.True(HasCode(wrapped, CodeAuditWrite))
		s.False(HasCode(wrapped, CodeInternal))
	})

	s.Run("wrapping a plain error applies the given code", func() {
		wrapped := Wrap(errors.New("boom"), CodeStorage, "save consent")
		s.True(HasCode(wrapped, CodeStorage))
		s.Equal("save consent", wrapped.Error())
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("false for nil and non-domain errors", func() {
		s.False(HasCode(nil, CodeInternal))
		s.False(HasCode(errors.New("plain"), CodeInternal))
	})
}
