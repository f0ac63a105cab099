package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/trivia-pot/internal/dependencies/mocks"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage/memory"
	"github.com/mcoot/trivia-pot/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, testutil.NopLogger(), Config{
		SessionDuration: time.Hour,
		BcryptCost:      bcrypt.MinCost,
	})
	s.ctx = context.Background()
}

// CreateAdmin tests

func (s *ServiceSuite) TestCreateAdminHashesPassword() {
	admin, err := s.service.CreateAdmin(s.ctx, " root ", "hunter22")
	s.Require().NoError(err)

	s.NotZero(admin.ID)
	s.Equal("root", admin.Username)
	s.NotEqual("hunter22", admin.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("hunter22")))

	stored, err := s.storage.GetAdminByUsername(s.ctx, "root")
	s.Require().NoError(err)
	s.Equal(admin.ID, stored.ID)
}

func (s *ServiceSuite) TestCreateAdminDuplicate() {
	_, err := s.service.CreateAdmin(s.ctx, "root", "pw1")
	s.Require().NoError(err)

	_, err = s.service.CreateAdmin(s.ctx, "root", "pw2")
	s.ErrorIs(err, model.ErrAdminExists)
}

func (s *ServiceSuite) TestCreateAdminValidation() {
	_, err := s.service.CreateAdmin(s.ctx, "  ", "")
	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "username")
	s.Contains(verr.Fields, "password")
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	admin, err := s.service.CreateAdmin(s.ctx, "root", "hunter22")
	s.Require().NoError(err)
	s.random.QueueString("session-token")

	session, err := s.service.Login(s.ctx, "root", "hunter22")
	s.Require().NoError(err)
	s.Equal("session-token", session.Token)
	s.Equal(admin.ID, session.AdminID)
	s.Equal(s.clock.Now().Add(time.Hour), session.ExpiresAt)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	_, err := s.service.CreateAdmin(s.ctx, "root", "hunter22")
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "root", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownUser() {
	_, err := s.service.Login(s.ctx, "nobody", "x")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// Session tests

func (s *ServiceSuite) login() *Session {
	_, err := s.service.CreateAdmin(s.ctx, "root", "hunter22")
	s.Require().NoError(err)
	session, err := s.service.Login(s.ctx, "root", "hunter22")
	s.Require().NoError(err)
	return session
}

func (s *ServiceSuite) TestValidateSession() {
	session := s.login()

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal("root", validated.Username)
	s.Len(validated.Token, TokenLength)
}

func (s *ServiceSuite) TestValidateUnknownSession() {
	_, err := s.service.ValidateSession("nope")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestSessionExpires() {
	session := s.login()
	s.clock.Advance(time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestLogout() {
	session := s.login()
	s.service.Logout(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	s.login()
	s.clock.Advance(30 * time.Minute)
	fresh, err := s.service.Login(s.ctx, "root", "hunter22")
	s.Require().NoError(err)
	s.clock.Advance(45 * time.Minute)

	s.Equal(1, s.service.CleanExpiredSessions())
	_, err = s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}
