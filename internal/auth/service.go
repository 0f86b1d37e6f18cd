// Package auth implements login, registration and cookie-session resolution.
package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"twitterclone/internal/store"
)

// UserStore is the credential store the service reads and writes.
type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (*store.User, error)
	FindUserByID(ctx context.Context, id int64) (*store.User, error)
	UserExists(ctx context.Context, username string) (bool, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error)
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// SessionCodec turns user ids into session cookies and back.
type SessionCodec interface {
	Encode(userID int64) (string, error)
	Decode(token string) (int64, bool)
	FromRequest(r *http.Request) string
	Cookie(token string) *http.Cookie
	ExpiredCookie() *http.Cookie
}

// Service handles authentication workflows.
type Service struct {
	users    UserStore
	hasher   Hasher
	sessions SessionCodec
	log      logrus.FieldLogger

	// dummyHash is verified against when a login names an unknown user, so
	// that path costs the same as a wrong password.
	dummyHash string
}

// New constructs a Service.
func New(users UserStore, hasher Hasher, sessions SessionCodec, log logrus.FieldLogger) *Service {
	s := &Service{users: users, hasher: hasher, sessions: sessions, log: log}
	if digest, err := hasher.Hash("not-a-real-password"); err == nil {
		s.dummyHash = digest
	} else {
		log.WithError(err).Warn("could not prepare dummy password hash")
	}
	return s
}

// Submit runs the login or registration named by creds.Type.
func (s *Service) Submit(ctx context.Context, creds Credentials) (*store.User, error) {
	switch creds.Type {
	case IntentLogin:
		return s.Login(ctx, creds.Username, creds.Password)
	case IntentRegister:
		return s.Register(ctx, creds.Username, creds.Password)
	default:
		return nil, &ValidationError{FormErrors: []string{"Login type invalid"}}
	}
}

// Login authenticates username and password. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		s.hasher.Verify(password, s.dummyHash)
		s.log.WithFields(logrus.Fields{"username": username, "intent": IntentLogin}).Info("login rejected")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "looking up user failed")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.WithFields(logrus.Fields{"username": username, "intent": IntentLogin}).Info("login rejected")
		return nil, ErrInvalidCredentials
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user logged in")
	return user, nil
}

// Register creates a user. An existing username, including one inserted by a
// concurrent registration, returns ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, username, password string) (*store.User, error) {
	exists, err := s.users.UserExists(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "checking username failed")
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		s.log.WithError(err).WithField("username", username).Error("hashing password failed")
		return nil, ErrRegisterFailed
	}

	user, err := s.users.CreateUser(ctx, username, digest)
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, errors.Wrap(err, "creating user failed")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

// CurrentUser resolves the user behind a session token. Invalid tokens and
// tokens for users that no longer exist are anonymous (nil, nil); store
// failures are returned.
func (s *Service) CurrentUser(ctx context.Context, token string) (*store.User, error) {
	userID, ok := s.sessions.Decode(token)
	if !ok {
		return nil, nil
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "resolving session user failed, user_id=%d", userID)
	}
	return user, nil
}

// CurrentUserFromRequest resolves the user behind r's session cookie.
func (s *Service) CurrentUserFromRequest(r *http.Request) (*store.User, error) {
	return s.CurrentUser(r.Context(), s.sessions.FromRequest(r))
}

// IssueSession returns a session cookie for userID.
func (s *Service) IssueSession(userID int64) (*http.Cookie, error) {
	token, err := s.sessions.Encode(userID)
	if err != nil {
		return nil, err
	}
	return s.sessions.Cookie(token), nil
}

// Logout returns a cookie that clears the session. Tokens already handed
// out stay valid until they expire.
func (s *Service) Logout() *http.Cookie {
	return s.sessions.ExpiredCookie()
}
