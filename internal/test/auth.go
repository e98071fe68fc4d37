package test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgAuth "github.com/polkiloo/coursemart/internal/pkg/auth"
)

const (
	hashPrefix    = "bcrypt$"
	sessionPrefix = "session-"
)

// PasswordHasherStub stores passwords behind a recognisable prefix instead of bcrypt.
type PasswordHasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

func (h PasswordHasherStub) Hash(password string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(password)
	}
	return hashPrefix + password, nil
}

func (h PasswordHasherStub) Compare(hash, password string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, password)
	}
	if hash != hashPrefix+password {
		return errors.New("password mismatch")
	}
	return nil
}

// HashedPassword returns what PasswordHasherStub stores for password.
func HashedPassword(password string) string {
	return hashPrefix + password
}

// SessionStrategyStub issues readable "session-<userID>" tokens unless overridden.
type SessionStrategyStub struct {
	IssueFn func(int64) (string, error)
	ParseFn func(string) (int64, error)
}

func (s SessionStrategyStub) IssueToken(userID int64) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(userID)
	}
	return SessionToken(userID), nil
}

func (s SessionStrategyStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	var userID int64
	if !strings.HasPrefix(token, sessionPrefix) {
		return 0, pkgAuth.ErrInvalidToken
	}
	if _, err := fmt.Sscanf(token, sessionPrefix+"%d", &userID); err != nil || userID <= 0 {
		return 0, pkgAuth.ErrInvalidToken
	}
	return userID, nil
}

func (s SessionStrategyStub) Name() string {
	return "session-stub"
}

// SessionToken is the token SessionStrategyStub issues for userID.
func SessionToken(userID int64) string {
	return fmt.Sprintf("%s%d", sessionPrefix, userID)
}

// SessionParserStub resolves every token to UserID or fails with Err.
type SessionParserStub struct {
	UserID int64
	Err    error
}

func (s SessionParserStub) ParseToken(string) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	return s.UserID, nil
}

// AccountFacadeStub stands in for register and login on the application facade.
type AccountFacadeStub struct {
	RegisterFn     func(context.Context, string, string) (string, error)
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseFn        func(string) (int64, error)
}

func (s AccountFacadeStub) Register(ctx context.Context, login, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, login, password)
	}
	return SessionToken(1), nil
}

func (s AccountFacadeStub) Authenticate(ctx context.Context, login, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, login, password)
	}
	return SessionToken(1), nil
}

func (s AccountFacadeStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return SessionStrategyStub{}.ParseToken(token)
}

var (
	_ pkgAuth.PasswordHasher = PasswordHasherStub{}
	_ pkgAuth.Strategy       = SessionStrategyStub{}
)
