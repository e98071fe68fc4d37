package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
	"github.com/polkiloo/coursemart/internal/domain/repository"
	pkgAuth "github.com/polkiloo/coursemart/internal/pkg/auth"
)

const maxLoginLength = 64

// AuthUseCase registers students and opens sessions that identify them on enrollment routes.
type AuthUseCase struct {
	students repository.UserRepository
	hasher   pkgAuth.PasswordHasher
	sessions pkgAuth.Strategy
	logger   *slog.Logger
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(students repository.UserRepository, hasher pkgAuth.PasswordHasher, sessions pkgAuth.Strategy, logger *slog.Logger) *AuthUseCase {
	return &AuthUseCase{students: students, hasher: hasher, sessions: sessions, logger: logger}
}

// Register creates a student account and opens its first session.
func (u *AuthUseCase) Register(ctx context.Context, login, password string) (*model.User, string, error) {
	login, err := normalizeCredentials(login, password)
	if err != nil {
		return nil, "", err
	}

	hash, err := u.hasher.Hash(password)
	switch {
	case errors.Is(err, pkgAuth.ErrPasswordTooLong):
		return nil, "", fmt.Errorf("%w: %v", domainErrors.ErrInvalidCredentials, err)
	case err != nil:
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	student, err := u.students.Create(ctx, login, hash)
	if err != nil {
		return nil, "", err
	}
	u.logger.Info("student registered", slog.Int64("user_id", student.ID))

	return u.openSession(student)
}

// Authenticate checks a student's password and opens a new session.
// Unknown logins and wrong passwords are indistinguishable to the caller.
func (u *AuthUseCase) Authenticate(ctx context.Context, login, password string) (*model.User, string, error) {
	login, err := normalizeCredentials(login, password)
	if err != nil {
		return nil, "", err
	}

	student, err := u.students.GetByLogin(ctx, login)
	if errors.Is(err, domainErrors.ErrNotFound) {
		u.logger.Info("login rejected", slog.String("reason", "unknown login"))
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := u.hasher.Compare(student.PasswordHash, password); err != nil {
		u.logger.Info("login rejected", slog.String("reason", "password mismatch"), slog.Int64("user_id", student.ID))
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	return u.openSession(student)
}

// ParseToken resolves a session token to the student id it was issued for.
func (u *AuthUseCase) ParseToken(token string) (int64, error) {
	if token == "" {
		return 0, pkgAuth.ErrInvalidToken
	}
	return u.sessions.ParseToken(token)
}

func (u *AuthUseCase) openSession(student *model.User) (*model.User, string, error) {
	token, err := u.sessions.IssueToken(student.ID)
	if err != nil {
		return nil, "", fmt.Errorf("open session for user %d: %w", student.ID, err)
	}
	return student, token, nil
}

// normalizeCredentials trims the login and rejects blank or oversized input.
func normalizeCredentials(login, password string) (string, error) {
	login = strings.TrimSpace(login)
	switch {
	case login == "" || password == "":
		return "", domainErrors.ErrInvalidCredentials
	case utf8.RuneCountInString(login) > maxLoginLength:
		return "", fmt.Errorf("%w: login longer than %d characters", domainErrors.ErrInvalidCredentials, maxLoginLength)
	}
	return login, nil
}
