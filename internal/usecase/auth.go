package usecase

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/polkiloo/storefront/internal/config"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

// AuthUseCase checks administrator credentials and manages session tokens.
type AuthUseCase struct {
	username     string
	passwordHash string
	hasher       pkgAuth.PasswordHasher
	tokens       pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase for the configured administrator.
func NewAuthUseCase(cfg *config.Config, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{
		username:     strings.TrimSpace(cfg.AdminUsername),
		passwordHash: cfg.AdminPasswordHash,
		hasher:       hasher,
		tokens:       strategy,
	}
}

// Authenticate validates credentials and returns auth token.
// Without a configured password hash every login is rejected.
func (u *AuthUseCase) Authenticate(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || u.passwordHash == "" {
		return "", domainErrors.ErrInvalidCredentials
	}

	if subtle.ConstantTimeCompare([]byte(username), []byte(u.username)) != 1 {
		return "", domainErrors.ErrInvalidCredentials
	}
	if err := u.hasher.Compare(u.passwordHash, password); err != nil {
		return "", domainErrors.ErrInvalidCredentials
	}

	return u.tokens.IssueToken(u.username)
}

// ParseToken extracts administrator name from provided token.
func (u *AuthUseCase) ParseToken(token string) (string, error) {
	if token == "" {
		return "", pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}
