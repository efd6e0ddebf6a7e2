// Package auth verifies caller credentials and issues bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clientbook/service/internal/config"
	"github.com/clientbook/service/internal/middleware"
	"github.com/clientbook/service/internal/password"
	"github.com/clientbook/service/internal/user"
)

const tokenTTL = 24 * time.Hour

// ErrInvalidCredentials is returned when the username is unknown or the
// password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserDirectory looks up stored accounts by username. Implemented by the
// user service.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

// Service authenticates callers against stored credentials and manages
// bearer tokens. It implements middleware.Authenticator.
type Service struct {
	users  UserDirectory
	hasher password.Hasher
	cfg    *config.Config
}

// NewService creates a new auth Service.
func NewService(users UserDirectory, hasher password.Hasher, cfg *config.Config) *Service {
	return &Service{users: users, hasher: hasher, cfg: cfg}
}

// VerifyPassword checks a username/password pair against the stored bcrypt
// hash. An unknown username and a wrong password both surface as
// ErrInvalidCredentials so callers cannot probe for accounts.
func (s *Service) VerifyPassword(ctx context.Context, username, plainPassword string) (middleware.Principal, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		return middleware.Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return middleware.Principal{}, fmt.Errorf("look up user: %w", err)
	}

	if err := s.hasher.Compare(u.PasswordHash, plainPassword); err != nil {
		return middleware.Principal{}, ErrInvalidCredentials
	}

	return middleware.Principal{Username: u.Username, Admin: u.Admin}, nil
}

// VerifyToken validates a bearer JWT and extracts its principal.
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (middleware.Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return middleware.Principal{}, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return middleware.Principal{}, ErrInvalidCredentials
	}

	username, _ := claims["sub"].(string)
	admin, _ := claims["admin"].(bool)
	if username == "" {
		return middleware.Principal{}, ErrInvalidCredentials
	}

	return middleware.Principal{Username: username, Admin: admin}, nil
}

// Login verifies the credentials and issues a signed bearer token.
func (s *Service) Login(ctx context.Context, username, plainPassword string) (string, error) {
	principal, err := s.VerifyPassword(ctx, username, plainPassword)
	if err != nil {
		return "", err
	}
	return s.issueToken(principal)
}

// issueToken creates a signed JWT carrying the principal's identity and role.
func (s *Service) issueToken(p middleware.Principal) (string, error) {
	claims := jwt.MapClaims{
		"sub":   p.Username,
		"admin": p.Admin,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
