//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 12 * time.Hour

// AuthService exchanges the admin password for a bearer token and validates
// tokens on admin requests.
type AuthService interface {
	// Enabled reports whether an admin password is configured at all.
	Enabled() bool
	Login(ctx context.Context, password string) (string, error)
	ValidateToken(token string) (bool, error)
}

type authService struct {
	passwordHash []byte
	secret       []byte
}

func NewAuthService(adminPassword, jwtSecret string) (AuthService, error) {
	s := &authService{}
	if adminPassword == "" {
		return s, nil
	}
	if jwtSecret == "" {
		return nil, fmt.Errorf("admin password set but no JWT secret configured")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	s.passwordHash = hash
	s.secret = []byte(jwtSecret)
	return s, nil
}

func (s *authService) Enabled() bool {
	return len(s.passwordHash) > 0
}

func (s *authService) Login(ctx context.Context, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrUnauthorized
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) ValidateToken(token string) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return false, nil
	}
	return parsed.Valid, nil
}
