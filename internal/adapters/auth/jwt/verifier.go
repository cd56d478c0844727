package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"straypet/internal/ports/auth"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var ErrNotConfigured = errors.New("jwt verifier not configured")

// tokenClaims sigue el formato de los access tokens que emite el servicio de
// usuarios: user_id + is_staff, firmados HS256.
type tokenClaims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsStaff bool   `json:"is_staff"`
	gojwt.RegisteredClaims
}

// Verifier implementa auth.AuthVerifier con un secreto compartido.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(secret))}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || len(v.secret) == 0 {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	var c tokenClaims
	_, err := gojwt.ParseWithClaims(token, &c, func(t *gojwt.Token) (any, error) {
		return v.secret, nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	userID := strings.TrimSpace(c.UserID)
	if userID == "" {
		userID = strings.TrimSpace(c.Subject)
	}
	if userID == "" {
		return auth.Claims{}, fmt.Errorf("%w: missing user id", auth.ErrInvalidToken)
	}

	return auth.Claims{
		UserID:  userID,
		Email:   strings.TrimSpace(c.Email),
		IsStaff: c.IsStaff,
	}, nil
}
