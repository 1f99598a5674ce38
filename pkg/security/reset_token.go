package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purposes a reset token can be issued for. A token issued for one purpose is
// never valid where the other is required, that check lives in the caller.
const (
	PurposeVerifyCode    = "verify_code"
	PurposeResetPassword = "reset_password"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// ResetClaims is what a verified token decodes into. Subject is the email
// address the token was bound to.
type ResetClaims struct {
	Subject   string
	Purpose   string
	ExpiresAt time.Time
}

type resetTokenClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the short-lived purpose-scoped tokens used
// by the password reset flow. Verify only checks signature and expiry.
// Purpose matching is state machine logic and belongs to the orchestrator,
// not here.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("no signing secret provided")
	}

	return &TokenIssuer{secret: []byte(secret)}, nil
}

func (t *TokenIssuer) Issue(subject, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, resetTokenClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	return tok.SignedString(t.secret)
}

func (t *TokenIssuer) Verify(tokenStr string) (*ResetClaims, error) {
	var claims resetTokenClaims

	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(tk *jwt.Token) (any, error) {
		if tk.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", tk.Method.Alg())
		}

		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return &ResetClaims{
		Subject:   claims.Subject,
		Purpose:   claims.Purpose,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
