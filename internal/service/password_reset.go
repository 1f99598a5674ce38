// Package service holds the business logic that sits between the handlers
// and the stores
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogapi/internal/cache"
	"blogapi/internal/model"
	"blogapi/pkg/security"
	"blogapi/pkg/util"
	"blogapi/validators"

	"go.uber.org/zap"
)

// Caller-state errors surfaced by the reset flow. All map to 4xx responses
// and none are retried internally.
var (
	ErrWrongPurpose = errors.New("token was issued for a different purpose")
	ErrCodeExpired  = errors.New("verification code expired or was never requested")
	ErrCodeMismatch = errors.New("verification code does not match")
	ErrNotVerified  = errors.New("code was not verified for this email")
	ErrWeakPassword = errors.New("password does not meet the complexity policy")
	ErrUserNotFound = errors.New("user not found")
)

const (
	codeLength = 6

	// How long a stored code stays live. Rewritten (and the countdown
	// restarted) when the code gets verified so the user has a full window
	// to finish the reset.
	recordTTL = 300 * time.Second

	// Lifetime of both purpose-scoped tokens
	resetTokenTTL = 5 * time.Minute
)

// CodeCache is the one-time-code store. Get returns nil for both never-set
// and expired keys, the two are indistinguishable by contract.
type CodeCache interface {
	Set(ctx context.Context, email string, rec cache.VerificationRecord, ttl time.Duration) error
	Get(ctx context.Context, email string) (*cache.VerificationRecord, error)
	Delete(ctx context.Context, email string) error
}

// UserStore is the slice of the entity store the reset flow needs
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// Notifier delivers codes out-of-band. Failures are non-fatal for the flow.
type Notifier interface {
	SendCode(email, code string) error
}

// Hasher produces password hashes for storage
type Hasher interface {
	GenerateFromPassword(p string) (string, error)
}

// PasswordReset glues the token issuer, the code cache and the user store
// into the request-code -> verify-code -> reset-password flow. It keeps no
// state of its own: which step a caller is on is reconstructed from the
// token's purpose tag plus the cache record, so the service tier stays
// stateless and only the cache needs to be shared.
type PasswordReset struct {
	codes  CodeCache
	users  UserStore
	tokens *security.TokenIssuer
	mail   Notifier
	hash   Hasher

	// Swappable for deterministic codes in tests
	genCode func(n int) (string, error)
}

func NewPasswordReset(codes CodeCache, users UserStore, tokens *security.TokenIssuer, mail Notifier, hash Hasher) *PasswordReset {
	return &PasswordReset{
		codes:   codes,
		users:   users,
		tokens:  tokens,
		mail:    mail,
		hash:    hash,
		genCode: util.RandDigits,
	}
}

type flowState int

const (
	stateIdle flowState = iota
	stateCodeSent
	stateVerified
)

// state is the one place flow state gets reconstructed from the cache, so
// the three endpoints can't drift into different interpretations of which
// artifacts mean what.
func (s *PasswordReset) state(ctx context.Context, email string) (flowState, *cache.VerificationRecord, error) {
	rec, err := s.codes.Get(ctx, email)
	if err != nil {
		return stateIdle, nil, err
	}

	switch {
	case rec == nil:
		return stateIdle, nil, nil
	case rec.Verified:
		return stateVerified, rec, nil
	default:
		return stateCodeSent, rec, nil
	}
}

// RequestCode starts (or restarts) a reset flow for email and returns the
// verify_code-purpose token the caller needs for the next step. It never
// checks whether the email belongs to an account, so the endpoint can't be
// used to probe for registered addresses.
func (s *PasswordReset) RequestCode(ctx context.Context, email string) (string, error) {
	// A second request restarts the flow, at most one live record per email
	if err := s.codes.Delete(ctx, email); err != nil {
		return "", err
	}

	code, err := s.genCode(codeLength)
	if err != nil {
		return "", err
	}

	err = s.codes.Set(ctx, email, cache.VerificationRecord{Code: code}, recordTTL)
	if err != nil {
		return "", err
	}

	// Best-effort delivery. The stored code is not rolled back on failure,
	// the record just times out on its own.
	if err := s.mail.SendCode(email, code); err != nil {
		zap.L().Warn("Failed to send reset code mail",
			zap.String("email", email),
			zap.Error(err),
		)
	}

	return s.tokens.Issue(email, security.PurposeVerifyCode, resetTokenTTL)
}

// VerifyCode checks the submitted code against the stored one and, on
// success, marks the record verified and returns the reset_password-purpose
// token for the final step. Replaying a correct code re-verifies
// idempotently, that's tolerated since tokens are stateless.
func (s *PasswordReset) VerifyCode(ctx context.Context, token, code string) (string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}

	if claims.Purpose != security.PurposeVerifyCode {
		return "", ErrWrongPurpose
	}

	st, rec, err := s.state(ctx, claims.Subject)
	if err != nil {
		return "", err
	}

	if st == stateIdle {
		return "", ErrCodeExpired
	}

	// Exact string match, codes are numeric so no normalization applies
	if rec.Code != code {
		return "", ErrCodeMismatch
	}

	err = s.codes.Set(ctx, claims.Subject, cache.VerificationRecord{
		Code:     rec.Code,
		Verified: true,
	}, recordTTL)
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(claims.Subject, security.PurposeResetPassword, resetTokenTTL)
}

// ResetPassword finishes the flow: policy-checks the new password, rewrites
// the user's hash and burns the verification record so the change token
// can't be used twice.
func (s *PasswordReset) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}

	if claims.Purpose != security.PurposeResetPassword {
		return ErrWrongPurpose
	}

	st, _, err := s.state(ctx, claims.Subject)
	if err != nil {
		return err
	}

	if st != stateVerified {
		return ErrNotVerified
	}

	// Gate everything before the first side effect
	if err := validators.PasswordValidator(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err)
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}

	if user == nil {
		return ErrUserNotFound
	}

	hash, err := s.hash.GenerateFromPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	return s.codes.Delete(ctx, claims.Subject)
}
