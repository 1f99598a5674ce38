package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"blogapi/internal/cache"
	"blogapi/internal/model"
	"blogapi/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCodes struct {
	recs map[string]cache.VerificationRecord
	ttls map[string]time.Duration
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{
		recs: map[string]cache.VerificationRecord{},
		ttls: map[string]time.Duration{},
	}
}

func (f *fakeCodes) Set(_ context.Context, email string, rec cache.VerificationRecord, ttl time.Duration) error {
	f.recs[email] = rec
	f.ttls[email] = ttl
	return nil
}

func (f *fakeCodes) Get(_ context.Context, email string) (*cache.VerificationRecord, error) {
	rec, ok := f.recs[email]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeCodes) Delete(_ context.Context, email string) error {
	delete(f.recs, email)
	delete(f.ttls, email)
	return nil
}

type fakeUsers struct {
	byEmail map[string]*model.User
	updated map[string]string
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{
		byEmail: map[string]*model.User{},
		updated: map[string]string{},
	}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	f.updated[userID] = hash
	return nil
}

type fakeMail struct {
	sent []string
	err  error
}

func (f *fakeMail) SendCode(_, code string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, code)
	return nil
}

type fakeHash struct{}

func (fakeHash) GenerateFromPassword(p string) (string, error) {
	return "hashed:" + p, nil
}

const testEmail = "user@example.com"

func newTestReset(t *testing.T, codes *fakeCodes, users *fakeUsers, mail *fakeMail) *PasswordReset {
	t.Helper()

	tokens, err := security.NewTokenIssuer("test-secret")
	require.NoError(t, err)

	s := NewPasswordReset(codes, users, tokens, mail, fakeHash{})
	s.genCode = func(int) (string, error) { return "123456", nil }
	return s
}

func TestRequestCodeKeepsOneLiveRecord(t *testing.T) {
	codes := newFakeCodes()
	s := newTestReset(t, codes, newFakeUsers(), &fakeMail{})

	_, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)

	calls := 0
	s.genCode = func(int) (string, error) {
		calls++
		return "654321", nil
	}

	_, err = s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Len(t, codes.recs, 1)
	assert.Equal(t, "654321", codes.recs[testEmail].Code)
	assert.False(t, codes.recs[testEmail].Verified)
}

func TestRequestCodeSurvivesMailFailure(t *testing.T) {
	codes := newFakeCodes()
	s := newTestReset(t, codes, newFakeUsers(), &fakeMail{err: errors.New("smtp down")})

	token, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "123456", codes.recs[testEmail].Code)
}

func TestVerifyCodePurposeGate(t *testing.T) {
	codes := newFakeCodes()
	s := newTestReset(t, codes, newFakeUsers(), &fakeMail{})

	_, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)

	// A reset_password token must not pass the verify step even when the
	// code itself is correct
	wrong, err := s.tokens.Issue(testEmail, security.PurposeResetPassword, time.Minute)
	require.NoError(t, err)

	_, err = s.VerifyCode(context.Background(), wrong, "123456")
	assert.ErrorIs(t, err, ErrWrongPurpose)
}

func TestVerifyCodeWithoutRequest(t *testing.T) {
	s := newTestReset(t, newFakeCodes(), newFakeUsers(), &fakeMail{})

	token, err := s.tokens.Issue(testEmail, security.PurposeVerifyCode, time.Minute)
	require.NoError(t, err)

	_, err = s.VerifyCode(context.Background(), token, "123456")
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestVerifyCodeMismatch(t *testing.T) {
	codes := newFakeCodes()
	s := newTestReset(t, codes, newFakeUsers(), &fakeMail{})

	token, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)

	_, err = s.VerifyCode(context.Background(), token, "000000")
	assert.ErrorIs(t, err, ErrCodeMismatch)
	assert.False(t, codes.recs[testEmail].Verified)
}

func TestVerifyCodeMarksVerifiedAndRestartsTTL(t *testing.T) {
	codes := newFakeCodes()
	s := newTestReset(t, codes, newFakeUsers(), &fakeMail{})

	token, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)

	codes.ttls[testEmail] = time.Second

	changeToken, err := s.VerifyCode(context.Background(), token, "123456")
	require.NoError(t, err)
	assert.NotEmpty(t, changeToken)

	assert.True(t, codes.recs[testEmail].Verified)
	assert.Equal(t, recordTTL, codes.ttls[testEmail])
}

func TestVerifyCodeInvalidToken(t *testing.T) {
	s := newTestReset(t, newFakeCodes(), newFakeUsers(), &fakeMail{})

	_, err := s.VerifyCode(context.Background(), "garbage", "123456")
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestResetPasswordRequiresVerifiedRecord(t *testing.T) {
	codes := newFakeCodes()
	s := newTestReset(t, codes, newFakeUsers(), &fakeMail{})

	_, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)

	// Token forged with the right purpose but the record was never verified
	token, err := s.tokens.Issue(testEmail, security.PurposeResetPassword, time.Minute)
	require.NoError(t, err)

	err = s.ResetPassword(context.Background(), token, "Valid123!")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestResetPasswordWeakPassword(t *testing.T) {
	users := newFakeUsers(&model.User{ID: "u1", Email: testEmail})
	s := newTestReset(t, newFakeCodes(), users, &fakeMail{})

	token, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)

	changeToken, err := s.VerifyCode(context.Background(), token, "123456")
	require.NoError(t, err)

	err = s.ResetPassword(context.Background(), changeToken, "alllowercase")
	assert.ErrorIs(t, err, ErrWeakPassword)

	// The record survives a rejected password so the user can retry
	err = s.ResetPassword(context.Background(), changeToken, "Valid123!")
	assert.NoError(t, err)
}

func TestResetPasswordUnknownUser(t *testing.T) {
	s := newTestReset(t, newFakeCodes(), newFakeUsers(), &fakeMail{})

	token, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)

	changeToken, err := s.VerifyCode(context.Background(), token, "123456")
	require.NoError(t, err)

	err = s.ResetPassword(context.Background(), changeToken, "Valid123!")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetFlowEndToEnd(t *testing.T) {
	codes := newFakeCodes()
	users := newFakeUsers(&model.User{ID: "u1", Email: testEmail, PasswordHash: "old"})
	mail := &fakeMail{}
	s := newTestReset(t, codes, users, mail)

	resetToken, err := s.RequestCode(context.Background(), testEmail)
	require.NoError(t, err)
	require.Equal(t, []string{"123456"}, mail.sent)

	changeToken, err := s.VerifyCode(context.Background(), resetToken, "123456")
	require.NoError(t, err)

	err = s.ResetPassword(context.Background(), changeToken, "Valid123!")
	require.NoError(t, err)

	assert.Equal(t, "hashed:Valid123!", users.updated["u1"])

	// The record was burned, so the change token is spent
	err = s.ResetPassword(context.Background(), changeToken, "Other456?")
	assert.ErrorIs(t, err, ErrNotVerified)
}
