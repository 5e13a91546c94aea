package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixtura/livescore-system/repositories"
)

type stubAdminRepo struct {
	admin *repositories.Admin
}

func (r *stubAdminRepo) GetByEmail(ctx context.Context, email string) (*repositories.Admin, error) {
	if r.admin != nil && r.admin.Email == email {
		return r.admin, nil
	}
	return nil, repositories.ErrAdminNotFound
}

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3creto"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubAdminRepo{admin: &repositories.Admin{
		ID:           1,
		Email:        "admin@club.test",
		PasswordHash: string(hash),
	}}
	return NewAuthService(repo, "test-secret")
}

func TestLoginAndVerify(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.Login(context.Background(), "admin@club.test", "s3creto")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cap, err := svc.Verify(token)
	require.NoError(t, err)
	assert.True(t, cap.Valid())
	assert.Equal(t, 1, cap.AdminID)
	assert.Equal(t, "admin@club.test", cap.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "admin@club.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "nobody@club.test", "s3creto")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyGarbageToken(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenFromOtherSecret(t *testing.T) {
	svc := newTestAuthService(t)
	other := newTestAuthServiceWithSecret(t, "another-secret")

	token, err := other.Login(context.Background(), "admin@club.test", "s3creto")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newTestAuthServiceWithSecret(t *testing.T, secret string) AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3creto"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubAdminRepo{admin: &repositories.Admin{
		ID:           1,
		Email:        "admin@club.test",
		PasswordHash: string(hash),
	}}
	return NewAuthService(repo, secret)
}
