package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/utils"
)

func userTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiresIn = 3600
	return cfg
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, userTestConfig())

	user, err := svc.Register(context.Background(), "Jane", "jane@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	assert.Equal(t, models.RoleBroker, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret-pass")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, userTestConfig())

	_, err := svc.Register(context.Background(), "Jane", "jane@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other Jane", "jane@example.com", "another-pass", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginIssuesToken(t *testing.T) {
	repo := newFakeUserRepo()
	cfg := userTestConfig()
	svc := NewUserService(repo, cfg)

	registered, err := svc.Register(context.Background(), "Jane", "jane@example.com", "s3cret-pass", models.RoleSuperAdmin)
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "jane@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := utils.ValidateJWT(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, registered.ID.Hex(), claims["user_id"])
	assert.Equal(t, models.RoleSuperAdmin, claims["role"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, userTestConfig())

	_, err := svc.Register(context.Background(), "Jane", "jane@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "jane@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
