package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careops/backend/internal/models"
)

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	u, err := env.users.Register(ctx, RegisterInput{Name: "Ada", Email: " Ada@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, models.RoleStaff, u.Role)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	found, err := env.users.Authenticate(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = env.users.Authenticate(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Authenticate(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := env.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
}

func TestUserService_EmailUniqueness(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	_, err := env.users.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "password1", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = env.users.Register(ctx, RegisterInput{Name: "Imposter", Email: "ADA@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.users.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.users.Register(ctx, RegisterInput{Name: "", Email: "ada@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = env.users.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "password1", Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = env.users.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
