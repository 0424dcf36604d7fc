package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studykwork/internal/model"
	"studykwork/internal/repository"
	"studykwork/internal/testutil"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	user := &model.User{Name: "Aru", Email: "aru@example.com", University: "U", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.GetByEmail(ctx, "aru@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Aru", byID.Name)
}

func TestUserRepository_Missing(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{Name: "A", Email: "dup@example.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &model.User{Name: "B", Email: "dup@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}
