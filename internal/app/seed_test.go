package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"studykwork/internal/app"
	"studykwork/internal/repository"
	"studykwork/internal/testutil"
)

func TestSeedDemo(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	listings := repository.NewListingRepository(db)
	ctx := context.Background()

	require.NoError(t, app.SeedDemo(ctx, users, listings, testutil.University))

	demo, err := users.GetByEmail(ctx, app.DemoEmail)
	require.NoError(t, err)
	require.NotNil(t, demo)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(demo.PasswordHash), []byte(app.DemoPassword)))

	list, err := listings.ListByUserID(ctx, demo.ID)
	require.NoError(t, err)
	assert.Len(t, list, 8)
	for _, l := range list {
		assert.Equal(t, testutil.University, l.University)
		assert.Len(t, l.Images, 1)
	}

	// second run is a no-op
	require.NoError(t, app.SeedDemo(ctx, users, listings, testutil.University))
	count, err := listings.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), count)
}

func TestSeedDemo_ReusesExistingDemoUser(t *testing.T) {
	db := testutil.NewDB(t)
	existing := testutil.CreateUser(t, db, "Demo", app.DemoEmail)
	listings := repository.NewListingRepository(db)

	require.NoError(t, app.SeedDemo(context.Background(), repository.NewUserRepository(db), listings, testutil.University))

	list, err := listings.ListByUserID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Len(t, list, 8)
}
