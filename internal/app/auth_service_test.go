package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studykwork/internal/app"
	"studykwork/internal/pkg/jwtutil"
	"studykwork/internal/repository"
	"studykwork/internal/testutil"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) *app.AuthService {
	t.Helper()
	db := testutil.NewDB(t)
	return app.NewAuthService(repository.NewUserRepository(db), testSecret, time.Hour, testutil.University)
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, app.RegisterInput{Name: " Aida ", Email: "Aida@Example.com", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "Aida", registered.User.Name)
	assert.Equal(t, "aida@example.com", registered.User.Email)
	assert.Equal(t, testutil.University, registered.User.University)
	assert.NotEqual(t, "secret", registered.User.PasswordHash)

	loggedIn, err := svc.Login(ctx, app.LoginInput{Email: "AIDA@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	user, err := svc.Verify(ctx, loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, user.ID)
}

func TestAuthService_RegisterDuplicateEmailIgnoresCase(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, app.RegisterInput{Name: "A", Email: "a@x.kz", Password: "p"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, app.RegisterInput{Name: "B", Email: "A@X.KZ", Password: "q"})
	assert.ErrorIs(t, err, app.ErrEmailExists)
}

func TestAuthService_RegisterMissingFields(t *testing.T) {
	svc := newAuthService(t)

	cases := []app.RegisterInput{
		{Email: "a@x.kz", Password: "p"},
		{Name: "A", Password: "p"},
		{Name: "A", Email: "a@x.kz"},
		{Name: "   ", Email: "a@x.kz", Password: "p"},
	}
	for _, in := range cases {
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, app.ErrInvalidInput)
		assert.True(t, app.IsValidation(err))
	}
}

func TestAuthService_RegisterPasswordLength(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, app.RegisterInput{Name: "A", Email: "long@x.kz", Password: strings.Repeat("p", 73)})
	assert.ErrorIs(t, err, app.ErrPasswordTooLong)
	assert.True(t, app.IsValidation(err))

	limit := strings.Repeat("p", 72)
	_, err = svc.Register(ctx, app.RegisterInput{Name: "A", Email: "long@x.kz", Password: limit})
	require.NoError(t, err)
	_, err = svc.Login(ctx, app.LoginInput{Email: "long@x.kz", Password: limit})
	assert.NoError(t, err)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, app.RegisterInput{Name: "A", Email: "a@x.kz", Password: "right"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, app.LoginInput{Email: "a@x.kz", Password: "wrong"})
	assert.ErrorIs(t, err, app.ErrInvalidCredential)

	_, err = svc.Login(ctx, app.LoginInput{Email: "nobody@x.kz", Password: "right"})
	assert.ErrorIs(t, err, app.ErrInvalidCredential)

	_, err = svc.Login(ctx, app.LoginInput{Email: "a@x.kz"})
	assert.ErrorIs(t, err, app.ErrInvalidInput)
}

func TestAuthService_VerifyRejectsBadTokens(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, app.RegisterInput{Name: "A", Email: "a@x.kz", Password: "p"})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, app.ErrInvalidToken)

	foreign, err := jwtutil.GenerateToken("other-secret", time.Hour, res.User.ID, res.User.Email)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, foreign)
	assert.ErrorIs(t, err, app.ErrInvalidToken)

	expired, err := jwtutil.GenerateToken(testSecret, -time.Minute, res.User.ID, res.User.Email)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, expired)
	assert.ErrorIs(t, err, app.ErrInvalidToken)

	ghost, err := jwtutil.GenerateToken(testSecret, time.Hour, res.User.ID+100, "ghost@x.kz")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, ghost)
	assert.ErrorIs(t, err, app.ErrUserNotFound)
}
