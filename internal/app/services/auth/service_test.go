package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sarvagya80/SarvTribe/internal/app/services/auth"
	domainauth "github.com/sarvagya80/SarvTribe/internal/domain/auth"
	domainuser "github.com/sarvagya80/SarvTribe/internal/domain/user"
	"github.com/sarvagya80/SarvTribe/internal/infra/security"
	"github.com/sarvagya80/SarvTribe/internal/infra/storage/memory"
)

func newService(ttl time.Duration) *auth.Service {
	return &auth.Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: ttl,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService(time.Hour)
	ctx := context.Background()

	registered, err := svc.Register(ctx, auth.RegisterParams{
		Email:    "Alice@Example.com",
		FullName: "Alice A",
		Password: "long enough secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", registered.User.Email)
	assert.Equal(t, domainuser.DefaultAvatarURL, registered.User.ProfilePicture)
	assert.NotEmpty(t, registered.Token)

	// The registration token is live immediately.
	resolved, err := svc.ResolveToken(ctx, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resolved.ID)

	loggedIn, err := svc.Login(ctx, auth.LoginParams{Email: "alice@example.com", Password: "long enough secret"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)
	assert.NotEqual(t, registered.Token, loggedIn.Token)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "a@b.c", FullName: "A", Password: "short"})
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	_, err = svc.Register(ctx, auth.RegisterParams{FullName: "A", Password: "long enough secret"})
	assert.ErrorIs(t, err, domainuser.ErrEmailRequired)

	_, err = svc.Register(ctx, auth.RegisterParams{Email: "a@b.c", Password: "long enough secret"})
	assert.ErrorIs(t, err, domainuser.ErrFullNameRequired)

	_, err = svc.Register(ctx, auth.RegisterParams{Email: "a@b.c", FullName: "A", Password: "long enough secret"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, auth.RegisterParams{Email: "A@B.C", FullName: "B", Password: "long enough secret"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterParams{Email: "a@b.c", FullName: "A", Password: "long enough secret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, auth.LoginParams{Email: "a@b.c", Password: "wrong password"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, auth.LoginParams{Email: "nobody@b.c", Password: "long enough secret"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc := newService(time.Hour)
	ctx := context.Background()

	registered, err := svc.Register(ctx, auth.RegisterParams{Email: "a@b.c", FullName: "A", Password: "long enough secret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, registered.Token))

	_, err = svc.ResolveToken(ctx, registered.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	// Logging out an already-dead token is not an error.
	assert.NoError(t, svc.Logout(ctx, registered.Token))
}

func TestResolveTokenExpiry(t *testing.T) {
	svc := newService(time.Nanosecond)
	ctx := context.Background()

	registered, err := svc.Register(ctx, auth.RegisterParams{Email: "a@b.c", FullName: "A", Password: "long enough secret"})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = svc.ResolveToken(ctx, registered.Token)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	_, err = svc.ResolveToken(ctx, "")
	assert.ErrorIs(t, err, domainauth.ErrTokenRequired)
}
