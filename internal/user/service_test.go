package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/user"
)

func newService() *user.Service {
	return user.NewService(docstore.NewMemory())
}

func TestCreate(t *testing.T) {
	svc := newService()

	u, err := svc.Create(context.Background(), user.CreateParams{
		Username: "kasun",
		FullName: "Kasun Perera",
		Level:    user.LevelOne,
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.True(t, u.Active)
	assert.NotEqual(t, "secret123", u.HashedPassword)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, user.CreateParams{Username: "kasun", Level: user.LevelOne, Password: "a"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user.CreateParams{Username: "kasun", Level: user.LevelTwo, Password: "b"})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestCreateInvalidLevel(t *testing.T) {
	svc := newService()

	_, err := svc.Create(context.Background(), user.CreateParams{
		Username: "x",
		Level:    user.Level("L3"),
		Password: "a",
	})
	assert.ErrorIs(t, err, user.ErrInvalidLevel)
}

func TestAuthenticate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateParams{
		Username: "kasun",
		Level:    user.LevelTwo,
		Password: "secret123",
	})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "kasun", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.Equal(t, user.LevelTwo, u.Level)
}

func TestAuthenticateFailures(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateParams{
		Username: "kasun",
		Level:    user.LevelOne,
		Password: "secret123",
	})
	require.NoError(t, err)

	// Wrong password and unknown user look identical to the caller.
	_, err = svc.Authenticate(ctx, "kasun", "wrong")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	// So does a deactivated account.
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	_, err = svc.Authenticate(ctx, "kasun", "secret123")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestDeactivateKeepsUser(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateParams{Username: "kasun", Level: user.LevelOne, Password: "a"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, created.ID))

	// Deactivation is a state change, not a deletion.
	u, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, u.Active)
}

func TestDeactivateMissing(t *testing.T) {
	svc := newService()

	err := svc.Deactivate(context.Background(), "nope")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, user.CreateParams{
		Username: "kasun",
		FullName: "Kasun",
		Level:    user.LevelOne,
		Password: "old-password",
	})
	require.NoError(t, err)

	level := user.LevelTwo
	password := "new-password"

	updated, err := svc.Update(ctx, created.ID, user.UpdateParams{
		Level:    &level,
		Password: &password,
	})
	require.NoError(t, err)
	assert.Equal(t, user.LevelTwo, updated.Level)

	// The new password works, the old one no longer does.
	_, err = svc.Authenticate(ctx, "kasun", "new-password")
	assert.NoError(t, err)

	_, err = svc.Authenticate(ctx, "kasun", "old-password")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestUpdateInvalidLevel(t *testing.T) {
	svc := newService()

	level := user.Level("boss")
	_, err := svc.Update(context.Background(), "whatever", user.UpdateParams{Level: &level})
	assert.ErrorIs(t, err, user.ErrInvalidLevel)
}

func TestList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, user.CreateParams{Username: name, Level: user.LevelOne, Password: "p"})
		require.NoError(t, err)
	}

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}
