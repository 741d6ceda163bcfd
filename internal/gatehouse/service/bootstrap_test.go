package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBootstrapService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("seeds a protected admin client on an empty directory", func(t *testing.T) {
		env := newTestEnv(t)
		svc := &BootstrapService{Store: env.store}

		bootstrapped, err := svc.IsBootstrapped(ctx)
		require.NoError(t, err)
		require.False(t, bootstrapped)

		client, secret, err := svc.SeedAdminClient(ctx, "gatehouse-admin", []string{"clients:admin"})
		require.NoError(t, err)
		require.NotEmpty(t, secret)
		require.True(t, client.Protected)
		require.Equal(t, []string{"clients:admin"}, client.Scopes)

		// The seeded credentials authenticate like any other client's.
		directory := &DirectoryService{Store: env.store}
		got, err := directory.ValidateCredentials(ctx, client.ID, secret)
		require.NoError(t, err)
		require.Equal(t, client.ID, got.ID)

		// Protected: the admin surface cannot delete it.
		require.ErrorIs(t, directory.DeleteClient(ctx, client.ID), ErrClientProtected)

		bootstrapped, err = svc.IsBootstrapped(ctx)
		require.NoError(t, err)
		require.True(t, bootstrapped)
	})

	t.Run("refuses to seed twice", func(t *testing.T) {
		env := newTestEnv(t)
		svc := &BootstrapService{Store: env.store}

		_, _, err := svc.SeedAdminClient(ctx, "gatehouse-admin", []string{"clients:admin"})
		require.NoError(t, err)

		_, _, err = svc.SeedAdminClient(ctx, "gatehouse-admin", []string{"clients:admin"})
		require.ErrorIs(t, err, ErrAlreadyBootstrapped)
	})

	t.Run("any existing client counts as bootstrapped", func(t *testing.T) {
		env := newTestEnv(t)
		env.createClient(t, []string{"api:read"})

		svc := &BootstrapService{Store: env.store}
		_, _, err := svc.SeedAdminClient(ctx, "gatehouse-admin", []string{"clients:admin"})
		require.ErrorIs(t, err, ErrAlreadyBootstrapped)
	})
}
