package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/pkg/idx"
)

func TestDirectoryService(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	directory := &DirectoryService{Store: env.store}
	ctx := context.Background()

	t.Run("create returns the secret exactly once and never stores it", func(t *testing.T) {
		client, secret, err := directory.CreateClient(ctx, ClientInput{
			Name:        "reporting-service",
			Description: "nightly report generator",
			ServiceType: "worker",
			Scopes:      []string{"api:read"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, secret)
		require.NotEmpty(t, client.ID)

		stored, err := directory.GetClient(ctx, client.ID)
		require.NoError(t, err)
		require.NotEqual(t, secret, stored.SecretHash)
		require.NotContains(t, stored.SecretHash, secret)
	})

	t.Run("validate credentials", func(t *testing.T) {
		client, secret, err := directory.CreateClient(ctx, ClientInput{
			Name:   "svc",
			Scopes: []string{"api:read"},
		})
		require.NoError(t, err)

		got, err := directory.ValidateCredentials(ctx, client.ID, secret)
		require.NoError(t, err)
		require.Equal(t, client.ID, got.ID)

		_, err = directory.ValidateCredentials(ctx, client.ID, "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = directory.ValidateCredentials(ctx, client.ID, "")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		// Unknown clients are indistinguishable from wrong secrets.
		_, err = directory.ValidateCredentials(ctx, idx.New().String(), secret)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rotate invalidates the old secret", func(t *testing.T) {
		client, oldSecret, err := directory.CreateClient(ctx, ClientInput{
			Name:   "rotated",
			Scopes: []string{"api:read"},
		})
		require.NoError(t, err)

		newSecret, err := directory.RotateSecret(ctx, client.ID)
		require.NoError(t, err)
		require.NotEqual(t, oldSecret, newSecret)

		_, err = directory.ValidateCredentials(ctx, client.ID, oldSecret)
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = directory.ValidateCredentials(ctx, client.ID, newSecret)
		require.NoError(t, err)
	})

	t.Run("update replaces mutable fields", func(t *testing.T) {
		client, _, err := directory.CreateClient(ctx, ClientInput{
			Name:   "before",
			Scopes: []string{"api:read"},
		})
		require.NoError(t, err)

		updated, err := directory.UpdateClient(ctx, client.ID, ClientInput{
			Name:         "after",
			Description:  "updated",
			ContactEmail: "ops@example.com",
			ServiceType:  "backend",
			Scopes:       []string{"api:read", "api:write"},
		})
		require.NoError(t, err)
		require.Equal(t, "after", updated.Name)
		require.Equal(t, []string{"api:read", "api:write"}, updated.Scopes)

		scopes, err := directory.ListScopes(ctx, client.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"api:read", "api:write"}, scopes)
	})

	t.Run("delete", func(t *testing.T) {
		client, _, err := directory.CreateClient(ctx, ClientInput{
			Name:   "doomed",
			Scopes: []string{"api:read"},
		})
		require.NoError(t, err)

		require.NoError(t, directory.DeleteClient(ctx, client.ID))

		_, err = directory.GetClient(ctx, client.ID)
		require.ErrorIs(t, err, ErrClientNotFound)

		require.ErrorIs(t, directory.DeleteClient(ctx, client.ID), ErrClientNotFound)
	})

	t.Run("protected clients cannot be deleted", func(t *testing.T) {
		protected := domain.Client{
			ID:        idx.New().String(),
			Name:      "bootstrap",
			Scopes:    []string{"clients:admin"},
			Protected: true,
		}
		require.NoError(t, env.store.Clients().CreateClient(ctx, protected))

		require.ErrorIs(t, directory.DeleteClient(ctx, protected.ID), ErrClientProtected)
	})

	t.Run("list returns created clients", func(t *testing.T) {
		clients, err := directory.ListClients(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, clients)
	})
}
