package service

import (
	"context"
	"errors"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/store"
	"github.com/tradelane/gatehouse/pkg/cryptox"
	"github.com/tradelane/gatehouse/pkg/idx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

var ErrAlreadyBootstrapped = errors.New("client directory already bootstrapped")

// BootstrapService seeds the first admin client on an empty directory. The
// admin surface requires an admin-scoped machine token, so without a seeded
// client there is no way to register one through the API.
type BootstrapService struct {
	Store store.Store
}

// IsBootstrapped reports whether the directory already holds any client.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Clients().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// SeedAdminClient creates a protected admin client with the given scopes on
// an empty directory. The plaintext secret is returned exactly once; the
// client cannot be deleted through the admin surface.
func (s *BootstrapService) SeedAdminClient(
	ctx context.Context,
	name string,
	scopes []string,
) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.Client{}, "", err
	} else if bootstrapped {
		return domain.Client{}, "", ErrAlreadyBootstrapped
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate bootstrap client secret", "error", err)
		return domain.Client{}, "", err
	}
	secretHash, err := cryptox.HashSecret(secret)
	if err != nil {
		l.Error("failed to hash bootstrap client secret", "error", err)
		return domain.Client{}, "", err
	}

	client := domain.Client{
		ID:          idx.New().String(),
		Name:        name,
		Description: "seeded admin client",
		ServiceType: "admin",
		SecretHash:  secretHash,
		Scopes:      scopes,
		Protected:   true,
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		l.Error("failed to create bootstrap client", "error", err)
		return domain.Client{}, "", err
	}

	l.Info("seeded admin client", "client_id", client.ID, "name", client.Name)
	return client, secret, nil
}
