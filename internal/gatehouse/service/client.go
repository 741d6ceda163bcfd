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

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrClientProtected    = errors.New("client is protected and cannot be deleted")
	ErrInvalidCredentials = errors.New("invalid client credentials")
)

// DirectoryService manages the registered machine clients and their
// credentials. Plaintext secrets exist only in the return values of
// CreateClient and RotateSecret; everything stored is an Argon2id hash.
type DirectoryService struct {
	Store store.Store
}

// ClientInput carries the mutable client fields for create/update.
type ClientInput struct {
	Name         string
	Description  string
	ContactEmail string
	ServiceType  string
	Scopes       []string
}

// CreateClient registers a new machine client. The generated secret is
// returned exactly once; it cannot be recovered later, only rotated.
func (s *DirectoryService) CreateClient(ctx context.Context, in ClientInput) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate client secret", "error", err)
		return domain.Client{}, "", err
	}

	secretHash, err := cryptox.HashSecret(secret)
	if err != nil {
		l.Error("failed to hash client secret", "error", err)
		return domain.Client{}, "", err
	}

	client := domain.Client{
		ID:           idx.New().String(),
		Name:         in.Name,
		Description:  in.Description,
		ContactEmail: in.ContactEmail,
		ServiceType:  in.ServiceType,
		SecretHash:   secretHash,
		Scopes:       in.Scopes,
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		l.Error("failed to create client", "error", err)
		return domain.Client{}, "", err
	}

	l.Info("client created", "client_id", client.ID, "name", client.Name)
	return client, secret, nil
}

// RotateSecret replaces the client's secret and returns the new plaintext
// once. Tokens already issued to the client remain valid until expiry.
func (s *DirectoryService) RotateSecret(ctx context.Context, clientID string) (string, error) {
	l := slogx.FromContext(ctx)

	if _, err := s.GetClient(ctx, clientID); err != nil {
		return "", err
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	secretHash, err := cryptox.HashSecret(secret)
	if err != nil {
		return "", err
	}

	if err := s.Store.Clients().UpdateClientSecretHash(ctx, clientID, secretHash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrClientNotFound
		}
		return "", err
	}

	l.Info("client secret rotated", "client_id", clientID)
	return secret, nil
}

// GetClient fetches a client by ID.
func (s *DirectoryService) GetClient(ctx context.Context, clientID string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, err
	}
	return client, nil
}

// ListClients returns all registered clients.
func (s *DirectoryService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx)
}

// UpdateClient replaces the mutable fields of a client.
func (s *DirectoryService) UpdateClient(ctx context.Context, clientID string, in ClientInput) (domain.Client, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return domain.Client{}, err
	}

	client.Name = in.Name
	client.Description = in.Description
	client.ContactEmail = in.ContactEmail
	client.ServiceType = in.ServiceType
	client.Scopes = in.Scopes

	if err := s.Store.Clients().UpdateClient(ctx, client); err != nil {
		return domain.Client{}, err
	}

	slogx.FromContext(ctx).Info("client updated", "client_id", clientID)
	return client, nil
}

// DeleteClient removes a client. Protected clients cannot be deleted.
func (s *DirectoryService) DeleteClient(ctx context.Context, clientID string) error {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	if client.Protected {
		return ErrClientProtected
	}

	if err := s.Store.Clients().DeleteClient(ctx, clientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("client deleted", "client_id", clientID)
	return nil
}

// ValidateCredentials authenticates a client by ID and plaintext secret.
// Unknown clients and wrong secrets are indistinguishable to the caller.
func (s *DirectoryService) ValidateCredentials(ctx context.Context, clientID, secret string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidCredentials
		}
		return domain.Client{}, err
	}

	if client.SecretHash == "" || secret == "" {
		return domain.Client{}, ErrInvalidCredentials
	}
	if err := cryptox.VerifySecret(secret, client.SecretHash); err != nil {
		slogx.FromContext(ctx).Info("client authentication failed", "client_id", clientID)
		return domain.Client{}, ErrInvalidCredentials
	}

	return client, nil
}

// ListScopes returns the scope set a client may be granted.
func (s *DirectoryService) ListScopes(ctx context.Context, clientID string) ([]string, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return client.Scopes, nil
}
