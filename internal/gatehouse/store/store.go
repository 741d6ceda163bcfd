package store

import (
	"context"
	"errors"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Clients() Clients
	IssuedTokens() IssuedTokens
	Sessions() Sessions

	ApplyMigrations() error

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClientByID fetches a client (for the client_credentials grant).
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by creation date (newest first).
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts a new client (id is ULID).
	CreateClient(ctx context.Context, c domain.Client) error

	UpdateClientSecretHash(ctx context.Context, clientID, secretHash string) error
	UpdateClient(ctx context.Context, c domain.Client) error

	// DeleteClient removes a client. Protected clients must be rejected by
	// the service layer before reaching here.
	DeleteClient(ctx context.Context, clientID string) error

	// IsEmpty returns true if there are no clients.
	IsEmpty(ctx context.Context) (bool, error)
}

type IssuedTokens interface {
	// CreateIssuedToken records a freshly minted token in the ledger.
	CreateIssuedToken(ctx context.Context, t domain.IssuedToken) error

	// GetIssuedTokenByID fetches a ledger record by jti.
	GetIssuedTokenByID(ctx context.Context, id string) (domain.IssuedToken, error)

	// MarkTokenRevoked flips revoked=1 and stamps revoked_at. Idempotent:
	// revoking an already revoked token is not an error.
	MarkTokenRevoked(ctx context.Context, id string) error

	// IsTokenRevoked reports whether the ledger holds a revocation for jti.
	// An unknown jti is simply not revoked.
	IsTokenRevoked(ctx context.Context, id string) (bool, error)

	// DeleteExpiredIssuedTokens removes records whose tokens have long
	// expired (housekeeping).
	DeleteExpiredIssuedTokens(ctx context.Context) error
}

type Sessions interface {
	// CreateSession stores a new login session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID fetches a session (only if not expired).
	GetSessionByID(ctx context.Context, id string) (domain.Session, error)

	// DeleteSession removes a session by its ID.
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions removes all expired sessions (housekeeping).
	DeleteExpiredSessions(ctx context.Context) error
}
