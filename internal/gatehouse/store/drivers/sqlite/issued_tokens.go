package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
)

type issuedTokensRepo struct {
	db dbtx
}

func (r *issuedTokensRepo) CreateIssuedToken(ctx context.Context, t domain.IssuedToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO issued_tokens (id, kind, subject, client_id, brand_id, scopes, revoked, issued_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		t.ID, t.Kind, t.Subject, t.ClientID, t.BrandID, joinScopes(t.Scopes),
		t.IssuedAt.UTC(), t.ExpiresAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *issuedTokensRepo) GetIssuedTokenByID(ctx context.Context, id string) (domain.IssuedToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kind, subject, client_id, brand_id, scopes, revoked, revoked_at, issued_at, expires_at
		 FROM issued_tokens WHERE id = ?`, id)

	var (
		t         domain.IssuedToken
		scopes    string
		revokedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.Kind, &t.Subject, &t.ClientID, &t.BrandID, &scopes,
		&t.Revoked, &revokedAt, &t.IssuedAt, &t.ExpiresAt,
	)
	if err != nil {
		return domain.IssuedToken{}, mapNotFound(err)
	}
	t.Scopes = splitScopes(scopes)
	t.RevokedAt = mapNullTimePtr(revokedAt)
	return t, nil
}

// MarkTokenRevoked flips revoked and stamps revoked_at once. Re-revoking is
// a silent no-op so revocation stays idempotent.
func (r *issuedTokensRepo) MarkTokenRevoked(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE issued_tokens
		 SET revoked = 1, revoked_at = COALESCE(revoked_at, CURRENT_TIMESTAMP)
		 WHERE id = ?`, id)
	return err
}

func (r *issuedTokensRepo) IsTokenRevoked(ctx context.Context, id string) (bool, error) {
	var revoked bool
	err := r.db.QueryRowContext(ctx,
		`SELECT revoked FROM issued_tokens WHERE id = ?`, id).Scan(&revoked)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown jti is simply not revoked.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return revoked, nil
}

// DeleteExpiredIssuedTokens keeps revoked records a day past expiry so late
// introspections of a revoked token still see the revocation.
func (r *issuedTokensRepo) DeleteExpiredIssuedTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM issued_tokens WHERE expires_at < datetime('now', '-1 day')`)
	return err
}
