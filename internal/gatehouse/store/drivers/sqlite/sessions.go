package sqlite

import (
	"context"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, origin_token_id, user_id, email, first_name, last_name, brand_id, platform_id, wallet_id, permissions, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		s.ID, s.OriginTokenID, s.UserID, s.Email, s.FirstName, s.LastName,
		s.BrandID, s.PlatformID, s.WalletID, joinScopes(s.Permissions),
		s.ExpiresAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, origin_token_id, user_id, email, first_name, last_name, brand_id, platform_id, wallet_id, permissions, expires_at, created_at
		 FROM sessions WHERE id = ? AND expires_at > CURRENT_TIMESTAMP`, id)

	var (
		s           domain.Session
		permissions string
	)
	err := row.Scan(
		&s.ID, &s.OriginTokenID, &s.UserID, &s.Email, &s.FirstName, &s.LastName,
		&s.BrandID, &s.PlatformID, &s.WalletID, &permissions,
		&s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.Permissions = splitScopes(permissions)
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP`)
	return err
}
