package sqlite

import (
	"context"
	"database/sql"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
)

type clientsRepo struct {
	db dbtx
}

const clientColumns = `id, name, description, contact_email, service_type, secret_hash, scopes, protected, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var (
		c          domain.Client
		secretHash sql.NullString
		scopes     string
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.ContactEmail, &c.ServiceType,
		&secretHash, &scopes, &c.Protected, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Client{}, err
	}
	c.SecretHash = mapNullString(secretHash)
	c.Scopes = splitScopes(scopes)
	return c, nil
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, description, contact_email, service_type, secret_hash, scopes, protected, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		c.ID, c.Name, c.Description, c.ContactEmail, c.ServiceType,
		mapStringNull(c.SecretHash), joinScopes(c.Scopes), c.Protected,
	)
	return mapConstraint(err)
}

func (r *clientsRepo) UpdateClientSecretHash(
	ctx context.Context,
	clientID, secretHash string,
) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE clients SET secret_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		mapStringNull(secretHash), clientID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *clientsRepo) UpdateClient(ctx context.Context, c domain.Client) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE clients
		 SET name = ?, description = ?, contact_email = ?, service_type = ?, scopes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		c.Name, c.Description, c.ContactEmail, c.ServiceType, joinScopes(c.Scopes), c.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *clientsRepo) DeleteClient(ctx context.Context, clientID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, clientID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *clientsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
