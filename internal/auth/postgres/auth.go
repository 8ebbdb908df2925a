package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/training-records/internal/auth"
)

// Repository reads credentials with plain SQL over sqlx.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialsByUsername(ctx context.Context, username string) (*auth.Credentials, error) {
	query := r.db.Rebind(`SELECT id, username, password_hash, role, status FROM users WHERE username = ?`)
	return r.get(ctx, query, username)
}

func (r *Repository) GetCredentialsByID(ctx context.Context, userID int64) (*auth.Credentials, error) {
	query := r.db.Rebind(`SELECT id, username, password_hash, role, status FROM users WHERE id = ?`)
	return r.get(ctx, query, userID)
}

func (r *Repository) get(ctx context.Context, query string, arg interface{}) (*auth.Credentials, error) {
	var creds auth.Credentials
	if err := r.db.GetContext(ctx, &creds, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrCredentialsNotFound
		}
		return nil, err
	}
	return &creds, nil
}
