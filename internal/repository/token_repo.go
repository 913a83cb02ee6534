package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository registra los jti emitidos para poder revocarlos por usuario.
type TokenRepository interface {
	Store(ctx context.Context, jti, userID string, expiresAt time.Time) error
	Exists(ctx context.Context, jti string, now time.Time) (bool, error)
	Revoke(ctx context.Context, jti string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type PgTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPgTokenRepository(pool *pgxpool.Pool) *PgTokenRepository {
	return &PgTokenRepository{pool: pool}
}

func (r *PgTokenRepository) Store(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	const query = `
		INSERT INTO auth_tokens (id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, jti, userID, expiresAt, time.Now().UTC())
	return err
}

func (r *PgTokenRepository) Exists(ctx context.Context, jti string, now time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM auth_tokens WHERE id = $1 AND expires_at > $2)`,
		jti, now,
	).Scan(&exists)
	return exists, err
}

func (r *PgTokenRepository) Revoke(ctx context.Context, jti string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE id = $1`, jti)
	return err
}

func (r *PgTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID)
	return err
}
