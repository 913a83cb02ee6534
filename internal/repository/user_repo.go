package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wedge-matrix/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	// CreateWithWedgeMatrix persiste el usuario y su matriz inicial en una sola transaccion.
	CreateWithWedgeMatrix(ctx context.Context, user domain.User, matrix domain.WedgeMatrix) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePreferences(ctx context.Context, id string, hasDismissedTutorial bool, updatedAt time.Time) error
	// Delete elimina el usuario; matrices y tokens caen en cascada.
	Delete(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) CreateWithWedgeMatrix(ctx context.Context, user domain.User, matrix domain.WedgeMatrix) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertUserWithWedgeMatrix(ctx, tx, user, matrix)
	})
}

func insertUserWithWedgeMatrix(ctx context.Context, db execer, user domain.User, matrix domain.WedgeMatrix) error {
	const query = `
		INSERT INTO users (id, email, password_hash, tos_accepted_at, has_dismissed_tutorial, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.TosAcceptedAt,
		user.HasDismissedTutorial,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		return err
	}
	return insertWedgeMatrix(ctx, db, matrix)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, email, password_hash, tos_accepted_at, has_dismissed_tutorial, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, email, password_hash, tos_accepted_at, has_dismissed_tutorial, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) UpdatePreferences(ctx context.Context, id string, hasDismissedTutorial bool, updatedAt time.Time) error {
	const query = `
		UPDATE users
		SET has_dismissed_tutorial = $1, updated_at = $2
		WHERE id = $3
	`
	tag, err := r.pool.Exec(ctx, query, hasDismissedTutorial, updatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.TosAcceptedAt,
		&u.HasDismissedTutorial,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, translateNotFound(err)
	}
	return u, nil
}
