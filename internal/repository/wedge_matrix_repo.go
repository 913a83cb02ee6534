package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"wedge-matrix/internal/domain"
)

type WedgeMatrixRepository interface {
	GetByID(ctx context.Context, id string) (domain.WedgeMatrix, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.WedgeMatrix, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
	// CreateWithinLimit inserta la matriz si el usuario tiene menos de limit matrices.
	// Devuelve ErrWedgeMatrixLimit en caso contrario.
	CreateWithinLimit(ctx context.Context, matrix domain.WedgeMatrix, limit int) error
	Update(ctx context.Context, matrix domain.WedgeMatrix) error
	// DeleteUnlessLast elimina la matriz salvo que sea la unica del usuario (ErrLastWedgeMatrix).
	DeleteUnlessLast(ctx context.Context, id, userID string) error
}

type PgWedgeMatrixRepository struct {
	pool *pgxpool.Pool
}

func NewPgWedgeMatrixRepository(pool *pgxpool.Pool) *PgWedgeMatrixRepository {
	return &PgWedgeMatrixRepository{pool: pool}
}

const wedgeMatrixColumns = `id, user_id, label, number_of_rows, number_of_columns, column_headers, club_labels,
		selected_row_display_option, yardage_values, created_at, updated_at`

func (r *PgWedgeMatrixRepository) GetByID(ctx context.Context, id string) (domain.WedgeMatrix, error) {
	query := `SELECT ` + wedgeMatrixColumns + ` FROM wedge_matrices WHERE id = $1`
	return scanWedgeMatrix(r.pool.QueryRow(ctx, query, id))
}

func (r *PgWedgeMatrixRepository) ListByUserID(ctx context.Context, userID string) ([]domain.WedgeMatrix, error) {
	query := `SELECT ` + wedgeMatrixColumns + `
		FROM wedge_matrices
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matrices := make([]domain.WedgeMatrix, 0)
	for rows.Next() {
		m, err := scanWedgeMatrix(rows)
		if err != nil {
			return nil, err
		}
		matrices = append(matrices, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matrices, nil
}

func (r *PgWedgeMatrixRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wedge_matrices WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (r *PgWedgeMatrixRepository) CreateWithinLimit(ctx context.Context, matrix domain.WedgeMatrix, limit int) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return createWithinLimit(ctx, tx, matrix, limit)
	})
}

func (r *PgWedgeMatrixRepository) Update(ctx context.Context, matrix domain.WedgeMatrix) error {
	const query = `
		UPDATE wedge_matrices
		SET label = $1, number_of_rows = $2, number_of_columns = $3, column_headers = $4, club_labels = $5,
			selected_row_display_option = $6, yardage_values = $7, updated_at = $8
		WHERE id = $9
	`
	headers, clubs, values, err := encodeWedgeMatrixJSON(matrix)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query,
		matrix.Label,
		matrix.NumberOfRows,
		matrix.NumberOfColumns,
		headers,
		clubs,
		matrix.SelectedRowDisplayOption,
		values,
		matrix.UpdatedAt,
		matrix.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgWedgeMatrixRepository) DeleteUnlessLast(ctx context.Context, id, userID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return deleteUnlessLast(ctx, tx, id, userID)
	})
}

// txQuerier es el subconjunto de pgx.Tx que usan las operaciones con bloqueo.
type txQuerier interface {
	execer
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func createWithinLimit(ctx context.Context, tx txQuerier, matrix domain.WedgeMatrix, limit int) error {
	count, err := lockAndCount(ctx, tx, matrix.UserID)
	if err != nil {
		return err
	}
	if count >= limit {
		return ErrWedgeMatrixLimit
	}
	return insertWedgeMatrix(ctx, tx, matrix)
}

func deleteUnlessLast(ctx context.Context, tx txQuerier, id, userID string) error {
	count, err := lockAndCount(ctx, tx, userID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastWedgeMatrix
	}
	tag, err := tx.Exec(ctx, `DELETE FROM wedge_matrices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// lockAndCount bloquea la fila del usuario para serializar altas y bajas concurrentes de sus matrices.
func lockAndCount(ctx context.Context, tx txQuerier, userID string) (int, error) {
	var lockedID string
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&lockedID); err != nil {
		return 0, translateNotFound(err)
	}
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM wedge_matrices WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertWedgeMatrix(ctx context.Context, db execer, matrix domain.WedgeMatrix) error {
	const query = `
		INSERT INTO wedge_matrices (id, user_id, label, number_of_rows, number_of_columns, column_headers, club_labels,
			selected_row_display_option, yardage_values, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	headers, clubs, values, err := encodeWedgeMatrixJSON(matrix)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, query,
		matrix.ID,
		matrix.UserID,
		matrix.Label,
		matrix.NumberOfRows,
		matrix.NumberOfColumns,
		headers,
		clubs,
		matrix.SelectedRowDisplayOption,
		values,
		matrix.CreatedAt,
		matrix.UpdatedAt,
	)
	return err
}

// Las columnas JSONB se envian ya serializadas para no depender del plan de encoding de pgx.
func encodeWedgeMatrixJSON(m domain.WedgeMatrix) (headers, clubs, values []byte, err error) {
	if headers, err = json.Marshal(m.ColumnHeaders); err != nil {
		return nil, nil, nil, err
	}
	if clubs, err = json.Marshal(m.ClubLabels); err != nil {
		return nil, nil, nil, err
	}
	if values, err = json.Marshal(m.YardageValues); err != nil {
		return nil, nil, nil, err
	}
	return headers, clubs, values, nil
}

func scanWedgeMatrix(row pgx.Row) (domain.WedgeMatrix, error) {
	var (
		m                      domain.WedgeMatrix
		headers, clubs, values []byte
	)
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Label,
		&m.NumberOfRows,
		&m.NumberOfColumns,
		&headers,
		&clubs,
		&m.SelectedRowDisplayOption,
		&values,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return domain.WedgeMatrix{}, translateNotFound(err)
	}
	if err := decodeJSONColumn(headers, &m.ColumnHeaders); err != nil {
		return domain.WedgeMatrix{}, err
	}
	if err := decodeJSONColumn(clubs, &m.ClubLabels); err != nil {
		return domain.WedgeMatrix{}, err
	}
	if err := decodeJSONColumn(values, &m.YardageValues); err != nil {
		return domain.WedgeMatrix{}, err
	}
	return m, nil
}

func decodeJSONColumn(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
