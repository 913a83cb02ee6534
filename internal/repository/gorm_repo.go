package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wedge-matrix/internal/domain"
)

// GormUserRepository implementa UserRepository sobre gorm (SQLite en desarrollo y tests).
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) CreateWithWedgeMatrix(ctx context.Context, user domain.User, matrix domain.WedgeMatrix) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u := toUserRecord(user)
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		m := toWedgeMatrixRecord(matrix)
		return tx.Create(&m).Error
	})
}

func (r *GormUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return domain.User{}, translateNotFound(err)
	}
	return rec.toDomain(), nil
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		return domain.User{}, translateNotFound(err)
	}
	return rec.toDomain(), nil
}

func (r *GormUserRepository) UpdatePreferences(ctx context.Context, id string, hasDismissedTutorial bool, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", id).Updates(map[string]any{
		"has_dismissed_tutorial": hasDismissedTutorial,
		"updated_at":             updatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete borra en cascada de forma explicita: SQLite solo respeta ON DELETE con foreign_keys activo.
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&authTokenRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&wedgeMatrixRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&userRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type GormWedgeMatrixRepository struct {
	db *gorm.DB
}

func NewGormWedgeMatrixRepository(db *gorm.DB) *GormWedgeMatrixRepository {
	return &GormWedgeMatrixRepository{db: db}
}

func (r *GormWedgeMatrixRepository) GetByID(ctx context.Context, id string) (domain.WedgeMatrix, error) {
	var rec wedgeMatrixRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return domain.WedgeMatrix{}, translateNotFound(err)
	}
	return rec.toDomain(), nil
}

func (r *GormWedgeMatrixRepository) ListByUserID(ctx context.Context, userID string) ([]domain.WedgeMatrix, error) {
	var recs []wedgeMatrixRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	matrices := make([]domain.WedgeMatrix, 0, len(recs))
	for _, rec := range recs {
		matrices = append(matrices, rec.toDomain())
	}
	return matrices, nil
}

func (r *GormWedgeMatrixRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&wedgeMatrixRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

func (r *GormWedgeMatrixRepository) CreateWithinLimit(ctx context.Context, matrix domain.WedgeMatrix, limit int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := gormLockAndCount(tx, matrix.UserID)
		if err != nil {
			return err
		}
		if count >= limit {
			return ErrWedgeMatrixLimit
		}
		rec := toWedgeMatrixRecord(matrix)
		return tx.Create(&rec).Error
	})
}

func (r *GormWedgeMatrixRepository) Update(ctx context.Context, matrix domain.WedgeMatrix) error {
	rec := toWedgeMatrixRecord(matrix)
	res := r.db.WithContext(ctx).
		Model(&wedgeMatrixRecord{}).
		Where("id = ?", matrix.ID).
		Select("label", "number_of_rows", "number_of_columns", "column_headers", "club_labels",
			"selected_row_display_option", "yardage_values", "updated_at").
		Updates(&rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormWedgeMatrixRepository) DeleteUnlessLast(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := gormLockAndCount(tx, userID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastWedgeMatrix
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&wedgeMatrixRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SQLite ignora FOR UPDATE; la transaccion de escritura ya serializa el acceso.
func gormLockAndCount(tx *gorm.DB, userID string) (int, error) {
	var owner userRecord
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&owner).Error; err != nil {
		return 0, translateNotFound(err)
	}
	var count int64
	if err := tx.Model(&wedgeMatrixRecord{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

type GormTokenRepository struct {
	db *gorm.DB
}

func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

func (r *GormTokenRepository) Store(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	rec := authTokenRecord{ID: jti, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC()}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *GormTokenRepository) Exists(ctx context.Context, jti string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&authTokenRecord{}).
		Where("id = ? AND expires_at > ?", jti, now).
		Count(&count).Error
	return count > 0, err
}

func (r *GormTokenRepository) Revoke(ctx context.Context, jti string) error {
	return r.db.WithContext(ctx).Where("id = ?", jti).Delete(&authTokenRecord{}).Error
}

func (r *GormTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&authTokenRecord{}).Error
}
