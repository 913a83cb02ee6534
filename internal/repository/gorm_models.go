package repository

import (
	"time"

	"wedge-matrix/internal/domain"
)

// Registros gorm para el store embebido (SQLite). Mapean 1:1 con el esquema de Postgres.

type userRecord struct {
	ID                   string     `gorm:"primaryKey;size:36"`
	Email                string     `gorm:"uniqueIndex;not null"`
	PasswordHash         string     `gorm:"not null"`
	TosAcceptedAt        *time.Time
	HasDismissedTutorial bool       `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (userRecord) TableName() string { return "users" }

type wedgeMatrixRecord struct {
	ID                       string                 `gorm:"primaryKey;size:36"`
	UserID                   string                 `gorm:"index;not null;size:36"`
	User                     *userRecord            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Label                    *string
	NumberOfRows             int                    `gorm:"not null"`
	NumberOfColumns          int                    `gorm:"not null"`
	ColumnHeaders            []string               `gorm:"serializer:json"`
	ClubLabels               []string               `gorm:"serializer:json"`
	SelectedRowDisplayOption string                 `gorm:"not null;default:Both"`
	YardageValues            [][]domain.YardageCell `gorm:"serializer:json"`
	CreatedAt                time.Time              `gorm:"index"`
	UpdatedAt                time.Time
}

func (wedgeMatrixRecord) TableName() string { return "wedge_matrices" }

type authTokenRecord struct {
	ID        string      `gorm:"primaryKey"`
	UserID    string      `gorm:"index;not null;size:36"`
	User      *userRecord `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time   `gorm:"index"`
	CreatedAt time.Time
}

func (authTokenRecord) TableName() string { return "auth_tokens" }

// GormModels lista los modelos para AutoMigrate.
func GormModels() []any {
	return []any{&userRecord{}, &wedgeMatrixRecord{}, &authTokenRecord{}}
}

func toUserRecord(u domain.User) userRecord {
	return userRecord{
		ID:                   u.ID,
		Email:                u.Email,
		PasswordHash:         u.PasswordHash,
		TosAcceptedAt:        u.TosAcceptedAt,
		HasDismissedTutorial: u.HasDismissedTutorial,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (r userRecord) toDomain() domain.User {
	return domain.User{
		ID:                   r.ID,
		Email:                r.Email,
		PasswordHash:         r.PasswordHash,
		TosAcceptedAt:        r.TosAcceptedAt,
		HasDismissedTutorial: r.HasDismissedTutorial,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func toWedgeMatrixRecord(m domain.WedgeMatrix) wedgeMatrixRecord {
	return wedgeMatrixRecord{
		ID:                       m.ID,
		UserID:                   m.UserID,
		Label:                    m.Label,
		NumberOfRows:             m.NumberOfRows,
		NumberOfColumns:          m.NumberOfColumns,
		ColumnHeaders:            m.ColumnHeaders,
		ClubLabels:               m.ClubLabels,
		SelectedRowDisplayOption: m.SelectedRowDisplayOption,
		YardageValues:            m.YardageValues,
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}
}

func (r wedgeMatrixRecord) toDomain() domain.WedgeMatrix {
	return domain.WedgeMatrix{
		ID:                       r.ID,
		UserID:                   r.UserID,
		Label:                    r.Label,
		NumberOfRows:             r.NumberOfRows,
		NumberOfColumns:          r.NumberOfColumns,
		ColumnHeaders:            r.ColumnHeaders,
		ClubLabels:               r.ClubLabels,
		SelectedRowDisplayOption: r.SelectedRowDisplayOption,
		YardageValues:            r.YardageValues,
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}
}
