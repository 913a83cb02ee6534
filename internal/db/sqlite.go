package db

import (
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"wedge-matrix/internal/repository"
)

// OpenSQLite abre el store embebido y migra los modelos.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         newZapGormLogger(logger),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	// Una sola conexion: ":memory:" es por conexion y SQLite no admite escritores concurrentes.
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(repository.GormModels()...); err != nil {
		return nil, err
	}
	return gdb, nil
}
