package db

import (
	"fmt"
	"os"
	"path/filepath"

	"grindhouse/scoreboard/internal/config"
	"grindhouse/scoreboard/internal/logging"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormConfig turns on driver error translation so unique violations surface as
// gorm.ErrDuplicatedKey on both drivers.
func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
}

// InitORM opens the configured store and migrates the schema.
func InitORM(cfg *config.Config) (*gorm.DB, error) {
	var (
		gdb *gorm.DB
		err error
	)

	switch cfg.DBDriver {
	case config.DriverPostgres:
		gdb, err = InitPostgresORM(cfg.PostgresDSN())
	default:
		gdb, err = InitSQLiteORM(cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

func InitPostgresORM(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logging.Info("Connected to Postgres via GORM")
	return gdb, nil
}

// InitSQLiteORM opens a file-backed SQLite database with foreign keys enforced.
// SQLite allows one writer at a time, so the pool is pinned to one connection.
func InitSQLiteORM(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite dir: %w", err)
		}
	}

	gdb, err := OpenSQLite(path + "?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	logging.Info("Connected to SQLite via GORM", "path", path)
	return gdb, nil
}

// OpenSQLite opens a SQLite DSN as-is. Tests pass shared in-memory DSNs here.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return gdb, nil
}

// Migrate creates or updates every table and index.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(gormModels.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
