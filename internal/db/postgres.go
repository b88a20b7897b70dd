package db

import (
	"context"
	"fmt"
	"time"

	"grindhouse/scoreboard/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

// InitReadDB opens the sqlx pool used by the standings read model. Postgres gets
// its own lib/pq pool; SQLite reuses the GORM connection since it has one writer.
func InitReadDB(cfg *config.Config, gdb *gorm.DB) (*sqlx.DB, error) {
	if cfg.DBDriver == config.DriverPostgres {
		return InitPostgres(cfg.PostgresDSN())
	}
	return WrapGorm(gdb, "sqlite3")
}

// InitPostgres connects with a short retry loop while the database container starts.
func InitPostgres(dsn string) (*sqlx.DB, error) {
	var (
		rdb *sqlx.DB
		err error
	)

	for i := 0; i < 10; i++ {
		rdb, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return rdb, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("failed to connect to postgres: %w", err)
}

// WrapGorm exposes the GORM pool through sqlx. driverName selects the bind var style.
func WrapGorm(gdb *gorm.DB, driverName string) (*sqlx.DB, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql pool: %w", err)
	}
	return sqlx.NewDb(sqlDB, driverName), nil
}

// Ping checks both pools, used by the health check.
func Ping(ctx context.Context, gdb *gorm.DB, rdb *sqlx.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("orm ping: %w", err)
	}
	if rdb != nil {
		if err := rdb.PingContext(ctx); err != nil {
			return fmt.Errorf("read db ping: %w", err)
		}
	}
	return nil
}
