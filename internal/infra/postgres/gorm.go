package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sifan077/shorty/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultGormMaxOpen     = 5
	defaultGormMaxLifetime = 5 * time.Minute
)

// NewGorm opens the GORM handle used for the visit table. The urls table
// stays on the pgx pool. Like NewPool it does not wait for the database.
func NewGorm(cfg config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(ConnString(cfg)), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableAutomaticPing:                     true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open gorm connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: retrieve sql db: %w", err)
	}

	// Visit writes are light; keep this pool small next to pgxpool.
	sqlDB.SetMaxOpenConns(defaultGormMaxOpen)
	sqlDB.SetConnMaxLifetime(parseDuration(cfg.MaxConnLifetime, defaultGormMaxLifetime))

	return db, nil
}

// AutoMigrate runs GORM schema migrations for the provided models.
func AutoMigrate(ctx context.Context, db *gorm.DB, models ...any) error {
	if db == nil || len(models) == 0 {
		return nil
	}

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("postgres: auto migrate: %w", err)
	}

	return nil
}
