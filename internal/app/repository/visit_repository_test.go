package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sifan077/shorty/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGorm(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Each new :memory: connection would be a fresh, empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.VisitEvent{}))
	return db
}

func TestVisitRepository_CreateAndCount(t *testing.T) {
	repo := NewVisitRepository(newTestGorm(t))
	ctx := context.Background()

	for i, code := range []string{"ab12cd34", "ab12cd34", "ffff0000"} {
		err := repo.Create(ctx, &model.VisitEvent{
			ID:        string(rune('a'+i)) + "-visit",
			ShortCode: code,
			IP:        "127.0.0.1",
			Timestamp: time.Now(),
		})
		require.NoError(t, err)
	}

	count, err := repo.CountByCode(ctx, "ab12cd34")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountByCode(ctx, "00000000")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVisitRepository_CreateIsIdempotent(t *testing.T) {
	repo := NewVisitRepository(newTestGorm(t))
	ctx := context.Background()

	event := model.VisitEvent{ID: "same-id", ShortCode: "ab12cd34", Timestamp: time.Now()}
	require.NoError(t, repo.Create(ctx, &event))
	dup := event
	require.NoError(t, repo.Create(ctx, &dup))

	count, err := repo.CountByCode(ctx, "ab12cd34")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
