package repository

import (
	"context"

	"github.com/sifan077/shorty/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VisitRepository defines the data access contract for visit events.
type VisitRepository interface {
	Create(ctx context.Context, event *model.VisitEvent) error
	CountByCode(ctx context.Context, shortCode string) (int64, error)
}

type visitRepository struct {
	db *gorm.DB
}

// NewVisitRepository returns a GORM-backed VisitRepository.
func NewVisitRepository(db *gorm.DB) VisitRepository {
	return &visitRepository{db: db}
}

// Create is idempotent on the event ID so redelivered events are harmless.
func (r *visitRepository) Create(ctx context.Context, event *model.VisitEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
}

func (r *visitRepository) CountByCode(ctx context.Context, shortCode string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.VisitEvent{}).
		Where("short_code = ?", shortCode).
		Count(&count).Error
	return count, err
}
