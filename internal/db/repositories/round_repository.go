package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grindhouse/scoreboard/internal/constants"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoundRepository handles round table operations.
type RoundRepository struct {
	db *gorm.DB
}

func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *RoundRepository) WithTx(tx *gorm.DB) *RoundRepository {
	return &RoundRepository{db: tx}
}

// Create inserts a round. A second active round in the same room fails the
// partial unique index with gorm.ErrDuplicatedKey.
func (r *RoundRepository) Create(ctx context.Context, round *gormModels.Round) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(round).Error; err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetByID retrieves a round, or nil when absent.
func (r *RoundRepository) GetByID(ctx context.Context, roundID string) (*gormModels.Round, error) {
	var round gormModels.Round

	err := r.db.WithContext(ctx).
		Where("id = ?", roundID).
		First(&round).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch round: %w", err)
	}

	return &round, nil
}

// GetActiveByRoom returns the active round of a room, or nil.
func (r *RoundRepository) GetActiveByRoom(ctx context.Context, roomID string) (*gormModels.Round, error) {
	var round gormModels.Round

	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status = ?", roomID, constants.RoundActive).
		First(&round).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch active round: %w", err)
	}

	return &round, nil
}

// ListByRoom returns every round of a room, newest first.
func (r *RoundRepository) ListByRoom(ctx context.Context, roomID string) ([]gormModels.Round, error) {
	var rounds []gormModels.Round

	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Find(&rounds).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch rounds: %w", err)
	}

	return rounds, nil
}

// ListOverdue returns active rounds whose end has passed.
func (r *RoundRepository) ListOverdue(ctx context.Context, now time.Time) ([]gormModels.Round, error) {
	var rounds []gormModels.Round

	err := r.db.WithContext(ctx).
		Where("status = ? AND end_at <= ?", constants.RoundActive, now).
		Order("end_at ASC").
		Find(&rounds).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch overdue rounds: %w", err)
	}

	return rounds, nil
}

// Complete moves an active round to completed. It reports false, leaving the row
// untouched, when the round was no longer active.
func (r *RoundRepository) Complete(ctx context.Context, roundID string, endAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&gormModels.Round{}).
		Where("id = ? AND status = ?", roundID, constants.RoundActive).
		Updates(map[string]interface{}{
			"status": constants.RoundCompleted,
			"end_at": endAt,
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to complete round: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}
