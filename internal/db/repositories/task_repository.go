package repositories

import (
	"context"
	"errors"
	"fmt"

	"grindhouse/scoreboard/internal/constants"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository handles task table operations.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(ctx context.Context, task *gormModels.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task, or nil when absent.
func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*gormModels.Task, error) {
	var task gormModels.Task

	err := r.db.WithContext(ctx).
		Where("id = ?", taskID).
		First(&task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}

	return &task, nil
}

// GetForUpdate re-reads a task with a row lock. Only meaningful inside a transaction.
func (r *TaskRepository) GetForUpdate(ctx context.Context, taskID string) (*gormModels.Task, error) {
	var task gormModels.Task

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", taskID).
		First(&task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock task: %w", err)
	}

	return &task, nil
}

// GetWithRound retrieves a task with its round preloaded, or nil when absent.
func (r *TaskRepository) GetWithRound(ctx context.Context, taskID string) (*gormModels.Task, error) {
	var task gormModels.Task

	err := r.db.WithContext(ctx).
		Preload("Round").
		Preload("Creator").
		Where("id = ?", taskID).
		First(&task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}

	return &task, nil
}

// ListByRound returns every task of a round with creators, newest first.
func (r *TaskRepository) ListByRound(ctx context.Context, roundID string) ([]gormModels.Task, error) {
	var tasks []gormModels.Task

	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("round_id = ?", roundID).
		Order("created_at DESC").
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch round tasks: %w", err)
	}

	return tasks, nil
}

// ListPendingApproval returns tasks with proof that no peer has decided yet,
// oldest completion first.
func (r *TaskRepository) ListPendingApproval(ctx context.Context, roundID string) ([]gormModels.Task, error) {
	var tasks []gormModels.Task

	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("round_id = ? AND approval = ?", roundID, constants.ApprovalPending).
		Where("(proof_url <> '' OR proof_blob_key <> '')").
		Order("completed_at ASC").
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending approvals: %w", err)
	}

	return tasks, nil
}

// ListFlagged returns approved tasks that carry at least one flag, most flagged first.
func (r *TaskRepository) ListFlagged(ctx context.Context, roundID string) ([]gormModels.Task, error) {
	var tasks []gormModels.Task

	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("round_id = ? AND approval = ? AND flagged_count > 0", roundID, constants.ApprovalApproved).
		Order("flagged_count DESC").
		Order("created_at ASC").
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch flagged tasks: %w", err)
	}

	return tasks, nil
}

// Update writes the given columns of a task.
func (r *TaskRepository) Update(ctx context.Context, taskID string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&gormModels.Task{}).
		Where("id = ?", taskID).
		Updates(fields)

	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found with ID: %s", taskID)
	}

	return nil
}

// IncrementFlagged bumps flagged_count by one.
func (r *TaskRepository) IncrementFlagged(ctx context.Context, taskID string) error {
	result := r.db.WithContext(ctx).
		Model(&gormModels.Task{}).
		Where("id = ?", taskID).
		UpdateColumn("flagged_count", gorm.Expr("flagged_count + ?", 1))

	if result.Error != nil {
		return fmt.Errorf("failed to increment flag count: %w", result.Error)
	}

	return nil
}
