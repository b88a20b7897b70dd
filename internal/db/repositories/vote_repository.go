package repositories

import (
	"context"
	"fmt"

	"grindhouse/scoreboard/internal/constants"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FlagTally counts flag-validation ballots on one task.
type FlagTally struct {
	TaskID  string `gorm:"column:task_id"`
	Total   int    `gorm:"column:total"`
	Invalid int    `gorm:"column:invalid"`
}

// Valid is the number of ballots that upheld the task.
func (t FlagTally) Valid() int {
	return t.Total - t.Invalid
}

// VoteRepository handles votes and flags.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *VoteRepository) WithTx(tx *gorm.DB) *VoteRepository {
	return &VoteRepository{db: tx}
}

// Create inserts a ballot. A repeat from the same voter fails with gorm.ErrDuplicatedKey.
func (r *VoteRepository) Create(ctx context.Context, vote *gormModels.Vote) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(vote).Error; err != nil {
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

// HasVoted reports whether voterID already cast a ballot of kind on the task.
func (r *VoteRepository) HasVoted(ctx context.Context, taskID, voterID string, kind constants.VoteKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.Vote{}).
		Where("task_id = ? AND voter_id = ? AND vote_type = ?", taskID, voterID, kind).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}
	return count > 0, nil
}

// TallyFlagVotes counts flag-validation ballots for one task.
func (r *VoteRepository) TallyFlagVotes(ctx context.Context, taskID string) (FlagTally, error) {
	tallies, err := r.TallyFlagVotesFor(ctx, []string{taskID})
	if err != nil {
		return FlagTally{}, err
	}
	if t, ok := tallies[taskID]; ok {
		return t, nil
	}
	return FlagTally{TaskID: taskID}, nil
}

// TallyFlagVotesFor counts flag-validation ballots for many tasks in one query.
func (r *VoteRepository) TallyFlagVotesFor(ctx context.Context, taskIDs []string) (map[string]FlagTally, error) {
	out := make(map[string]FlagTally, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}

	var rows []FlagTally
	err := r.db.WithContext(ctx).
		Model(&gormModels.Vote{}).
		Select("task_id, COUNT(*) AS total, SUM(CASE WHEN vote THEN 0 ELSE 1 END) AS invalid").
		Where("task_id IN ? AND vote_type = ?", taskIDs, constants.VoteFlagValidation).
		Group("task_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to tally flag votes: %w", err)
	}

	for _, row := range rows {
		out[row.TaskID] = row
	}
	return out, nil
}

// CreateFlag records a flag. A repeat from the same flagger fails with gorm.ErrDuplicatedKey.
func (r *VoteRepository) CreateFlag(ctx context.Context, flag *gormModels.TaskFlag) error {
	if err := r.db.WithContext(ctx).Create(flag).Error; err != nil {
		return fmt.Errorf("failed to create flag: %w", err)
	}
	return nil
}

// HasFlagged reports whether flaggerID already flagged the task.
func (r *VoteRepository) HasFlagged(ctx context.Context, taskID, flaggerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.TaskFlag{}).
		Where("task_id = ? AND flagger_id = ?", taskID, flaggerID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check flag: %w", err)
	}
	return count > 0, nil
}
