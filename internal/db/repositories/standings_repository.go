package repositories

import (
	"context"
	"fmt"

	"grindhouse/scoreboard/internal/constants"

	"github.com/jmoiron/sqlx"
)

// ScoredTask is one approved task as read by the standings projection.
type ScoredTask struct {
	TaskID               string  `db:"id"`
	CreatorID            string  `db:"creator_id"`
	Points               int     `db:"points"`
	DifficultyMultiplier float64 `db:"difficulty_multiplier"`
	UserName             string  `db:"user_name"`
	UserAvatar           string  `db:"user_avatar"`
}

// StandingsRepository is the read side for leaderboards, written against sqlx.
type StandingsRepository struct {
	db *sqlx.DB
}

func NewStandingsRepository(db *sqlx.DB) *StandingsRepository {
	return &StandingsRepository{db: db}
}

// RoundExists reports whether the round row is present.
func (r *StandingsRepository) RoundExists(ctx context.Context, roundID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(constants.CountRoundByID), roundID); err != nil {
		return false, fmt.Errorf("failed to count round: %w", err)
	}
	return count > 0, nil
}

// ApprovedTasks lists the approved tasks of a round in decision order.
func (r *StandingsRepository) ApprovedTasks(ctx context.Context, roundID string) ([]ScoredTask, error) {
	var rows []ScoredTask

	query := r.db.Rebind(constants.GetApprovedTasksForStandings)
	if err := r.db.SelectContext(ctx, &rows, query, roundID, string(constants.ApprovalApproved)); err != nil {
		return nil, fmt.Errorf("failed to fetch approved tasks: %w", err)
	}

	return rows, nil
}
