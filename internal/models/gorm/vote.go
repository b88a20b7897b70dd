package gorm

import (
	"time"

	"grindhouse/scoreboard/internal/constants"

	"gorm.io/gorm"
)

// Vote is an approval or flag-validation ballot. The unique index rejects a second
// ballot of the same kind from the same voter on the same task.
type Vote struct {
	ID        string             `gorm:"column:id;primaryKey;type:varchar(36)"`
	RoundID   string             `gorm:"column:round_id;type:varchar(36);not null;index"`
	TaskID    string             `gorm:"column:task_id;type:varchar(36);not null;uniqueIndex:idx_votes_task_voter_kind,priority:1"`
	VoterID   string             `gorm:"column:voter_id;type:varchar(36);not null;uniqueIndex:idx_votes_task_voter_kind,priority:2"`
	Kind      constants.VoteKind `gorm:"column:vote_type;size:20;not null;uniqueIndex:idx_votes_task_voter_kind,priority:3"`
	Value     bool               `gorm:"column:vote;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`

	// Relationships
	Voter User `gorm:"foreignKey:VoterID"`
}

// TableName specifies the table name for GORM
func (Vote) TableName() string {
	return "votes"
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// TaskFlag records that a member challenged an approved task.
type TaskFlag struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	TaskID    string    `gorm:"column:task_id;type:varchar(36);not null;uniqueIndex:idx_task_flags_task_flagger,priority:1"`
	FlaggerID string    `gorm:"column:flagger_id;type:varchar(36);not null;uniqueIndex:idx_task_flags_task_flagger,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TaskFlag) TableName() string {
	return "task_flags"
}

func (f *TaskFlag) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}
