package gorm

import (
	"time"

	"grindhouse/scoreboard/internal/constants"

	"gorm.io/gorm"
)

type Task struct {
	ID                   string                  `gorm:"column:id;primaryKey;type:varchar(36)"`
	RoundID              string                  `gorm:"column:round_id;type:varchar(36);not null;index:idx_tasks_round_approval,priority:1"`
	CreatorID            string                  `gorm:"column:creator_id;type:varchar(36);not null;index"`
	Template             constants.TaskTemplate  `gorm:"column:template;size:50;not null"`
	Title                string                  `gorm:"column:title;size:200;not null"`
	Description          string                  `gorm:"column:description;type:text;default:''"`
	Target               int                     `gorm:"column:target;default:0"`
	TargetUnit           string                  `gorm:"column:target_unit;size:20;default:''"`
	ProofURL             string                  `gorm:"column:proof_url;size:500;default:''"`
	ProofType            constants.ProofType     `gorm:"column:proof_type;size:20;default:''"`
	ProofBlobKey         string                  `gorm:"column:proof_blob_key;size:200;default:''"`
	Approval             constants.ApprovalState `gorm:"column:approval;size:20;not null;default:pending;index:idx_tasks_round_approval,priority:2"`
	Points               int                     `gorm:"column:points;default:0"`
	DifficultyMultiplier float64                 `gorm:"column:difficulty_multiplier;default:1"`
	FlaggedCount         int                     `gorm:"column:flagged_count;default:0"`
	FlagVerdict          constants.FlagVerdict   `gorm:"column:flag_verdict;size:20;default:''"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
	CompletedAt          *time.Time              `gorm:"column:completed_at"`
	DecidedAt            *time.Time              `gorm:"column:decided_at"`

	// Relationships
	Round   Round `gorm:"foreignKey:RoundID"`
	Creator User  `gorm:"foreignKey:CreatorID"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	if t.Approval == "" {
		t.Approval = constants.ApprovalPending
	}
	return nil
}

// HasProof reports whether a completion proof has been attached.
func (t *Task) HasProof() bool {
	return t.ProofURL != "" || t.ProofBlobKey != ""
}

// IsFlagFinalized reports whether a quorum has already settled the flag dispute.
func (t *Task) IsFlagFinalized() bool {
	return t.FlagVerdict != constants.FlagVerdictNone
}
