package gorm

import (
	"time"

	"grindhouse/scoreboard/internal/constants"

	"gorm.io/gorm"
)

// Round is a timed competitive window. The partial unique index keeps at most
// one active round per room even if two starts race past the service lock.
type Round struct {
	ID        string                `gorm:"column:id;primaryKey;type:varchar(36)"`
	RoomID    string                `gorm:"column:room_id;type:varchar(36);not null;index:idx_rounds_room;uniqueIndex:idx_rounds_one_active,where:status = 'active'"`
	StartAt   time.Time             `gorm:"column:start_at;not null"`
	EndAt     time.Time             `gorm:"column:end_at;not null"`
	Stakes    string                `gorm:"column:stakes;type:text;default:''"`
	Status    constants.RoundStatus `gorm:"column:status;size:20;not null;default:active"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Room Room `gorm:"foreignKey:RoomID"`
}

// TableName specifies the table name for GORM
func (Round) TableName() string {
	return "rounds"
}

func (r *Round) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

func (r *Round) IsActive() bool {
	return r.Status == constants.RoundActive
}
