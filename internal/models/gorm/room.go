package gorm

import (
	"time"

	"gorm.io/gorm"
)

type Room struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Code      string    `gorm:"column:code;size:10;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;size:100;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	// Relationships
	Members []RoomMember `gorm:"foreignKey:RoomID"`
	Rounds  []Round      `gorm:"foreignKey:RoomID"`
}

// TableName specifies the table name for GORM
func (Room) TableName() string {
	return "rooms"
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// RoomMember is the membership of a user in a room. One row per (room, user).
type RoomMember struct {
	ID       string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	RoomID   string    `gorm:"column:room_id;type:varchar(36);not null;uniqueIndex:idx_room_members_room_user,priority:1"`
	UserID   string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_room_members_room_user,priority:2"`
	IsHost   bool      `gorm:"column:is_host;default:false"`
	JoinedAt time.Time `gorm:"column:joined_at;autoCreateTime"`

	// Relationships
	User User `gorm:"foreignKey:UserID"`
	Room Room `gorm:"foreignKey:RoomID"`
}

// TableName specifies the table name for GORM
func (RoomMember) TableName() string {
	return "room_members"
}

func (m *RoomMember) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
