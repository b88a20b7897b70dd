package gorm

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name      string    `gorm:"column:name;size:80;not null"`
	Avatar    string    `gorm:"column:avatar;size:200;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	// Relationships
	RoomMemberships []RoomMember `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}
