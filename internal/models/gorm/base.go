package gorm

import (
	"github.com/google/uuid"
)

// assignID fills an empty primary key so inserts work on both Postgres and SQLite.
func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// AllModels lists every persisted entity in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Room{},
		&RoomMember{},
		&Round{},
		&Task{},
		&Vote{},
		&TaskFlag{},
	}
}

