package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository handles rooms, users and memberships.
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

// CreateUser inserts a new user.
func (r *RoomRepository) CreateUser(ctx context.Context, user *gormModels.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user, or nil when absent.
func (r *RoomRepository) GetUserByID(ctx context.Context, userID string) (*gormModels.User, error) {
	var user gormModels.User

	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

// CreateRoom inserts a room. A duplicate code surfaces as gorm.ErrDuplicatedKey.
func (r *RoomRepository) CreateRoom(ctx context.Context, room *gormModels.Room) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// GetByID retrieves a room, or nil when absent.
func (r *RoomRepository) GetByID(ctx context.Context, roomID string) (*gormModels.Room, error) {
	var room gormModels.Room

	err := r.db.WithContext(ctx).
		Where("id = ?", roomID).
		First(&room).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch room: %w", err)
	}

	return &room, nil
}

// GetByCode retrieves a room by its join code, ignoring case.
func (r *RoomRepository) GetByCode(ctx context.Context, code string) (*gormModels.Room, error) {
	var room gormModels.Room

	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&room).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch room by code: %w", err)
	}

	return &room, nil
}

// GetWithMembers retrieves a room with memberships and their users preloaded.
func (r *RoomRepository) GetWithMembers(ctx context.Context, roomID string) (*gormModels.Room, error) {
	var room gormModels.Room

	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Members.User").
		Where("id = ?", roomID).
		First(&room).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch room with members: %w", err)
	}

	return &room, nil
}

// ListMembers returns the memberships of a room in join order.
func (r *RoomRepository) ListMembers(ctx context.Context, roomID string) ([]gormModels.RoomMember, error) {
	var members []gormModels.RoomMember

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&members).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch room members: %w", err)
	}

	return members, nil
}

// GetMembership returns the membership of userID in roomID, or nil.
func (r *RoomRepository) GetMembership(ctx context.Context, roomID, userID string) (*gormModels.RoomMember, error) {
	var member gormModels.RoomMember

	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}

	return &member, nil
}

// IsMember reports whether userID belongs to roomID.
func (r *RoomRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	member, err := r.GetMembership(ctx, roomID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// CountMembers returns the number of memberships in a room.
func (r *RoomRepository) CountMembers(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.RoomMember{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count room members: %w", err)
	}
	return count, nil
}

// NameTaken reports whether a member of the room already uses name.
func (r *RoomRepository) NameTaken(ctx context.Context, roomID, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.RoomMember{}).
		Joins("JOIN users ON users.id = room_members.user_id").
		Where("room_members.room_id = ? AND users.name = ?", roomID, name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check member name: %w", err)
	}
	return count > 0, nil
}

// AddMember inserts a membership row.
func (r *RoomRepository) AddMember(ctx context.Context, member *gormModels.RoomMember) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(member).Error; err != nil {
		return fmt.Errorf("failed to add room member: %w", err)
	}
	return nil
}
