package services

import (
	"context"
	"strings"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/db/repositories"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/models/dtos"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"gorm.io/gorm"
)

type CreateRoomInput struct {
	Name        string
	CreatorName string
	Avatar      string
}

type JoinRoomInput struct {
	Code   string
	Name   string
	Avatar string
}

// RoomService creates rooms and admits members by join code.
type RoomService struct {
	db        *gorm.DB
	rooms     *repositories.RoomRepository
	roomLocks *common.KeyedMutex
}

func NewRoomService(db *gorm.DB, rooms *repositories.RoomRepository, roomLocks *common.KeyedMutex) *RoomService {
	return &RoomService{
		db:        db,
		rooms:     rooms,
		roomLocks: roomLocks,
	}
}

func defaultString(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// CreateRoom creates a room with a fresh join code and makes the creator its host.
func (svc *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*dtos.RoomSessionResponse, error) {
	user := gormModels.User{
		Name:   defaultString(in.CreatorName, constants.DefaultHostName),
		Avatar: in.Avatar,
	}
	var room gormModels.Room
	var member gormModels.RoomMember

	for attempt := 1; ; attempt++ {
		code, err := common.GenerateRoomCode()
		if err != nil {
			return nil, storeFailure(err)
		}

		user.ID = ""
		room = gormModels.Room{Code: code, Name: defaultString(in.Name, constants.DefaultRoomName)}

		err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rooms := svc.rooms.WithTx(tx)
			if err := rooms.CreateUser(ctx, &user); err != nil {
				return err
			}
			if err := rooms.CreateRoom(ctx, &room); err != nil {
				return err
			}
			member = gormModels.RoomMember{RoomID: room.ID, UserID: user.ID, IsHost: true}
			return rooms.AddMember(ctx, &member)
		})
		if err == nil {
			break
		}
		if isDuplicate(err) && attempt < constants.RoomCodeMaxAttempts {
			logging.Debug("Room code collision, retrying", "attempt", attempt)
			continue
		}
		return nil, storeFailure(err)
	}

	logging.Info("Room created", "room_id", room.ID, "code", room.Code, "host_id", user.ID)

	member.User = user
	room.Members = []gormModels.RoomMember{member}
	return &dtos.RoomSessionResponse{
		Room:   dtos.NewRoomResponse(room, true),
		User:   dtos.NewUserResponse(user),
		Member: dtos.NewMemberResponse(member),
		Code:   room.Code,
	}, nil
}

// JoinRoom admits a new user into the room behind code. Display names must be
// unique within a room.
func (svc *RoomService) JoinRoom(ctx context.Context, in JoinRoomInput) (*dtos.RoomSessionResponse, error) {
	code := common.NormalizeRoomCode(in.Code)
	if code == "" {
		return nil, common.NewInvalidInput(constants.MsgRoomCodeRequired)
	}

	room, err := svc.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, storeFailure(err)
	}
	if room == nil {
		return nil, common.NewNotFound(constants.MsgRoomNotFound)
	}

	unlock := svc.roomLocks.Lock(room.ID)
	defer unlock()

	name := defaultString(in.Name, constants.DefaultMemberName)
	taken, err := svc.rooms.NameTaken(ctx, room.ID, name)
	if err != nil {
		return nil, storeFailure(err)
	}
	if taken {
		return nil, common.NewConflict(constants.MsgNameTaken)
	}

	user := gormModels.User{Name: name, Avatar: in.Avatar}
	var member gormModels.RoomMember
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rooms := svc.rooms.WithTx(tx)
		if err := rooms.CreateUser(ctx, &user); err != nil {
			return err
		}
		member = gormModels.RoomMember{RoomID: room.ID, UserID: user.ID}
		return rooms.AddMember(ctx, &member)
	})
	if err != nil {
		return nil, storeFailure(err)
	}

	logging.Info("User joined room", "room_id", room.ID, "user_id", user.ID)

	member.User = user
	return &dtos.RoomSessionResponse{
		Room:   dtos.NewRoomResponse(*room, false),
		User:   dtos.NewUserResponse(user),
		Member: dtos.NewMemberResponse(member),
		Code:   room.Code,
	}, nil
}

// GetRoom returns a room with its members.
func (svc *RoomService) GetRoom(ctx context.Context, roomID string) (*gormModels.Room, error) {
	room, err := svc.rooms.GetWithMembers(ctx, roomID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if room == nil {
		return nil, common.NewNotFound(constants.MsgRoomNotFound)
	}
	return room, nil
}

// GetRoomByCode looks a room up by join code, ignoring case.
func (svc *RoomService) GetRoomByCode(ctx context.Context, code string) (*gormModels.Room, error) {
	code = common.NormalizeRoomCode(code)
	if code == "" {
		return nil, common.NewInvalidInput(constants.MsgRoomCodeRequired)
	}
	room, err := svc.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, storeFailure(err)
	}
	if room == nil {
		return nil, common.NewNotFound(constants.MsgRoomNotFound)
	}
	return svc.GetRoom(ctx, room.ID)
}

func (svc *RoomService) ListMembers(ctx context.Context, roomID string) ([]gormModels.RoomMember, error) {
	room, err := svc.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if room == nil {
		return nil, common.NewNotFound(constants.MsgRoomNotFound)
	}

	members, err := svc.rooms.ListMembers(ctx, roomID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return members, nil
}

// requireMember returns Forbidden unless userID belongs to roomID.
func requireMember(ctx context.Context, rooms *repositories.RoomRepository, roomID, userID string) error {
	ok, err := rooms.IsMember(ctx, roomID, userID)
	if err != nil {
		return storeFailure(err)
	}
	if !ok {
		return common.NewForbidden(constants.MsgNotRoomMember)
	}
	return nil
}
