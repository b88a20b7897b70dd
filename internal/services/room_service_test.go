package services

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"grindhouse/scoreboard/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService_CreateRoom(t *testing.T) {
	env := setupTestEnv(t)

	session, err := env.rooms.CreateRoom(context.Background(), CreateRoomInput{CreatorName: "Ada"})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), session.Code)
	assert.Equal(t, "New Room", session.Room.Name)
	assert.True(t, session.Member.IsHost)
	assert.Equal(t, session.User.ID, session.Member.UserID)
	require.Len(t, session.Room.Members, 1)
}

func TestRoomService_JoinRoom(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	session, err := env.rooms.CreateRoom(ctx, CreateRoomInput{Name: "Finals week", CreatorName: "Ada"})
	require.NoError(t, err)

	t.Run("code is case-insensitive", func(t *testing.T) {
		joined, err := env.rooms.JoinRoom(ctx, JoinRoomInput{Code: "  " + strings.ToLower(session.Code), Name: "Grace"})
		require.NoError(t, err)
		assert.Equal(t, session.Room.ID, joined.Room.ID)
		assert.False(t, joined.Member.IsHost)
	})

	t.Run("name collision", func(t *testing.T) {
		_, err := env.rooms.JoinRoom(ctx, JoinRoomInput{Code: session.Code, Name: "Grace"})
		requireKind(t, err, common.KindConflict)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := env.rooms.JoinRoom(ctx, JoinRoomInput{Name: "Linus"})
		requireKind(t, err, common.KindInvalidInput)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := env.rooms.JoinRoom(ctx, JoinRoomInput{Code: "ZZZZZZ", Name: "Linus"})
		requireKind(t, err, common.KindNotFound)
	})

	members, err := env.rooms.ListMembers(ctx, session.Room.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Ada", members[0].User.Name)
	assert.Equal(t, "Grace", members[1].User.Name)

	room, err := env.rooms.GetRoomByCode(ctx, strings.ToLower(session.Code))
	require.NoError(t, err)
	assert.Len(t, room.Members, 2)
}

func TestRoomService_GetRoom_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.rooms.GetRoom(context.Background(), "missing")
	requireKind(t, err, common.KindNotFound)

	_, err = env.rooms.ListMembers(context.Background(), "missing")
	requireKind(t, err, common.KindNotFound)
}
