package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/metrics"
	gormModels "grindhouse/scoreboard/internal/models/gorm"
	"grindhouse/scoreboard/internal/presence"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMembershipStore treats every user as a member of every known room.
type mockMembershipStore struct {
	users map[string]string
	rooms map[string]bool
}

func (m *mockMembershipStore) GetUserByID(ctx context.Context, userID string) (*gormModels.User, error) {
	name, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return &gormModels.User{ID: userID, Name: name}, nil
}

func (m *mockMembershipStore) GetByID(ctx context.Context, roomID string) (*gormModels.Room, error) {
	if !m.rooms[roomID] {
		return nil, nil
	}
	return &gormModels.Room{ID: roomID}, nil
}

func (m *mockMembershipStore) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	_, ok := m.users[userID]
	return ok && m.rooms[roomID], nil
}

func newMembershipStore() *mockMembershipStore {
	return &mockMembershipStore{
		users: map[string]string{"u1": "Ada", "u2": "Grace", "u3": "Linus"},
		rooms: map[string]bool{"r1": true, "r2": true},
	}
}

// mockEmitter records frames per connection; emitFunc can override delivery.
type mockEmitter struct {
	mu       sync.Mutex
	frames   map[string][][]byte
	emitFunc func(connID string) bool
}

func (m *mockEmitter) Emit(connID string, frame []byte) bool {
	if m.emitFunc != nil && !m.emitFunc(connID) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frames == nil {
		m.frames = make(map[string][][]byte)
	}
	m.frames[connID] = append(m.frames[connID], frame)
	return true
}

func (m *mockEmitter) types(connID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, f := range m.frames[connID] {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(f, &env)
		out = append(out, env.Type)
	}
	return out
}

func newTestRouter(t *testing.T) (*Router, *presence.Registry, *mockEmitter) {
	t.Helper()
	registry := presence.NewRegistry(newMembershipStore(), nil)
	emitter := &mockEmitter{}
	router := NewRouter(registry, emitter, metrics.NewMetricsRegistry(prometheus.NewRegistry()))
	return router, registry, emitter
}

func join(t *testing.T, registry *presence.Registry, connID, userID, roomID string) {
	t.Helper()
	registry.Connect(connID)
	_, _, err := registry.Join(context.Background(), connID, userID, roomID)
	require.NoError(t, err)
}

func TestRouter_PublishAfterDisconnectReachesOnlyRemaining(t *testing.T) {
	router, registry, emitter := newTestRouter(t)

	join(t, registry, "A", "u1", "r1")
	join(t, registry, "B", "u2", "r1")

	registry.Disconnect("A")
	router.Publish("r1", constants.EventTaskCreated, map[string]string{"id": "t1"})

	assert.Empty(t, emitter.types("A"))
	assert.Equal(t, []string{"task-created"}, emitter.types("B"))
}

func TestRouter_PublishIsScopedToRoom(t *testing.T) {
	router, registry, emitter := newTestRouter(t)

	join(t, registry, "A", "u1", "r1")
	join(t, registry, "B", "u2", "r2")
	registry.Connect("anon")

	router.Publish("r1", constants.EventRoundStarted, nil)

	assert.Equal(t, []string{"round-started"}, emitter.types("A"))
	assert.Empty(t, emitter.types("B"))
	assert.Empty(t, emitter.types("anon"))
}

func TestRouter_PublishExceptSkipsOrigin(t *testing.T) {
	router, registry, emitter := newTestRouter(t)

	join(t, registry, "A", "u1", "r1")
	join(t, registry, "B", "u2", "r1")
	join(t, registry, "C", "u3", "r1")

	router.PublishExcept("r1", constants.EventMemberJoined, nil, "C")

	assert.Equal(t, []string{"member-joined"}, emitter.types("A"))
	assert.Equal(t, []string{"member-joined"}, emitter.types("B"))
	assert.Empty(t, emitter.types("C"))
}

func TestRouter_DroppedFrameDoesNotStopFanOut(t *testing.T) {
	router, registry, emitter := newTestRouter(t)
	emitter.emitFunc = func(connID string) bool { return connID != "A" }

	join(t, registry, "A", "u1", "r1")
	join(t, registry, "B", "u2", "r1")

	router.Publish("r1", constants.EventLeaderboardUpdated, nil)

	assert.Empty(t, emitter.types("A"))
	assert.Equal(t, []string{"leaderboard-updated"}, emitter.types("B"))
}

func TestRouter_EnvelopeShape(t *testing.T) {
	router, registry, emitter := newTestRouter(t)
	join(t, registry, "A", "u1", "r1")

	router.SendTo("A", constants.EventRoomStatus, router.RoomStatus("r1"))

	require.Len(t, emitter.frames["A"], 1)
	var env struct {
		Type      string          `json:"type"`
		Data      json.RawMessage `json:"data"`
		Timestamp string          `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(emitter.frames["A"][0], &env))
	assert.Equal(t, "room-status", env.Type)
	assert.NotEmpty(t, env.Timestamp)

	var status struct {
		RoomID      string `json:"room_id"`
		TotalOnline int    `json:"total_online"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "r1", status.RoomID)
	assert.Equal(t, 1, status.TotalOnline)
}
