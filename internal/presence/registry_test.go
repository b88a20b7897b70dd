package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"grindhouse/scoreboard/internal/common"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore serves users and rooms from maps; members maps roomID -> userIDs.
type mockStore struct {
	users   map[string]string
	rooms   map[string]bool
	members map[string]map[string]bool
	failErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:   map[string]string{"u1": "Ada", "u2": "Grace", "u3": "Mallory"},
		rooms:   map[string]bool{"r1": true, "r2": true},
		members: map[string]map[string]bool{"r1": {"u1": true, "u2": true}, "r2": {"u1": true}},
	}
}

func (m *mockStore) GetUserByID(ctx context.Context, userID string) (*gormModels.User, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	name, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return &gormModels.User{ID: userID, Name: name}, nil
}

func (m *mockStore) GetByID(ctx context.Context, roomID string) (*gormModels.Room, error) {
	if !m.rooms[roomID] {
		return nil, nil
	}
	return &gormModels.Room{ID: roomID}, nil
}

func (m *mockStore) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	return m.members[roomID][userID], nil
}

func newTestRegistry() (*Registry, prometheus.Gauge) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_bindings"})
	return NewRegistry(newMockStore(), gauge), gauge
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestRegistry_JoinValidation(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()
	reg.Connect("c1")

	tests := []struct {
		name   string
		connID string
		userID string
		roomID string
		want   common.ErrorKind
	}{
		{"blank user", "c1", " ", "r1", common.KindInvalidInput},
		{"blank room", "c1", "u1", "", common.KindInvalidInput},
		{"unknown user", "c1", "ghost", "r1", common.KindNotFound},
		{"unknown room", "c1", "u1", "nowhere", common.KindNotFound},
		{"not a member", "c1", "u3", "r1", common.KindForbidden},
		{"unknown connection", "c9", "u1", "r1", common.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := reg.Join(ctx, tt.connID, tt.userID, tt.roomID)
			require.Error(t, err)
			assert.Equal(t, tt.want, common.KindOf(err))
		})
	}

	assert.Empty(t, reg.MembersOf("r1"))
}

func TestRegistry_StoreFailureIsInternal(t *testing.T) {
	store := newMockStore()
	store.failErr = errors.New("db down")
	reg := NewRegistry(store, nil)
	reg.Connect("c1")

	_, _, err := reg.Join(context.Background(), "c1", "u1", "r1")
	assert.Equal(t, common.KindInternal, common.KindOf(err))
}

func TestRegistry_DisconnectLeavesOnlyRemaining(t *testing.T) {
	reg, gauge := newTestRegistry()
	ctx := context.Background()

	reg.Connect("A")
	reg.Connect("B")
	_, _, err := reg.Join(ctx, "A", "u1", "r1")
	require.NoError(t, err)
	_, _, err = reg.Join(ctx, "B", "u2", "r1")
	require.NoError(t, err)
	require.Len(t, reg.MembersOf("r1"), 2)
	assert.Equal(t, 2.0, gaugeValue(t, gauge))

	prev, ok := reg.Disconnect("A")
	require.True(t, ok)
	assert.Equal(t, "u1", prev.UserID)

	members := reg.MembersOf("r1")
	require.Len(t, members, 1)
	assert.Equal(t, "B", members[0].ConnID)
	assert.Equal(t, "Grace", members[0].UserName)
	assert.Equal(t, []string{"B"}, reg.ConnIDs("r1"))
	assert.Equal(t, 1.0, gaugeValue(t, gauge))

	_, ok = reg.Disconnect("A")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Connections())
}

func TestRegistry_RejoinReplacesBinding(t *testing.T) {
	reg, gauge := newTestRegistry()
	ctx := context.Background()
	reg.Connect("c1")

	_, prev, err := reg.Join(ctx, "c1", "u1", "r1")
	require.NoError(t, err)
	assert.Nil(t, prev)

	b, prev, err := reg.Join(ctx, "c1", "u1", "r2")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "r1", prev.RoomID)
	assert.Equal(t, "r2", b.RoomID)

	assert.Empty(t, reg.MembersOf("r1"))
	assert.Len(t, reg.MembersOf("r2"), 1)
	assert.Equal(t, 1.0, gaugeValue(t, gauge))
}

func TestRegistry_Leave(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()
	reg.Connect("c1")

	_, ok := reg.Leave("c1")
	assert.False(t, ok)

	_, _, err := reg.Join(ctx, "c1", "u1", "r1")
	require.NoError(t, err)

	prev, ok := reg.Leave("c1")
	require.True(t, ok)
	assert.Equal(t, "r1", prev.RoomID)
	assert.Empty(t, reg.MembersOf("r1"))

	_, bound := reg.Binding("c1")
	assert.False(t, bound)
	assert.Equal(t, 1, reg.Connections(), "leave keeps the connection registered")
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	reg, gauge := newTestRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", i)
			reg.Connect(connID)
			if _, _, err := reg.Join(ctx, connID, "u1", "r1"); err != nil {
				t.Errorf("join %s: %v", connID, err)
				return
			}
			_ = reg.MembersOf("r1")
			if i%2 == 0 {
				reg.Disconnect(connID)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.MembersOf("r1"), 25)
	assert.Equal(t, 25.0, gaugeValue(t, gauge))
}
