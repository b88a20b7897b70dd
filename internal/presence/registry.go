package presence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"github.com/prometheus/client_golang/prometheus"
)

// MembershipStore is the subset of the room repository the registry validates joins against.
type MembershipStore interface {
	GetUserByID(ctx context.Context, userID string) (*gormModels.User, error)
	GetByID(ctx context.Context, roomID string) (*gormModels.Room, error)
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
}

// Binding ties a live connection to the user and room it joined.
type Binding struct {
	ConnID   string
	UserID   string
	UserName string
	RoomID   string
	JoinedAt time.Time
}

// Registry maps connections to users and rooms. One RWMutex guards both indexes
// so a reader never sees a connection in a room it has already left.
type Registry struct {
	store    MembershipStore
	bindings prometheus.Gauge

	mu    sync.RWMutex
	conns map[string]*Binding            // connID -> binding, nil while anonymous
	rooms map[string]map[string]struct{} // roomID -> connIDs
}

func NewRegistry(store MembershipStore, bindings prometheus.Gauge) *Registry {
	return &Registry{
		store:    store,
		bindings: bindings,
		conns:    make(map[string]*Binding),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// Connect registers an anonymous connection.
func (r *Registry) Connect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		r.conns[connID] = nil
	}
}

// Join binds connID to (userID, roomID) after checking the user belongs to the room.
// A connection already bound elsewhere is moved; the previous binding is returned.
func (r *Registry) Join(ctx context.Context, connID, userID, roomID string) (Binding, *Binding, error) {
	userID, roomID = strings.TrimSpace(userID), strings.TrimSpace(roomID)
	if connID == "" || userID == "" || roomID == "" {
		return Binding{}, nil, common.NewInvalidInput(constants.MsgMissingIDs)
	}

	user, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		return Binding{}, nil, common.NewInternal("Internal server error", err)
	}
	if user == nil {
		return Binding{}, nil, common.NewNotFound(constants.MsgUserNotFound)
	}
	room, err := r.store.GetByID(ctx, roomID)
	if err != nil {
		return Binding{}, nil, common.NewInternal("Internal server error", err)
	}
	if room == nil {
		return Binding{}, nil, common.NewNotFound(constants.MsgRoomNotFound)
	}
	member, err := r.store.IsMember(ctx, roomID, userID)
	if err != nil {
		return Binding{}, nil, common.NewInternal("Internal server error", err)
	}
	if !member {
		return Binding{}, nil, common.NewForbidden(constants.MsgNotRoomMember)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[connID]
	if !ok {
		// Disconnected while the store lookups ran.
		return Binding{}, nil, common.NewNotFound(constants.MsgUnknownConnection)
	}

	var prev *Binding
	if current != nil {
		copied := *current
		prev = &copied
		r.unbindLocked(connID, current)
	}

	b := &Binding{
		ConnID:   connID,
		UserID:   user.ID,
		UserName: user.Name,
		RoomID:   room.ID,
		JoinedAt: time.Now().UTC(),
	}
	r.conns[connID] = b
	set, ok := r.rooms[room.ID]
	if !ok {
		set = make(map[string]struct{})
		r.rooms[room.ID] = set
	}
	set[connID] = struct{}{}
	r.incBindings(1)

	return *b, prev, nil
}

// Leave clears the connection's room binding. It reports false when the connection had not joined.
func (r *Registry) Leave(connID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.conns[connID]
	if current == nil {
		return Binding{}, false
	}
	prev := *current
	r.unbindLocked(connID, current)
	r.conns[connID] = nil
	return prev, true
}

// Disconnect leaves any room and forgets the connection. Safe to call more than once.
func (r *Registry) Disconnect(connID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, known := r.conns[connID]
	if !known {
		return Binding{}, false
	}
	delete(r.conns, connID)
	if current == nil {
		return Binding{}, false
	}
	prev := *current
	r.unbindLocked(connID, current)
	return prev, true
}

func (r *Registry) unbindLocked(connID string, b *Binding) {
	if set, ok := r.rooms[b.RoomID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.rooms, b.RoomID)
		}
	}
	r.incBindings(-1)
}

func (r *Registry) incBindings(delta float64) {
	if r.bindings != nil {
		r.bindings.Add(delta)
	}
}

// MembersOf returns a snapshot of the bindings in a room, oldest join first.
func (r *Registry) MembersOf(roomID string) []Binding {
	r.mu.RLock()
	set := r.rooms[roomID]
	out := make([]Binding, 0, len(set))
	for connID := range set {
		if b := r.conns[connID]; b != nil {
			out = append(out, *b)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ConnID < out[j].ConnID
	})
	return out
}

// ConnIDs returns the connections currently in a room.
func (r *Registry) ConnIDs(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.rooms[roomID]
	out := make([]string, 0, len(set))
	for connID := range set {
		out = append(out, connID)
	}
	return out
}

// Binding returns the current binding of a connection, if it joined a room.
func (r *Registry) Binding(connID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b := r.conns[connID]; b != nil {
		return *b, true
	}
	return Binding{}, false
}

// Connections returns the number of known connections, joined or not.
func (r *Registry) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
