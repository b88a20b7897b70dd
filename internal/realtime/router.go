package realtime

import (
	"encoding/json"
	"time"

	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/metrics"
	"grindhouse/scoreboard/internal/models/dtos"
	"grindhouse/scoreboard/internal/presence"
)

// Emitter delivers an encoded frame to one connection. It must not block and
// reports false when the frame was dropped.
type Emitter interface {
	Emit(connID string, frame []byte) bool
}

// Router fans room events out to the connections the presence registry holds for
// that room. Delivery is best effort: no acknowledgement, no retry.
type Router struct {
	registry *presence.Registry
	emitter  Emitter
	metrics  *metrics.MetricsRegistry
	now      func() time.Time
}

func NewRouter(registry *presence.Registry, emitter Emitter, metricsReg *metrics.MetricsRegistry) *Router {
	return &Router{
		registry: registry,
		emitter:  emitter,
		metrics:  metricsReg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Router) encode(kind constants.EventKind, payload any) ([]byte, bool) {
	frame, err := json.Marshal(dtos.WSEnvelope{
		Type:      string(kind),
		Data:      payload,
		Timestamp: r.now(),
	})
	if err != nil {
		logging.Error("Failed to encode event", "event", kind, "error", err.Error())
		return nil, false
	}
	return frame, true
}

// Publish sends an event to every connection in the room.
func (r *Router) Publish(roomID string, kind constants.EventKind, payload any) {
	r.PublishExcept(roomID, kind, payload, "")
}

// PublishExcept sends an event to every connection in the room but exceptConnID.
func (r *Router) PublishExcept(roomID string, kind constants.EventKind, payload any, exceptConnID string) {
	frame, ok := r.encode(kind, payload)
	if !ok {
		return
	}

	r.metrics.EventsPublished.WithLabelValues(string(kind)).Inc()
	for _, connID := range r.registry.ConnIDs(roomID) {
		if connID == exceptConnID {
			continue
		}
		if !r.emitter.Emit(connID, frame) {
			r.metrics.EventsDropped.Inc()
		}
	}
}

// SendTo sends an event to a single connection.
func (r *Router) SendTo(connID string, kind constants.EventKind, payload any) {
	frame, ok := r.encode(kind, payload)
	if !ok {
		return
	}
	if !r.emitter.Emit(connID, frame) {
		r.metrics.EventsDropped.Inc()
	}
}

// RoomStatus is the presence snapshot for a room.
func (r *Router) RoomStatus(roomID string) dtos.RoomStatusResponse {
	members := r.registry.MembersOf(roomID)
	online := make([]dtos.PresenceMember, 0, len(members))
	for _, m := range members {
		online = append(online, dtos.PresenceMember{
			UserID:   m.UserID,
			UserName: m.UserName,
			ConnID:   m.ConnID,
			JoinedAt: m.JoinedAt,
		})
	}
	return dtos.RoomStatusResponse{
		RoomID:        roomID,
		OnlineMembers: online,
		TotalOnline:   len(online),
	}
}
