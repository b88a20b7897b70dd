package services

import "grindhouse/scoreboard/internal/constants"

// Publisher fans a committed domain event out to everyone present in a room.
// Implementations must not block the caller.
type Publisher interface {
	Publish(roomID string, kind constants.EventKind, payload any)
}

// NopPublisher drops every event. Used by tools that run services without a hub.
type NopPublisher struct{}

func (NopPublisher) Publish(string, constants.EventKind, any) {}
