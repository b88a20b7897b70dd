package dtos

import "time"

// WSEnvelope is the outbound websocket frame.
type WSEnvelope struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type TaskApprovedEvent struct {
	Task     TaskResponse `json:"task"`
	Approved bool         `json:"approved"`
}

type TaskFlaggedEvent struct {
	Task         TaskResponse `json:"task"`
	FlaggedCount int          `json:"flagged_count"`
	FlagVotes    FlagTally    `json:"flag_votes"`
	Finalized    bool         `json:"finalized"`
}

type LeaderboardUpdatedEvent struct {
	RoundID string         `json:"round_id"`
	Stats   RoundStandings `json:"stats"`
}

// MemberPresenceEvent announces a connection entering or leaving a room.
type MemberPresenceEvent struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	ConnID   string `json:"session_id"`
}

type ConnectedAck struct {
	ConnID string `json:"session_id"`
}

type ErrorAck struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
