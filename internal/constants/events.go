package constants

// EventKind names an outbound realtime event.
type EventKind string

const (
	EventRoomStatus         EventKind = "room-status"
	EventMemberJoined       EventKind = "member-joined"
	EventMemberLeft         EventKind = "member-left"
	EventRoundStarted       EventKind = "round-started"
	EventRoundEnded         EventKind = "round-ended"
	EventTaskCreated        EventKind = "task-created"
	EventTaskCompleted      EventKind = "task-completed"
	EventTaskApproved       EventKind = "task-approved"
	EventTaskFlagged        EventKind = "task-flagged"
	EventLeaderboardUpdated EventKind = "leaderboard-updated"
)

// Connection-level acknowledgements, sent only to the requesting socket.
const (
	EventConnected  EventKind = "connected"
	EventRoomJoined EventKind = "room_joined"
	EventRoomLeft   EventKind = "room_left"
	EventError      EventKind = "error"
)

// Inbound websocket message types.
const (
	InboundJoinRoom      = "join_room"
	InboundLeaveRoom     = "leave_room"
	InboundGetRoomStatus = "get_room_status"
)
