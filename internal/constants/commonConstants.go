package constants

import "time"

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixStandings CachePrefix = "STANDINGS_"
)

const (
	RoomCodeLength      = 6
	RoomCodeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	RoomCodeMaxAttempts = 10

	DefaultRoundLength = 24 * time.Hour
	DefaultRoomName    = "New Room"
	DefaultHostName    = "Host"
	DefaultMemberName  = "User"
)
