package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"grindhouse/scoreboard/internal/constants"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// GenerateRoomCode returns a random upper-case alphanumeric join code.
func GenerateRoomCode() (string, error) {
	alphabet := constants.RoomCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))

	var sb strings.Builder
	for i := 0; i < constants.RoomCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeRoomCode makes code lookups case-insensitive.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseOptionalTime parses an RFC3339 timestamp, falling back to def when raw is empty.
func ParseOptionalTime(raw string, def time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
