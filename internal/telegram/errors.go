package telegram

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUsernameNotFound means the authoritative API reported the username as
// unknown. The flood state is never touched on this path.
var ErrUsernameNotFound = errors.New("telegram: username not found")

// FloodWaitError is a rate-limit signal from a single client carrying the
// cooldown Telegram demanded.
type FloodWaitError struct {
	Seconds int
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("telegram: FLOOD_WAIT_%d", e.Seconds)
}

// AllFloodedError means every client was already in cooldown at selection
// time, before any network call. MinSeconds is the smallest remaining wait
// across the pool and feeds the retry hint.
type AllFloodedError struct {
	MinSeconds int
}

func (e *AllFloodedError) Error() string {
	return fmt.Sprintf("telegram: all clients flooded, min wait %ds", e.MinSeconds)
}

// floodWaitSeconds extracts the wait from a FLOOD_WAIT_N error string.
// gotd wraps rpc errors in several layers, matching on the string is the
// most reliable way without coupling to every wrapper type.
func floodWaitSeconds(err error) int {
	if err == nil {
		return 0
	}
	str := err.Error()
	if !strings.Contains(str, "FLOOD_WAIT_") {
		return 0
	}
	parts := strings.Split(str, "FLOOD_WAIT_")
	if len(parts) < 2 {
		return 0
	}
	var seconds int
	_, _ = fmt.Sscanf(strings.TrimSpace(parts[1]), "%d", &seconds)
	return seconds
}

// isUnknownUsername reports whether the API rejected the username itself.
func isUnknownUsername(err error) bool {
	if err == nil {
		return false
	}
	str := err.Error()
	return strings.Contains(str, "USERNAME_NOT_OCCUPIED") ||
		strings.Contains(str, "USERNAME_INVALID")
}
