package api

import (
	"fmt"
	"strconv"

	"github.com/blockedby/resolver-os/internal/models"
)

// ChatResult is the outward chat schema. Optional fields are only present
// when they carry information, matching how the Bot API builds its JSON.
type ChatResult struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Username    string  `json:"username"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    string  `json:"last_name,omitempty"`
	Title       string  `json:"title,omitempty"`
	Bio         string  `json:"bio,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Response is the outward success envelope.
type Response struct {
	OK     bool       `json:"ok"`
	Result ChatResult `json:"result"`
}

// ErrorResponse is the outward error envelope.
type ErrorResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	RetryAfter  int    `json:"retry_after,omitempty"`
}

// BuildResponse maps a chat record to the outward schema. The username is
// echoed as the caller submitted it, minus a leading "@", never the cached
// casing.
//
// Private chats expose first_name (always), last_name and bio (when set).
// Channels and supergroups expose title and description instead, and their
// id gets the "-100" prefix the Bot API uses for those chats.
func BuildResponse(username string, rec models.ChatRecord) (Response, error) {
	result := ChatResult{
		ID:       rec.ChatID,
		Type:     string(rec.Kind),
		Username: username,
	}

	if rec.Kind == models.KindPrivate {
		firstName := rec.FirstName
		result.FirstName = &firstName
		result.LastName = rec.LastName
		result.Bio = rec.Bio
	} else {
		id, err := strconv.ParseInt("-100"+strconv.FormatInt(rec.ChatID, 10), 10, 64)
		if err != nil {
			return Response{}, fmt.Errorf("transform chat id %d: %w", rec.ChatID, err)
		}
		result.ID = id
		result.Title = rec.FirstName
		result.Description = rec.Bio
	}

	return Response{OK: true, Result: result}, nil
}

// buildError builds the outward error envelope. retryAfter of 0 is omitted.
func buildError(code int, description string, retryAfter int) ErrorResponse {
	return ErrorResponse{
		OK:          false,
		ErrorCode:   code,
		Description: description,
		RetryAfter:  retryAfter,
	}
}
