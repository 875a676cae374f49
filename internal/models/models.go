// Package models defines the domain types shared across the service.
package models

// ChatKind is the kind of chat a username resolves to.
// It determines both the authoritative API call used to fetch the chat
// and the shape of the outward response.
type ChatKind string

const (
	KindPrivate    ChatKind = "private"
	KindSupergroup ChatKind = "supergroup"
	KindChannel    ChatKind = "channel"
)

// Valid reports whether k is one of the known chat kinds.
func (k ChatKind) Valid() bool {
	switch k {
	case KindPrivate, KindSupergroup, KindChannel:
		return true
	}
	return false
}

// ChatRecord is the last-known authoritative state of a chat.
// For non-private kinds LastName is always empty and FirstName holds the title.
type ChatRecord struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Bio       string   `json:"bio"`
	Kind      ChatKind `json:"chat_type"`
	ChatID    int64    `json:"chat_id"`
}

// DisplayName composes the name the public page shows for this chat:
// first name plus " " + last name when a last name is set, the bare
// title otherwise.
func (r ChatRecord) DisplayName() string {
	if r.LastName != "" {
		return r.FirstName + " " + r.LastName
	}
	return r.FirstName
}
