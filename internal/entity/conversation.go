package entity

import (
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Message is a single conversation turn. Messages are append-only: once added
// to a session they are never mutated or removed.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
