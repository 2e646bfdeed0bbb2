// internal/models/message.go
package models

import "time"

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleSystem MessageRole = "system"
)

// MessageMetadata carries the structured analysis attached to a system
// reply. Absent on user messages and on failure notices.
type MessageMetadata struct {
	RiskLevel  string   `json:"risk_level,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Citations  []string `json:"citations"`
}

// Message is one entry in the append-only conversation log. Messages
// are never mutated or removed within a session; IDs are unique and
// monotonically creation-ordered.
type Message struct {
	ID        int64            `json:"id"`
	Role      MessageRole      `json:"role"`
	Content   string           `json:"content"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
