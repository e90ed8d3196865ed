package chat

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

// Severity tags a message for rendering.
type Severity string

const (
	SeverityNormal  Severity = "normal"
	SeverityWarning Severity = "warning"
	SeveritySevere  Severity = "severe"
)

// Message is an immutable conversation entry.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"type"`
	Content   string    `json:"content"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"timestamp"`
}
