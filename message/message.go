package message

import "time"

// Role represents the role of the message sender
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message represents a single message in a conversation
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// New creates a new message with the given role and content
func New(role Role, content string) Message {
	return Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Clone creates a deep copy of the message.
func Clone(msg Message) Message {
	cloned := msg
	if msg.Metadata != nil {
		cloned.Metadata = make(map[string]any, len(msg.Metadata))
		for k, v := range msg.Metadata {
			cloned.Metadata[k] = v
		}
	}
	return cloned
}

// CloneAll copies a slice of messages.
func CloneAll(msgs []Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	clones := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		clones = append(clones, Clone(msg))
	}
	return clones
}

// Trim drops the oldest messages until at most max remain. A non-positive max
// disables trimming.
func Trim(msgs []Message, max int) []Message {
	if max <= 0 || len(msgs) <= max {
		return msgs
	}
	return msgs[len(msgs)-max:]
}

// Tail returns up to n of the most recent messages.
func Tail(msgs []Message, n int) []Message {
	if n <= 0 || len(msgs) == 0 {
		return nil
	}
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// generateID generates a message ID derived from the current time.
func generateID() string {
	return time.Now().Format("20060102150405.000000")
}
