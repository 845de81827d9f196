package models

import "fmt"

// Role identifies who produced a message in the log
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleError:
		return true
	}
	return false
}

// ParseRole converts a wire role string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Message is a single entry of the chat log. Messages are never mutated after
// creation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message with the given role
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}
