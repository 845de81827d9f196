package chat

import "github.com/diogo/lmchat/internal/models"

// MessageLog is the ordered record of a conversation. The first entry is a
// standing greeting that survives every clear.
type MessageLog struct {
	entries []models.Message
}

// NewMessageLog starts a log holding only the greeting
func NewMessageLog(greeting models.Message) *MessageLog {
	return &MessageLog{entries: []models.Message{greeting}}
}

// Append adds a message at the end
func (l *MessageLog) Append(msg models.Message) {
	l.entries = append(l.entries, msg)
}

// Len returns the number of entries, greeting included
func (l *MessageLog) Len() int {
	return len(l.entries)
}

// Messages returns a copy of all entries in order
func (l *MessageLog) Messages() []models.Message {
	out := make([]models.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// LastOf returns the newest entry with the given role, not counting the
// greeting
func (l *MessageLog) LastOf(role models.Role) (models.Message, bool) {
	for i := len(l.entries) - 1; i >= 1; i-- {
		if l.entries[i].Role == role {
			return l.entries[i], true
		}
	}
	return models.Message{}, false
}

// TruncateToFirst drops everything except the greeting
func (l *MessageLog) TruncateToFirst() {
	if len(l.entries) > 1 {
		l.entries = l.entries[:1:1]
	}
}
