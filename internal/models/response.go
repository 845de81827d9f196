package models

// ChatRequest is the body of POST /api/chat. SessionID is nil until the
// endpoint has assigned one, and is then encoded as JSON null.
type ChatRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
}

// ChatResponse is the success body of POST /api/chat
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
