// Package api provides the HTTP client for the chat server endpoints.
package api

import (
	"context"

	"github.com/diogo/lmchat/internal/models"
)

// ChatClientInterface defines the interface for the chat server client.
// This allows for mocking in tests.
type ChatClientInterface interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	Clear(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID string) ([]models.Message, error)
	BaseURL() string
	Close()
	IsClosed() bool
}

// Ensure Client implements ChatClientInterface
var _ ChatClientInterface = (*Client)(nil)
