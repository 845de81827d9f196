package api

import (
	"context"
	"sync"

	"github.com/diogo/lmchat/internal/models"
)

// MockClient is a mock implementation of ChatClientInterface for testing
type MockClient struct {
	// Mock return values
	ChatVal     *models.ChatResponse
	ChatErr     error
	ClearErr    error
	HistoryVal  []models.Message
	HistoryErr  error
	BaseURLVal  string
	IsClosedVal bool

	// ChatFunc, when set, replaces ChatVal/ChatErr
	ChatFunc func(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)

	// Call recorders
	mu           sync.Mutex
	ChatRequests []models.ChatRequest
	ClearedIDs   []string
	HistoryIDs   []string
	CloseCalled  bool
}

// Ensure MockClient implements ChatClientInterface
var _ ChatClientInterface = (*MockClient)(nil)

func (m *MockClient) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	m.mu.Lock()
	m.ChatRequests = append(m.ChatRequests, req)
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return m.ChatVal, m.ChatErr
}

func (m *MockClient) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearedIDs = append(m.ClearedIDs, sessionID)
	return m.ClearErr
}

func (m *MockClient) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HistoryIDs = append(m.HistoryIDs, sessionID)
	return m.HistoryVal, m.HistoryErr
}

func (m *MockClient) BaseURL() string {
	return m.BaseURLVal
}

func (m *MockClient) Close() {
	m.CloseCalled = true
}

func (m *MockClient) IsClosed() bool {
	return m.IsClosedVal
}

// Requests returns a copy of the recorded chat requests
func (m *MockClient) Requests() []models.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ChatRequest, len(m.ChatRequests))
	copy(out, m.ChatRequests)
	return out
}
