package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/lmchat/internal/errors"
	"github.com/diogo/lmchat/internal/models"
)

// Chat sends one user message. A nil SessionID asks the server to start a
// new conversation.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	status, data, err := c.do(ctx, http.MethodPost, models.PathChat, body)
	if err != nil {
		return nil, err
	}

	if !isSuccess(status) {
		return nil, parseFailure(models.PathChat, status, data)
	}

	return parseChatResponse(data)
}

// Clear asks the server to drop a session's history. Only the status is
// inspected.
func (c *Client) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apierrors.ErrEmptySessionID
	}

	path := models.ClearPath(sessionID)
	status, data, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}

	if !isSuccess(status) {
		return parseFailure(path, status, data)
	}
	return nil
}

// History fetches the server-side transcript of a session. Unknown
// sessions come back empty.
func (c *Client) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	if sessionID == "" {
		return nil, apierrors.ErrEmptySessionID
	}

	path := models.HistoryPath(sessionID)
	status, data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	if !isSuccess(status) {
		return nil, parseFailure(path, status, data)
	}

	return parseHistory(path, data)
}

// parseChatResponse extracts session_id and response from a success body
func parseChatResponse(data []byte) (*models.ChatResponse, error) {
	if !gjson.ValidBytes(data) {
		return nil, apierrors.NewTransportError(models.PathChat,
			apierrors.NewParseError("response is not valid JSON", ""))
	}

	result := gjson.ParseBytes(data)

	sessionID := result.Get("session_id")
	if sessionID.Type != gjson.String || sessionID.Str == "" {
		return nil, apierrors.NewTransportError(models.PathChat,
			apierrors.NewParseError("missing session id", "session_id"))
	}

	response := result.Get("response")
	if !response.Exists() {
		return nil, apierrors.NewTransportError(models.PathChat,
			apierrors.NewParseError("missing response text", "response"))
	}

	return &models.ChatResponse{
		SessionID: sessionID.Str,
		Response:  response.String(),
	}, nil
}

// parseHistory decodes {"history": [{"role", "content"}, ...]}
func parseHistory(path string, data []byte) ([]models.Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, apierrors.NewTransportError(path,
			apierrors.NewParseError("response is not valid JSON", ""))
	}

	history := gjson.GetBytes(data, "history")
	if !history.IsArray() {
		return nil, apierrors.NewTransportError(path,
			apierrors.NewParseError("history is not an array", "history"))
	}

	entries := history.Array()
	messages := make([]models.Message, 0, len(entries))
	for i, entry := range entries {
		role, err := models.ParseRole(entry.Get("role").String())
		if err != nil {
			return nil, apierrors.NewTransportError(path,
				apierrors.NewParseError(err.Error(), fmt.Sprintf("history.%d.role", i)))
		}
		messages = append(messages, models.NewMessage(role, entry.Get("content").String()))
	}

	return messages, nil
}

// parseFailure turns a non-2xx response into an error. A JSON body carrying
// an "error" string is an EndpointError; a body that is not JSON at all means
// the reply could not be understood and is reported as a TransportError.
func parseFailure(path string, status int, data []byte) error {
	if !gjson.ValidBytes(data) {
		return apierrors.NewTransportError(path,
			apierrors.NewParseError(fmt.Sprintf("unexpected non-JSON response (HTTP %d)", status), ""))
	}

	message := http.StatusText(status)
	if errField := gjson.GetBytes(data, "error"); errField.Type == gjson.String && errField.Str != "" {
		message = errField.Str
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}

	return apierrors.NewEndpointError(status, path, message)
}
