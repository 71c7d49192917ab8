// Package dialogue is the HTTP client for the dialogue service.
package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jwebster45206/local-legends/pkg/chat"
)

// Client talks to the dialogue service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for baseURL, e.g. "http://localhost:7070".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Health reports whether the service answers its health check.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Health check failed", "error", err)
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// ListNPCs fetches the NPC roster.
func (c *Client) ListNPCs(ctx context.Context) (*chat.NPCListResponse, error) {
	var out chat.NPCListResponse
	if err := c.do(ctx, http.MethodGet, "/api/npcs", nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to list npcs: %w", err)
	}
	return &out, nil
}

// InitSession registers sessionID with the service, creating it if needed.
func (c *Client) InitSession(ctx context.Context, sessionID string) (*chat.SessionInitResponse, error) {
	path := "/api/session/init"
	if sessionID != "" {
		path += "?session_id=" + url.QueryEscape(sessionID)
	}
	var out chat.SessionInitResponse
	if err := c.do(ctx, http.MethodPost, path, nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	return &out, nil
}

// GetConversations fetches every conversation in a session, keyed by NPC name.
func (c *Client) GetConversations(ctx context.Context, sessionID string) (*chat.ConversationsResponse, error) {
	var out chat.ConversationsResponse
	path := "/api/session/" + url.PathEscape(sessionID) + "/conversations"
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to get conversations: %w", err)
	}
	if out.Conversations == nil {
		out.Conversations = make(map[string][]chat.ChatMessage)
	}
	return &out, nil
}

// SendMessage sends one user line to an NPC and returns the reply.
func (c *Client) SendMessage(ctx context.Context, npcName, sessionID, message string) (*chat.InteractionResponse, error) {
	req := chat.InteractionRequest{SessionID: sessionID, Message: message}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out chat.InteractionResponse
	path := "/api/npc/" + url.PathEscape(npcName) + "/interact"
	if err := c.do(ctx, http.MethodPost, path, req, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, wantStatus int, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("Dialogue request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode != wantStatus {
		var errorResp chat.ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		return &StatusError{Code: resp.StatusCode, Message: errorResp.Error}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// StatusError is returned when the service answers with an unexpected status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Message)
}
