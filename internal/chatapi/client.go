package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/clearstack/opsdesk/internal/config"
	"github.com/clearstack/opsdesk/internal/domain"
)

// Client talks to the remote chat backend. A cookie jar carries the
// backend's session cookie across calls, matching the browser build's
// credentialed requests; every chat call is bounded by ChatRequestTimeout
// so an unanswered request can never wedge a surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.ChatRequestTimeout,
			Jar:     jar,
		},
	}
}

// SetSession establishes server-side correlation for the identity. No
// response body is expected; only transport-level failure is reported.
func (c *Client) SetSession(ctx context.Context, email, name string) error {
	ctx, cancel := context.WithTimeout(ctx, config.HandshakeTimeout)
	defer cancel()

	payload := map[string]string{"email": email, "name": name}
	resp, err := c.post(ctx, "/set_session", payload)
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	resp.Body.Close()
	return nil
}

// GetUserProject asks the backend which project the email is bound to.
func (c *Client) GetUserProject(ctx context.Context, email string) (*domain.ProjectBinding, error) {
	ctx, cancel := context.WithTimeout(ctx, config.HandshakeTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/get_user_project", map[string]string{"email": email})
	if err != nil {
		return nil, fmt.Errorf("get user project: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get user project: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read project response: %w", err)
	}
	var binding domain.ProjectBinding
	if err := json.Unmarshal(body, &binding); err != nil {
		return nil, fmt.Errorf("parse project response: %w", err)
	}
	return &binding, nil
}

// CommonChat sends a message to the general-purpose assistant.
func (c *Client) CommonChat(ctx context.Context, query string) (string, error) {
	return c.chat(ctx, "/chat/common", map[string]any{"query": query})
}

// DualChat sends a message to the dual-mode assistant.
func (c *Client) DualChat(ctx context.Context, message string) (string, error) {
	return c.chat(ctx, "/chat/dual", map[string]any{
		"message":    message,
		"chat_type":  "general",
		"project_id": "general",
	})
}

// WorkChat sends a message to the project-scoped assistant.
func (c *Client) WorkChat(ctx context.Context, message, projectID string) (string, error) {
	return c.chat(ctx, "/chat/work", map[string]any{
		"message":    message,
		"chat_type":  "project",
		"project_id": projectID,
	})
}

func (c *Client) chat(ctx context.Context, path string, payload any) (string, error) {
	resp, err := c.post(ctx, path, payload)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var chatResp struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	return flattenReply(chatResp.Reply), nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// flattenReply extracts plain text when the backend answers with HTML
// markup. Plain replies pass through untouched.
func flattenReply(reply string) string {
	if !strings.Contains(reply, "<") || !strings.Contains(reply, ">") {
		return reply
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(reply))
	if err != nil {
		return reply
	}
	text := strings.TrimSpace(doc.Text())
	if text == "" {
		return reply
	}
	return text
}
