package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/parcelops/hub/internal/types"
)

// ErrValidation is returned for requests rejected before any network call.
var ErrValidation = errors.New("validation failed")

// APIError represents a non-2xx response from the Hub API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("hub api error: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("hub api error: %s (%d)", e.Code, e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("hub api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("hub api error (%d)", e.Status)
}

type apiErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IsEntitlement reports whether the error indicates plan/access gating.
// The chat surface promotes these to a lock state instead of a transient
// banner, and disables further mutations until a later load succeeds.
func IsEntitlement(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status == http.StatusPaymentRequired {
		return true
	}
	switch apiErr.Code {
	case "plan_limit", "upgrade_required", "entitlement_required":
		return true
	}
	return false
}

// IsCanceled reports whether the error came from intentional cancellation.
// Cancellation is never surfaced to the user.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Client talks to the Hub dashboard API.
type Client struct {
	baseURL     string
	token       string
	workspaceID string
	httpClient  *http.Client
}

// NewClient constructs a Hub API client.
func NewClient(baseURL, token, workspaceID string) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:     normalized,
		token:       token,
		workspaceID: workspaceID,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

// NormalizeBaseURL normalizes an API base URL and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("hub url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid hub url: %w", err)
	}
	if parsed.Scheme == "" {
		return "", fmt.Errorf("hub url must include scheme (https://)")
	}
	value = strings.TrimRight(value, "/")
	return value, nil
}

// ListChannelsRequest controls a channel list fetch.
type ListChannelsRequest struct {
	IncludeArchived bool
	Limit           int
}

// ListChannelsResponse contains the workspace channel list.
type ListChannelsResponse struct {
	Channels []types.Channel `json:"channels"`
}

// ListChannels fetches the channel list for the client's workspace.
func (c *Client) ListChannels(ctx context.Context, req ListChannelsRequest) (ListChannelsResponse, error) {
	query := url.Values{}
	query.Set("workspace_id", c.workspaceID)
	if req.IncludeArchived {
		query.Set("include_archived", "true")
	}
	if req.Limit > 0 {
		query.Set("limit", fmt.Sprint(req.Limit))
	}
	var resp ListChannelsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/channels", query, nil, &resp); err != nil {
		return ListChannelsResponse{}, err
	}
	return resp, nil
}

// ListMessagesResponse is one page of a channel's messages.
type ListMessagesResponse struct {
	Messages   []types.Message `json:"messages"`
	NextCursor string          `json:"next_cursor,omitempty"`
	PrevCursor string          `json:"prev_cursor,omitempty"`
}

// ListMessages fetches a message page around a cursor.
func (c *Client) ListMessages(ctx context.Context, q types.MessageQuery) (ListMessagesResponse, error) {
	if q.ChannelID == "" {
		return ListMessagesResponse{}, fmt.Errorf("%w: channel id required", ErrValidation)
	}
	query := url.Values{}
	query.Set("channel_id", q.ChannelID)
	if q.CursorID != "" {
		query.Set("cursor_id", q.CursorID)
	}
	if q.Direction != "" {
		query.Set("direction", string(q.Direction))
	}
	if q.Limit > 0 {
		query.Set("limit", fmt.Sprint(q.Limit))
	}
	var resp ListMessagesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/messages", query, nil, &resp); err != nil {
		return ListMessagesResponse{}, err
	}
	return resp, nil
}

// CreateMessageRequest creates a message in a channel.
type CreateMessageRequest struct {
	ChannelID        string   `json:"channel_id"`
	Body             string   `json:"body"`
	ClientNonce      string   `json:"client_nonce"`
	MentionedUserIDs []string `json:"mentioned_user_ids,omitempty"`
}

// MessageResponse wraps a single confirmed message.
type MessageResponse struct {
	Message types.Message `json:"message"`
}

// CreateMessage posts a new message. The server echoes the client nonce so
// the caller can match the confirmation to its optimistic placeholder.
func (c *Client) CreateMessage(ctx context.Context, req CreateMessageRequest) (MessageResponse, error) {
	if req.ChannelID == "" {
		return MessageResponse{}, fmt.Errorf("%w: channel id required", ErrValidation)
	}
	if strings.TrimSpace(req.Body) == "" {
		return MessageResponse{}, fmt.Errorf("%w: message body cannot be empty", ErrValidation)
	}
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/messages", nil, req, &resp); err != nil {
		return MessageResponse{}, err
	}
	return resp, nil
}

// EditMessage replaces a message body.
func (c *Client) EditMessage(ctx context.Context, messageID, body string) (MessageResponse, error) {
	if strings.TrimSpace(body) == "" {
		return MessageResponse{}, fmt.Errorf("%w: message body cannot be empty", ErrValidation)
	}
	payload := map[string]string{"body": body}
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/messages/"+url.PathEscape(messageID), nil, payload, &resp); err != nil {
		return MessageResponse{}, err
	}
	return resp, nil
}

// DeleteMessage soft-deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/messages/"+url.PathEscape(messageID), nil, nil, nil)
}

// ToggleReaction flips the current user's reaction on a message.
func (c *Client) ToggleReaction(ctx context.Context, messageID, emoji string) error {
	if emoji == "" {
		return fmt.Errorf("%w: emoji required", ErrValidation)
	}
	payload := map[string]string{"emoji": emoji}
	return c.doJSON(ctx, http.MethodPost, "/v1/messages/"+url.PathEscape(messageID)+"/reactions", nil, payload, nil)
}

// MarkRead reports the user's read position for a channel. Best-effort; the
// local cursor is authoritative for the session.
func (c *Client) MarkRead(ctx context.Context, channelID, lastReadMessageID string) error {
	payload := map[string]string{
		"channel_id":           channelID,
		"last_read_message_id": lastReadMessageID,
	}
	return c.doJSON(ctx, http.MethodPost, "/v1/read-state", nil, payload, nil)
}

// ListMentionsResponse is the mention-notification feed.
type ListMentionsResponse struct {
	Mentions []types.MentionNotice `json:"mentions"`
}

// ListMentions fetches recent mentions of the current user.
func (c *Client) ListMentions(ctx context.Context, limit int) (ListMentionsResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	var resp ListMentionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/mentions", query, nil, &resp); err != nil {
		return ListMentionsResponse{}, err
	}
	return resp, nil
}

type memberPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	User   struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

type listMembersPayload struct {
	Members []memberPayload `json:"members"`
}

// ListMembers fetches the workspace member directory.
func (c *Client) ListMembers(ctx context.Context) ([]types.Member, error) {
	query := url.Values{}
	query.Set("workspace_id", c.workspaceID)
	var payload listMembersPayload
	if err := c.doJSON(ctx, http.MethodGet, "/v1/members", query, nil, &payload); err != nil {
		return nil, err
	}
	members := make([]types.Member, 0, len(payload.Members))
	for _, m := range payload.Members {
		members = append(members, types.Member{
			UserID: m.UserID,
			Role:   m.Role,
			Name:   m.User.Name,
			Email:  m.User.Email,
		})
	}
	return members, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil {
		return nil
	}
	if len(respData) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, respBody); err != nil {
		// A malformed success body degrades to a generic failure rather
		// than leaking a decode panic past the caller.
		return &APIError{Status: resp.StatusCode, Message: "malformed response body"}
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	endpoint := base.ResolveReference(ref)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}
