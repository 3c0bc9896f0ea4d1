package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spec-kit/helpdesk-bot/internal/chat"
)

// Client implements chat.Gateway against the platform connector's REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient constructs a gateway client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type channelPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	ParentID string `json:"parent_id,omitempty"`
}

type overwritePayload struct {
	SubjectID string `json:"subject_id"`
	AllowView bool   `json:"allow_view"`
}

type channelCreatePayload struct {
	Name       string             `json:"name"`
	ParentID   string             `json:"parent_id,omitempty"`
	Overwrites []overwritePayload `json:"overwrites"`
}

type embedFieldPayload struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedPayload struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Fields      []embedFieldPayload `json:"fields,omitempty"`
	Timestamp   *time.Time          `json:"timestamp,omitempty"`
}

type attachmentPayload struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type actionPayload struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

type helperSelectPayload struct {
	MinValues int `json:"min_values"`
	MaxValues int `json:"max_values"`
}

type messagePayload struct {
	Content      string               `json:"content,omitempty"`
	Embed        *embedPayload        `json:"embed,omitempty"`
	Attachment   *attachmentPayload   `json:"attachment,omitempty"`
	Actions      []actionPayload      `json:"actions,omitempty"`
	HelperSelect *helperSelectPayload `json:"helper_select,omitempty"`
}

type historyMessagePayload struct {
	ID          string         `json:"id"`
	AuthorID    string         `json:"author_id"`
	AuthorTag   string         `json:"author_tag"`
	Timestamp   time.Time      `json:"timestamp"`
	Content     string         `json:"content"`
	Embeds      []embedPayload `json:"embeds"`
	Attachments []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"attachments"`
}

type rolePayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Administrator bool   `json:"administrator"`
	Moderator     bool   `json:"moderator"`
}

// Channel returns metadata for an existing channel.
func (c *Client) Channel(ctx context.Context, channelID string) (*chat.Channel, error) {
	var payload channelPayload
	if err := c.do(ctx, http.MethodGet, "/channels/"+url.PathEscape(channelID), nil, &payload); err != nil {
		return nil, err
	}
	return decodeChannel(payload), nil
}

// CreateChannel creates a channel and returns it.
func (c *Client) CreateChannel(ctx context.Context, req chat.ChannelCreate) (*chat.Channel, error) {
	body := channelCreatePayload{
		Name:     req.Name,
		ParentID: req.ParentID,
	}
	for _, overwrite := range req.Overwrites {
		body.Overwrites = append(body.Overwrites, overwritePayload(overwrite))
	}
	var payload channelPayload
	if err := c.do(ctx, http.MethodPost, "/channels", body, &payload); err != nil {
		return nil, err
	}
	return decodeChannel(payload), nil
}

// DeleteChannel removes a channel, mapping 404 to chat.ErrChannelNotFound.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+url.PathEscape(channelID), nil, nil)
}

// SendMessage posts a message into a channel.
func (c *Client) SendMessage(ctx context.Context, channelID string, msg chat.Message) error {
	path := "/channels/" + url.PathEscape(channelID) + "/messages"
	return c.do(ctx, http.MethodPost, path, encodeMessage(msg), nil)
}

// SendDirectMessage delivers a message to a user's direct channel.
func (c *Client) SendDirectMessage(ctx context.Context, userID string, msg chat.Message) error {
	path := "/users/" + url.PathEscape(userID) + "/messages"
	return c.do(ctx, http.MethodPost, path, encodeMessage(msg), nil)
}

// MessagesBefore fetches up to limit messages older than beforeID, newest first.
func (c *Client) MessagesBefore(ctx context.Context, channelID, beforeID string, limit int) ([]chat.HistoryMessage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if beforeID != "" {
		query.Set("before", beforeID)
	}
	path := "/channels/" + url.PathEscape(channelID) + "/messages?" + query.Encode()

	var payload []historyMessagePayload
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	history := make([]chat.HistoryMessage, 0, len(payload))
	for _, msg := range payload {
		entry := chat.HistoryMessage{
			ID:        msg.ID,
			AuthorID:  msg.AuthorID,
			AuthorTag: msg.AuthorTag,
			Timestamp: msg.Timestamp,
			Content:   msg.Content,
		}
		for _, embed := range msg.Embeds {
			entry.Embeds = append(entry.Embeds, decodeEmbed(embed))
		}
		for _, att := range msg.Attachments {
			entry.Attachments = append(entry.Attachments, chat.AttachmentRef{Name: att.Name, URL: att.URL})
		}
		history = append(history, entry)
	}
	return history, nil
}

// Roles lists the community's roles.
func (c *Client) Roles(ctx context.Context) ([]chat.Role, error) {
	var payload []rolePayload
	if err := c.do(ctx, http.MethodGet, "/roles", nil, &payload); err != nil {
		return nil, err
	}
	roles := make([]chat.Role, 0, len(payload))
	for _, role := range payload {
		roles = append(roles, chat.Role(role))
	}
	return roles, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return chat.ErrChannelNotFound
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("platform %s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func encodeMessage(msg chat.Message) messagePayload {
	payload := messagePayload{Content: msg.Content}
	if msg.Embed != nil {
		embed := embedPayload{
			Title:       msg.Embed.Title,
			Description: msg.Embed.Description,
		}
		for _, field := range msg.Embed.Fields {
			embed.Fields = append(embed.Fields, embedFieldPayload(field))
		}
		if !msg.Embed.Timestamp.IsZero() {
			ts := msg.Embed.Timestamp
			embed.Timestamp = &ts
		}
		payload.Embed = &embed
	}
	if msg.Attachment != nil {
		payload.Attachment = &attachmentPayload{Name: msg.Attachment.Name, Data: msg.Attachment.Data}
	}
	for _, action := range msg.Actions {
		payload.Actions = append(payload.Actions, actionPayload{Kind: string(action.Kind), Label: action.Label})
	}
	if msg.HelperSelect != nil {
		payload.HelperSelect = &helperSelectPayload{
			MinValues: msg.HelperSelect.MinValues,
			MaxValues: msg.HelperSelect.MaxValues,
		}
	}
	return payload
}

func decodeChannel(payload channelPayload) *chat.Channel {
	return &chat.Channel{
		ID:       payload.ID,
		Name:     payload.Name,
		Kind:     chat.ChannelKind(payload.Kind),
		ParentID: payload.ParentID,
	}
}

func decodeEmbed(payload embedPayload) chat.Embed {
	embed := chat.Embed{
		Title:       payload.Title,
		Description: payload.Description,
	}
	for _, field := range payload.Fields {
		embed.Fields = append(embed.Fields, chat.EmbedField(field))
	}
	if payload.Timestamp != nil {
		embed.Timestamp = *payload.Timestamp
	}
	return embed
}
