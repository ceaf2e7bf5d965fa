package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/greenloop/ecobot/internal/logging"
)

const maxResponseBytes = 1 << 20

// Client talks to the platform REST API: interaction callbacks, DM channel
// creation and message delivery.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
	maxRetries int
	log        *logging.Logger
}

// ClientConfig configures the REST client.
type ClientConfig struct {
	BaseURL    string
	BotToken   string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a REST client for the given API base URL.
func NewClient(cfg ClientConfig, log *logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}
	if log == nil {
		log = logging.New("discord")
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		botToken:   cfg.BotToken,
		maxRetries: maxRetries,
		log:        log,
	}
}

// RespondInteraction posts a response to the interaction callback endpoint
// and returns the platform's status code and body, which the webhook reply
// mirrors back to the caller.
func (c *Client) RespondInteraction(ctx context.Context, interactionID, token string, response InteractionResponse) (int, []byte, error) {
	path := fmt.Sprintf("/interactions/%s/%s/callback", interactionID, token)
	resp, err := c.post(ctx, path, response, false)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read callback response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return 0, nil, fmt.Errorf("interaction callback failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.StatusCode, body, nil
}

// EmbedField is one titled line in a receipt embed.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Embed is a rich message payload.
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// SendDM opens a private channel to the recipient and posts the embed.
func (c *Client) SendDM(ctx context.Context, recipientID string, embed Embed) error {
	channelID, err := c.openDMChannel(ctx, recipientID)
	if err != nil {
		return err
	}

	payload := struct {
		Embeds []Embed `json:"embeds"`
	}{Embeds: []Embed{embed}}

	resp, err := c.post(ctx, fmt.Sprintf("/channels/%s/messages", channelID), payload, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("send message failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *Client) openDMChannel(ctx context.Context, recipientID string) (string, error) {
	payload := struct {
		RecipientID string `json:"recipient_id"`
	}{RecipientID: recipientID}

	resp, err := c.post(ctx, "/users/@me/channels", payload, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read channel response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("open DM channel failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	channelID := gjson.GetBytes(body, "id").String()
	if channelID == "" {
		return "", fmt.Errorf("open DM channel: response carries no channel id")
	}
	return channelID, nil
}

// post sends a JSON POST, retrying transient 5xx responses up to maxRetries.
func (c *Client) post(ctx context.Context, path string, body interface{}, authenticated bool) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if authenticated {
			req.Header.Set("Authorization", "Bot "+c.botToken)
		}

		resp, lastErr = c.httpClient.Do(req)
		if lastErr != nil {
			continue
		}
		if resp.StatusCode >= 500 && attempt < c.maxRetries {
			resp.Body.Close()
			continue
		}
		return resp, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("request failed: %w", lastErr)
	}
	return resp, nil
}
