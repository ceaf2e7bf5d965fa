// Command register-commands registers the bot's slash command catalog with
// the platform. It is a one-time deployment step, not part of the request
// path.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/greenloop/ecobot/internal/config"
	"github.com/greenloop/ecobot/internal/logging"
)

// Application command option types, per the platform API.
const (
	optionTypeString  = 3
	optionTypeInteger = 4
)

type commandChoice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type commandOption struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        int             `json:"type"`
	Required    bool            `json:"required,omitempty"`
	Choices     []commandChoice `json:"choices,omitempty"`
}

type command struct {
	Name        string          `json:"name"`
	Type        int             `json:"type"`
	Description string          `json:"description"`
	Options     []commandOption `json:"options,omitempty"`
}

func catalogCommands(catalog config.Catalog) []command {
	choices := make([]commandChoice, 0, len(catalog.Items))
	for _, item := range catalog.Items {
		choices = append(choices, commandChoice{
			Name:  fmt.Sprintf("%s (%d tokens)", item.Name, item.Price),
			Value: item.Name,
		})
	}

	return []command{
		{Name: "balance", Type: 1, Description: "Check your token balance"},
		{Name: "earn", Type: 1, Description: "Earn tokens", Options: []commandOption{
			{Name: "amount", Description: "Amount of tokens to earn", Type: optionTypeInteger, Required: true},
		}},
		{Name: "spend", Type: 1, Description: "Spend tokens", Options: []commandOption{
			{Name: "amount", Description: "Amount of tokens to spend", Type: optionTypeInteger, Required: true},
		}},
		{Name: "shop", Type: 1, Description: "View shop items"},
		{Name: "buy", Type: 1, Description: "Buy an item from the shop", Options: []commandOption{
			{Name: "item", Description: "Item to buy", Type: optionTypeString, Required: true, Choices: choices},
		}},
		{Name: "submit_image", Type: 1, Description: "Submit an image for analysis", Options: []commandOption{
			{Name: "url", Description: "URL of the image to analyze", Type: optionTypeString, Required: true},
		}},
	}
}

func main() {
	_ = godotenv.Load()

	log := logging.New("register-commands")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.BotToken) == "" || strings.TrimSpace(cfg.ApplicationID) == "" {
		log.Error("BOT_TOKEN and APPLICATION_ID are required")
		os.Exit(1)
	}

	catalog := config.LoadCatalogOrDefault(cfg.CatalogPath)
	url := fmt.Sprintf("%s/applications/%s/commands", strings.TrimRight(cfg.DiscordAPIURL, "/"), cfg.ApplicationID)
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	ctx := context.Background()
	for _, cmd := range catalogCommands(catalog) {
		if err := register(ctx, client, url, cfg.BotToken, cmd); err != nil {
			log.WithError(err).WithField("command", cmd.Name).Error("registration failed")
			os.Exit(1)
		}
		log.WithField("command", cmd.Name).Info("registered")
	}
}

// register posts one command definition, retrying on rate limits using the
// Retry-After header.
func register(ctx context.Context, client *http.Client, url, botToken string, cmd command) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bot "+botToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("post command: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := 1
			if raw := resp.Header.Get("Retry-After"); raw != "" {
				if parsed, parseErr := strconv.Atoi(raw); parseErr == nil && parsed > 0 {
					retryAfter = parsed
				}
			}
			resp.Body.Close()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(retryAfter) * time.Second):
			}
			continue
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("registration failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return nil
	}
}
