// Package vision awards tokens for recycling photos: it downloads the
// submitted image, asks a chat-completion API to describe the waste in it,
// and scores the description against the category table.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/greenloop/ecobot/internal/logging"
)

const taxonomyPrompt = "Determine the waste in this image and provide the respective tokens to the user:\n\n" +
	"Plastic Waste (1 token):\n" +
	"Plastic bottles\n" +
	"Plastic bags\n" +
	"Food packaging\n" +
	"Straws\n\n" +
	"Paper Waste (1 token):\n" +
	"Newspapers\n" +
	"Magazines\n" +
	"Office paper\n" +
	"Cardboard\n\n" +
	"Glass Waste (2 tokens):\n" +
	"Glass bottles\n" +
	"Jars\n" +
	"Broken glass\n\n" +
	"Metal Waste (3 tokens):\n" +
	"Aluminum cans\n" +
	"Tin cans\n" +
	"Scrap metal\n\n" +
	"Organic Waste (1 token):\n" +
	"Food scraps\n" +
	"Fruit and vegetable peels\n" +
	"Coffee grounds\n" +
	"Yard clippings\n\n" +
	"Textile Waste (2 tokens):\n" +
	"Old clothes\n" +
	"Fabric scraps\n" +
	"Shoes\n\n" +
	"Electronic Waste (E-Waste) (4 tokens):\n" +
	"Old phones\n" +
	"Computers\n" +
	"Batteries\n" +
	"Chargers\n\n" +
	"Wood Waste (2 tokens):\n" +
	"Furniture\n" +
	"Wooden pallets\n" +
	"Tree branches\n\n" +
	"Rubber Waste (3 tokens):\n" +
	"Old tires\n" +
	"Rubber bands\n" +
	"Rubber mats\n\n" +
	"Ceramic Waste (2 tokens):\n" +
	"Broken dishes\n" +
	"Tiles\n" +
	"Pottery\n\n" +
	"Composite Waste (2 tokens):\n" +
	"Tetra packs (juice boxes)\n" +
	"Mixed-material packaging\n\n" +
	"Hazardous Household Waste (5 tokens):\n" +
	"Paints and solvents\n" +
	"Pesticides\n" +
	"Cleaning agents\n" +
	"Fluorescent bulbs\n\n" +
	"Medical Waste (4 tokens):\n" +
	"Used bandages\n" +
	"Syringes\n" +
	"Expired medications\n\n" +
	"Miscellaneous Waste (1 token):\n" +
	"Disposable diapers\n" +
	"Cigarette butts\n" +
	"Styrofoam product"

// Classifier submits images to a chat-completion endpoint and returns the
// model's free-text description.
type Classifier struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	maxTokens  int
	log        *logging.Logger
}

// ClassifierConfig configures the classification API call.
type ClassifierConfig struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
}

// NewClassifier creates a classifier sharing the given client.
func NewClassifier(client *http.Client, cfg ClassifierConfig, log *logging.Logger) *Classifier {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 300
	}
	if log == nil {
		log = logging.New("vision")
	}
	return &Classifier{
		httpClient: client,
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		log:        log,
	}
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// Describe submits the image with the fixed taxonomy prompt and returns
// the model's description.
func (c *Classifier) Describe(ctx context.Context, image []byte) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "text", Text: taxonomyPrompt},
				{Type: "image_url", ImageURL: &chatImageURL{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		MaxTokens: c.maxTokens,
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal classification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create classification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("classification call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read classification response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("classification call failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	description := gjson.GetBytes(body, "choices.0.message.content").String()
	if description == "" {
		return "", fmt.Errorf("classification response carries no content")
	}
	return description, nil
}
