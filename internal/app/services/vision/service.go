package vision

import (
	"context"
	"net/http"
	"time"

	"github.com/greenloop/ecobot/internal/logging"
)

// Service glues download, classification and scoring into one analysis
// operation.
type Service struct {
	downloader *Downloader
	classifier *Classifier
	log        *logging.Logger
}

// Config configures the analysis pipeline.
type Config struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// NewService creates the analysis service with its own HTTP client.
func NewService(cfg Config, log *logging.Logger) *Service {
	if log == nil {
		log = logging.New("vision")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	return &Service{
		downloader: NewDownloader(client, log),
		classifier: NewClassifier(client, ClassifierConfig{
			Endpoint:  cfg.Endpoint,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}, log),
		log: log,
	}
}

// Analyze downloads the image at url, classifies it, and returns the
// model's description plus the token award derived from it.
func (s *Service) Analyze(ctx context.Context, url string) (string, int64, error) {
	image, err := s.downloader.Fetch(ctx, url)
	if err != nil {
		return "", 0, err
	}

	description, err := s.classifier.Describe(ctx, image)
	if err != nil {
		return "", 0, err
	}

	return description, ScoreDescription(description), nil
}
