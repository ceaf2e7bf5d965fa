package vision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/greenloop/ecobot/internal/logging"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const maxImageBytes = 10 << 20

// ErrNotImage reports a download whose content type is not an image. It is
// a user-facing rejection, not a transport failure, so it does not trigger
// the fallback fetch.
var ErrNotImage = errors.New("content is not an image")

// Downloader fetches image bytes with a two-transport policy: the primary
// request carries a browser user agent and gates on content type; any
// transport failure retries once with a plain request.
type Downloader struct {
	client *http.Client
	log    *logging.Logger
}

// NewDownloader creates a downloader sharing the given client.
func NewDownloader(client *http.Client, log *logging.Logger) *Downloader {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = logging.New("vision")
	}
	return &Downloader{client: client, log: log}
}

// Fetch downloads the image at url.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	data, err := d.fetchPrimary(ctx, url)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, ErrNotImage) {
		return nil, err
	}

	d.log.WithContext(ctx).WithError(err).Warn("primary image fetch failed, retrying with plain transport")
	data, fallbackErr := d.fetchFallback(ctx, url)
	if fallbackErr != nil {
		d.log.WithContext(ctx).WithError(fallbackErr).Error("fallback image fetch failed")
		return nil, fallbackErr
	}
	return data, nil
}

func (d *Downloader) fetchPrimary(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "image") {
		return nil, fmt.Errorf("%w: content type %q", ErrNotImage, contentType)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func (d *Downloader) fetchFallback(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}
