package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aerial/internal/config"
	"aerial/internal/logging"
)

const defaultFeedUserAgent = "AptvPlayer/1.4.1"

// Limit how much of a playlist body we are willing to buffer.
const maxFeedBytes = 32 << 20

// Fetcher downloads subscription playlists over HTTP.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher builds a fetcher with the configured request timeout.
func NewFetcher(cfg *config.Config, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		},
		logger: logging.NewComponentLogger(logger, "fetcher"),
	}
}

// Fetch retrieves every URL in the newline-separated list and concatenates
// the bodies. A subscription may mix M3U and TXT sources this way. URLs
// that fail are logged and skipped; Fetch errors only when nothing could
// be retrieved.
func (f *Fetcher) Fetch(ctx context.Context, urlList, userAgent, headersJSON string) (string, error) {
	urls := splitURLList(urlList)
	if len(urls) == 0 {
		return "", errors.New("subscription has no feed URL")
	}

	headers, err := decodeHeaders(headersJSON)
	if err != nil {
		return "", fmt.Errorf("parse subscription headers: %w", err)
	}
	if userAgent == "" {
		userAgent = defaultFeedUserAgent
	}

	var bodies []string
	var lastErr error
	for _, url := range urls {
		body, err := f.fetchOne(ctx, url, userAgent, headers)
		if err != nil {
			lastErr = err
			f.logger.Warn("feed fetch failed",
				logging.String("url", url),
				logging.Error(err))
			continue
		}
		bodies = append(bodies, body)
	}
	if len(bodies) == 0 {
		return "", fmt.Errorf("fetch feed: %w", lastErr)
	}
	return strings.Join(bodies, "\n"), nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url, userAgent string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func splitURLList(urlList string) []string {
	var urls []string
	for _, line := range strings.Split(urlList, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

func decodeHeaders(headersJSON string) (map[string]string, error) {
	headersJSON = strings.TrimSpace(headersJSON)
	if headersJSON == "" || headersJSON == "{}" {
		return nil, nil
	}
	headers := map[string]string{}
	if err := json.Unmarshal([]byte(headersJSON), &headers); err != nil {
		return nil, err
	}
	return headers, nil
}
