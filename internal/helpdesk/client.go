package helpdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config is the per-tenant helpdesk configuration the registry builds
// from environment discovery.
type Config struct {
	BaseURL         string
	Token           string
	AccountID       string
	InboxName       string
	SidecarPath     string
	ReopenResolved  bool
	InitialStatus   string // "open" or "pending"; defaults to "open"
	MediaThrottle   time.Duration
	SendAttempts    int
	SendBackoff     time.Duration
}

// DownloadHook fetches raw media bytes for a provider message id. Only
// wired when the tenant's provider dialect requires a follow-up fetch
// (UAZAPI); nil otherwise.
type DownloadHook func(ctx context.Context, providerMsgID string) (data []byte, mime string, err error)

// Client is the per-tenant helpdesk REST client.
type Client struct {
	cfg        Config
	http       *http.Client
	log        zerolog.Logger
	DownloadHook DownloadHook

	throttle throttle

	mu      sync.Mutex
	inboxID int64
}

// New builds a Client for one tenant's helpdesk configuration.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.InitialStatus == "" {
		cfg.InitialStatus = "open"
	}
	if cfg.MediaThrottle <= 0 {
		cfg.MediaThrottle = time.Second
	}
	if cfg.SendAttempts <= 0 {
		cfg.SendAttempts = 3
	}
	if cfg.SendBackoff <= 0 {
		cfg.SendBackoff = 2 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log.With().Str("component", "helpdesk").Logger(),
		throttle: throttle{minSpacing: cfg.MediaThrottle},
	}
}

func (c *Client) accountPath(suffix string) string {
	return fmt.Sprintf("%s/api/v1/accounts/%s%s", c.cfg.BaseURL, c.cfg.AccountID, suffix)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api_access_token", c.cfg.Token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, url, body, "application/json")
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("helpdesk: %s %s: status %d: %s", method, url, resp.StatusCode, string(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// retry runs fn up to attempts times with a linear backoff of backoff*n
// between attempts.
func retry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var lastErr error
	for n := 1; n <= attempts; n++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if n == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(n)):
		}
	}
	return lastErr
}

// throttle serializes a per-client operation and enforces a minimum
// spacing between consecutive runs, so two media sends from the same
// tenant never overlap and never fire closer than minSpacing apart.
type throttle struct {
	mu         sync.Mutex
	last       time.Time
	minSpacing time.Duration
}

func (t *throttle) Do(fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.last.IsZero() {
		if elapsed := time.Since(t.last); elapsed < t.minSpacing {
			time.Sleep(t.minSpacing - elapsed)
		}
	}
	err := fn()
	t.last = time.Now()
	return err
}
