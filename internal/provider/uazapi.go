package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// UAZAPIConfig holds one tenant's UAZAPI instance coordinates.
type UAZAPIConfig struct {
	BaseURL string
	Token   string // "token" header, per-instance secret
	// Number is the tenant's own connected WhatsApp number, used as the
	// provider identifier for registry lookups. Distinct from the "number"
	// payload field in SendText/SendMedia/Delete, which names the message
	// recipient, not the instance itself.
	Number string
}

type uazapiClient struct {
	cfg  UAZAPIConfig
	http *http.Client
	log  zerolog.Logger
}

// NewUAZAPI builds a UAZAPI Client.
func NewUAZAPI(cfg UAZAPIConfig, log zerolog.Logger) Client {
	return &uazapiClient{cfg: cfg, http: &http.Client{Timeout: 30 * time.Second}, log: log.With().Str("dialect", "uazapi").Logger()}
}

func (c *uazapiClient) Dialect() Dialect { return DialectUAZAPI }

func (c *uazapiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", c.cfg.Token)
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
		return fmt.Errorf("uazapi: %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *uazapiClient) SendText(ctx context.Context, to, text, replyProviderMsgID string) (string, error) {
	payload := map[string]any{"number": to, "text": text}
	if replyProviderMsgID != "" {
		payload["replyid"] = replyProviderMsgID
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "POST", "/send/text", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *uazapiClient) SendMedia(ctx context.Context, to string, att Attachment, replyProviderMsgID string) (string, error) {
	payload := map[string]any{
		"number": to,
		"type":   att.Kind,
	}
	if att.URL != "" {
		payload["file"] = att.URL
	} else {
		payload["file"] = att.Base64
	}
	if att.Caption != "" {
		payload["text"] = att.Caption
	}
	if replyProviderMsgID != "" {
		payload["replyid"] = replyProviderMsgID
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "POST", "/send/media", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *uazapiClient) Delete(ctx context.Context, to, providerMsgID string, fromMe bool) error {
	payload := map[string]any{"number": to, "id": providerMsgID, "fromMe": fromMe}
	return c.do(ctx, "POST", "/message/delete", payload, nil)
}

const (
	downloadAttempts = 5
	downloadSpacing  = 2 * time.Second
)

// Download is UAZAPI-specific: the webhook payload carries only a
// message id, and the actual bytes must be fetched from a side
// endpoint that can briefly 404 while the media is still transcoding.
func (c *uazapiClient) Download(ctx context.Context, providerMsgID string) ([]byte, string, error) {
	var data []byte
	var mime string
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		var resp struct {
			Base64   string `json:"base64"`
			MimeType string `json:"mimetype"`
		}
		err := c.do(ctx, "POST", "/message/download", map[string]any{"id": providerMsgID}, &resp)
		if err == nil && resp.Base64 != "" {
			decoded, decodeErr := decodeBase64Loose(resp.Base64)
			if decodeErr == nil {
				data = decoded
				mime = resp.MimeType
				break
			}
			err = decodeErr
		}
		if attempt == downloadAttempts {
			return nil, "", fmt.Errorf("uazapi: download %s: exhausted %d attempts: %w", providerMsgID, downloadAttempts, err)
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(downloadSpacing):
		}
	}
	return data, mime, nil
}
