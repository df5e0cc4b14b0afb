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

// WuzapiConfig holds one tenant's Wuzapi instance coordinates: a base
// URL and a Token header, the same pattern a self-hosted wuzapi server
// expects.
type WuzapiConfig struct {
	BaseURL string
	Token   string // "Token" header
}

type wuzapiClient struct {
	cfg  WuzapiConfig
	http *http.Client
	log  zerolog.Logger
}

// NewWuzapi builds a Wuzapi Client.
func NewWuzapi(cfg WuzapiConfig, log zerolog.Logger) Client {
	return &wuzapiClient{cfg: cfg, http: &http.Client{Timeout: 30 * time.Second}, log: log.With().Str("dialect", "wuzapi").Logger()}
}

func (c *wuzapiClient) Dialect() Dialect { return DialectWuzapi }

func (c *wuzapiClient) do(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", c.cfg.Token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("wuzapi: %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *wuzapiClient) SendText(ctx context.Context, to, text, replyProviderMsgID string) (string, error) {
	payload := map[string]any{"Phone": to, "Body": text}
	if replyProviderMsgID != "" {
		payload["Id"] = replyProviderMsgID
	}
	var resp struct {
		Data struct {
			ID string `json:"Id"`
		} `json:"data"`
	}
	if err := c.do(ctx, "/chat/send/text", payload, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

func (c *wuzapiClient) SendMedia(ctx context.Context, to string, att Attachment, replyProviderMsgID string) (string, error) {
	path, field := wuzapiMediaPath(att.Kind)
	payload := map[string]any{"Phone": to, field: att.URL}
	if att.URL == "" && att.Base64 != "" {
		payload[field] = att.Base64
	}
	if att.Caption != "" {
		payload["Caption"] = att.Caption
	}
	if replyProviderMsgID != "" {
		payload["Id"] = replyProviderMsgID
	}
	var resp struct {
		Data struct {
			ID string `json:"Id"`
		} `json:"data"`
	}
	if err := c.do(ctx, path, payload, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

func wuzapiMediaPath(kind string) (path, field string) {
	switch kind {
	case "image":
		return "/chat/send/image", "Image"
	case "video":
		return "/chat/send/video", "Video"
	case "audio":
		return "/chat/send/audio", "Audio"
	case "sticker":
		return "/chat/send/sticker", "Sticker"
	default:
		return "/chat/send/document", "Document"
	}
}

func (c *wuzapiClient) Delete(ctx context.Context, to, providerMsgID string, fromMe bool) error {
	return c.do(ctx, "/chat/delete", map[string]any{"Phone": to, "Id": providerMsgID}, nil)
}

func (c *wuzapiClient) Download(ctx context.Context, providerMsgID string) ([]byte, string, error) {
	return nil, "", ErrUnsupported
}
