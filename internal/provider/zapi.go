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

	"wootrico/internal/normalize"
)

// ZAPIConfig holds one tenant's Z-API instance coordinates.
type ZAPIConfig struct {
	BaseURL     string // e.g. https://api.z-api.io
	InstanceID  string
	Token       string
	ClientToken string // Client-Token header, instance-account-wide secret
}

// zapiClient implements Client for the Z-API dialect.
type zapiClient struct {
	cfg  ZAPIConfig
	http *http.Client
	log  zerolog.Logger
}

// NewZAPI builds a Z-API Client.
func NewZAPI(cfg ZAPIConfig, log zerolog.Logger) Client {
	return &zapiClient{cfg: cfg, http: &http.Client{Timeout: 30 * time.Second}, log: log.With().Str("dialect", "zapi").Logger()}
}

func (c *zapiClient) Dialect() Dialect { return DialectZAPI }

func (c *zapiClient) recipient(to string) string {
	if normalize.IsGroupIdentifier(to) {
		return to
	}
	return digitsOnly(to)
}

func (c *zapiClient) url(action string) string {
	return fmt.Sprintf("%s/instances/%s/token/%s/%s", c.cfg.BaseURL, c.cfg.InstanceID, c.cfg.Token, action)
}

func (c *zapiClient) do(ctx context.Context, action string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.url(action), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Token", c.cfg.ClientToken)
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
		return fmt.Errorf("zapi: %s: status %d: %s", action, resp.StatusCode, string(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *zapiClient) SendText(ctx context.Context, to, text, replyProviderMsgID string) (string, error) {
	payload := map[string]any{"phone": c.recipient(to), "message": text}
	if replyProviderMsgID != "" {
		payload["messageId"] = replyProviderMsgID
	}
	var resp struct {
		MessageID string `json:"messageId" `
		ZaapID    string `json:"zaapId"`
	}
	if err := c.do(ctx, "send-text", payload, &resp); err != nil {
		return "", err
	}
	if resp.MessageID != "" {
		return resp.MessageID, nil
	}
	return resp.ZaapID, nil
}

func (c *zapiClient) SendMedia(ctx context.Context, to string, att Attachment, replyProviderMsgID string) (string, error) {
	action, field := zapiMediaAction(att.Kind)
	payload := map[string]any{"phone": c.recipient(to), field: att.URL}
	if att.URL == "" && att.Base64 != "" {
		payload[field] = att.Base64
	}
	if att.Caption != "" {
		payload["caption"] = att.Caption
	}
	if replyProviderMsgID != "" {
		payload["messageId"] = replyProviderMsgID
	}
	var resp struct {
		MessageID string `json:"messageId"`
	}
	if err := c.do(ctx, action, payload, &resp); err != nil {
		return "", err
	}
	return resp.MessageID, nil
}

func zapiMediaAction(kind string) (action, field string) {
	switch kind {
	case "image":
		return "send-image", "image"
	case "video":
		return "send-video", "video"
	case "audio":
		return "send-audio", "audio"
	case "sticker":
		return "send-sticker", "sticker"
	default:
		return "send-document", "document"
	}
}

func (c *zapiClient) Delete(ctx context.Context, to, providerMsgID string, fromMe bool) error {
	payload := map[string]any{"phone": c.recipient(to), "messageId": providerMsgID}
	return c.do(ctx, "messages", payload, nil)
}

func (c *zapiClient) Download(ctx context.Context, providerMsgID string) ([]byte, string, error) {
	return nil, "", ErrUnsupported
}
