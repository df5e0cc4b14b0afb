package helpdesk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
)

// SendText posts a text message into a conversation. outgoing selects
// message_type: "outgoing" when true, "incoming" otherwise. replyTo,
// when non-zero, is attached as content_attributes.in_reply_to. Text
// sends are not retried.
func (c *Client) SendText(ctx context.Context, conversationID int64, content string, outgoing bool, replyTo int64) (Message, error) {
	payload := map[string]any{
		"content":      content,
		"message_type": messageType(outgoing),
	}
	if replyTo != 0 {
		payload["content_attributes"] = map[string]any{"in_reply_to": replyTo}
	}
	var created Message
	url := c.accountPath(fmt.Sprintf("/conversations/%d/messages", conversationID))
	if err := c.doJSON(ctx, "POST", url, payload, &created); err != nil {
		return Message{}, err
	}
	return created, nil
}

// SendMedia resolves src's bytes (download hook, then URL, then inline
// base64) and uploads them as an attachment, retrying the whole send up
// to cfg.SendAttempts times with linear backoff. On final failure it
// degrades to a text message carrying caption plus a note that the
// attachment could not be delivered, rather than dropping the message.
func (c *Client) SendMedia(ctx context.Context, conversationID int64, caption string, src MediaSource, outgoing bool, replyTo int64) (Message, error) {
	data, err := c.resolveMediaBytes(ctx, src)
	if err != nil {
		c.log.Warn().Err(err).Str("origin", src.Origin).Msg("media bytes unavailable, degrading to text")
		return c.SendText(ctx, conversationID, degradedCaption(caption), outgoing, replyTo)
	}

	var created Message
	sendErr := c.throttle.Do(func() error {
		return retry(ctx, c.cfg.SendAttempts, c.cfg.SendBackoff, func() error {
			m, err := c.postMultipartMessage(ctx, conversationID, caption, src, data, outgoing, replyTo)
			if err != nil {
				return err
			}
			created = m
			return nil
		})
	})
	if sendErr != nil {
		c.log.Warn().Err(sendErr).Msg("media send failed after retries, degrading to text")
		return c.SendText(ctx, conversationID, degradedCaption(caption), outgoing, replyTo)
	}
	return created, nil
}

func degradedCaption(caption string) string {
	if caption == "" {
		return "[media could not be delivered]"
	}
	return caption + "\n[media could not be delivered]"
}

func (c *Client) resolveMediaBytes(ctx context.Context, src MediaSource) ([]byte, error) {
	if src.ProviderMsgID != "" && c.DownloadHook != nil {
		if data, _, err := c.DownloadHook(ctx, src.ProviderMsgID); err == nil {
			return data, nil
		}
	}
	if src.URL != "" {
		if data, err := downloadWithRetry(ctx, c.http, src.URL, 3, c.cfg.SendBackoff); err == nil {
			return data, nil
		}
	}
	if src.Base64 != "" {
		data, err := base64.StdEncoding.DecodeString(src.Base64)
		if err == nil {
			return data, nil
		}
	}
	return nil, ErrNoMediaBytes
}

func (c *Client) postMultipartMessage(ctx context.Context, conversationID int64, caption string, src MediaSource, data []byte, outgoing bool, replyTo int64) (Message, error) {
	extra := map[string]string{
		"content":      caption,
		"message_type": messageType(outgoing),
	}
	if replyTo != 0 {
		extra["content_attributes[in_reply_to]"] = fmt.Sprintf("%d", replyTo)
	}
	body, contentType, err := multipartFile("attachments[]", src.Filename, data, extra)
	if err != nil {
		return Message{}, err
	}
	url := c.accountPath(fmt.Sprintf("/conversations/%d/messages", conversationID))
	req, err := c.newRequest(ctx, "POST", url, body, contentType)
	if err != nil {
		return Message{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Message{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Message{}, err
	}
	if resp.StatusCode >= 300 {
		return Message{}, fmt.Errorf("helpdesk: media send: status %d: %s", resp.StatusCode, string(raw))
	}
	var created Message
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &created); err != nil {
			return Message{}, err
		}
	}
	return created, nil
}

// DeleteMessage marks a message deleted via content_attributes.deleted.
// Unlike media sends, deletes are never retried: a failed delete just leaves
// the message visible, which is the safer failure mode.
func (c *Client) DeleteMessage(ctx context.Context, conversationID, messageID int64) error {
	url := c.accountPath(fmt.Sprintf("/conversations/%d/messages/%d", conversationID, messageID))
	return c.doJSON(ctx, "DELETE", url, nil, nil)
}

func messageType(outgoing bool) string {
	if outgoing {
		return "outgoing"
	}
	return "incoming"
}

func multipartFile(field, filename string, data []byte, extra map[string]string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range extra {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if filename == "" {
		filename = "file"
	}
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
