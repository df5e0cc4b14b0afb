package helpdesk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"wootrico/internal/normalize"
)

// FindOrCreateContact resolves the helpdesk contact for identifier,
// the recipient key the caller has already resolved. When identifier is a strict E.164 number, the match (and the
// create payload) also carries phone_number; group identifiers and
// anything else match purely on identifier.
func (c *Client) FindOrCreateContact(ctx context.Context, identifier, name, avatarURL string) (Contact, error) {
	var search searchPayload
	if err := c.doJSON(ctx, "GET", c.accountPath("/contacts/search?q="+identifier), nil, &search); err != nil {
		return Contact{}, err
	}

	isPhone := normalize.IsStrictE164(identifier)
	for _, found := range search.Payload {
		if isPhone && found.PhoneNumber == identifier {
			return found, nil
		}
		if !isPhone && found.Identifier == identifier {
			return found, nil
		}
	}

	payload := map[string]any{
		"name":       name,
		"identifier": identifier,
	}
	if isPhone {
		payload["phone_number"] = identifier
	}

	created, avatarErr := c.createContactWithAvatar(ctx, payload, avatarURL)
	if avatarErr != nil {
		if created.ID == 0 {
			return Contact{}, avatarErr
		}
		c.log.Warn().Err(avatarErr).Str("identifier", identifier).Msg("avatar attach failed, contact created without one")
	}
	return created, nil
}

func (c *Client) createContactWithAvatar(ctx context.Context, payload map[string]any, avatarURL string) (Contact, error) {
	var created Contact
	if err := c.doJSON(ctx, "POST", c.accountPath("/contacts"), payload, &created); err != nil {
		return Contact{}, err
	}
	if avatarURL == "" || created.ID == 0 {
		return created, nil
	}

	data, err := downloadWithRetry(ctx, c.http, avatarURL, 3, time.Second)
	if err != nil {
		return created, err
	}
	if err := c.uploadAvatar(ctx, created.ID, data); err != nil {
		return created, err
	}
	return created, nil
}

func (c *Client) uploadAvatar(ctx context.Context, contactID int64, data []byte) error {
	body, contentType, err := multipartFile("avatar", "avatar.jpg", data, nil)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/v1/accounts/%s/contacts/%d", c.cfg.BaseURL, c.cfg.AccountID, contactID)
	req, err := c.newRequest(ctx, "PATCH", url, body, contentType)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("helpdesk: avatar upload: status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

func downloadWithRetry(ctx context.Context, httpClient *http.Client, url string, attempts int, backoff time.Duration) ([]byte, error) {
	var data []byte
	err := retry(ctx, attempts, backoff, func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("download: status %d", resp.StatusCode)
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		data = raw
		return nil
	})
	return data, err
}
