package helpdesk

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// EnsureInbox resolves the tenant's inbox id, preferring the sidecar
// file, then a name match against the existing inbox list, and finally
// creating a new "API" channel inbox named cfg.InboxName. The result is
// cached on the client and persisted back to the sidecar path.
func (c *Client) EnsureInbox(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.inboxID != 0 {
		id := c.inboxID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	if id, ok := c.loadSidecar(); ok {
		if inbox, err := c.getInbox(ctx, id); err == nil && strings.EqualFold(inbox.Name, c.cfg.InboxName) {
			c.adoptInbox(id)
			return id, nil
		}
		c.log.Warn().Int64("sidecar_inbox_id", id).Msg("sidecar inbox stale, re-discovering")
	}

	var list inboxListPayload
	if err := c.doJSON(ctx, "GET", c.accountPath("/inboxes"), nil, &list); err != nil {
		return 0, err
	}
	for _, inbox := range list.Payload {
		if strings.EqualFold(inbox.Name, c.cfg.InboxName) {
			c.adoptInbox(inbox.ID)
			c.saveSidecar(inbox.ID)
			return inbox.ID, nil
		}
	}

	created, err := c.createInbox(ctx)
	if err != nil {
		return 0, err
	}
	c.adoptInbox(created.ID)
	c.saveSidecar(created.ID)
	return created.ID, nil
}

func (c *Client) adoptInbox(id int64) {
	c.mu.Lock()
	c.inboxID = id
	c.mu.Unlock()
}

func (c *Client) getInbox(ctx context.Context, id int64) (Inbox, error) {
	var list inboxListPayload
	if err := c.doJSON(ctx, "GET", c.accountPath("/inboxes"), nil, &list); err != nil {
		return Inbox{}, err
	}
	for _, inbox := range list.Payload {
		if inbox.ID == id {
			return inbox, nil
		}
	}
	return Inbox{}, errNotFound("inbox", id)
}

func (c *Client) createInbox(ctx context.Context) (Inbox, error) {
	payload := map[string]any{
		"name":         c.cfg.InboxName,
		"channel": map[string]any{
			"type":       "api",
			"webhook_url": "",
		},
	}
	var created Inbox
	if err := c.doJSON(ctx, "POST", c.accountPath("/inboxes"), payload, &created); err != nil {
		return Inbox{}, err
	}
	return created, nil
}

func (c *Client) loadSidecar() (int64, bool) {
	if c.cfg.SidecarPath == "" {
		return 0, false
	}
	raw, err := os.ReadFile(c.cfg.SidecarPath)
	if err != nil {
		return 0, false
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil || sc.InboxID == 0 {
		return 0, false
	}
	return sc.InboxID, true
}

func (c *Client) saveSidecar(id int64) {
	if c.cfg.SidecarPath == "" {
		return
	}
	sc := sidecar{InboxID: id, InboxName: c.cfg.InboxName, SavedAt: time.Now()}
	raw, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(c.cfg.SidecarPath, raw, 0o644); err != nil {
		c.log.Warn().Err(err).Str("path", c.cfg.SidecarPath).Msg("could not persist inbox sidecar")
	}
}
