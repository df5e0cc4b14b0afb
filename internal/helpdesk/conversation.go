package helpdesk

import (
	"context"
	"fmt"
)

const maxReopenScanPages = 50

// FindOrCreateConversation resolves the conversation for a contact in
// an inbox. When cfg.ReopenResolved is set, a resolved conversation for
// the same contact is reopened (via toggle_status) instead of creating
// a new one, so a returning customer lands back in their old thread.
func (c *Client) FindOrCreateConversation(ctx context.Context, contactID, inboxID int64) (Conversation, error) {
	if c.cfg.ReopenResolved {
		if conv, ok, err := c.findConversationByStatus(ctx, inboxID, contactID, "resolved"); err != nil {
			return Conversation{}, err
		} else if ok {
			if err := c.reopenConversation(ctx, conv.ID); err != nil {
				return Conversation{}, err
			}
			conv.Status = "open"
			return conv, nil
		}
	}

	if conv, ok, err := c.findConversationByStatus(ctx, inboxID, contactID, "open"); err != nil {
		return Conversation{}, err
	} else if ok {
		return conv, nil
	}
	if conv, ok, err := c.findConversationByStatus(ctx, inboxID, contactID, "pending"); err != nil {
		return Conversation{}, err
	} else if ok {
		return conv, nil
	}

	return c.createConversation(ctx, contactID, inboxID)
}

func (c *Client) findConversationByStatus(ctx context.Context, inboxID, contactID int64, status string) (Conversation, bool, error) {
	for page := 1; page <= maxReopenScanPages; page++ {
		url := fmt.Sprintf("%s&sort_order=latest_first&page=%d",
			c.accountPath(fmt.Sprintf("/conversations?inbox_id=%d&status=%s", inboxID, status)), page)
		var list conversationListPayload
		if err := c.doJSON(ctx, "GET", url, nil, &list); err != nil {
			return Conversation{}, false, err
		}
		if len(list.Payload) == 0 {
			return Conversation{}, false, nil
		}
		for _, conv := range list.Payload {
			if conv.Meta.Sender.ID == contactID {
				return conv, true, nil
			}
		}
	}
	return Conversation{}, false, nil
}

func (c *Client) reopenConversation(ctx context.Context, conversationID int64) error {
	// Re-check the conversation's current status first: another pull
	// consumer may have already reopened or replied to it, and toggling
	// an already-open conversation back to resolved would be wrong.
	var current Conversation
	url := c.accountPath(fmt.Sprintf("/conversations/%d", conversationID))
	if err := c.doJSON(ctx, "GET", url, nil, &current); err != nil {
		return err
	}
	if current.Status != "resolved" {
		return nil
	}
	return c.doJSON(ctx, "POST", url+"/toggle_status", map[string]any{"status": "open"}, nil)
}

func (c *Client) createConversation(ctx context.Context, contactID, inboxID int64) (Conversation, error) {
	payload := map[string]any{
		"source_id":  fmt.Sprintf("contact-%d", contactID),
		"contact_id": contactID,
		"inbox_id":   inboxID,
		"status":     c.cfg.InitialStatus,
	}
	var created Conversation
	if err := c.doJSON(ctx, "POST", c.accountPath("/conversations"), payload, &created); err != nil {
		return Conversation{}, err
	}
	return created, nil
}
