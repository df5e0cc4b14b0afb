package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps a queued payload with the metadata the processors and
// the audit trail need regardless of which subject carries it.
type Envelope struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId"`
	Subject   string          `json:"subject"`
	Time      time.Time       `json:"time"`
	Payload   json.RawMessage `json:"payload"`
}

// PublishJSON marshals payload into an Envelope, mints a fresh
// envelope id to use as the correlation id for the message's whole
// lifetime, and publishes it to subject.
func (c *Client) PublishJSON(ctx context.Context, subject, tenantID string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("queue: marshal payload: %w", err)
	}

	env := Envelope{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Subject:  subject,
		Time:     time.Now().UTC(),
		Payload:  raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("queue: marshal envelope: %w", err)
	}

	if _, err := c.js.Publish(subject, body); err != nil {
		return "", fmt.Errorf("queue: publish %s: %w", subject, err)
	}
	return env.ID, nil
}
