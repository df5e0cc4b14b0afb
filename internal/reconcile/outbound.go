package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wootrico/internal/provider"
	"wootrico/internal/queue"
	"wootrico/internal/store"
	"wootrico/internal/tenant"
)

// helpdeskCallback mirrors the subset of Chatwoot's message_created
// webhook the outbound path needs.
type helpdeskCallback struct {
	Event             string `json:"event"`
	ID                int64  `json:"id"`
	Content           string `json:"content"`
	MessageType       string `json:"message_type"`
	Private           bool   `json:"private"`
	ContentAttributes struct {
		Deleted   bool  `json:"deleted"`
		InReplyTo int64 `json:"in_reply_to"`
	} `json:"content_attributes"`
	Conversation struct {
		ID   int64 `json:"id"`
		Meta struct {
			Sender struct {
				ID          int64  `json:"id"`
				Identifier  string `json:"identifier"`
				PhoneNumber string `json:"phone_number"`
				Name        string `json:"name"`
			} `json:"sender"`
			Assignee struct {
				Name          string `json:"name"`
				AvailableName string `json:"available_name"`
			} `json:"assignee"`
		} `json:"meta"`
	} `json:"conversation"`
	Sender struct {
		Name          string `json:"name"`
		AvailableName string `json:"available_name"`
	} `json:"sender"`
	Attachments []callbackAttachment `json:"attachments"`
}

type callbackAttachment struct {
	FileType string `json:"file_type"`
	DataURL  string `json:"data_url"`
}

func (cb helpdeskCallback) recipientSeed() string {
	if cb.Conversation.Meta.Sender.Identifier != "" {
		return cb.Conversation.Meta.Sender.Identifier
	}
	return cb.Conversation.Meta.Sender.PhoneNumber
}

// agentName picks the name to sign outbound messages with, preferring
// the conversation's assigned agent over whoever authored this
// particular callback.
func (cb helpdeskCallback) agentName() string {
	return firstNonEmpty(
		cb.Conversation.Meta.Assignee.AvailableName,
		cb.Conversation.Meta.Assignee.Name,
		cb.Sender.Name,
		cb.Sender.AvailableName,
		cb.Conversation.Meta.Sender.Name,
	)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// HandleCallback processes one envelope pulled from the
// webhook.callback subject: a Chatwoot webhook payload, attributed to
// a tenant by the HTTP handler that published it.
func (p *Processor) HandleCallback(ctx context.Context, env queue.Envelope) error {
	t, ok := p.registry.Lookup(env.TenantID)
	if !ok {
		p.recordDrop(ctx, env.ID, env.TenantID, "outbound", "", "", "unknown_tenant")
		return nil
	}

	var cb helpdeskCallback
	if err := json.Unmarshal(env.Payload, &cb); err != nil {
		p.recordDrop(ctx, env.ID, env.TenantID, "outbound", string(t.ProviderDialect), "", "decode_failed")
		return fmt.Errorf("reconcile: decode callback: %w", err)
	}

	if cb.Event != "message_created" {
		p.recordDrop(ctx, env.ID, env.TenantID, "outbound", string(t.ProviderDialect), "", "ignored_event")
		return nil
	}

	if cb.ContentAttributes.Deleted {
		return p.handleOutboundDelete(ctx, env, t, cb)
	}

	if cb.MessageType != "outgoing" {
		p.recordDrop(ctx, env.ID, env.TenantID, "outbound", string(t.ProviderDialect), "", "not_outgoing")
		return nil
	}
	if cb.Private {
		p.recordDrop(ctx, env.ID, env.TenantID, "outbound", string(t.ProviderDialect), "", "private_note")
		return nil
	}

	recipient := resolveIdentifier(cb.recipientSeed(), t.DefaultCountry)
	creditKind := "text"
	if len(cb.Attachments) > 0 {
		creditKind = "media"
	}

	if p.credits.PeekHelpdeskCredit(recipient, creditKind) {
		p.credits.ConsumeHelpdeskCredit(recipient, creditKind)
		p.recordDrop(ctx, env.ID, env.TenantID, "outbound", string(t.ProviderDialect), "", "own_mirror")
		return nil
	}

	var replyTo string
	if cb.ContentAttributes.InReplyTo != 0 {
		if mapping, ok := p.mappings.GetProviderMessageID(cb.ContentAttributes.InReplyTo); ok {
			replyTo = mapping.ProviderMsgID
		}
	}

	text := t.AgentSignature(cb.agentName(), cb.Content) + cb.Content

	p.credits.AddProviderCredit(recipient, creditKind)
	providerMsgID, err := p.sendToProvider(ctx, t, recipient, text, cb.Attachments, replyTo)
	if err != nil {
		p.credits.ReleaseProviderCredit(recipient, creditKind)
		return fmt.Errorf("reconcile: send to provider: %w", err)
	}

	p.mappings.Store(cb.ID, store.MessageMapping{
		ProviderMsgID:   providerMsgID,
		ConversationID:  cb.Conversation.ID,
		ProviderDialect: string(t.ProviderDialect),
		TenantID:        t.ID,
	})
	p.recordProcessed(ctx, env.ID, env.TenantID, "outbound", string(t.ProviderDialect), creditKind)
	return nil
}

func (p *Processor) sendToProvider(ctx context.Context, t *tenant.Tenant, recipient, text string, attachments []callbackAttachment, replyTo string) (string, error) {
	if len(attachments) == 0 {
		return t.Provider.SendText(ctx, recipient, text, replyTo)
	}

	var firstID string
	for i, att := range attachments {
		caption := ""
		if i == 0 {
			caption = text
		}
		id, err := t.Provider.SendMedia(ctx, recipient, provider.Attachment{
			Kind:    providerKindFor(att.FileType),
			URL:     att.DataURL,
			Caption: caption,
		}, replyTo)
		if err != nil {
			return "", err
		}
		if i == 0 {
			firstID = id
		}
		if i < len(attachments)-1 {
			time.Sleep(provider.AttachmentGap)
		}
	}
	return firstID, nil
}

func (p *Processor) handleOutboundDelete(ctx context.Context, env queue.Envelope, t *tenant.Tenant, cb helpdeskCallback) error {
	mapping, ok := p.mappings.GetProviderMessageID(cb.ID)
	if !ok {
		p.recordDrop(ctx, env.ID, env.TenantID, "outbound", string(t.ProviderDialect), "", "delete_no_mapping")
		return nil
	}
	recipient := resolveIdentifier(cb.recipientSeed(), t.DefaultCountry)
	if err := t.Provider.Delete(ctx, recipient, mapping.ProviderMsgID, true); err != nil {
		return fmt.Errorf("reconcile: delete on provider: %w", err)
	}
	p.mappings.Remove(cb.ID)
	p.recordProcessed(ctx, env.ID, env.TenantID, "outbound", string(t.ProviderDialect), "deleted")
	return nil
}

func providerKindFor(fileType string) string {
	switch fileType {
	case "image", "video", "audio", "sticker":
		return fileType
	default:
		return "document"
	}
}
