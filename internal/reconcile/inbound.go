package reconcile

import (
	"context"
	"fmt"

	"wootrico/internal/helpdesk"
	"wootrico/internal/normalizer"
	"wootrico/internal/queue"
	"wootrico/internal/tenant"
)

// editedMessageMarker is appended on its own line when a provider event
// carries a new revision of a message already mirrored into helpdesk.
const editedMessageMarker = "(*mensagem editada pelo usuário*)"

// HandlePrincipal processes one envelope pulled from the
// webhook.principal subject: a raw provider payload, already
// attributed to a tenant by the HTTP handler that published it.
func (p *Processor) HandlePrincipal(ctx context.Context, env queue.Envelope) error {
	t, ok := p.registry.Lookup(env.TenantID)
	if !ok {
		p.recordDrop(ctx, env.ID, env.TenantID, "inbound", "", "", "unknown_tenant")
		return nil
	}

	event, err := normalizer.Normalize(env.Payload)
	if err != nil {
		p.recordDrop(ctx, env.ID, env.TenantID, "inbound", "", "", "normalize_failed")
		return fmt.Errorf("reconcile: normalize: %w", err)
	}

	switch event.Kind {
	case normalizer.KindSpecial:
		p.recordDrop(ctx, env.ID, env.TenantID, "inbound", string(event.Dialect), string(event.Kind), "special_event")
		return nil
	case normalizer.KindDeleted:
		return p.handleInboundDelete(ctx, env, t, event)
	}

	if event.IsGroup && t.IgnoreGroups {
		p.recordDrop(ctx, env.ID, env.TenantID, "inbound", string(event.Dialect), string(event.Kind), "ignored_group")
		return nil
	}

	creditKind := creditKindFor(event.Kind)
	recipient := resolveIdentifier(event.Identifier(), t.DefaultCountry)

	if event.FromMe && !event.IsGroup {
		if p.credits.ConsumeProviderCredit(recipient, creditKind) {
			// this is the provider's echo of a send the outbound
			// processor already mirrored into helpdesk; drop the
			// duplicate.
			p.recordDrop(ctx, env.ID, env.TenantID, "inbound", string(event.Dialect), string(event.Kind), "echo_suppressed")
			return nil
		}
		if event.FromApi {
			// an API-originated confirmation with no matching credit:
			// not a phone-side self-send, so there is nothing to
			// mirror into helpdesk for it.
			p.recordDrop(ctx, env.ID, env.TenantID, "inbound", string(event.Dialect), string(event.Kind), "api_echo_uncredited")
			return nil
		}
	}

	outgoing := event.FromMe && !event.IsGroup

	contact, err := p.upsertContact(ctx, t, recipient, event.SenderName, event.SenderAvatarURL)
	if err != nil {
		return fmt.Errorf("reconcile: upsert contact: %w", err)
	}

	inboxID, err := t.Helpdesk.EnsureInbox(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: ensure inbox: %w", err)
	}

	conv, err := t.Helpdesk.FindOrCreateConversation(ctx, contact.ID, inboxID)
	if err != nil {
		return fmt.Errorf("reconcile: find or create conversation: %w", err)
	}

	var replyTo int64
	if event.ReplyToMsgID != "" {
		if hid, _, ok := p.mappings.GetHelpdeskMessageID(event.ReplyToMsgID); ok {
			replyTo = hid
		}
	}

	text := event.Text
	if event.EditOf != "" {
		if hid, _, ok := p.mappings.GetHelpdeskMessageID(event.EditOf); ok {
			replyTo = hid
			if text != "" {
				text = text + "\n" + editedMessageMarker
			} else {
				text = editedMessageMarker
			}
		}
	}

	if event.IsGroup && !event.FromMe && event.SenderName != "" {
		text = "**" + event.SenderName + ":**\n" + text
	}

	msg, err := p.sendToHelpdesk(ctx, t, conv.ID, text, event, outgoing, replyTo)
	if err != nil {
		return fmt.Errorf("reconcile: send to helpdesk: %w", err)
	}

	if outgoing {
		// this mirrors a self-send the owner made from their own
		// phone; credit it so the resulting message_created callback
		// (if Chatwoot still fires one for it) is recognized as our
		// own mirror rather than forwarded back out.
		p.credits.AddHelpdeskCredit(recipient, creditKind)
	}

	p.mappings.Store(msg.ID, storeMapping(t, event, conv.ID, inboxID))
	p.recordProcessed(ctx, env.ID, env.TenantID, "inbound", string(event.Dialect), string(event.Kind))
	return nil
}

func (p *Processor) sendToHelpdesk(ctx context.Context, t *tenant.Tenant, conversationID int64, text string, event normalizer.NormalizedEvent, outgoing bool, replyTo int64) (helpdesk.Message, error) {
	if event.Attachment == nil {
		return t.Helpdesk.SendText(ctx, conversationID, text, outgoing, replyTo)
	}
	src := helpdesk.MediaSource{
		Origin:        string(event.Dialect),
		ProviderMsgID: event.Attachment.ProviderMsgID,
		URL:           event.Attachment.URL,
		Base64:        event.Attachment.Base64,
		Filename:      event.Attachment.Filename,
		MimeType:      event.Attachment.MimeType,
	}
	return t.Helpdesk.SendMedia(ctx, conversationID, text, src, outgoing, replyTo)
}

func (p *Processor) handleInboundDelete(ctx context.Context, env queue.Envelope, t *tenant.Tenant, event normalizer.NormalizedEvent) error {
	hid, mapping, ok := p.mappings.GetHelpdeskMessageID(event.DeletedMsgID)
	if !ok {
		p.recordDrop(ctx, env.ID, env.TenantID, "inbound", string(event.Dialect), string(event.Kind), "delete_no_mapping")
		return nil
	}
	if err := t.Helpdesk.DeleteMessage(ctx, mapping.ConversationID, hid); err != nil {
		return fmt.Errorf("reconcile: delete helpdesk message: %w", err)
	}
	p.mappings.Remove(hid)
	p.recordProcessed(ctx, env.ID, env.TenantID, "inbound", string(event.Dialect), string(event.Kind))
	return nil
}

func creditKindFor(k normalizer.Kind) string {
	switch k {
	case normalizer.KindText:
		return "text"
	default:
		return "media"
	}
}
