package reconcile

import (
	"context"

	"wootrico/internal/helpdesk"
	"wootrico/internal/normalize"
	"wootrico/internal/normalizer"
	"wootrico/internal/store"
	"wootrico/internal/tenant"
)

// resolveIdentifier normalizes identifier to E.164 when it looks like
// an individual phone number; a group identifier is returned as-is.
// This is the canonical recipient key shared by the credit ledger, the
// mapping cache and the helpdesk contact lookup, so it must be derived
// the same way on both the inbound and outbound paths.
func resolveIdentifier(identifier, defaultCountry string) string {
	if normalize.IsGroupIdentifier(identifier) {
		return identifier
	}
	if e164, err := normalize.ToE164(identifier, defaultCountry); err == nil {
		return e164
	}
	return identifier
}

// upsertContact resolves the already-normalized identifier against the
// helpdesk.
func (p *Processor) upsertContact(ctx context.Context, t *tenant.Tenant, resolved, name, avatarURL string) (helpdesk.Contact, error) {
	if name == "" {
		name = resolved
	}
	return t.Helpdesk.FindOrCreateContact(ctx, resolved, name, avatarURL)
}

func storeMapping(t *tenant.Tenant, event normalizer.NormalizedEvent, conversationID, inboxID int64) store.MessageMapping {
	return store.MessageMapping{
		ProviderMsgID:   event.ProviderMsgID,
		ConversationID:  conversationID,
		InboxID:         inboxID,
		ProviderDialect: string(event.Dialect),
		TenantID:        t.ID,
	}
}
