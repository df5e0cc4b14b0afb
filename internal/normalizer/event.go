// Package normalizer turns the three provider wire formats (Z-API,
// UAZAPI, Wuzapi) into one canonical NormalizedEvent. Helpdesk webhook
// callbacks are not handled here; the reconcile package decodes them.
package normalizer

import (
	"wootrico/internal/provider"
)

// Kind names the canonical content shapes a provider event can carry.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindDocument Kind = "document"
	KindSticker Kind = "sticker"
	KindDeleted Kind = "deleted"
	KindSpecial Kind = "special" // connection/status events with no message content
)

// Attachment mirrors provider.Attachment but also carries the fields
// the helpdesk media fetch path needs (provider message id for
// UAZAPI's follow-up download).
type Attachment struct {
	Kind          string
	URL           string
	Base64        string
	Filename      string
	MimeType      string
	ProviderMsgID string
}

// NormalizedEvent is the canonical shape every inbound provider
// webhook collapses into before it reaches the reconciliation
// processor.
type NormalizedEvent struct {
	Dialect         provider.Dialect
	Kind            Kind
	ProviderMsgID   string
	ReplyToMsgID    string
	Sender          string // raw identifier as the provider sent it: jid, lid or phone
	Recipient       string
	IsGroup         bool
	FromMe          bool // the account itself sent this (agent echo from the provider side)
	FromApi         bool // FromMe was driven by an API call (ours or a third party's), not a phone
	Text            string
	Attachment      *Attachment
	SenderName      string
	SenderAvatarURL string
	EditOf          string // non-empty when this event replaces a previous message's content
	DeletedMsgID    string // non-empty when Kind == KindDeleted
}

// Identifier returns the sender identifier to use for helpdesk
// contact/conversation lookups: Sender as the dialect extractor set it.
// For group messages every extractor puts the group id in Sender, so a
// group always keys on its group id. No lid/jid/phone priority is
// applied here.
func (e NormalizedEvent) Identifier() string {
	if e.IsGroup {
		return e.Sender
	}
	return e.Sender
}
