// Package helpdesk implements the per-tenant helpdesk (Chatwoot-shaped)
// REST client: inbox discovery, contact/conversation upsert with reopen
// policy, throttled+retried message sends, and delete. Request shape
// follows an api_access_token header against
// /api/v1/accounts/{account} routes with JSON and multipart bodies.
package helpdesk

import "time"

// Contact is the helpdesk-side entity keyed by Identifier.
type Contact struct {
	ID          int64  `json:"id"`
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Conversation is the helpdesk-side entity bound to one contact+inbox.
type Conversation struct {
	ID      int64 `json:"id"`
	InboxID int64 `json:"inbox_id"`
	Status  string `json:"status"`
	Meta    struct {
		Sender Contact `json:"sender"`
	} `json:"meta"`
}

// Message is the helpdesk-side message created by a send.
type Message struct {
	ID                int64  `json:"id"`
	Content           string `json:"content"`
	MessageType       string `json:"message_type"`
	Private           bool   `json:"private"`
	ContentAttributes struct {
		Deleted    bool  `json:"deleted"`
		InReplyTo  int64 `json:"in_reply_to,omitempty"`
	} `json:"content_attributes"`
}

// Inbox is the helpdesk-side channel container.
type Inbox struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// sidecar is the on-disk record that makes inbox discovery idempotent
// across restarts: `{inboxId, inboxName, savedAt}`.
type sidecar struct {
	InboxID   int64     `json:"inboxId"`
	InboxName string    `json:"inboxName"`
	SavedAt   time.Time `json:"savedAt"`
}

// MediaSource describes where a media send's bytes should come from.
// Exactly the shapes the normalizer can hand back from a provider
// payload: a UAZAPI-hosted message id (fetched through DownloadHook), a
// URL, or an inline base64 blob. The client tries them in that order.
type MediaSource struct {
	Origin        string // "zapi", "uazapi", "wuzapi"
	ProviderMsgID string
	URL           string
	Base64        string
	Filename      string
	MimeType      string
}

// searchPayload mirrors Chatwoot's GET /contacts/search response.
type searchPayload struct {
	Payload []Contact `json:"payload"`
}

type inboxListPayload struct {
	Payload []Inbox `json:"payload"`
}

type conversationListPayload struct {
	Payload []Conversation `json:"payload"`
}
