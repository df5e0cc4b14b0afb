// Package provider implements the outbound REST dialects for the three
// WhatsApp gateways the bridge fronts: Z-API, UAZAPI and Wuzapi. Each
// dialect gets its own file; Client is the common surface the
// reconciliation processor drives regardless of which one a tenant is
// wired to. Z-API's instance/token URL pattern is built from the same
// http.Client conventions as the other two dialects.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by Download on dialects that never expose
// a hosted-media fetch endpoint (Z-API, Wuzapi: media arrives inline).
var ErrUnsupported = errors.New("provider: operation not supported by this dialect")

// Dialect names the three wire formats.
type Dialect string

const (
	DialectZAPI   Dialect = "zapi"
	DialectUAZAPI Dialect = "uazapi"
	DialectWuzapi Dialect = "wuzapi"
)

// Attachment is one outbound media item.
type Attachment struct {
	Kind     string // "image", "video", "audio", "document", "sticker"
	URL      string
	Base64   string
	Filename string
	Caption  string // only honored on the first attachment
}

// Client is the common outbound surface every dialect implements.
type Client interface {
	Dialect() Dialect
	SendText(ctx context.Context, to, text, replyProviderMsgID string) (string, error)
	SendMedia(ctx context.Context, to string, att Attachment, replyProviderMsgID string) (string, error)
	Delete(ctx context.Context, to, providerMsgID string, fromMe bool) error
	Download(ctx context.Context, providerMsgID string) ([]byte, string, error)
}

// AttachmentGap is the minimum spacing between successive attachment
// sends within one multi-attachment outbound message: only the first
// request carries the caption text, and the gap keeps gateways that
// rate-limit per-second from silently dropping the rest.
const AttachmentGap = 2 * time.Second

// digitsOnly strips everything but ASCII digits, used for individual
// recipients; group identifiers are kept verbatim (with their @g.us or
// -group suffix) since the gateways route groups by the full string.
func digitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
