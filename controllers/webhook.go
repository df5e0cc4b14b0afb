package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"wootrico/internal/queue"
)

// maxWebhookBodyBytes bounds how much of a provider/helpdesk payload
// gets read before the request is rejected, so a misbehaving gateway
// can't exhaust memory through one huge webhook body.
const maxWebhookBodyBytes = 10 << 20 // 10MiB

// WebhookPrincipal accepts a provider webhook at POST /:webhookName and
// enqueues it for asynchronous processing on the principal subject.
func WebhookPrincipal(c *gin.Context) {
	deps := DepsFromContext(c)
	name := c.Param("webhookName")

	t, ok := deps.Registry.LookupByWebhook(name)
	if !ok {
		RespondError(c, "unknown webhook", http.StatusNotFound)
		return
	}

	body, err := readLimitedBody(c)
	if err != nil {
		RespondError(c, "body too large or unreadable", http.StatusBadRequest)
		return
	}

	if _, err := deps.Queue.PublishJSON(c.Request.Context(), queue.SubjectPrincipal, t.ID, json(body)); err != nil {
		RespondError(c, "could not enqueue event", http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}

// WebhookCallback accepts a Chatwoot callback at POST
// /:webhookName/callback and enqueues it on the callback subject.
func WebhookCallback(c *gin.Context) {
	deps := DepsFromContext(c)
	name := c.Param("webhookName")

	t, ok := deps.Registry.LookupByWebhook(name)
	if !ok {
		RespondError(c, "unknown webhook", http.StatusNotFound)
		return
	}

	body, err := readLimitedBody(c)
	if err != nil {
		RespondError(c, "body too large or unreadable", http.StatusBadRequest)
		return
	}

	if _, err := deps.Queue.PublishJSON(c.Request.Context(), queue.SubjectCallback, t.ID, json(body)); err != nil {
		RespondError(c, "could not enqueue event", http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}

func readLimitedBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	return io.ReadAll(c.Request.Body)
}

// json is a no-op identity wrapper so PublishJSON can re-marshal raw
// bytes as a json.RawMessage without double-encoding them.
func json(b []byte) rawJSON { return rawJSON(b) }

type rawJSON []byte

// MarshalJSON returns the bytes verbatim: they are already a complete
// JSON document.
func (r rawJSON) MarshalJSON() ([]byte, error) { return r, nil }
