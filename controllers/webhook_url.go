package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WebhookURLs renders every tenant's fully-qualified provider webhook
// and helpdesk callback URL, derived from PUBLIC_BASE_URL, so an
// operator wiring up a new gateway instance doesn't have to guess the
// path convention.
func WebhookURLs(c *gin.Context) {
	deps := DepsFromContext(c)
	base := strings.TrimRight(deps.PublicBaseURL, "/")

	type entry struct {
		TenantID    string `json:"tenant_id"`
		ProviderURL string `json:"provider_webhook_url"`
		CallbackURL string `json:"helpdesk_callback_url"`
	}

	var out []entry
	for _, t := range deps.Registry.All() {
		out = append(out, entry{
			TenantID:    t.ID,
			ProviderURL: base + "/" + t.WebhookName,
			CallbackURL: base + "/" + t.WebhookName + "/callback",
		})
	}

	c.JSON(http.StatusOK, gin.H{"webhooks": out})
}
