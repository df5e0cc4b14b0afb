package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TicketStats reports the echo-credit ledger snapshot plus this
// tenant's rolling hour of drop-reason counts from the audit trail. The
// ledger is process-wide, so the credits cover every tenant, not just
// the one named in the route.
func TicketStats(c *gin.Context) {
	deps := DepsFromContext(c)
	name := c.Param("webhookName")

	t, ok := deps.Registry.LookupByWebhook(name)
	if !ok {
		RespondError(c, "unknown webhook", http.StatusNotFound)
		return
	}

	drops, err := deps.Audit.DropReasonCounts(t.ID, time.Hour)
	if err != nil {
		RespondError(c, "could not read audit trail", http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, gin.H{
		"tenant_id":        t.ID,
		"webhook_name":     t.WebhookName,
		"provider_dialect": t.ProviderDialect,
		"credits":          deps.Credits.Snapshot(),
		"dropped_last_hour": drops,
	})
}
