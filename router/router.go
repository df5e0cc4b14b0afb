package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wootrico/controllers"
	"wootrico/middleware"
)

// Initialize wires every route the bridge exposes: per-tenant webhook
// ingress, the health probe, and the diagnostic endpoints.
func Initialize(r *gin.Engine, deps controllers.Deps, log zerolog.Logger) {
	r.Use(gin.Recovery())
	r.Use(Logger(log))
	r.Use(middleware.CORSMiddleware())
	r.Use(controllers.SetDepsToContext(deps))

	r.GET("/health", controllers.Health)
	r.GET("/webhook-url", controllers.WebhookURLs)

	r.POST("/:webhookName", controllers.WebhookPrincipal)
	r.POST("/:webhookName/callback", controllers.WebhookCallback)
	r.GET("/:webhookName/ticket-stats", controllers.TicketStats)

	log.Info().Msg("routes initialized")
}
