package controllers

import (
	"github.com/gin-gonic/gin"

	"wootrico/internal/audit"
	"wootrico/internal/queue"
	"wootrico/internal/store"
	"wootrico/internal/tenant"
)

const depsKey = "deps"

// Deps bundles every shared service the HTTP handlers need. Set once
// on the gin engine at startup and pulled back out per-request via
// gin.Context, the same way a single *gorm.DB gets threaded through
// middleware.
type Deps struct {
	Registry *tenant.Registry
	Queue    *queue.Client
	Credits  *store.CreditLedger
	Audit    *audit.Store
	PublicBaseURL string
}

// SetDepsToContext installs Deps on every request in this engine.
func SetDepsToContext(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(depsKey, d)
		c.Next()
	}
}

// DepsFromContext retrieves the Deps a prior middleware installed.
func DepsFromContext(c *gin.Context) Deps {
	v, _ := c.Get(depsKey)
	d, _ := v.(Deps)
	return d
}
