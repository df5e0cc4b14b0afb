package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness. It deliberately does not probe the queue or
// any tenant's helpdesk/provider endpoints: a transient outage on one
// tenant's Chatwoot instance shouldn't make the whole process look down.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
