package handlers

import (
	"net/http"

	"servimatch/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency health snapshot.
type HealthHandler struct {
	// Degraded reports whether a required dependency is down.
	Degraded func(utils.HealthStatus) bool
}

func (h *HealthHandler) HealthCheckHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	state := "ok"
	if h != nil && h.Degraded != nil && h.Degraded(status) {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{"status": state, "message": "Hi, I'm servimatch", "dependencies": status})
}
