package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler backs the liveness/readiness probe the teacher wires
// ahead of auth/rate-limit middleware in every deployment.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
