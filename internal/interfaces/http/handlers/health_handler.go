package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/sentinel/internal/application/dto"
	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/pkg/constants"
)

// HealthReporter reports detector health.
type HealthReporter interface {
	Health() models.Health
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	reporter HealthReporter
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(reporter HealthReporter) *HealthHandler {
	return &HealthHandler{reporter: reporter}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Reports detector status, processed events and profile usage.
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.APIResponse
// @Router       /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SuccessResponse(h.reporter.Health(), traceID(c)))
}

// ReadinessCheck godoc
// @Summary      Readiness Check
// @Description  Fails while the profile store is over its cap.
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.APIResponse
// @Failure      503  {object}  dto.APIResponse
// @Router       /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	health := h.reporter.Health()
	resp := dto.SuccessResponse(health, traceID(c))
	if health.Status != constants.HealthStatusOperational {
		resp.Success = false
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LivenessCheck reports that the process is up.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

//Personal.AI order the ending
