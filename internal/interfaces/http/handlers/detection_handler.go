package handlers

import (
	"context"
	goerrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/sentinel/internal/application/dto"
	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/internal/domain/service"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/errors"
	"github.com/turtacn/sentinel/pkg/logger"
	"github.com/turtacn/sentinel/pkg/utils"
)

// Detector is the detection surface the HTTP API drives.
type Detector interface {
	Analyze(ctx context.Context, event models.Event) models.AnomalyScore
	GetProfile(ctx context.Context, tenantID, clientID string) (*models.ClientProfile, error)
	GetAllProfiles(ctx context.Context, tenantID string) []*models.ClientProfile
	MarkCompromised(ctx context.Context, tenantID, clientID string) (*models.ClientProfile, error)
	ResetProfile(ctx context.Context, tenantID, clientID string) error
}

// DetectionHandler 检测与画像 HTTP 处理器
type DetectionHandler struct {
	detector  Detector
	throttler service.Throttler
	metrics   service.Metrics
	logger    logger.Logger
	now       func() time.Time
}

// NewDetectionHandler 创建检测处理器. A nil throttler disables rate_limited reporting.
func NewDetectionHandler(detector Detector, throttler service.Throttler, metrics service.Metrics, log logger.Logger) *DetectionHandler {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return &DetectionHandler{
		detector:  detector,
		throttler: throttler,
		metrics:   metrics,
		logger:    log.WithComponent("DetectionHandler"),
		now:       time.Now,
	}
}

// Detect scores one event.
// POST /api/v1/detect
func (h *DetectionHandler) Detect(c *gin.Context) {
	var req dto.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	event := req.ToEvent(h.now())
	result := h.detector.Analyze(ctx, event)

	rateLimited := false
	if h.throttler != nil {
		key := models.ProfileKey{TenantID: event.TenantID, ClientID: event.ClientID}
		h.throttler.Tighten(key, result.Level)
		if !h.throttler.Allow(key) {
			rateLimited = true
			h.metrics.RecordThrottled(event.TenantID)
			h.logger.Debug(ctx, "Client over its request budget",
				logger.Fields{"tenant_id": event.TenantID, "client_id": event.ClientID, "level": result.Level.String()})
		}
	}

	c.JSON(http.StatusOK, dto.SuccessResponse(dto.DetectResponse{AnomalyScore: result, RateLimited: rateLimited}, traceID(c)))
}

// ListProfiles returns every profile of a tenant.
// GET /api/v1/tenants/:tenant_id/profiles
func (h *DetectionHandler) ListProfiles(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	if !utils.ValidateNotEmpty(tenantID) {
		h.handleError(c, errors.ErrMissingRequiredParameter("tenant_id"), "list_profiles")
		return
	}
	profiles := h.detector.GetAllProfiles(c.Request.Context(), tenantID)
	c.JSON(http.StatusOK, dto.SuccessResponse(dto.ProfileListResponse{
		TenantID: tenantID,
		Count:    len(profiles),
		Profiles: profiles,
	}, traceID(c)))
}

// ListSignatures returns the catalog of detectable behavior patterns.
// GET /api/v1/signatures
func (h *DetectionHandler) ListSignatures(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SuccessResponse(models.Signatures(), traceID(c)))
}

// GetProfile GET /api/v1/tenants/:tenant_id/profiles/:client_id
func (h *DetectionHandler) GetProfile(c *gin.Context) {
	profile, err := h.detector.GetProfile(c.Request.Context(), c.Param("tenant_id"), c.Param("client_id"))
	if err != nil {
		h.handleError(c, err, "get_profile")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse(profile, traceID(c)))
}

// MarkCompromised POST /api/v1/tenants/:tenant_id/profiles/:client_id/compromise
func (h *DetectionHandler) MarkCompromised(c *gin.Context) {
	tenantID, clientID := c.Param("tenant_id"), c.Param("client_id")
	profile, err := h.detector.MarkCompromised(c.Request.Context(), tenantID, clientID)
	if err != nil {
		h.handleError(c, err, "mark_compromised")
		return
	}
	if h.throttler != nil {
		h.throttler.Tighten(profile.Key(), models.ThreatCritical)
	}
	c.JSON(http.StatusOK, dto.SuccessResponse(profile, traceID(c)))
}

// ResetProfile DELETE /api/v1/tenants/:tenant_id/profiles/:client_id
func (h *DetectionHandler) ResetProfile(c *gin.Context) {
	tenantID, clientID := c.Param("tenant_id"), c.Param("client_id")
	if err := h.detector.ResetProfile(c.Request.Context(), tenantID, clientID); err != nil {
		h.handleError(c, err, "reset_profile")
		return
	}
	if h.throttler != nil {
		h.throttler.Reset(models.ProfileKey{TenantID: tenantID, ClientID: clientID})
	}
	c.JSON(http.StatusOK, dto.SuccessResponse(gin.H{
		"tenant_id": tenantID,
		"client_id": clientID,
		"reset":     true,
	}, traceID(c)))
}

func (h *DetectionHandler) handleBindError(c *gin.Context, err error) {
	if details := utils.ValidationDetails(err); details != nil {
		h.logger.Warn(c.Request.Context(), "Detect request failed validation", logger.Fields{"details": details})
		c.JSON(http.StatusBadRequest, dto.ValidationErrorResponse(details, traceID(c)))
		return
	}
	var tooLarge *http.MaxBytesError
	if goerrors.As(err, &tooLarge) {
		h.handleError(c, errors.NewError(errors.CodeInvalidRequest, http.StatusRequestEntityTooLarge,
			"The request body exceeds the allowed size", "request body too large"), "detect")
		return
	}
	h.handleError(c, errors.ErrInvalidRequest(err.Error()), "detect")
}

// handleError 统一处理错误
func (h *DetectionHandler) handleError(c *gin.Context, err error, operation string) {
	se, ok := errors.AsSentinelError(err)
	if !ok {
		h.logger.Error(c.Request.Context(), "Unexpected error", err, logger.String("operation", operation))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse(err, traceID(c)))
		return
	}

	h.logger.Warn(c.Request.Context(), "Request failed",
		logger.String("operation", operation),
		logger.String("error_code", string(se.Code())),
		logger.String("error", se.Error()))
	c.JSON(se.HTTPStatus(), dto.ErrorResponse(se, traceID(c)))
}

func traceID(c *gin.Context) string {
	if id := c.GetString(string(constants.ContextKeyTraceID)); id != "" {
		return id
	}
	return c.GetString(string(constants.ContextKeyRequestID))
}

//Personal.AI order the ending
