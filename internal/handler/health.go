package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/bltz-shield/internal/errs"
	"github.com/deppfellow/bltz-shield/internal/middleware"
	"github.com/deppfellow/bltz-shield/internal/repository"
	"github.com/deppfellow/bltz-shield/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /status.
type HealthResponse struct {
	Result      string                 `json:"result"`
	Message     string                 `json:"message"`
	Timestamp   string                 `json:"timestamp"`
	Status      string                 `json:"status"`
	Environment string                 `json:"environment"`
	Storage     string                 `json:"storage"`
	Checks      map[string]CheckResult `json:"checks"`
}

// HealthHandler reports whether the service and its dependencies are
// reachable, for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
	storage repository.Pinger
}

func NewHealthHandler(s *server.Server, storage repository.Pinger) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
		storage: storage,
	}
}

// CheckHealth runs the configured checks.
//
// Storage failing makes the whole service unhealthy (503), because POST
// /metadata would answer 500. Redis failing is reported but only matters
// through the storage check when the queue backend uses it.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	obs := h.server.Config.Observability

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := HealthResponse{
		Result:      errs.ResultSuccess,
		Message:     "Service is healthy",
		Status:      statusHealthy,
		Environment: h.server.Config.Primary.Env,
		Storage:     h.server.Config.Storage.Backend,
		Checks:      map[string]CheckResult{},
	}
	isHealthy := true

	if obs.HasCheck("storage") {
		if h.storage == nil {
			response.Checks["storage"] = CheckResult{Status: statusDisabled}
		} else {
			result := h.runCheck(c.Request().Context(), logger, "storage", h.storage.Ping)
			response.Checks["storage"] = result
			if result.Status != statusHealthy {
				isHealthy = false
			}
		}
	}

	if obs.HasCheck("redis") && h.server.Redis != nil {
		response.Checks["redis"] = h.runCheck(c.Request().Context(), logger, "redis", func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	response.Timestamp = errs.FormatTimestamp(time.Now())

	if !isHealthy {
		response.Result = errs.ResultError
		response.Message = "Service is unhealthy"
		response.Status = statusUnhealthy

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")
		h.recordHealthEvent("overall", "overall_unhealthy", time.Since(start), "")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) runCheck(parent context.Context, logger zerolog.Logger, name string, check func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(parent, h.server.Config.Observability.HealthChecks.Timeout)
	defer cancel()

	checkStart := time.Now()
	err := check(ctx)
	elapsed := time.Since(checkStart)

	if err != nil {
		logger.Error().
			Err(err).
			Str("check", name).
			Dur("response_time", elapsed).
			Msg("health check failed")
		h.recordHealthEvent(name, name+"_unhealthy", elapsed, err.Error())

		// The error text stays in the logs; the body only says which
		// dependency failed.
		return CheckResult{
			Status:       statusUnhealthy,
			ResponseTime: elapsed.String(),
			Error:        "unreachable",
		}
	}

	return CheckResult{
		Status:       statusHealthy,
		ResponseTime: elapsed.String(),
	}
}

func (h *HealthHandler) recordHealthEvent(checkType, errorType string, elapsed time.Duration, message string) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}
	attrs := map[string]interface{}{
		"check_type":       checkType,
		"operation":        "health_check",
		"error_type":       errorType,
		"response_time_ms": elapsed.Milliseconds(),
	}
	if message != "" {
		attrs["error_message"] = message
	}
	h.server.LoggerService.GetApplication().RecordCustomEvent("HealthCheckError", attrs)
}
