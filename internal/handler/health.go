package handler

import (
	"context"
	"time"

	"quiz-funnel/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler checks every named dependency on each request.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health godoc
// @Summary Health check
// @Description Reports the reachability of the database and cache
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}
	if resp.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
