// Package v1 exposes the inbound webhook surface: the email event hook, the
// operator chat hook and the metrics endpoint.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/mailsense/internal/profile"
	"github.com/hrygo/mailsense/plugin/triage"
	apimw "github.com/hrygo/mailsense/server/middleware"
)

// APIV1Service bundles the collaborators the v1 handlers need.
type APIV1Service struct {
	Profile *profile.Profile
	Triage  *triage.Service
	Metrics *triage.Metrics
}

// NewAPIV1Service creates the v1 API service.
func NewAPIV1Service(p *profile.Profile, svc *triage.Service, metrics *triage.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile: p,
		Triage:  svc,
		Metrics: metrics,
	}
}

// RegisterRoutes mounts the v1 routes on the Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	limiter := apimw.NewPerKeyLimiter(10, 20)

	g := echoServer.Group("/api/v1")
	g.Use(apimw.RateLimitByIP(limiter))
	g.POST("/webhooks/email", s.HandleEmailWebhook)
	g.POST("/webhooks/chat", s.HandleChatWebhook)
	g.GET("/metrics", s.GetMetrics)
}

// GetMetrics returns the triage counters.
// GET /api/v1/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Metrics.Snapshot())
}
