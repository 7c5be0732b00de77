package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/version"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Collaborators map[string]string `json:"collaborators"`
}

// healthHandler handles GET /health. The service holds no durable state,
// so liveness is simply the process being up; collaborator entries report
// which subsystems are configured.
func (s *Server) healthHandler(c *echo.Context) error {
	configured := func(url string) string {
		if url == "" {
			return "disabled"
		}
		return "configured"
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:  "healthy",
		Version: version.Full(),
		Collaborators: map[string]string{
			"graphiti":       configured(s.cfg.Graphiti.URL),
			"letta":          configured(s.cfg.Letta.BaseURL),
			"agent_registry": configured(s.cfg.Registry.URL),
			"tool_finder":    configured(s.cfg.Tools.URL),
			"matrix":         configured(s.cfg.Matrix.URL),
		},
	})
}
