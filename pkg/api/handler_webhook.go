package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/metrics"
	"github.com/oculairmedia/webhook-receiver-letta/pkg/pipeline"
)

// webhookHandler handles POST /webhook and POST /webhook/letta.
// Any payload that parses as JSON and carries a prompt gets a 200 with
// per-subsystem outcome flags in the body; 400 is reserved for malformed
// payloads (unparseable JSON, a prompt of the wrong shape, or no prompt at
// all) and 500 for internal bugs.
func (s *Server) webhookHandler(c *echo.Context) error {
	var ev pipeline.Event
	if err := c.Bind(&ev); err != nil {
		metrics.WebhooksTotal.WithLabelValues("malformed").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload: "+err.Error())
	}
	if !ev.HasPrompt() {
		metrics.WebhooksTotal.WithLabelValues("malformed").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}

	resp := s.orchestrator.Process(c.Request().Context(), &ev)
	return c.JSON(http.StatusOK, resp)
}
