package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// trackerStatusHandler handles GET /agent-tracker/status.
func (s *Server) trackerStatusHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.tracker.Snapshot())
}

// trackerResetHandler handles POST /agent-tracker/reset.
func (s *Server) trackerResetHandler(c *echo.Context) error {
	s.tracker.Reset()
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}
