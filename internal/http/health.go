package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireportal/internal/backend"
	"github.com/hireportal/internal/jobs"
	"github.com/hireportal/internal/system"
)

// HealthResponse reports gateway liveness and the state of its dependencies
type HealthResponse struct {
	Status  string              `json:"status"`
	Service string              `json:"service"`
	Backend BackendHealth       `json:"backend"`
	Drafts  string              `json:"draft_store"`
	Jobs    []jobs.Result       `json:"jobs,omitempty"`
	System  *system.SystemStats `json:"system,omitempty"`
}

// BackendHealth is the circuit state of the upstream API
type BackendHealth struct {
	URL     string               `json:"url"`
	Circuit backend.CircuitStats `json:"circuit"`
}

// health never calls the backend; an open circuit reports degraded
func (s *Server) health(c *gin.Context) {
	stats := s.backend.CircuitStats()

	resp := HealthResponse{
		Status:  "healthy",
		Service: "hireportal-gateway",
		Backend: BackendHealth{URL: s.backend.BaseURL(), Circuit: stats},
		Drafts:  s.draftStore,
	}
	if stats.State == backend.StateOpen {
		resp.Status = "degraded"
	}
	if s.scheduler != nil {
		resp.Jobs = s.scheduler.LastResults()
	}
	// Host details stay private in production
	if s.collector != nil && !s.config.IsProduction() {
		resp.System = s.collector.GetSystemStats()
	}

	c.JSON(http.StatusOK, resp)
}
