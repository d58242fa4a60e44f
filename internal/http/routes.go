package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hireportal/internal/apipaths"
	"github.com/hireportal/internal/domain"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check endpoint (no auth required)
	s.engine.GET(apipaths.Health, s.health)

	// Auth routes, rate limited per client
	limited := s.engine.Group("", s.rateLimitMiddleware())
	{
		limited.POST(apipaths.AuthLogin, s.login)
		limited.POST(apipaths.AuthRegister, s.register)
		limited.POST(apipaths.AuthRefresh, s.refresh)
	}
	s.engine.POST(apipaths.AuthLogout, s.logout)

	// Company directory served from the local store
	s.engine.GET(apipaths.Companies, s.listCompanies)
	s.engine.GET(apipaths.CompanyByID, s.getCompany)

	// Draft cache
	s.engine.POST(apipaths.Drafts, s.createDraft)
	s.engine.GET(apipaths.DraftByID, s.getDraft)
	s.engine.PUT(apipaths.DraftByID, s.replaceDraft)
	s.engine.PATCH(apipaths.DraftByID, s.mergeDraft)
	s.engine.DELETE(apipaths.DraftByID, s.deleteDraft)

	// Uploads and the files they produce
	s.engine.POST(apipaths.Uploads, s.uploadFile)
	s.engine.Static(apipaths.UploadsFiles, s.uploads.Root())

	// Proxy routes from the route table
	for _, route := range s.routes.Routes {
		s.engine.Handle(route.Method, route.Path, s.proxyHandler(route))
	}

	s.engine.NoRoute(func(c *gin.Context) {
		s.respondError(c, domain.NewNotFoundError("Not found"))
	})
}
