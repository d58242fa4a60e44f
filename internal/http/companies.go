package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireportal/internal/domain"
)

// listCompanies returns one page of the company directory
func (s *Server) listCompanies(c *gin.Context) {
	page, err := domain.NewPageRequest(c.Query("page"), c.Query("page_size"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.companies.ListCompanies(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) getCompany(c *gin.Context) {
	company, err := s.companies.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}
