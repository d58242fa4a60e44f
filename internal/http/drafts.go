package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) createDraft(c *gin.Context) {
	draft, err := s.drafts.CreateDraft(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

func (s *Server) getDraft(c *gin.Context) {
	draft, err := s.drafts.GetDraft(c.Request.Context(), c.Param("session"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) replaceDraft(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.respondError(c, err)
		return
	}
	draft, err := s.drafts.ReplaceDraft(c.Request.Context(), c.Param("session"), body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) mergeDraft(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.respondError(c, err)
		return
	}
	draft, err := s.drafts.MergeDraft(c.Request.Context(), c.Param("session"), body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) deleteDraft(c *gin.Context) {
	if err := s.drafts.DeleteDraft(c.Request.Context(), c.Param("session")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
