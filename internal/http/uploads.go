package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hireportal/internal/domain"
	"github.com/hireportal/internal/token"
	"github.com/hireportal/internal/upload"
)

// uploadFile stores the multipart "file" field under the requested kind
func (s *Server) uploadFile(c *gin.Context) {
	if !token.Resolve(c.Request).HasAccess() {
		s.respondError(c, domain.ErrAuthenticationRequired)
		return
	}

	kind := c.Param("kind")
	if _, ok := upload.LookupKind(kind); !ok {
		s.respondError(c, domain.NewNotFoundError("Unknown upload kind"))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			s.respondError(c, errFileTooLarge(s.uploads.MaxBytes()))
			return
		}
		s.respondError(c, domain.NewValidationError("Multipart field \"file\" is required", err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.respondError(c, domain.NewInternalError("Failed to read upload", err))
		return
	}
	defer f.Close()

	stored, err := s.uploads.Save(kind, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		s.respondError(c, uploadError(err))
		return
	}

	c.JSON(http.StatusCreated, stored)
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, upload.ErrUnknownKind):
		return domain.NewNotFoundError("Unknown upload kind")
	case errors.Is(err, upload.ErrTooLarge),
		errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrTypeMismatch):
		return domain.NewValidationError(err.Error(), err)
	}
	return domain.NewInternalError("Failed to store upload", err)
}
