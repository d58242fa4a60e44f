// Package upload stores user files (profile images, company logos, resumes)
// on local disk after validating their size and content type.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/hireportal/internal/validation"
)

// PublicPrefix is the URL prefix stored files are served under
const PublicPrefix = "/uploads"

var (
	ErrUnknownKind     = errors.New("unknown upload kind")
	ErrEmptyFile       = errors.New("file is empty")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrTypeMismatch    = errors.New("file content does not match its declared type")
)

const (
	docxType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docType  = "application/msword"
)

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var documentTypes = map[string]string{
	"application/pdf": ".pdf",
	docType:           ".doc",
	docxType:          ".docx",
}

// aliases maps non-canonical declared types onto what the sniffer reports
var aliases = map[string]string{
	"image/jpg":   "image/jpeg",
	"image/pjpeg": "image/jpeg",
}

// Kind describes one upload category
type Kind struct {
	Name    string
	Dir     string
	Allowed map[string]string // canonical MIME type -> stored extension
}

var kinds = map[string]Kind{
	"profile-image": {Name: "profile-image", Dir: "profile_images", Allowed: imageTypes},
	"company-logo":  {Name: "company-logo", Dir: "company_logos", Allowed: imageTypes},
	"resume":        {Name: "resume", Dir: "resumes", Allowed: documentTypes},
}

// LookupKind returns the upload kind registered under name
func LookupKind(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// File is a stored upload
type File struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Store writes uploads below a root directory
type Store struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
}

// NewStore creates an upload store rooted at dir
func NewStore(dir string, maxBytes int64, logger *slog.Logger) *Store {
	return &Store{
		root:     dir,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Root returns the directory files are stored in
func (s *Store) Root() string {
	return s.root
}

// MaxBytes returns the size limit for a single file
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates and stores one file. declaredType is the part's Content-Type
// header; the sniffed content must agree with it.
func (s *Store) Save(kindName, filename, declaredType string, r io.Reader) (*File, error) {
	kind, ok := kinds[kindName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kindName)
	}

	declared := canonicalType(declaredType)
	ext, ok := kind.Allowed[declared]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, declaredType)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: maximum is %d bytes", ErrTooLarge, s.maxBytes)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	sniffed := mimetype.Detect(data)
	if !matches(sniffed, declared) {
		return nil, fmt.Errorf("%w: declared %s, detected %s", ErrTypeMismatch, declared, sniffed.String())
	}

	name := fmt.Sprintf("%s-%s%s", validation.SanitizeFilename(filename), strings.ReplaceAll(uuid.NewString(), "-", "")[:12], ext)
	dir := filepath.Join(s.root, kind.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	n, err := io.Copy(f, bytes.NewReader(data))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}

	s.logger.Info("upload stored",
		"kind", kind.Name,
		"file", name,
		"size", n,
		"content_type", declared,
	)

	return &File{
		URL:         PublicPrefix + "/" + kind.Dir + "/" + name,
		Filename:    name,
		Size:        n,
		ContentType: declared,
	}, nil
}

func canonicalType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if alias, ok := aliases[mediaType]; ok {
		return alias
	}
	return mediaType
}

// matches reports whether the sniffed type (or one of its parents) is the
// declared type. Legacy .doc files are often only recognised as OLE containers.
func matches(sniffed *mimetype.MIME, declared string) bool {
	for m := sniffed; m != nil; m = m.Parent() {
		if m.Is(declared) {
			return true
		}
	}
	return declared == docType && sniffed.Is("application/x-ole-storage")
}
