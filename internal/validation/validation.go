package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxDraftBytes bounds a stored draft document
const MaxDraftBytes = 256 << 10

var (
	// unsafeFilenameChars matches anything outside letters, digits, dot, hyphen and underscore
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	repeatedSeparators  = regexp.MustCompile(`[-_]{2,}`)
)

// ValidateSessionID checks a draft session id is a canonical UUID
func ValidateSessionID(id string) error {
	return validateUUID("session id", id)
}

// ValidateCompanyID checks a company id is a canonical UUID
func ValidateCompanyID(id string) error {
	return validateUUID("company id", id)
}

func validateUUID(what, id string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	parsed, err := uuid.Parse(id)
	// uuid.Parse also accepts urn: and braced forms
	if err != nil || parsed.String() != strings.ToLower(id) {
		return fmt.Errorf("%s must be a UUID", what)
	}
	return nil
}

// ValidateDraftData checks a draft body is a JSON object of reasonable size
func ValidateDraftData(data []byte) (map[string]json.RawMessage, error) {
	if len(data) == 0 {
		return nil, errors.New("draft data cannot be empty")
	}
	if len(data) > MaxDraftBytes {
		return nil, errors.New("draft data too large (maximum 256KB)")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, errors.New("draft data must be a JSON object")
	}
	return fields, nil
}

// SanitizeFilename reduces a client-supplied filename to a safe base name
// without extension. Path components and unusual characters are removed.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	base = unsafeFilenameChars.ReplaceAllString(base, "-")
	base = repeatedSeparators.ReplaceAllString(base, "-")
	base = strings.Trim(base, ".-_")

	if len(base) > 64 {
		base = strings.TrimRight(base[:64], ".-_")
	}
	if base == "" || base == "." {
		return "file"
	}
	return strings.ToLower(base)
}
