package validation

import (
	"strings"
	"testing"
)

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		shouldErr bool
	}{
		{"valid uuid", "6f1c2a4e-5b7d-4c1e-9f2a-3b4c5d6e7f80", false},
		{"uppercase uuid", "6F1C2A4E-5B7D-4C1E-9F2A-3B4C5D6E7F80", false},
		{"empty", "", true},
		{"not a uuid", "session-1", true},
		{"braced", "{6f1c2a4e-5b7d-4c1e-9f2a-3b4c5d6e7f80}", true},
		{"urn form", "urn:uuid:6f1c2a4e-5b7d-4c1e-9f2a-3b4c5d6e7f80", true},
		{"path traversal", "../../etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.id)
			if (err != nil) != tt.shouldErr {
				t.Errorf("ValidateSessionID(%q) error = %v, shouldErr %v", tt.id, err, tt.shouldErr)
			}
		})
	}
}

func TestValidateCompanyID(t *testing.T) {
	if err := ValidateCompanyID("0b9e4c1a-2f3d-4e5f-8a9b-0c1d2e3f4a5b"); err != nil {
		t.Errorf("ValidateCompanyID(valid) error = %v", err)
	}
	for _, id := range []string{"", "42", "acme"} {
		if err := ValidateCompanyID(id); err == nil {
			t.Errorf("ValidateCompanyID(%q) expected error", id)
		}
	}
}

func TestValidateDraftData(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		shouldErr bool
	}{
		{"object", `{"step":2,"email":"a@b.c"}`, false},
		{"empty object", `{}`, false},
		{"array", `[1,2]`, true},
		{"null", `null`, true},
		{"string", `"x"`, true},
		{"invalid", `{`, true},
		{"empty", ``, true},
		{"too large", `{"x":"` + strings.Repeat("a", MaxDraftBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateDraftData([]byte(tt.data))
			if (err != nil) != tt.shouldErr {
				t.Errorf("ValidateDraftData() error = %v, shouldErr %v", err, tt.shouldErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo"},
		{"My Resume (final).pdf", "my-resume-final"},
		{"../../etc/passwd", "passwd"},
		{"C:\\Users\\me\\avatar.JPG", "avatar"},
		{"...png", "file"},
		{"", "file"},
		{"__weird__name__.gif", "weird-name"},
		{strings.Repeat("a", 100) + ".png", strings.Repeat("a", 64)},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
