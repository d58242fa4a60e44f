package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync/atomic"
	"testing"

	"github.com/hireportal/internal/db"
	"github.com/hireportal/internal/ratelimit"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func multipartUpload(t *testing.T, target, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart() error = %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer tok")
	return req
}

func pngOfSize(n int) []byte {
	data := make([]byte, n)
	copy(data, pngHeader)
	return data
}

func TestUpload(t *testing.T) {
	tests := []struct {
		name        string
		kind        string
		contentType string
		content     []byte
		wantStatus  int
	}{
		{"valid png", "profile-image", "image/png", pngOfSize(2048), http.StatusCreated},
		{"too large", "profile-image", "image/png", pngOfSize(5<<20 + 1), http.StatusBadRequest},
		{"far too large", "profile-image", "image/png", pngOfSize(7 << 20), http.StatusBadRequest},
		{"disallowed type", "profile-image", "text/plain", []byte("hello"), http.StatusBadRequest},
		{"content mismatch", "company-logo", "image/png", []byte("%PDF-1.4 not an image"), http.StatusBadRequest},
		{"unknown kind", "avatar", "image/png", pngOfSize(64), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			w := env.do(multipartUpload(t, "/api/uploads/"+tt.kind, "photo.png", tt.contentType, tt.content))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}

			body := decodeBody(t, w)
			if size, _ := body["size"].(float64); int(size) != len(tt.content) {
				t.Errorf("expected size %d, got %v", len(tt.content), body["size"])
			}
			url, _ := body["url"].(string)
			get := env.do(httptest.NewRequest(http.MethodGet, url, nil))
			if get.Code != http.StatusOK {
				t.Errorf("expected stored file to be served at %s, got %d", url, get.Code)
			}
			if get.Body.Len() != len(tt.content) {
				t.Errorf("expected served file of %d bytes, got %d", len(tt.content), get.Body.Len())
			}
		})
	}
}

func TestUpload_TooLargeWithoutContentLength(t *testing.T) {
	env := newTestEnv(t, nil)

	sized := multipartUpload(t, "/api/uploads/profile-image", "photo.png", "image/png", pngOfSize(7<<20))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads/profile-image", io.MultiReader(sized.Body))
	req.Header = sized.Header.Clone()
	if req.ContentLength > 0 {
		t.Fatalf("expected unknown content length, got %d", req.ContentLength)
	}

	w := env.do(req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["kind"] != "ValidationError" {
		t.Errorf("expected kind ValidationError, got %v", body["kind"])
	}
}

func TestUpload_RequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)

	req := multipartUpload(t, "/api/uploads/resume", "cv.pdf", "application/pdf", []byte("%PDF-1.4"))
	req.Header.Del("Authorization")
	w := env.do(req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestCompanies_Pagination(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		if err := env.database.CreateCompany(context.Background(), db.NewCompany(name, "Software", "Remote")); err != nil {
			t.Fatalf("CreateCompany() error = %v", err)
		}
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/companies?page=2&page_size=1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	results, _ := body["results"].([]any)
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
	if body["count"] != float64(3) {
		t.Errorf("expected count 3, got %v", body["count"])
	}
	if body["has_previous"] != true || body["has_next"] != true {
		t.Errorf("expected has_previous and has_next true, got %v / %v", body["has_previous"], body["has_next"])
	}

	first, _ := results[0].(map[string]any)
	id, _ := first["id"].(string)
	w = env.do(httptest.NewRequest(http.MethodGet, "/api/companies/"+id, nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected company lookup 200, got %d", w.Code)
	}
}

func TestCompanies_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		target     string
		wantStatus int
	}{
		{"/api/companies?page=0", http.StatusBadRequest},
		{"/api/companies?page_size=abc", http.StatusBadRequest},
		{"/api/companies?page=9223372036854775807", http.StatusBadRequest},
		{"/api/companies/not-a-uuid", http.StatusBadRequest},
		{"/api/companies/6f1c1e2a-3b4d-4e5f-8a9b-0c1d2e3f4a5b", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := env.do(httptest.NewRequest(http.MethodGet, tt.target, nil))
		if w.Code != tt.wantStatus {
			t.Errorf("GET %s: expected status %d, got %d", tt.target, tt.wantStatus, w.Code)
		}
	}
}

func TestDrafts_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodPost, "/api/drafts", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	sessionID, _ := decodeBody(t, w)["session_id"].(string)
	if sessionID == "" {
		t.Fatal("create: expected session_id")
	}
	path := "/api/drafts/" + sessionID

	w = env.do(jsonRequest(http.MethodPut, path, map[string]any{"step": 1, "title": "Engineer"}))
	if w.Code != http.StatusOK {
		t.Fatalf("replace: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(jsonRequest(http.MethodPatch, path, map[string]any{"step": 2}))
	if w.Code != http.StatusOK {
		t.Fatalf("merge: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected status 200, got %d", w.Code)
	}
	data, _ := decodeBody(t, w)["data"].(map[string]any)
	if data["step"] != float64(2) || data["title"] != "Engineer" {
		t.Errorf("get: unexpected data %v", data)
	}

	w = env.do(httptest.NewRequest(http.MethodDelete, path, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status 204, got %d", w.Code)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected status 404, got %d", w.Code)
	}
}

func TestDrafts_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/drafts/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for malformed session id, got %d", w.Code)
	}

	w = env.do(jsonRequest(http.MethodPut, "/api/drafts/6f1c1e2a-3b4d-4e5f-8a9b-0c1d2e3f4a5b", []int{1, 2}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for non-object draft, got %d", w.Code)
	}
}

func TestLogin_SetsCookies(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login/" {
			t.Errorf("unexpected backend path %s", r.URL.Path)
		}
		w.Write([]byte(`{"user": {"id": 3, "avatar": "/media/a.png"}, "access": "acc", "refresh": "ref"}`))
	})

	w := env.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "pw"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["access_token"] != "acc" || body["refresh_token"] != "ref" {
		t.Errorf("expected tokens in body, got %v", body)
	}
	user, _ := body["user"].(map[string]any)
	if user["avatar"] != env.backend.URL+"/media/a.png" {
		t.Errorf("expected absolutized avatar, got %v", user["avatar"])
	}
	if c := findCookie(w, "access_token"); c == nil || c.Value != "acc" {
		t.Errorf("expected access_token cookie, got %+v", c)
	}
	if c := findCookie(w, "refresh_token"); c == nil || c.Value != "ref" {
		t.Errorf("expected refresh_token cookie, got %+v", c)
	}
}

func TestLogin_InvalidCredentialsRelayed(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "No active account found with the given credentials"}`))
	})

	w := env.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com"}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	if findCookie(w, "access_token") != nil {
		t.Error("no cookie expected on failed login")
	}
}

func TestRefresh_FromBody(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access": "acc-2", "refresh": "ref-2"}`))
	})

	w := env.do(jsonRequest(http.MethodPost, "/api/auth/refresh", map[string]string{"refresh": "ref-1"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if c := findCookie(w, "access_token"); c == nil || c.Value != "acc-2" {
		t.Errorf("expected new access cookie, got %+v", c)
	}
	if c := findCookie(w, "refresh_token"); c == nil || c.Value != "ref-2" {
		t.Errorf("expected rotated refresh cookie, got %+v", c)
	}
}

func TestRefresh_Rejected(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Token is blacklisted"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "ref-1"})
	w := env.do(req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != "stale_token" {
		t.Errorf("expected code stale_token, got %v", body["code"])
	}
}

func TestRefresh_Missing(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestLogout_AlwaysClearsCookies(t *testing.T) {
	var calls atomic.Int32
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"refresh":"ref-1"}` {
			t.Errorf("unexpected logout body %s", body)
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "ref-1"})
	w := env.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one backend logout call, got %d", calls.Load())
	}
	for _, name := range []string{"access_token", "refresh_token"} {
		if c := findCookie(w, name); c == nil || c.MaxAge >= 0 {
			t.Errorf("expected %s to be cleared, got %+v", name, c)
		}
	}
}

func TestAuthRoutes_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "bad credentials"}`))
	}, withLimiter(ratelimit.New(0.001, 1)))

	first := env.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a"}))
	if first.Code != http.StatusUnauthorized {
		t.Fatalf("first attempt: expected status 401, got %d", first.Code)
	}
	second := env.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a"}))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second attempt: expected status 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
