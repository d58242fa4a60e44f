package token

import (
	"net/http"
	"strings"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// Source tells where the access token was found
type Source string

const (
	SourceNone   Source = ""
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
)

// Credentials are the tokens a browser request carries
type Credentials struct {
	Access  string
	Refresh string
	Source  Source
}

// HasAccess reports whether an access token was found
func (c Credentials) HasAccess() bool {
	return c.Access != ""
}

// Resolve extracts the bearer token from the Authorization header or the
// access_token cookie. The header wins so localStorage clients and cookie
// clients can both be served. The refresh token only ever comes from its cookie.
func Resolve(req *http.Request) Credentials {
	var creds Credentials

	if tok := bearerToken(req.Header.Get("Authorization")); tok != "" {
		creds.Access = tok
		creds.Source = SourceHeader
	} else if cookie, err := req.Cookie(AccessCookieName); err == nil && cookie.Value != "" {
		creds.Access = cookie.Value
		creds.Source = SourceCookie
	}

	if cookie, err := req.Cookie(RefreshCookieName); err == nil && cookie.Value != "" {
		creds.Refresh = cookie.Value
	}

	return creds
}

func bearerToken(header string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	tok = strings.TrimSpace(tok)
	// Clients that read an empty localStorage slot send these literally
	if tok == "undefined" || tok == "null" {
		return ""
	}
	return tok
}
