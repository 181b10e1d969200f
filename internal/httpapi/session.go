package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"swasthya.org/internal/auth"
)

// Cookie names match what clients already hold.
const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// sessionTransport is the only component that reads or writes session
// cookies. The gate itself stays free of response side effects.
type sessionTransport struct {
	secure bool
}

// credentials extracts raw tokens from the request: cookies first, then the
// Authorization header as an access-token fallback for API clients.
func (t sessionTransport) credentials(r *http.Request) auth.Credentials {
	var creds auth.Credentials
	if c, err := r.Cookie(accessCookieName); err == nil {
		creds.Access = c.Value
	}
	if creds.Access == "" {
		if token, err := extractBearerToken(r.Header.Get(authHeader)); err == nil {
			creds.Access = token
		}
	}
	if c, err := r.Cookie(refreshCookieName); err == nil {
		creds.Refresh = c.Value
	}
	return creds
}

func (t sessionTransport) writeAccess(w http.ResponseWriter, tok auth.IssuedToken) {
	http.SetCookie(w, t.cookie(accessCookieName, tok))
}

func (t sessionTransport) writePair(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, t.cookie(accessCookieName, pair.Access))
	http.SetCookie(w, t.cookie(refreshCookieName, pair.Refresh))
}

// clear expires both session cookies so the client re-authenticates instead
// of retrying a dead refresh token forever.
func (t sessionTransport) clear(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   t.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func (t sessionTransport) cookie(name string, tok auth.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    tok.Value,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
