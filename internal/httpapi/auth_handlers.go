package httpapi

import (
	"errors"
	"net/http"
	"time"

	"swasthya.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User             *auth.User `json:"user"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshExpiresAt time.Time  `json:"refresh_expires_at"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pair, user, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			a.audit.Event(r.Context(), "auth.login.rejected", map[string]any{"email": req.Email})
			writeError(w, r, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, auth.ErrAccountSuspended):
			writeError(w, r, http.StatusForbidden, "account is suspended")
		default:
			a.log.Error().Err(err).Msg("login failure")
			writeError(w, r, http.StatusInternalServerError, "login error")
		}
		return
	}

	a.session.writePair(w, pair)
	a.audit.Event(r.Context(), "auth.login", map[string]any{
		"user_id": user.ID,
		"role":    string(user.Role()),
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		User:             user,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	})
}

// handleRefresh rotates the whole pair from the refresh cookie. The silent
// renewal inside the gate covers normal traffic; this endpoint lets clients
// refresh proactively.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	creds := a.session.credentials(r)
	if creds.Refresh == "" {
		writeError(w, r, http.StatusUnauthorized, "refresh token required")
		return
	}

	pair, user, err := a.auth.Refresh(r.Context(), creds.Refresh)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrSessionExpired), errors.Is(err, auth.ErrUserNotFound):
			a.session.clear(w)
			writeError(w, r, http.StatusUnauthorized, "session expired, please log in again")
		case errors.Is(err, auth.ErrAccountSuspended):
			a.session.clear(w)
			writeError(w, r, http.StatusForbidden, "account is suspended")
		default:
			a.log.Error().Err(err).Msg("refresh failure")
			writeError(w, r, http.StatusInternalServerError, "refresh error")
		}
		return
	}

	a.session.writePair(w, pair)
	a.audit.Event(r.Context(), "auth.token.refreshed", map[string]any{"user_id": user.ID})
	writeJSON(w, http.StatusOK, sessionResponse{
		User:             user,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	})
}

// handleLogout clears session cookies. With no server-side token store the
// refresh token stays cryptographically valid until expiry; the cookie
// removal is the whole revocation. Accepted risk, documented.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.session.clear(w)
	a.audit.Event(r.Context(), "auth.logout", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
