package httpapi

import (
	"errors"
	"net/http"

	"swasthya.org/internal/auth"
	"swasthya.org/internal/obs"
)

// authenticate is the gate every protected route passes through: extract
// credentials, verify, silently renew through the refresh token when the
// access token is unusable, load the principal, attach or reject.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := a.session.credentials(r)

		session, err := a.auth.Authenticate(r.Context(), creds)
		if err != nil {
			a.rejectAuthentication(w, r, creds, err)
			return
		}

		if session.RenewedAccess != nil {
			// The renewal is the only cookie write on the read path.
			// Concurrent requests may each mint one; all are equivalent.
			a.session.writeAccess(w, *session.RenewedAccess)
			obs.ObserveRefresh("renewed")
			a.audit.Event(r.Context(), "auth.token.renewed", map[string]any{
				"user_id": session.User.ID,
			})
		}

		ctx := auth.ContextWithPrincipal(r.Context(), session.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) rejectAuthentication(w http.ResponseWriter, r *http.Request, creds auth.Credentials, err error) {
	obs.ObserveDenial("authn")

	switch {
	case errors.Is(err, auth.ErrNoToken):
		writeError(w, r, http.StatusUnauthorized, "authentication required")

	case errors.Is(err, auth.ErrSessionExpired):
		if creds.Refresh != "" {
			obs.ObserveRefresh("rejected")
		}
		a.session.clear(w)
		writeError(w, r, http.StatusUnauthorized, "session expired, please log in again")

	case errors.Is(err, auth.ErrUserNotFound):
		// Same surface as any other auth failure; account existence is
		// not revealed.
		writeError(w, r, http.StatusUnauthorized, "authentication failed")

	case errors.Is(err, auth.ErrAccountSuspended):
		writeError(w, r, http.StatusForbidden, "account is suspended")

	default:
		a.log.Error().Err(err).Msg("authentication gate failure")
		writeError(w, r, http.StatusInternalServerError, "authentication error")
	}
}
