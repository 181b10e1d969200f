package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"swasthya.org/internal/auth"
)

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role,omitempty"`
	DistrictID string `json:"district_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	VillageID  string `json:"village_id,omitempty"`
}

// handleRegister creates an account and opens a session for it, so a fresh
// signup does not bounce through a second login round trip.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	role := auth.Role(req.Role)
	if req.Role != "" {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role = parsed
	}

	user, err := a.auth.Register(r.Context(), auth.Registration{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		Hierarchy: auth.Hierarchy{
			DistrictID: req.DistrictID,
			BlockID:    req.BlockID,
			VillageID:  req.VillageID,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, r, http.StatusConflict, "email already registered")
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			a.log.Error().Err(err).Msg("registration failure")
			writeError(w, r, http.StatusInternalServerError, "registration error")
		}
		return
	}

	pair, _, err := a.auth.Login(r.Context(), user.Email, req.Password)
	if err != nil {
		a.log.Error().Err(err).Msg("post-registration login failure")
		writeError(w, r, http.StatusInternalServerError, "registration error")
		return
	}

	a.session.writePair(w, pair)
	a.audit.Event(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
		"role":    string(user.Role()),
	})
	writeJSON(w, http.StatusCreated, sessionResponse{
		User:             user,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	})
}

type setUserStatusRequest struct {
	Status string `json:"status"`
}

// handleSetUserStatus suspends, reinstates or soft-deletes an account.
func (a *API) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req setUserStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	userID := chi.URLParam(r, "userID")
	if err := a.auth.SetUserStatus(r.Context(), userID, req.Status); err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			writeError(w, r, http.StatusNotFound, "user not found")
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			a.log.Error().Err(err).Msg("set user status failure")
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	a.audit.Event(r.Context(), "user.status_changed", map[string]any{
		"target_user_id": userID,
		"status":         req.Status,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"status":  req.Status,
	})
}
