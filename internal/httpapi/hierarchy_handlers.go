package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"swasthya.org/internal/hierarchy"
)

func (a *API) handleGetDistrict(w http.ResponseWriter, r *http.Request) {
	district, err := a.hier.Store().FindDistrict(r.Context(), chi.URLParam(r, "districtID"))
	if err != nil {
		a.respondHierarchyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, district)
}

type districtUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	State *string `json:"state,omitempty"`
}

func (a *API) handleUpdateDistrict(w http.ResponseWriter, r *http.Request) {
	// The officer guard already loaded and authorized the district.
	district, ok := districtFromContext(r.Context())
	if !ok {
		// Admin bypassed the guard without a load.
		var err error
		district, err = a.hier.Store().FindDistrict(r.Context(), chi.URLParam(r, "districtID"))
		if err != nil {
			a.respondHierarchyError(w, r, err)
			return
		}
	}

	var req districtUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, r, http.StatusBadRequest, "district name cannot be empty")
			return
		}
		district.Name = name
	}
	if req.State != nil {
		district.State = strings.TrimSpace(*req.State)
	}

	if err := a.hier.Store().UpdateDistrict(r.Context(), district); err != nil {
		a.respondHierarchyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, district)
}

func (a *API) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	block, err := a.hier.Store().FindBlock(r.Context(), chi.URLParam(r, "blockID"))
	if err != nil {
		a.respondHierarchyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

type blockUpdateRequest struct {
	Name *string `json:"name,omitempty"`
}

func (a *API) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	block, ok := blockFromContext(r.Context())
	if !ok {
		var err error
		block, err = a.hier.Store().FindBlock(r.Context(), chi.URLParam(r, "blockID"))
		if err != nil {
			a.respondHierarchyError(w, r, err)
			return
		}
	}

	var req blockUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, r, http.StatusBadRequest, "block name cannot be empty")
			return
		}
		block.Name = name
	}

	if err := a.hier.Store().UpdateBlock(r.Context(), block); err != nil {
		a.respondHierarchyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

type setOfficerRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

func (a *API) handleSetBlockOfficer(w http.ResponseWriter, r *http.Request) {
	var req setOfficerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}

	blockID := chi.URLParam(r, "blockID")
	binding := hierarchy.OfficerBinding{
		UserID:     strings.TrimSpace(req.UserID),
		Name:       strings.TrimSpace(req.Name),
		AssignedAt: time.Now().UTC(),
	}
	if err := a.hier.Store().SetBlockOfficer(r.Context(), blockID, binding); err != nil {
		a.respondHierarchyError(w, r, err)
		return
	}

	a.audit.Event(r.Context(), "hierarchy.block.officer_changed", map[string]any{
		"block_id":   blockID,
		"officer_id": binding.UserID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"block_id": blockID,
		"officer":  binding,
	})
}

func (a *API) respondHierarchyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, hierarchy.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	a.log.Error().Err(err).Msg("hierarchy store failure")
	writeError(w, r, http.StatusInternalServerError, "internal error")
}
