package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"swasthya.org/internal/auth"
	"swasthya.org/internal/report"
)

type reportContextKey struct{}

// loadReport resolves {reportID} and attaches the report both for the
// ownership check and for the handler.
func (a *API) loadReport(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rep, err := a.reports.Get(r.Context(), chi.URLParam(r, "reportID"))
		if err != nil {
			a.respondReportError(w, r, err)
			return
		}
		ctx := ContextWithResource(r.Context(), rep)
		ctx = contextWithReport(ctx, rep)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithReport(ctx context.Context, rep *report.Report) context.Context {
	return context.WithValue(ctx, reportContextKey{}, rep)
}

func reportFromContext(ctx context.Context) (*report.Report, bool) {
	rep, ok := ctx.Value(reportContextKey{}).(*report.Report)
	return rep, ok
}

type createReportRequest struct {
	DistrictID  string   `json:"district_id"`
	BlockID     string   `json:"block_id,omitempty"`
	Symptoms    []string `json:"symptoms"`
	WaterSource string   `json:"water_source,omitempty"`
	Severity    string   `json:"severity,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (a *API) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.reports.Create(r.Context(), user.ID, report.Report{
		DistrictID:  strings.TrimSpace(req.DistrictID),
		BlockID:     strings.TrimSpace(req.BlockID),
		Symptoms:    req.Symptoms,
		WaterSource: strings.TrimSpace(req.WaterSource),
		Severity:    strings.TrimSpace(req.Severity),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		a.respondReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val <= 0 || val > 1000 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = val
	}

	reports, err := a.reports.List(r.Context(), r.URL.Query().Get("district_id"), limit)
	if err != nil {
		a.respondReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (a *API) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := reportFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type updateReportRequest struct {
	Symptoms    []string `json:"symptoms,omitempty"`
	WaterSource *string  `json:"water_source,omitempty"`
	Severity    *string  `json:"severity,omitempty"`
	Description *string  `json:"description,omitempty"`
}

func (a *API) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := reportFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	var req updateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Symptoms) > 0 {
		rep.Symptoms = req.Symptoms
	}
	if req.WaterSource != nil {
		rep.WaterSource = strings.TrimSpace(*req.WaterSource)
	}
	if req.Severity != nil {
		rep.Severity = strings.TrimSpace(*req.Severity)
	}
	if req.Description != nil {
		rep.Description = strings.TrimSpace(*req.Description)
	}

	if err := a.reports.Update(r.Context(), rep); err != nil {
		a.respondReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *API) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := reportFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if err := a.reports.Delete(r.Context(), rep.ID); err != nil {
		a.respondReportError(w, r, err)
		return
	}
	a.audit.Event(r.Context(), "report.deleted", map[string]any{"report_id": rep.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) respondReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "report not found")
	case errors.Is(err, report.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		a.log.Error().Err(err).Msg("report store failure")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
