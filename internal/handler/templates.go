package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chu-atlantique/bloc-planner/backend/internal/trame"
)

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := strconv.ParseInt(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "Identifiant de trame invalide")
		return
	}

	tmpl, err := h.repository.GetTemplate(r.Context(), templateID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("Trame %d introuvable", templateID))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Trame récupérée avec succès", tmpl)
}

func (h *Handler) GetActiveTemplates(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	start, end, err := parseRangeParams(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	templates, err := h.repository.ActiveTemplatesForSite(r.Context(), siteID, start, end, nil)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Trames récupérées avec succès", templates)
}

func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	templateID, err := strconv.ParseInt(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "Identifiant de trame invalide")
		return
	}

	var req struct {
		StartDate      string `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate        string `json:"endDate" validate:"required,datetime=2006-01-02"`
		ForceOverwrite bool   `json:"forceOverwrite"`
		SkipExisting   bool   `json:"skipExisting"`
		DryRun         bool   `json:"dryRun"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	result := h.integration.Applier().ApplyTemplateToRange(r.Context(), templateID, start, end, siteID, trame.ApplyOptions{
		ForceOverwrite: req.ForceOverwrite,
		SkipExisting:   req.SkipExisting,
		DryRun:         req.DryRun,
	})

	h.successResponse(w, r, result.Message, result)
}

// parseRangeParams reads the optional start/end query parameters; the default
// window is the next four weeks.
func parseRangeParams(r *http.Request) (time.Time, time.Time, error) {
	now := trame.DateOnly(time.Now())
	start, end := now, now.AddDate(0, 0, 28)

	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("paramètre start invalide : %s", v)
		}
		start = parsed
	}
	if v := r.URL.Query().Get("end"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("paramètre end invalide : %s", v)
		}
		end = parsed
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, errors.New("la date de début doit être antérieure à la date de fin")
	}

	return start, end, nil
}
