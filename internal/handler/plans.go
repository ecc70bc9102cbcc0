package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chu-atlantique/bloc-planner/backend/internal/export"
	"github.com/chu-atlantique/bloc-planner/backend/internal/trame"
)

func (h *Handler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	var req struct {
		StartDate            string  `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate              string  `json:"endDate" validate:"required,datetime=2006-01-02"`
		UseTemplates         *bool   `json:"useTemplates"`
		TemplateIDs          []int64 `json:"templateIDs"`
		GenerateGardes       bool    `json:"generateGardes"`
		GenerateAstreintes   bool    `json:"generateAstreintes"`
		OptimizeDistribution bool    `json:"optimizeDistribution"`
		RespectPreferences   *bool   `json:"respectPreferences"`
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
	if start.After(end) {
		h.errorResponse(w, r, "La date de début doit être antérieure à la date de fin")
		return
	}

	opts := trame.DefaultGenerateOptions()
	opts.TemplateIDs = req.TemplateIDs
	opts.GenerateGardes = req.GenerateGardes
	opts.GenerateAstreintes = req.GenerateAstreintes
	opts.OptimizeDistribution = req.OptimizeDistribution
	if req.UseTemplates != nil {
		opts.UseTemplates = *req.UseTemplates
	}
	if req.RespectPreferences != nil {
		opts.RespectPreferences = *req.RespectPreferences
	}

	result := h.integration.GeneratePlan(r.Context(), siteID, start, end, opts)

	h.successResponse(w, r, result.Message, result)
}

func (h *Handler) GetDayPlans(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	start, end, err := parseRangeParams(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	plans, err := h.repository.DayPlansInRange(r.Context(), siteID, start, end)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Plannings récupérés avec succès", plans)
}

func (h *Handler) ExportDayPlans(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	start, end, err := parseRangeParams(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	plans, err := h.repository.DayPlansInRange(r.Context(), siteID, start, end)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	duties, err := h.repository.DutyAssignmentsInRange(r.Context(), siteID, start, end)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	workbook, err := export.BuildWorkbook(plans, duties)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	filename := fmt.Sprintf("planning-%s-%s-%s.xlsx", siteID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(workbook); err != nil {
		h.logInternalServerError(r, err)
	}
}
