package trame

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
	"github.com/chu-atlantique/bloc-planner/backend/internal/generator"
)

// IntegrationService composes priority-ordered templates over a date range,
// delegates the duty types templates do not produce to the generic generator,
// then validates and scores the persisted plan. It is the sole entry point
// that touches the external collaborators.
type IntegrationService struct {
	gw        Gateway
	templates TemplateSource
	roster    RosterSource
	engine    generator.Engine
	optimizer DistributionOptimizer
	applier   *ApplicationService
	scorer    *EquityScorer
	validator *Validator
}

func NewIntegrationService(gw Gateway, templates TemplateSource, roster RosterSource, engine generator.Engine, optimizer DistributionOptimizer) *IntegrationService {
	if optimizer == nil {
		optimizer = NoopOptimizer()
	}
	return &IntegrationService{
		gw:        gw,
		templates: templates,
		roster:    roster,
		engine:    engine,
		optimizer: optimizer,
		applier:   NewApplicationService(gw, templates),
		scorer:    NewEquityScorer(gw),
		validator: NewValidator(gw),
	}
}

// Applier exposes the underlying application service for callers that apply a
// single template directly.
func (s *IntegrationService) Applier() *ApplicationService {
	return s.applier
}

// GeneratePlan runs the full pipeline for (siteID, [start, end]). Cancelling
// the context between steps returns the partial result accumulated so far;
// no work already persisted is discarded. The method never returns an error
// value: every failure is surfaced inside the result.
func (s *IntegrationService) GeneratePlan(ctx context.Context, siteID string, start, end time.Time, opts GenerateOptions) *domain.IntegrationResult {
	result := &domain.IntegrationResult{
		Conflicts: []string{},
		Warnings:  []string{},
	}

	// 1. Template pass: highest priority first, skipExisting so lower
	// priorities never override slots already claimed in this run.
	if opts.UseTemplates {
		s.applyTemplates(ctx, siteID, start, end, opts.TemplateIDs, result)
	}

	if interrupted(ctx, result) {
		return finish(result)
	}

	// 2. Generator pass for the duty types templates do not cover.
	if opts.GenerateGardes || opts.GenerateAstreintes {
		s.generateDuties(ctx, siteID, start, end, opts, result)
	}

	if interrupted(ctx, result) {
		return finish(result)
	}

	// 3. Optional equity pass: report the score delta, strategy is pluggable.
	if opts.OptimizeDistribution && result.AssignmentsCreated > 0 {
		s.optimizeDistribution(ctx, siteID, start, end, result)
	}

	// 4. Validate the final persisted state.
	validation := s.validator.Validate(ctx, siteID, start, end)
	result.Conflicts = append(result.Conflicts, validation.Errors...)
	result.Warnings = append(result.Warnings, validation.Warnings...)

	return finish(result)
}

func (s *IntegrationService) applyTemplates(ctx context.Context, siteID string, start, end time.Time, idsFilter []int64, result *domain.IntegrationResult) {
	templates, err := s.templates.ActiveTemplatesForSite(ctx, siteID, start, end, idsFilter)
	if err != nil {
		result.Conflicts = append(result.Conflicts, fmt.Sprintf("Récupération des trames impossible : %v", err))
		return
	}

	for _, tmpl := range templates {
		if ctx.Err() != nil {
			// The caller reports the interruption once, with the partial result.
			return
		}

		applied := s.applier.ApplyTemplateToRange(ctx, tmpl.ID, start, end, siteID, ApplyOptions{SkipExisting: true})
		result.PlanningsGenerated += applied.PlanningsCreated
		result.AssignmentsCreated += applied.AssignmentsCreated
		result.Warnings = append(result.Warnings, applied.Warnings...)
		// Per-template failures do not block the rest of the pipeline; they
		// are reported as warnings, not conflicts.
		for _, e := range applied.Errors {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Trame %s : %s", tmpl.Name, e))
		}
	}
}

func (s *IntegrationService) generateDuties(ctx context.Context, siteID string, start, end time.Time, opts GenerateOptions, result *domain.IntegrationResult) {
	staff, err := s.roster.ActiveStaffBySite(ctx, siteID)
	if err != nil {
		result.Conflicts = append(result.Conflicts, fmt.Sprintf("Récupération du personnel impossible : %v", err))
		return
	}
	leaves, err := s.roster.ApprovedLeaves(ctx, siteID, start, end)
	if err != nil {
		result.Conflicts = append(result.Conflicts, fmt.Sprintf("Récupération des congés impossible : %v", err))
		return
	}
	existing, err := s.gw.DutyAssignmentsInRange(ctx, siteID, start, end)
	if err != nil {
		result.Conflicts = append(result.Conflicts, fmt.Sprintf("Récupération des affectations existantes impossible : %v", err))
		return
	}

	dutyTypes := make([]domain.DutyType, 0, 2)
	if opts.GenerateGardes {
		dutyTypes = append(dutyTypes, domain.DutyGarde)
	}
	if opts.GenerateAstreintes {
		dutyTypes = append(dutyTypes, domain.DutyAstreinte)
	}

	req := &generator.Request{
		SiteID:             siteID,
		Start:              DateOnly(start),
		End:                DateOnly(end),
		DutyTypes:          dutyTypes,
		Roster:             staff,
		Leaves:             leaves,
		Existing:           existing,
		KeepExisting:       true,
		RespectPreferences: opts.RespectPreferences,
		Weights:            generator.DefaultWeights(),
	}

	generated, err := s.engine.Generate(ctx, req)
	if err != nil {
		result.Conflicts = append(result.Conflicts, fmt.Sprintf("Échec du générateur : %v", err))
		return
	}

	if !generated.Validation.Valid {
		for _, v := range generated.Validation.Violations {
			result.Conflicts = append(result.Conflicts, v.Message)
		}
		return
	}

	// Persist the proposals that passed the generator's own validation.
	// Persistence errors are best-effort: log, report, keep going.
	saved := 0
	for _, proposal := range generated.Proposals {
		if err := s.gw.CreateDutyAssignment(ctx, proposal); err != nil {
			slog.Error("sauvegarde d'une affectation générée impossible", "site", siteID, "staff", proposal.StaffID, "date", proposal.Date.Format("2006-01-02"), "error", err)
			result.Conflicts = append(result.Conflicts, fmt.Sprintf("Sauvegarde impossible pour %s le %s : %v", proposal.StaffID, proposal.Date.Format("02/01/2006"), err))
			continue
		}
		saved++
	}

	result.PlanningsGenerated += saved
	result.AssignmentsCreated += saved
}

func (s *IntegrationService) optimizeDistribution(ctx context.Context, siteID string, start, end time.Time, result *domain.IntegrationResult) {
	before, err := s.scorer.ComputeScore(ctx, siteID, start, end)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Calcul du score d'équité impossible : %v", err))
		return
	}

	improved, err := s.optimizer.Improve(ctx, siteID, start, end)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Optimisation de la distribution impossible : %v", err))
		return
	}
	if !improved {
		return
	}

	after, err := s.scorer.ComputeScore(ctx, siteID, start, end)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Calcul du score d'équité impossible : %v", err))
		return
	}

	if after > before && before > 0 {
		delta := int(math.Round(float64(after-before) / float64(before) * 100))
		result.Warnings = append(result.Warnings, fmt.Sprintf("Distribution optimisée : score d'équité amélioré de %d%%", delta))
	}
}

func interrupted(ctx context.Context, result *domain.IntegrationResult) bool {
	if err := ctx.Err(); err != nil {
		result.Conflicts = append(result.Conflicts, fmt.Sprintf("Génération interrompue : %v", err))
		return true
	}
	return false
}

func finish(result *domain.IntegrationResult) *domain.IntegrationResult {
	result.Success = len(result.Conflicts) == 0
	if result.Success {
		result.Message = fmt.Sprintf("Planning généré avec succès : %d affectations créées", result.AssignmentsCreated)
	} else {
		result.Message = fmt.Sprintf("Planning généré avec %d conflits", len(result.Conflicts))
	}
	return result
}
