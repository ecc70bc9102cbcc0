package trame

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
	"github.com/google/uuid"
)

// ApplicationService applies a trame to concrete calendar dates, creating day
// plans and room/staff assignments under the requested overwrite policy.
//
// Failures follow a collect-and-continue policy: one rule never aborts its
// date, one date never aborts the batch. Everything that went wrong is in the
// returned ApplyResult.
type ApplicationService struct {
	gw        Gateway
	templates TemplateSource
	locks     *planLocks
}

func NewApplicationService(gw Gateway, templates TemplateSource) *ApplicationService {
	return &ApplicationService{
		gw:        gw,
		templates: templates,
		locks:     newPlanLocks(),
	}
}

// ApplyTemplateToRange applies one template over [start, end] for a site.
// Configuration problems (inactive template, effective window, no rules, site
// mismatch) fail fast with zero dates touched. All other failures are
// accumulated in the result; the method never returns an error value.
func (s *ApplicationService) ApplyTemplateToRange(ctx context.Context, templateID int64, start, end time.Time, siteID string, opts ApplyOptions) *domain.ApplyResult {
	result := &domain.ApplyResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	tmpl, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("trame %d introuvable : %v", templateID, err))
		return result
	}

	if errs := validateApplyParameters(tmpl, start, end, siteID); len(errs) > 0 {
		result.Errors = append(result.Errors, errs...)
		return result
	}

	applicableDates := GenerateApplicableDates(tmpl, start, end)
	if len(applicableDates) == 0 {
		result.Warnings = append(result.Warnings, "Aucune date applicable trouvée pour cette plage et cette récurrence")
		result.Success = true
		result.Message = "Aucune date à traiter"
		return result
	}

	if opts.DryRun {
		result.Success = true
		result.Message = fmt.Sprintf("Mode simulation : %d dates seraient traitées", len(applicableDates))
		result.PlanningsCreated = len(applicableDates)
		result.AssignmentsCreated = len(applicableDates) * len(tmpl.Rules)
		return result
	}

	for _, date := range applicableDates {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("application interrompue : %v", err))
			break
		}

		out := s.applyToDate(ctx, tmpl, date, siteID, opts)
		if out.planCreated {
			result.PlanningsCreated++
		}
		result.AssignmentsCreated += out.assignmentsCreated
		result.Warnings = append(result.Warnings, out.warnings...)
		result.Errors = append(result.Errors, out.errors...)
	}

	result.Success = len(result.Errors) == 0
	if result.Success {
		result.Message = fmt.Sprintf("Trame appliquée avec succès sur %d jours", result.PlanningsCreated)
	} else {
		result.Message = fmt.Sprintf("Trame appliquée partiellement avec %d erreurs", len(result.Errors))
	}

	return result
}

func validateApplyParameters(tmpl *domain.ScheduleTemplate, start, end time.Time, siteID string) []string {
	var errs []string

	if !tmpl.IsActive {
		errs = append(errs, "La trame n'est pas active")
	}
	if start.After(end) {
		errs = append(errs, "La date de début doit être antérieure à la date de fin")
	}
	if DateOnly(start).Before(DateOnly(tmpl.EffectiveFrom)) {
		errs = append(errs, fmt.Sprintf("La date de début est antérieure à la date d'effet de la trame (%s)", tmpl.EffectiveFrom.Format("02/01/2006")))
	}
	if tmpl.EffectiveTo != nil && DateOnly(end).After(DateOnly(*tmpl.EffectiveTo)) {
		errs = append(errs, fmt.Sprintf("La date de fin est postérieure à la date de fin d'effet de la trame (%s)", tmpl.EffectiveTo.Format("02/01/2006")))
	}
	if len(tmpl.Rules) == 0 {
		errs = append(errs, "La trame ne contient aucune affectation active")
	}
	if tmpl.SiteID != "" && tmpl.SiteID != siteID {
		errs = append(errs, fmt.Sprintf("La trame est associée au site %s mais l'application est demandée pour le site %s", tmpl.SiteID, siteID))
	}

	return errs
}

type dayOutcome struct {
	planCreated        bool
	assignmentsCreated int
	warnings           []string
	errors             []string
}

// applyToDate holds the per-(site, date) critical section from plan
// find-or-create through rule application, so concurrent generation runs for
// the same day cannot interleave.
func (s *ApplicationService) applyToDate(ctx context.Context, tmpl *domain.ScheduleTemplate, date time.Time, siteID string, opts ApplyOptions) dayOutcome {
	out := dayOutcome{}

	unlock := s.locks.lock(siteID, date)
	defer unlock()

	plan, created, err := s.gw.FindOrCreateDayPlan(ctx, siteID, date)
	if err != nil {
		slog.Error("création du planning impossible", "site", siteID, "date", date.Format("2006-01-02"), "error", err)
		out.errors = append(out.errors, fmt.Sprintf("Erreur pour la date %s : %v", date.Format("02/01/2006"), err))
		return out
	}
	out.planCreated = created

	if !created && !opts.ForceOverwrite {
		out.warnings = append(out.warnings, fmt.Sprintf("Planning existant pour le %s - utilisez forceOverwrite pour écraser", date.Format("02/01/2006")))
	}

	weekday := isoWeekday(date)
	for _, rule := range tmpl.Rules {
		if rule.Weekday != weekday || !weekParityMatches(rule.WeekParity, date) {
			continue
		}

		created, err := s.applyRule(ctx, plan, tmpl, rule, opts)
		if err != nil {
			out.errors = append(out.errors, fmt.Sprintf("Erreur lors de la création de l'affectation pour %s le %s : %v", rule.ActivityType, date.Format("02/01/2006"), err))
			continue
		}
		if created {
			out.assignmentsCreated++
		}
	}

	return out
}

// applyRule maps one template rule to a concrete room assignment. Returns
// whether a new assignment was counted; occupied slots return (false, nil)
// under skipExisting and an error otherwise, unless overwriting was forced.
func (s *ApplicationService) applyRule(ctx context.Context, plan *domain.DayPlan, tmpl *domain.ScheduleTemplate, rule domain.TemplateRule, opts ApplyOptions) (bool, error) {
	if rule.RoomID == nil {
		return false, fmt.Errorf("aucune salle définie pour l'activité %s", rule.ActivityType)
	}

	existing, err := s.gw.FindRoomAssignment(ctx, plan.ID, *rule.RoomID, rule.Period)
	if err != nil {
		return false, err
	}

	if existing != nil {
		if opts.SkipExisting {
			return false, nil
		}
		if !opts.ForceOverwrite {
			return false, fmt.Errorf("affectation existante pour la salle %s en %s", *rule.RoomID, rule.Period)
		}
	}

	ra := &domain.RoomAssignment{
		ID:                uuid.NewString(),
		DayPlanID:         plan.ID,
		RoomID:            *rule.RoomID,
		Period:            rule.Period,
		SurgeonID:         habitualSurgeon(rule),
		ExpectedSpecialty: rule.ActivityType,
		Notes:             fmt.Sprintf("Généré automatiquement depuis la trame %d", tmpl.ID),
	}

	if existing != nil {
		ra.ID = existing.ID
		ra.Version = existing.Version
		if err := s.gw.ReplaceRoomAssignment(ctx, ra); err != nil {
			return false, err
		}
	} else if err := s.gw.CreateRoomAssignment(ctx, ra); err != nil {
		return false, err
	}

	for _, req := range rule.RequiredStaff {
		if req.HabitualStaffID == nil || req.Role == domain.RoleChirurgien {
			continue
		}
		sa := &domain.StaffAssignment{
			ID:               uuid.NewString(),
			RoomAssignmentID: ra.ID,
			StaffID:          *req.HabitualStaffID,
			Role:             req.Role,
			// IADE are primary anesthetists by default.
			IsPrimary: req.IsPrimary || req.Role == domain.RoleIADE,
		}
		if err := s.gw.CreateStaffAssignment(ctx, sa); err != nil {
			return false, err
		}
	}

	return true, nil
}

// habitualSurgeon picks the rule's habitual surgeon, when one is configured.
func habitualSurgeon(rule domain.TemplateRule) *string {
	for _, req := range rule.RequiredStaff {
		if req.Role == domain.RoleChirurgien && req.HabitualStaffID != nil {
			return req.HabitualStaffID
		}
	}
	return nil
}
