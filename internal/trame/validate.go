package trame

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

// Validator checks a persisted plan for coverage gaps, double bookings and
// rest-period violations. Findings are structured data; nothing here blocks
// the plan by itself.
type Validator struct {
	gw Gateway
}

func NewValidator(gw Gateway) *Validator {
	return &Validator{gw: gw}
}

func (v *Validator) Validate(ctx context.Context, siteID string, start, end time.Time) domain.ValidationResult {
	result := domain.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	// Minimum coverage: every date needs at least one garde.
	missing, err := v.gw.DaysWithoutCoverage(ctx, siteID, start, end, domain.DutyGarde)
	if err != nil {
		slog.Error("vérification de couverture impossible", "site", siteID, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("Vérification de couverture impossible : %v", err))
	} else {
		for _, date := range missing {
			result.Errors = append(result.Errors, fmt.Sprintf("Aucune garde le %s", date.Format("02/01/2006")))
		}
	}

	// Double booking: the same staff member with more than one duty on the
	// same date, regardless of period.
	duties, err := v.gw.DutyAssignmentsInRange(ctx, siteID, start, end)
	if err != nil {
		slog.Error("recherche de conflits impossible", "site", siteID, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("Recherche de conflits impossible : %v", err))
	} else {
		result.Errors = append(result.Errors, doubleBookings(duties)...)
	}

	// Rest period: consecutive duty dates less than 2 days apart. Soft rule,
	// reported as warnings only.
	violations, err := v.gw.ConsecutiveDutyViolations(ctx, siteID, start, end)
	if err != nil {
		slog.Error("vérification du repos impossible", "site", siteID, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("Vérification du repos impossible : %v", err))
	} else {
		staffIDs := make([]string, 0, len(violations))
		for staffID := range violations {
			staffIDs = append(staffIDs, staffID)
		}
		sort.Strings(staffIDs)
		for _, staffID := range staffIDs {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Repos insuffisant entre gardes pour %s (%d violation(s))", staffID, violations[staffID]))
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func doubleBookings(duties []*domain.DutyAssignment) []string {
	type staffDay struct {
		staffID string
		day     string
	}

	perStaffDay := make(map[staffDay]int)
	for _, d := range duties {
		perStaffDay[staffDay{d.StaffID, DateOnly(d.Date).Format("02/01/2006")}]++
	}

	conflicts := make([]staffDay, 0)
	for key, n := range perStaffDay {
		if n > 1 {
			conflicts = append(conflicts, key)
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].day != conflicts[j].day {
			return conflicts[i].day < conflicts[j].day
		}
		return conflicts[i].staffID < conflicts[j].staffID
	})

	errs := make([]string, 0, len(conflicts))
	for _, key := range conflicts {
		errs = append(errs, fmt.Sprintf("Conflit : %s est affecté %d fois le %s", key.staffID, perStaffDay[key], key.day))
	}
	return errs
}
