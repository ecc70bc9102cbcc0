// Package trame implements the template-to-plan application engine: recurrence
// resolution, rule-to-assignment mapping, multi-template composition with the
// duty generator, and post-generation validation.
package trame

import (
	"context"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

// Gateway is the persistence surface this core depends on. It is
// storage-technology-agnostic: the algorithms only depend on the returned
// shapes, not on how the aggregates are computed.
type Gateway interface {
	// FindOrCreateDayPlan must be race-safe for concurrent calls on the same
	// (siteID, date): compare-and-create, never a duplicate key failure.
	FindOrCreateDayPlan(ctx context.Context, siteID string, date time.Time) (plan *domain.DayPlan, created bool, err error)
	// FindRoomAssignment returns (nil, nil) when the slot is empty.
	FindRoomAssignment(ctx context.Context, dayPlanID, roomID string, period domain.Period) (*domain.RoomAssignment, error)
	CreateRoomAssignment(ctx context.Context, ra *domain.RoomAssignment) error
	// ReplaceRoomAssignment overwrites an existing slot in place and drops its
	// staff assignments.
	ReplaceRoomAssignment(ctx context.Context, ra *domain.RoomAssignment) error
	CreateStaffAssignment(ctx context.Context, sa *domain.StaffAssignment) error

	CreateDutyAssignment(ctx context.Context, da *domain.DutyAssignment) error
	// UpdateDutyAssignment uses the record's version for optimistic
	// concurrency; a stale version fails instead of silently overwriting.
	UpdateDutyAssignment(ctx context.Context, da *domain.DutyAssignment) error
	DutyAssignmentsInRange(ctx context.Context, siteID string, start, end time.Time) ([]*domain.DutyAssignment, error)

	AssignmentCountsByStaff(ctx context.Context, siteID string, start, end time.Time) (map[string]int, error)
	DaysWithoutCoverage(ctx context.Context, siteID string, start, end time.Time, dutyType domain.DutyType) ([]time.Time, error)
	ConsecutiveDutyViolations(ctx context.Context, siteID string, start, end time.Time) (map[string]int, error)
}

// TemplateSource provides read-only access to trames. Templates are authored
// by the configuration module; rules come with resolved habitual staff.
type TemplateSource interface {
	GetTemplate(ctx context.Context, id int64) (*domain.ScheduleTemplate, error)
	// ActiveTemplatesForSite returns active templates whose effective window
	// intersects [start, end], ordered by descending priority.
	ActiveTemplatesForSite(ctx context.Context, siteID string, start, end time.Time, idsFilter []int64) ([]*domain.ScheduleTemplate, error)
}

// RosterSource provides the site roster and its approved absence windows.
type RosterSource interface {
	ActiveStaffBySite(ctx context.Context, siteID string) ([]*domain.StaffMember, error)
	ApprovedLeaves(ctx context.Context, siteID string, start, end time.Time) ([]*domain.Leave, error)
}

// ApplyOptions control the overwrite policy when a template lands on dates
// that already carry a plan.
type ApplyOptions struct {
	// ForceOverwrite replaces existing room assignments in matching slots.
	ForceOverwrite bool
	// SkipExisting skips occupied slots without recording an error. This is
	// how lower-priority templates are kept from overriding higher-priority
	// ones during composition.
	SkipExisting bool
	// DryRun reports what would be touched without persisting anything.
	DryRun bool
}

// GenerateOptions control a full plan generation run.
type GenerateOptions struct {
	UseTemplates         bool
	TemplateIDs          []int64
	GenerateGardes       bool
	GenerateAstreintes   bool
	OptimizeDistribution bool
	RespectPreferences   bool
}

// DefaultGenerateOptions matches the behaviour callers get when they pass no
// explicit options: templates on, preferences respected.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		UseTemplates:       true,
		RespectPreferences: true,
	}
}

// DateOnly truncates a timestamp to its calendar day in UTC. All plan dates
// are stored and compared at day precision.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
