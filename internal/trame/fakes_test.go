package trame

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

// fakeGateway is an in-memory Gateway. Aggregate queries are computed from the
// stored duty assignments, except where a test overrides them directly.
type fakeGateway struct {
	mu sync.Mutex

	plans       map[string]*domain.DayPlan        // siteID|date
	rooms       map[string]*domain.RoomAssignment // dayPlanID|roomID|period
	staffAssign []*domain.StaffAssignment
	duties      []*domain.DutyAssignment

	missingCoverage []time.Time
	restViolations  map[string]int
	countsOverride  map[string]int

	failFindOrCreate error
	failCreateDuty   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		plans:          map[string]*domain.DayPlan{},
		rooms:          map[string]*domain.RoomAssignment{},
		restViolations: map[string]int{},
	}
}

func planKey(siteID string, date time.Time) string {
	return siteID + "|" + DateOnly(date).Format("2006-01-02")
}

func roomKey(dayPlanID, roomID string, period domain.Period) string {
	return fmt.Sprintf("%s|%s|%s", dayPlanID, roomID, period)
}

func (g *fakeGateway) FindOrCreateDayPlan(_ context.Context, siteID string, date time.Time) (*domain.DayPlan, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failFindOrCreate != nil {
		return nil, false, g.failFindOrCreate
	}

	key := planKey(siteID, date)
	if plan, ok := g.plans[key]; ok {
		return plan, false, nil
	}

	plan := &domain.DayPlan{
		ID:     uuid.NewString(),
		SiteID: siteID,
		Date:   DateOnly(date),
		Status: domain.PlanStatusDraft,
	}
	g.plans[key] = plan
	return plan, true, nil
}

func (g *fakeGateway) FindRoomAssignment(_ context.Context, dayPlanID, roomID string, period domain.Period) (*domain.RoomAssignment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ra, ok := g.rooms[roomKey(dayPlanID, roomID, period)]; ok {
		return ra, nil
	}
	return nil, nil
}

func (g *fakeGateway) CreateRoomAssignment(_ context.Context, ra *domain.RoomAssignment) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.rooms[roomKey(ra.DayPlanID, ra.RoomID, ra.Period)] = ra
	return nil
}

func (g *fakeGateway) ReplaceRoomAssignment(_ context.Context, ra *domain.RoomAssignment) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.staffAssign[:0]
	for _, sa := range g.staffAssign {
		if sa.RoomAssignmentID != ra.ID {
			kept = append(kept, sa)
		}
	}
	g.staffAssign = kept

	ra.Version++
	g.rooms[roomKey(ra.DayPlanID, ra.RoomID, ra.Period)] = ra
	return nil
}

func (g *fakeGateway) CreateStaffAssignment(_ context.Context, sa *domain.StaffAssignment) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.staffAssign = append(g.staffAssign, sa)
	return nil
}

func (g *fakeGateway) CreateDutyAssignment(_ context.Context, da *domain.DutyAssignment) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failCreateDuty != nil {
		return g.failCreateDuty
	}
	g.duties = append(g.duties, da)
	return nil
}

func (g *fakeGateway) UpdateDutyAssignment(_ context.Context, da *domain.DutyAssignment) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, existing := range g.duties {
		if existing.ID == da.ID {
			if existing.Version != da.Version {
				return fmt.Errorf("version périmée pour %s", da.ID)
			}
			da.Version++
			g.duties[i] = da
			return nil
		}
	}
	return fmt.Errorf("affectation %s introuvable", da.ID)
}

func (g *fakeGateway) DutyAssignmentsInRange(_ context.Context, siteID string, start, end time.Time) ([]*domain.DutyAssignment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := []*domain.DutyAssignment{}
	for _, d := range g.duties {
		if d.SiteID != siteID {
			continue
		}
		day := DateOnly(d.Date)
		if day.Before(DateOnly(start)) || day.After(DateOnly(end)) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (g *fakeGateway) AssignmentCountsByStaff(ctx context.Context, siteID string, start, end time.Time) (map[string]int, error) {
	g.mu.Lock()
	override := g.countsOverride
	g.mu.Unlock()
	if override != nil {
		return override, nil
	}

	duties, err := g.DutyAssignmentsInRange(ctx, siteID, start, end)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, d := range duties {
		counts[d.StaffID]++
	}
	return counts, nil
}

func (g *fakeGateway) DaysWithoutCoverage(_ context.Context, _ string, _, _ time.Time, _ domain.DutyType) ([]time.Time, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.missingCoverage, nil
}

func (g *fakeGateway) ConsecutiveDutyViolations(_ context.Context, _ string, _, _ time.Time) (map[string]int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.restViolations, nil
}

func (g *fakeGateway) roomAssignments() []*domain.RoomAssignment {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*domain.RoomAssignment, 0, len(g.rooms))
	for _, ra := range g.rooms {
		out = append(out, ra)
	}
	return out
}

// fakeTemplates serves templates by ID and returns the active ones ordered by
// descending priority, like the real source does.
type fakeTemplates struct {
	templates map[int64]*domain.ScheduleTemplate
}

func newFakeTemplates(templates ...*domain.ScheduleTemplate) *fakeTemplates {
	byID := map[int64]*domain.ScheduleTemplate{}
	for _, t := range templates {
		byID[t.ID] = t
	}
	return &fakeTemplates{templates: byID}
}

func (f *fakeTemplates) GetTemplate(_ context.Context, id int64) (*domain.ScheduleTemplate, error) {
	tmpl, ok := f.templates[id]
	if !ok {
		return nil, fmt.Errorf("trame %d inexistante", id)
	}
	return tmpl, nil
}

func (f *fakeTemplates) ActiveTemplatesForSite(_ context.Context, siteID string, _, _ time.Time, idsFilter []int64) ([]*domain.ScheduleTemplate, error) {
	out := []*domain.ScheduleTemplate{}
	for _, t := range f.templates {
		if !t.IsActive || t.SiteID != siteID {
			continue
		}
		if len(idsFilter) > 0 && !containsID(idsFilter, t.ID) {
			continue
		}
		out = append(out, t)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Priority > out[i].Priority {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeRoster struct {
	staff  []*domain.StaffMember
	leaves []*domain.Leave
}

func (f *fakeRoster) ActiveStaffBySite(_ context.Context, _ string) ([]*domain.StaffMember, error) {
	return f.staff, nil
}

func (f *fakeRoster) ApprovedLeaves(_ context.Context, _ string, _, _ time.Time) ([]*domain.Leave, error) {
	return f.leaves, nil
}
