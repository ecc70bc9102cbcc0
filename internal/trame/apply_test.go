package trame

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

const testSite = "site-test"

func strPtr(s string) *string { return &s }

// blocTemplate builds an active weekly template with one morning rule per
// given room, staffed by a habitual MAR, IADE and surgeon.
func blocTemplate(id int64, priority int, weekdays []int, rooms ...string) *domain.ScheduleTemplate {
	rules := []domain.TemplateRule{}
	for _, weekday := range weekdays {
		for i, room := range rooms {
			rules = append(rules, domain.TemplateRule{
				ID:           int64(len(rules) + 1),
				Weekday:      weekday,
				WeekParity:   domain.WeekParityAll,
				Period:       domain.PeriodMorning,
				ActivityType: "ANESTHESIE_BLOC",
				RoomID:       strPtr(room),
				RequiredStaff: []domain.RequiredStaffRole{
					{Role: domain.RoleMAR, HabitualStaffID: strPtr(fmt.Sprintf("mar-%d-%d", id, i))},
					{Role: domain.RoleIADE, HabitualStaffID: strPtr(fmt.Sprintf("iade-%d-%d", id, i))},
					{Role: domain.RoleChirurgien, HabitualStaffID: strPtr(fmt.Sprintf("chir-%d-%d", id, i))},
				},
			})
		}
	}

	return &domain.ScheduleTemplate{
		ID:             id,
		Name:           fmt.Sprintf("Trame %d", id),
		SiteID:         testSite,
		IsActive:       true,
		Recurrence:     domain.RecurrenceWeekly,
		WeekParity:     domain.WeekParityAll,
		ActiveWeekdays: weekdays,
		Priority:       priority,
		EffectiveFrom:  day(2024, time.January, 1),
		Rules:          rules,
	}
}

func TestApplyTemplateToRange_CreatesPlansAndAssignments(t *testing.T) {
	gw := newFakeGateway()
	tmpl := blocTemplate(1, 10, []int{1, 3}, "salle-1", "salle-2")
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	// 2025-01-06..12 contains one Monday and one Wednesday.
	result := svc.ApplyTemplateToRange(context.Background(), 1, day(2025, time.January, 6), day(2025, time.January, 12), testSite, ApplyOptions{})

	require.True(t, result.Success, "erreurs : %v", result.Errors)
	assert.Equal(t, 2, result.PlanningsCreated)
	assert.Equal(t, 4, result.AssignmentsCreated)
	assert.Empty(t, result.Errors)

	rooms := gw.roomAssignments()
	require.Len(t, rooms, 4)
	for _, ra := range rooms {
		require.NotNil(t, ra.SurgeonID, "le chirurgien habituel doit être porté par la salle")
	}

	// MAR and IADE get staff assignments; the surgeon never does.
	assert.Len(t, gw.staffAssign, 8)
	for _, sa := range gw.staffAssign {
		assert.NotEqual(t, domain.RoleChirurgien, sa.Role)
		if sa.Role == domain.RoleIADE {
			assert.True(t, sa.IsPrimary, "l'IADE doit être référent")
		}
	}
}

func TestApplyTemplateToRange_InactiveTemplateFailsFast(t *testing.T) {
	gw := newFakeGateway()
	tmpl := blocTemplate(1, 10, []int{1}, "salle-1")
	tmpl.IsActive = false
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	result := svc.ApplyTemplateToRange(context.Background(), 1, day(2025, time.January, 6), day(2025, time.January, 12), testSite, ApplyOptions{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Errors, "La trame n'est pas active")
	assert.Empty(t, gw.roomAssignments(), "aucune écriture attendue")
}

func TestApplyTemplateToRange_ParameterValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*domain.ScheduleTemplate)
		start   time.Time
		end     time.Time
		site    string
		wantErr string
	}{
		{
			name:    "début après fin",
			mutate:  func(*domain.ScheduleTemplate) {},
			start:   day(2025, time.January, 12),
			end:     day(2025, time.January, 6),
			site:    testSite,
			wantErr: "La date de début doit être antérieure à la date de fin",
		},
		{
			name:    "avant la date d'effet",
			mutate:  func(tmpl *domain.ScheduleTemplate) { tmpl.EffectiveFrom = day(2025, time.June, 1) },
			start:   day(2025, time.January, 6),
			end:     day(2025, time.January, 12),
			site:    testSite,
			wantErr: "La date de début est antérieure à la date d'effet de la trame (01/06/2025)",
		},
		{
			name:    "aucune règle",
			mutate:  func(tmpl *domain.ScheduleTemplate) { tmpl.Rules = nil },
			start:   day(2025, time.January, 6),
			end:     day(2025, time.January, 12),
			site:    testSite,
			wantErr: "La trame ne contient aucune affectation active",
		},
		{
			name:    "mauvais site",
			mutate:  func(*domain.ScheduleTemplate) {},
			start:   day(2025, time.January, 6),
			end:     day(2025, time.January, 12),
			site:    "autre-site",
			wantErr: fmt.Sprintf("La trame est associée au site %s mais l'application est demandée pour le site autre-site", testSite),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := newFakeGateway()
			tmpl := blocTemplate(1, 10, []int{1}, "salle-1")
			tc.mutate(tmpl)
			svc := NewApplicationService(gw, newFakeTemplates(tmpl))

			result := svc.ApplyTemplateToRange(context.Background(), 1, tc.start, tc.end, tc.site, ApplyOptions{})

			assert.False(t, result.Success)
			assert.Contains(t, result.Errors, tc.wantErr)
			assert.Zero(t, result.PlanningsCreated)
		})
	}
}

func TestApplyTemplateToRange_NoApplicableDates(t *testing.T) {
	gw := newFakeGateway()
	// Only Mondays; the range is a Saturday and a Sunday.
	tmpl := blocTemplate(1, 10, []int{1}, "salle-1")
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	result := svc.ApplyTemplateToRange(context.Background(), 1, day(2025, time.January, 11), day(2025, time.January, 12), testSite, ApplyOptions{})

	assert.True(t, result.Success)
	assert.Equal(t, "Aucune date à traiter", result.Message)
	assert.Contains(t, result.Warnings, "Aucune date applicable trouvée pour cette plage et cette récurrence")
	assert.Empty(t, result.Errors)
}

func TestApplyTemplateToRange_DryRunPersistsNothing(t *testing.T) {
	gw := newFakeGateway()
	tmpl := blocTemplate(1, 10, []int{1, 3}, "salle-1")
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	result := svc.ApplyTemplateToRange(context.Background(), 1, day(2025, time.January, 6), day(2025, time.January, 12), testSite, ApplyOptions{DryRun: true})

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.PlanningsCreated)
	assert.Empty(t, gw.roomAssignments())
	assert.Empty(t, gw.plans)
}

func TestApplyTemplateToRange_SkipExistingIsIdempotent(t *testing.T) {
	gw := newFakeGateway()
	tmpl := blocTemplate(1, 10, []int{1}, "salle-1", "salle-2")
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	start, end := day(2025, time.January, 6), day(2025, time.January, 12)

	first := svc.ApplyTemplateToRange(context.Background(), 1, start, end, testSite, ApplyOptions{SkipExisting: true})
	require.True(t, first.Success)
	assert.Equal(t, 2, first.AssignmentsCreated)

	second := svc.ApplyTemplateToRange(context.Background(), 1, start, end, testSite, ApplyOptions{SkipExisting: true})
	assert.True(t, second.Success, "un créneau occupé ne doit jamais produire d'erreur en skipExisting")
	assert.Zero(t, second.PlanningsCreated)
	assert.Zero(t, second.AssignmentsCreated)
	assert.NotEmpty(t, second.Warnings)
	assert.Empty(t, second.Errors)

	assert.Len(t, gw.roomAssignments(), 2, "le second passage ne doit rien écrire")
}

func TestApplyTemplateToRange_OccupiedSlotWithoutPolicyIsError(t *testing.T) {
	gw := newFakeGateway()
	tmpl := blocTemplate(1, 10, []int{1}, "salle-1")
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	start, end := day(2025, time.January, 6), day(2025, time.January, 6)

	require.True(t, svc.ApplyTemplateToRange(context.Background(), 1, start, end, testSite, ApplyOptions{}).Success)

	again := svc.ApplyTemplateToRange(context.Background(), 1, start, end, testSite, ApplyOptions{})
	assert.False(t, again.Success)
	require.Len(t, again.Errors, 1)
	assert.Contains(t, again.Errors[0], "affectation existante pour la salle salle-1")
}

func TestApplyTemplateToRange_ForceOverwriteReplaces(t *testing.T) {
	gw := newFakeGateway()
	tmpl := blocTemplate(1, 10, []int{1}, "salle-1")
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	start, end := day(2025, time.January, 6), day(2025, time.January, 6)
	require.True(t, svc.ApplyTemplateToRange(context.Background(), 1, start, end, testSite, ApplyOptions{}).Success)

	before := gw.roomAssignments()
	require.Len(t, before, 1)
	beforeVersion := before[0].Version

	result := svc.ApplyTemplateToRange(context.Background(), 1, start, end, testSite, ApplyOptions{ForceOverwrite: true})

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.AssignmentsCreated)

	after := gw.roomAssignments()
	require.Len(t, after, 1, "l'écrasement remplace sans dupliquer")
	assert.Equal(t, before[0].ID, after[0].ID, "le créneau est remplacé en place")
	assert.Greater(t, after[0].Version, beforeVersion)
}

func TestApplyTemplateToRange_MissingRoomIsPerRuleError(t *testing.T) {
	gw := newFakeGateway()
	tmpl := blocTemplate(1, 10, []int{1}, "salle-1", "salle-2")
	tmpl.Rules[0].RoomID = nil
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	result := svc.ApplyTemplateToRange(context.Background(), 1, day(2025, time.January, 6), day(2025, time.January, 6), testSite, ApplyOptions{})

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "aucune salle définie")
	// The other rule of the same day still went through.
	assert.Equal(t, 1, result.AssignmentsCreated)
}

func TestApplyTemplateToRange_CancellationReturnsPartialResult(t *testing.T) {
	gw := newFakeGateway()
	tmpl := blocTemplate(1, 10, []int{1, 2, 3, 4, 5}, "salle-1")
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.ApplyTemplateToRange(ctx, 1, day(2025, time.January, 6), day(2025, time.January, 12), testSite, ApplyOptions{})

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[len(result.Errors)-1], "application interrompue")
	assert.Zero(t, result.PlanningsCreated, "annulé avant la première date")
}

func TestApplyTemplateToRange_GatewayFailureDoesNotAbortBatch(t *testing.T) {
	gw := newFakeGateway()
	gw.failFindOrCreate = fmt.Errorf("connexion perdue")
	tmpl := blocTemplate(1, 10, []int{1, 3}, "salle-1")
	svc := NewApplicationService(gw, newFakeTemplates(tmpl))

	result := svc.ApplyTemplateToRange(context.Background(), 1, day(2025, time.January, 6), day(2025, time.January, 12), testSite, ApplyOptions{})

	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 2, "une erreur par date, pas d'abandon")
}
