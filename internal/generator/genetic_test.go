package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testRequest() *Request {
	return &Request{
		SiteID: "site-test",
		Start:  day(2025, time.January, 6),
		End:    day(2025, time.January, 10),
		DutyTypes: []domain.DutyType{
			domain.DutyGarde,
		},
		Roster: []*domain.StaffMember{
			{ID: "mar-a", Role: domain.RoleMAR, IsActive: true},
			{ID: "mar-b", Role: domain.RoleMAR, IsActive: true},
			{ID: "mar-c", Role: domain.RoleMAR, IsActive: true},
			{ID: "iade-a", Role: domain.RoleIADE, IsActive: true},
			{ID: "chir-a", Role: domain.RoleChirurgien, IsActive: true},
		},
		Weights: DefaultWeights(),
	}
}

func smallParams() Parameters {
	return Parameters{
		PopulationSize: 30,
		MaxGenerations: 60,
		CrossoverRate:  0.8,
		MutationRate:   0.05,
		EliteCount:     2,
	}
}

func TestGenetic_CoversEverySlotWithEligibleStaff(t *testing.T) {
	g := NewGenetic(smallParams())

	result, err := g.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	require.True(t, result.Validation.Valid, "violations : %v", result.Validation.Violations)
	require.Len(t, result.Proposals, 5, "une garde par jour")

	covered := map[string]bool{}
	for _, p := range result.Proposals {
		assert.Equal(t, domain.DutyGarde, p.Type)
		assert.Equal(t, domain.DutyStatusPlanned, p.Status)
		assert.Equal(t, "20:00:00", p.StartTime)
		assert.Equal(t, "08:00:00", p.EndTime)
		// Gardes go to MAR only.
		assert.Contains(t, []string{"mar-a", "mar-b", "mar-c"}, p.StaffID)
		covered[p.Date.Format("2006-01-02")] = true
	}
	assert.Len(t, covered, 5)
}

func TestGenetic_NeverAssignsDuringLeave(t *testing.T) {
	req := testRequest()
	req.Leaves = []*domain.Leave{
		{
			StaffID:   "mar-a",
			StartDate: day(2025, time.January, 6),
			EndDate:   day(2025, time.January, 10),
			Status:    domain.LeaveStatusApproved,
		},
	}
	g := NewGenetic(smallParams())

	result, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	require.True(t, result.Validation.Valid, "violations : %v", result.Validation.Violations)
	for _, p := range result.Proposals {
		assert.NotEqual(t, "mar-a", p.StaffID, "mar-a est en congé sur toute la plage")
	}
}

func TestGenetic_KeepExistingLeavesCoveredSlotsAlone(t *testing.T) {
	req := testRequest()
	req.KeepExisting = true
	req.Existing = []*domain.DutyAssignment{
		{StaffID: "mar-a", Date: day(2025, time.January, 6), Type: domain.DutyGarde},
		{StaffID: "mar-b", Date: day(2025, time.January, 7), Type: domain.DutyGarde},
	}
	g := NewGenetic(smallParams())

	result, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	require.True(t, result.Validation.Valid, "violations : %v", result.Validation.Violations)
	require.Len(t, result.Proposals, 3, "seuls les jours non couverts sont générés")
	for _, p := range result.Proposals {
		assert.NotEqual(t, day(2025, time.January, 6), p.Date)
		assert.NotEqual(t, day(2025, time.January, 7), p.Date)
	}
}

func TestGenetic_ReportsUncoverableSlots(t *testing.T) {
	req := testRequest()
	// No MAR in the roster: gardes cannot be covered at all.
	req.Roster = []*domain.StaffMember{
		{ID: "iade-a", Role: domain.RoleIADE, IsActive: true},
		{ID: "chir-a", Role: domain.RoleChirurgien, IsActive: true},
	}
	g := NewGenetic(smallParams())

	result, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, result.Validation.Valid)
	assert.Len(t, result.Validation.Violations, 5, "une violation par jour sans candidat")
	assert.Empty(t, result.Proposals)
}

func TestGenetic_AstreintesAcceptIADE(t *testing.T) {
	req := testRequest()
	req.DutyTypes = []domain.DutyType{domain.DutyAstreinte}
	req.Roster = []*domain.StaffMember{
		{ID: "iade-a", Role: domain.RoleIADE, IsActive: true},
		{ID: "iade-b", Role: domain.RoleIADE, IsActive: true},
	}
	g := NewGenetic(smallParams())

	result, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	require.True(t, result.Validation.Valid, "violations : %v", result.Validation.Violations)
	require.Len(t, result.Proposals, 5)
	for _, p := range result.Proposals {
		assert.Equal(t, "08:00:00", p.StartTime)
		assert.Equal(t, "20:00:00", p.EndTime)
	}
}

func TestGenetic_InactiveStaffIsNeverPicked(t *testing.T) {
	req := testRequest()
	req.Roster = []*domain.StaffMember{
		{ID: "mar-a", Role: domain.RoleMAR, IsActive: true},
		{ID: "mar-off", Role: domain.RoleMAR, IsActive: false},
	}
	g := NewGenetic(smallParams())

	result, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	for _, p := range result.Proposals {
		assert.Equal(t, "mar-a", p.StaffID)
	}
}

func TestGenetic_EmptyRangeIsValidAndEmpty(t *testing.T) {
	req := testRequest()
	req.DutyTypes = nil
	g := NewGenetic(smallParams())

	result, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.Validation.Valid)
	assert.Empty(t, result.Proposals)
}

func TestGenetic_CancellationAbortsSearch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGenetic(smallParams())
	_, err := g.Generate(ctx, testRequest())

	assert.ErrorIs(t, err, context.Canceled)
}
