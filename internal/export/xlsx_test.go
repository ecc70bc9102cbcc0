package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestBuildWorkbook(t *testing.T) {
	plans := []*domain.DayPlan{
		{
			ID:     "plan-1",
			SiteID: "site-test",
			Date:   time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
			Status: domain.PlanStatusDraft,
			RoomAssignments: []domain.RoomAssignment{
				{
					RoomID:            "salle-1",
					Period:            domain.PeriodMorning,
					SurgeonID:         strPtr("chir-a"),
					ExpectedSpecialty: "ANESTHESIE_BLOC",
					StaffAssignments: []domain.StaffAssignment{
						{StaffID: "mar-a", Role: domain.RoleMAR},
						{StaffID: "iade-a", Role: domain.RoleIADE, IsPrimary: true},
					},
				},
				{
					RoomID: "salle-2",
					Period: domain.PeriodAfternoon,
				},
			},
		},
	}
	duties := []*domain.DutyAssignment{
		{
			StaffID:   "mar-b",
			Date:      time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
			Type:      domain.DutyGarde,
			Status:    domain.DutyStatusPlanned,
			StartTime: "20:00:00",
			EndTime:   "08:00:00",
		},
	}

	payload, err := BuildWorkbook(plans, duties)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Planning bloc", "Gardes et astreintes"}, f.GetSheetList())

	rows, err := f.GetRows("Planning bloc")
	require.NoError(t, err)
	// Header, two staffed rows for salle-1, one bare row for salle-2.
	require.Len(t, rows, 4)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, []string{"06/01/2025", "DRAFT", "salle-1", "MATIN", "ANESTHESIE_BLOC", "chir-a", "mar-a", "MAR", "non"}, rows[1])
	assert.Equal(t, "oui", rows[2][8], "l'IADE référent est marqué oui")
	assert.Equal(t, "salle-2", rows[3][2])

	dutyRows, err := f.GetRows("Gardes et astreintes")
	require.NoError(t, err)
	require.Len(t, dutyRows, 2)
	assert.Equal(t, []string{"06/01/2025", "GARDE", "mar-b", "PLANIFIE", "20:00:00", "08:00:00"}, dutyRows[1])
}

func TestBuildWorkbook_EmptyInput(t *testing.T) {
	payload, err := BuildWorkbook(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Planning bloc")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "seul l'en-tête est présent")
}
