// Package seed installs development fixtures: a site's roster, a few approved
// leaves and a weekly trame covering the operating rooms.
package seed

import (
	"context"
	"log/slog"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
	"github.com/chu-atlantique/bloc-planner/backend/internal/repository"
)

const SiteID = "site-principal"

var rooms = []string{"salle-1", "salle-2", "salle-3"}

type staffFixture struct {
	id        string
	firstName string
	lastName  string
	role      domain.StaffRole
}

var staffFixtures = []staffFixture{
	{"mar-dupont", "Claire", "Dupont", domain.RoleMAR},
	{"mar-martin", "Julien", "Martin", domain.RoleMAR},
	{"mar-bernard", "Sophie", "Bernard", domain.RoleMAR},
	{"mar-petit", "Antoine", "Petit", domain.RoleMAR},
	{"iade-robert", "Camille", "Robert", domain.RoleIADE},
	{"iade-richard", "Lucas", "Richard", domain.RoleIADE},
	{"iade-durand", "Emma", "Durand", domain.RoleIADE},
	{"chir-moreau", "Paul", "Moreau", domain.RoleChirurgien},
	{"chir-laurent", "Isabelle", "Laurent", domain.RoleChirurgien},
}

func Run(ctx context.Context, repo *repository.Repository) error {
	for _, f := range staffFixtures {
		member := &domain.StaffMember{
			ID:          f.id,
			FirstName:   f.firstName,
			LastName:    f.lastName,
			Role:        f.role,
			SiteID:      SiteID,
			IsActive:    true,
			WorkPattern: "TEMPS_PLEIN",
		}
		if err := repo.CreateStaffMember(ctx, member); err != nil {
			return err
		}
		slog.Info("personnel créé", "id", member.ID, "role", member.Role)
	}

	// One approved leave so generation has a blackout to work around.
	leaveStart := mondayOfNextWeek()
	leave := &domain.Leave{
		StaffID:   "mar-petit",
		StartDate: leaveStart,
		EndDate:   leaveStart.AddDate(0, 0, 4),
		Type:      "CONGE_ANNUEL",
		Status:    domain.LeaveStatusApproved,
	}
	if err := repo.CreateLeave(ctx, leave); err != nil {
		return err
	}
	slog.Info("congé créé", "staff", leave.StaffID, "start", leave.StartDate.Format("2006-01-02"))

	tmpl := weeklyTemplate()
	if err := repo.CreateScheduleTemplate(ctx, tmpl); err != nil {
		return err
	}
	slog.Info("trame créée", "id", tmpl.ID, "name", tmpl.Name)

	return nil
}

// weeklyTemplate builds a Monday-to-Friday trame: each room is staffed
// morning and afternoon by its habitual team.
func weeklyTemplate() *domain.ScheduleTemplate {
	marByRoom := []string{"mar-dupont", "mar-martin", "mar-bernard"}
	iadeByRoom := []string{"iade-robert", "iade-richard", "iade-durand"}
	surgeonByRoom := []string{"chir-moreau", "chir-laurent", "chir-moreau"}

	rules := []domain.TemplateRule{}
	for weekday := 1; weekday <= 5; weekday++ {
		for i, room := range rooms {
			roomID := room
			for _, period := range []domain.Period{domain.PeriodMorning, domain.PeriodAfternoon} {
				rules = append(rules, domain.TemplateRule{
					Weekday:      weekday,
					WeekParity:   domain.WeekParityAll,
					Period:       period,
					ActivityType: "ANESTHESIE_BLOC",
					RoomID:       &roomID,
					RequiredStaff: []domain.RequiredStaffRole{
						{Role: domain.RoleMAR, HabitualStaffID: &marByRoom[i], IsPrimary: false},
						{Role: domain.RoleIADE, HabitualStaffID: &iadeByRoom[i], IsPrimary: true},
						{Role: domain.RoleChirurgien, HabitualStaffID: &surgeonByRoom[i], IsPrimary: false},
					},
				})
			}
		}
	}

	return &domain.ScheduleTemplate{
		Name:           "Trame hebdomadaire bloc",
		Description:    "Couverture standard du bloc du lundi au vendredi",
		SiteID:         SiteID,
		IsActive:       true,
		Recurrence:     domain.RecurrenceWeekly,
		WeekParity:     domain.WeekParityAll,
		ActiveWeekdays: []int{1, 2, 3, 4, 5},
		Priority:       10,
		EffectiveFrom:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Rules:          rules,
	}
}

func mondayOfNextWeek() time.Time {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Monday {
		day = day.AddDate(0, 0, 1)
	}
	return day.AddDate(0, 0, 7)
}
