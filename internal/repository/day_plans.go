package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
	"github.com/google/uuid"
)

// FindOrCreateDayPlan is race-safe: the insert relies on the unique
// (site_id, date) constraint, so two concurrent calls settle on one row.
func (r *Repository) FindOrCreateDayPlan(ctx context.Context, siteID string, date time.Time) (*domain.DayPlan, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO day_plans (id, site_id, date, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (site_id, date) DO NOTHING
	`

	res, err := r.dbpool.ExecContext(ctx, query, uuid.NewString(), siteID, date, domain.PlanStatusDraft)
	if err != nil {
		return nil, false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	query = `
		SELECT id, status, created_at, version
		FROM day_plans
		WHERE site_id = $1 AND date = $2
	`

	plan := &domain.DayPlan{
		SiteID: siteID,
		Date:   date,
	}
	dst := []any{&plan.ID, &plan.Status, &plan.CreatedAt, &plan.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, siteID, date).Scan(dst...); err != nil {
		return nil, false, err
	}

	return plan, inserted == 1, nil
}

func (r *Repository) FindRoomAssignment(ctx context.Context, dayPlanID, roomID string, period domain.Period) (*domain.RoomAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, surgeon_id, expected_specialty, notes, created_at, version
		FROM room_assignments
		WHERE day_plan_id = $1 AND room_id = $2 AND period = $3
	`

	ra := &domain.RoomAssignment{
		DayPlanID: dayPlanID,
		RoomID:    roomID,
		Period:    period,
	}
	dst := []any{&ra.ID, &ra.SurgeonID, &ra.ExpectedSpecialty, &ra.Notes, &ra.CreatedAt, &ra.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, dayPlanID, roomID, period).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return ra, nil
}

func (r *Repository) CreateRoomAssignment(ctx context.Context, ra *domain.RoomAssignment) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO room_assignments (id, day_plan_id, room_id, period, surgeon_id, expected_specialty, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, version
	`

	params := []any{ra.ID, ra.DayPlanID, ra.RoomID, ra.Period, ra.SurgeonID, ra.ExpectedSpecialty, ra.Notes}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&ra.CreatedAt, &ra.Version); err != nil {
		return err
	}

	return nil
}

// ReplaceRoomAssignment overwrites a slot in place and drops the staff
// assignments of the previous occupant.
func (r *Repository) ReplaceRoomAssignment(ctx context.Context, ra *domain.RoomAssignment) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `DELETE FROM staff_assignments WHERE room_assignment_id = $1`
	if _, err := tx.ExecContext(ctx, query, ra.ID); err != nil {
		return err
	}

	query = `
		UPDATE room_assignments
		SET
			surgeon_id = $1,
			expected_specialty = $2,
			notes = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	params := []any{ra.SurgeonID, ra.ExpectedSpecialty, ra.Notes, ra.ID, ra.Version}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&ra.Version); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) CreateStaffAssignment(ctx context.Context, sa *domain.StaffAssignment) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO staff_assignments (id, room_assignment_id, staff_id, role, is_primary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	params := []any{sa.ID, sa.RoomAssignmentID, sa.StaffID, sa.Role, sa.IsPrimary}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&sa.CreatedAt); err != nil {
		return err
	}

	return nil
}

// DayPlansInRange loads plans with their room and staff assignments nested.
func (r *Repository) DayPlansInRange(ctx context.Context, siteID string, start, end time.Time) ([]*domain.DayPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			dp.id,
			dp.date,
			dp.status,
			dp.created_at,
			dp.version,
			ra.id,
			ra.room_id,
			ra.period,
			ra.surgeon_id,
			ra.expected_specialty,
			ra.notes,
			sa.id,
			sa.staff_id,
			sa.role,
			sa.is_primary
		FROM day_plans dp
		LEFT JOIN room_assignments ra ON dp.id = ra.day_plan_id
		LEFT JOIN staff_assignments sa ON ra.id = sa.room_assignment_id
		WHERE dp.site_id = $1 AND dp.date >= $2 AND dp.date <= $3
		ORDER BY dp.date, ra.id, sa.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, siteID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plansMap := make(map[string]*domain.DayPlan)
	assignmentsMap := make(map[string]map[string]*domain.RoomAssignment) // planID -> assignmentID -> assignment
	planOrder := []string{}

	for rows.Next() {
		var row struct {
			ID        string
			Date      time.Time
			Status    domain.PlanStatus
			CreatedAt time.Time
			Version   int32

			RAID              sql.NullString
			RoomID            sql.NullString
			Period            sql.NullString
			SurgeonID         sql.NullString
			ExpectedSpecialty sql.NullString
			Notes             sql.NullString

			SAID      sql.NullString
			StaffID   sql.NullString
			Role      sql.NullString
			IsPrimary sql.NullBool
		}

		dst := []any{
			&row.ID,
			&row.Date,
			&row.Status,
			&row.CreatedAt,
			&row.Version,
			&row.RAID,
			&row.RoomID,
			&row.Period,
			&row.SurgeonID,
			&row.ExpectedSpecialty,
			&row.Notes,
			&row.SAID,
			&row.StaffID,
			&row.Role,
			&row.IsPrimary,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := plansMap[row.ID]; !exists {
			plansMap[row.ID] = &domain.DayPlan{
				ID:        row.ID,
				SiteID:    siteID,
				Date:      row.Date,
				Status:    row.Status,
				CreatedAt: row.CreatedAt,
				Version:   row.Version,
			}
			assignmentsMap[row.ID] = make(map[string]*domain.RoomAssignment)
			planOrder = append(planOrder, row.ID)
		}

		// A plan without room assignments still counts; skip the nested scan.
		if !row.RAID.Valid {
			continue
		}

		ra, exists := assignmentsMap[row.ID][row.RAID.String]
		if !exists {
			ra = &domain.RoomAssignment{
				ID:                row.RAID.String,
				DayPlanID:         row.ID,
				RoomID:            row.RoomID.String,
				Period:            domain.Period(row.Period.String),
				ExpectedSpecialty: row.ExpectedSpecialty.String,
				Notes:             row.Notes.String,
				StaffAssignments:  make([]domain.StaffAssignment, 0),
			}
			if row.SurgeonID.Valid {
				surgeonID := row.SurgeonID.String
				ra.SurgeonID = &surgeonID
			}
			assignmentsMap[row.ID][row.RAID.String] = ra
		}

		if !row.SAID.Valid {
			continue
		}

		ra.StaffAssignments = append(ra.StaffAssignments, domain.StaffAssignment{
			ID:               row.SAID.String,
			RoomAssignmentID: ra.ID,
			StaffID:          row.StaffID.String,
			Role:             domain.StaffRole(row.Role.String),
			IsPrimary:        row.IsPrimary.Bool,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	plans := make([]*domain.DayPlan, 0, len(planOrder))
	for _, planID := range planOrder {
		plan := plansMap[planID]
		plan.RoomAssignments = make([]domain.RoomAssignment, 0, len(assignmentsMap[planID]))
		for _, ra := range assignmentsMap[planID] {
			plan.RoomAssignments = append(plan.RoomAssignments, *ra)
		}
		plans = append(plans, plan)
	}

	return plans, nil
}
