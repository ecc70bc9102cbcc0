package repository

import (
	"context"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

func (r *Repository) CreateDutyAssignment(ctx context.Context, da *domain.DutyAssignment) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO duty_assignments (id, site_id, staff_id, date, type, status, start_time, end_time, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, version
	`

	params := []any{da.ID, da.SiteID, da.StaffID, da.Date, da.Type, da.Status, da.StartTime, da.EndTime, da.Notes}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&da.CreatedAt, &da.Version); err != nil {
		return err
	}

	return nil
}

// UpdateDutyAssignment writes only when the stored version matches the one
// the caller read, so concurrent regeneration cannot lose updates.
func (r *Repository) UpdateDutyAssignment(ctx context.Context, da *domain.DutyAssignment) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE duty_assignments
		SET
			staff_id = $1,
			status = $2,
			start_time = $3,
			end_time = $4,
			notes = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	params := []any{da.StaffID, da.Status, da.StartTime, da.EndTime, da.Notes, da.ID, da.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&da.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DutyAssignmentsInRange(ctx context.Context, siteID string, start, end time.Time) ([]*domain.DutyAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, staff_id, date, type, status, start_time, end_time, notes, created_at, version
		FROM duty_assignments
		WHERE site_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, staff_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, siteID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	duties := []*domain.DutyAssignment{}
	for rows.Next() {
		da := &domain.DutyAssignment{SiteID: siteID}
		dst := []any{
			&da.ID,
			&da.StaffID,
			&da.Date,
			&da.Type,
			&da.Status,
			&da.StartTime,
			&da.EndTime,
			&da.Notes,
			&da.CreatedAt,
			&da.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		duties = append(duties, da)
	}

	return duties, rows.Err()
}

func (r *Repository) AssignmentCountsByStaff(ctx context.Context, siteID string, start, end time.Time) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT staff_id, COUNT(*)
		FROM duty_assignments
		WHERE site_id = $1 AND date >= $2 AND date <= $3
		GROUP BY staff_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, siteID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var staffID string
		var count int
		if err := rows.Scan(&staffID, &count); err != nil {
			return nil, err
		}
		counts[staffID] = count
	}

	return counts, rows.Err()
}

// DaysWithoutCoverage lists every date of the range that has no duty of the
// given type.
func (r *Repository) DaysWithoutCoverage(ctx context.Context, siteID string, start, end time.Time, dutyType domain.DutyType) ([]time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT d.date::date
		FROM generate_series($2::date, $3::date, '1 day'::interval) AS d(date)
		WHERE NOT EXISTS (
			SELECT 1 FROM duty_assignments da
			WHERE da.site_id = $1
				AND da.date::date = d.date::date
				AND da.type = $4
		)
		ORDER BY d.date
	`

	rows, err := r.dbpool.QueryContext(ctx, query, siteID, start, end, dutyType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}

	return dates, rows.Err()
}

// ConsecutiveDutyViolations counts, per staff member, pairs of consecutive
// garde dates separated by less than 2 days.
func (r *Repository) ConsecutiveDutyViolations(ctx context.Context, siteID string, start, end time.Time) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		WITH consecutive_duties AS (
			SELECT
				staff_id,
				date,
				LAG(date) OVER (PARTITION BY staff_id ORDER BY date) AS prev_date
			FROM duty_assignments
			WHERE site_id = $1
				AND date >= $2
				AND date <= $3
				AND type = 'GARDE'
		)
		SELECT staff_id, COUNT(*)
		FROM consecutive_duties
		WHERE date - prev_date < INTERVAL '2 days'
		GROUP BY staff_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, siteID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	violations := make(map[string]int)
	for rows.Next() {
		var staffID string
		var count int
		if err := rows.Scan(&staffID, &count); err != nil {
			return nil, err
		}
		violations[staffID] = count
	}

	return violations, rows.Err()
}
