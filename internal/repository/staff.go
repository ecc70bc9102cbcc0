package repository

import (
	"context"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
	"github.com/google/uuid"
)

func (r *Repository) ActiveStaffBySite(ctx context.Context, siteID string) ([]*domain.StaffMember, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, first_name, last_name, role, work_pattern, created_at, version
		FROM staff_members
		WHERE site_id = $1 AND is_active = TRUE
		ORDER BY last_name, first_name
	`

	rows, err := r.dbpool.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := []*domain.StaffMember{}
	for rows.Next() {
		member := &domain.StaffMember{
			SiteID:   siteID,
			IsActive: true,
		}
		dst := []any{
			&member.ID,
			&member.FirstName,
			&member.LastName,
			&member.Role,
			&member.WorkPattern,
			&member.CreatedAt,
			&member.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		staff = append(staff, member)
	}

	return staff, rows.Err()
}

// ApprovedLeaves returns the approved absence windows of the site's staff
// overlapping [start, end].
func (r *Repository) ApprovedLeaves(ctx context.Context, siteID string, start, end time.Time) ([]*domain.Leave, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT l.id, l.staff_id, l.start_date, l.end_date, l.type, l.status
		FROM leaves l
		JOIN staff_members sm ON l.staff_id = sm.id
		WHERE sm.site_id = $1
			AND l.status = 'APPROVED'
			AND l.start_date <= $3
			AND l.end_date >= $2
		ORDER BY l.start_date
	`

	rows, err := r.dbpool.QueryContext(ctx, query, siteID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaves := []*domain.Leave{}
	for rows.Next() {
		leave := &domain.Leave{}
		dst := []any{
			&leave.ID,
			&leave.StaffID,
			&leave.StartDate,
			&leave.EndDate,
			&leave.Type,
			&leave.Status,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		leaves = append(leaves, leave)
	}

	return leaves, rows.Err()
}

// CreateStaffMember is used by the seed tool.
func (r *Repository) CreateStaffMember(ctx context.Context, member *domain.StaffMember) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if member.ID == "" {
		member.ID = uuid.NewString()
	}

	query := `
		INSERT INTO staff_members (id, first_name, last_name, role, site_id, is_active, work_pattern)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, version
	`

	params := []any{member.ID, member.FirstName, member.LastName, member.Role, member.SiteID, member.IsActive, member.WorkPattern}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&member.CreatedAt, &member.Version); err != nil {
		return err
	}

	return nil
}

// CreateLeave is used by the seed tool.
func (r *Repository) CreateLeave(ctx context.Context, leave *domain.Leave) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}

	query := `
		INSERT INTO leaves (id, staff_id, start_date, end_date, type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	params := []any{leave.ID, leave.StaffID, leave.StartDate, leave.EndDate, leave.Type, leave.Status}
	if _, err := r.dbpool.ExecContext(ctx, query, params...); err != nil {
		return err
	}

	return nil
}
