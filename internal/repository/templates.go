package repository

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

// ActiveTemplatesForSite returns active trames whose effective window
// intersects [start, end], with rules and habitual staff resolved, ordered by
// descending priority.
func (r *Repository) ActiveTemplatesForSite(ctx context.Context, siteID string, start, end time.Time, idsFilter []int64) ([]*domain.ScheduleTemplate, error) {
	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			t.id,
			t.name,
			t.description,
			t.site_id,
			t.is_active,
			t.recurrence,
			t.week_parity,
			t.priority,
			t.effective_from,
			t.effective_to,
			t.created_at,
			t.version,
			wd.weekday
		FROM schedule_templates t
		LEFT JOIN schedule_template_weekdays wd ON t.id = wd.template_id
		WHERE t.is_active = TRUE
			AND t.site_id = $1
			AND t.effective_from <= $3
			AND (t.effective_to IS NULL OR t.effective_to >= $2)
		ORDER BY t.priority DESC, t.id, wd.weekday
	`

	rows, err := r.dbpool.QueryContext(queryCtx, query, siteID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*domain.ScheduleTemplate{}
	var current *domain.ScheduleTemplate

	for rows.Next() {
		var row struct {
			ID            int64
			Name          string
			Description   string
			SiteID        string
			IsActive      bool
			Recurrence    domain.Recurrence
			WeekParity    domain.WeekParity
			Priority      int
			EffectiveFrom time.Time
			EffectiveTo   sql.NullTime
			CreatedAt     time.Time
			Version       int32

			Weekday sql.NullInt32
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Description,
			&row.SiteID,
			&row.IsActive,
			&row.Recurrence,
			&row.WeekParity,
			&row.Priority,
			&row.EffectiveFrom,
			&row.EffectiveTo,
			&row.CreatedAt,
			&row.Version,
			&row.Weekday,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if current == nil || current.ID != row.ID {
			current = &domain.ScheduleTemplate{
				ID:             row.ID,
				Name:           row.Name,
				Description:    row.Description,
				SiteID:         row.SiteID,
				IsActive:       row.IsActive,
				Recurrence:     row.Recurrence,
				WeekParity:     row.WeekParity,
				ActiveWeekdays: make([]int, 0),
				Priority:       row.Priority,
				EffectiveFrom:  row.EffectiveFrom,
				CreatedAt:      row.CreatedAt,
				Version:        row.Version,
			}
			if row.EffectiveTo.Valid {
				effectiveTo := row.EffectiveTo.Time
				current.EffectiveTo = &effectiveTo
			}
			templates = append(templates, current)
		}

		if row.Weekday.Valid {
			current.ActiveWeekdays = append(current.ActiveWeekdays, int(row.Weekday.Int32))
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The optional ID filter is applied here rather than in SQL to keep the
	// query free of array parameters.
	if len(idsFilter) > 0 {
		filtered := templates[:0]
		for _, t := range templates {
			if slices.Contains(idsFilter, t.ID) {
				filtered = append(filtered, t)
			}
		}
		templates = filtered
	}

	for _, t := range templates {
		rules, err := r.templateRules(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Rules = rules
	}

	return templates, nil
}

func (r *Repository) GetTemplate(ctx context.Context, id int64) (*domain.ScheduleTemplate, error) {
	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			t.name,
			t.description,
			t.site_id,
			t.is_active,
			t.recurrence,
			t.week_parity,
			t.priority,
			t.effective_from,
			t.effective_to,
			t.created_at,
			t.version,
			wd.weekday
		FROM schedule_templates t
		LEFT JOIN schedule_template_weekdays wd ON t.id = wd.template_id
		WHERE t.id = $1
		ORDER BY wd.weekday
	`

	rows, err := r.dbpool.QueryContext(queryCtx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tmpl := &domain.ScheduleTemplate{
		ID:             id,
		ActiveWeekdays: make([]int, 0),
	}
	found := false

	for rows.Next() {
		var row struct {
			Name          string
			Description   string
			SiteID        string
			IsActive      bool
			Recurrence    domain.Recurrence
			WeekParity    domain.WeekParity
			Priority      int
			EffectiveFrom time.Time
			EffectiveTo   sql.NullTime
			CreatedAt     time.Time
			Version       int32

			Weekday sql.NullInt32
		}

		dst := []any{
			&row.Name,
			&row.Description,
			&row.SiteID,
			&row.IsActive,
			&row.Recurrence,
			&row.WeekParity,
			&row.Priority,
			&row.EffectiveFrom,
			&row.EffectiveTo,
			&row.CreatedAt,
			&row.Version,
			&row.Weekday,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !found {
			found = true
			tmpl.Name = row.Name
			tmpl.Description = row.Description
			tmpl.SiteID = row.SiteID
			tmpl.IsActive = row.IsActive
			tmpl.Recurrence = row.Recurrence
			tmpl.WeekParity = row.WeekParity
			tmpl.Priority = row.Priority
			tmpl.EffectiveFrom = row.EffectiveFrom
			tmpl.CreatedAt = row.CreatedAt
			tmpl.Version = row.Version
			if row.EffectiveTo.Valid {
				effectiveTo := row.EffectiveTo.Time
				tmpl.EffectiveTo = &effectiveTo
			}
		}

		if row.Weekday.Valid {
			tmpl.ActiveWeekdays = append(tmpl.ActiveWeekdays, int(row.Weekday.Int32))
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, sql.ErrNoRows
	}

	rules, err := r.templateRules(ctx, id)
	if err != nil {
		return nil, err
	}
	tmpl.Rules = rules

	return tmpl, nil
}

// templateRules loads a template's rules with their required staff roles.
func (r *Repository) templateRules(ctx context.Context, templateID int64) ([]domain.TemplateRule, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			tr.id,
			tr.weekday,
			tr.week_parity,
			tr.period,
			tr.activity_type,
			tr.room_id,
			rs.id,
			rs.role,
			rs.habitual_staff_id,
			rs.is_primary
		FROM template_rules tr
		LEFT JOIN template_rule_staff rs ON tr.id = rs.rule_id
		WHERE tr.template_id = $1 AND tr.is_active = TRUE
		ORDER BY tr.id, rs.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []domain.TemplateRule{}
	var current *domain.TemplateRule

	for rows.Next() {
		var row struct {
			ID           int64
			Weekday      int
			WeekParity   domain.WeekParity
			Period       domain.Period
			ActivityType string
			RoomID       sql.NullString

			StaffRowID      sql.NullInt64
			Role            sql.NullString
			HabitualStaffID sql.NullString
			IsPrimary       sql.NullBool
		}

		dst := []any{
			&row.ID,
			&row.Weekday,
			&row.WeekParity,
			&row.Period,
			&row.ActivityType,
			&row.RoomID,
			&row.StaffRowID,
			&row.Role,
			&row.HabitualStaffID,
			&row.IsPrimary,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if current == nil || current.ID != row.ID {
			rules = append(rules, domain.TemplateRule{
				ID:            row.ID,
				Weekday:       row.Weekday,
				WeekParity:    row.WeekParity,
				Period:        row.Period,
				ActivityType:  row.ActivityType,
				RequiredStaff: make([]domain.RequiredStaffRole, 0),
			})
			current = &rules[len(rules)-1]
			if row.RoomID.Valid {
				roomID := row.RoomID.String
				current.RoomID = &roomID
			}
		}

		if !row.StaffRowID.Valid {
			continue
		}

		req := domain.RequiredStaffRole{
			ID:        row.StaffRowID.Int64,
			Role:      domain.StaffRole(row.Role.String),
			IsPrimary: row.IsPrimary.Bool,
		}
		if row.HabitualStaffID.Valid {
			staffID := row.HabitualStaffID.String
			req.HabitualStaffID = &staffID
		}
		current.RequiredStaff = append(current.RequiredStaff, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

// CreateScheduleTemplate inserts a template with its weekdays, rules and
// required staff in one transaction. Used by the seed tool; templates are
// normally authored by the configuration module.
func (r *Repository) CreateScheduleTemplate(ctx context.Context, tmpl *domain.ScheduleTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO schedule_templates (name, description, site_id, is_active, recurrence, week_parity, priority, effective_from, effective_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, version
	`
	params := []any{tmpl.Name, tmpl.Description, tmpl.SiteID, tmpl.IsActive, tmpl.Recurrence, tmpl.WeekParity, tmpl.Priority, tmpl.EffectiveFrom, tmpl.EffectiveTo}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&tmpl.ID, &tmpl.CreatedAt, &tmpl.Version); err != nil {
		return err
	}

	for _, weekday := range tmpl.ActiveWeekdays {
		query = `
			INSERT INTO schedule_template_weekdays (template_id, weekday)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, tmpl.ID, weekday); err != nil {
			return err
		}
	}

	for i := range tmpl.Rules {
		query = `
			INSERT INTO template_rules (template_id, weekday, week_parity, period, activity_type, room_id, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			RETURNING id
		`
		rule := &tmpl.Rules[i]
		params := []any{tmpl.ID, rule.Weekday, rule.WeekParity, rule.Period, rule.ActivityType, rule.RoomID}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&rule.ID); err != nil {
			return err
		}

		for j := range rule.RequiredStaff {
			query = `
				INSERT INTO template_rule_staff (rule_id, role, habitual_staff_id, is_primary)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`
			req := &rule.RequiredStaff[j]
			params := []any{rule.ID, req.Role, req.HabitualStaffID, req.IsPrimary}
			if err := tx.QueryRowContext(ctx, query, params...).Scan(&req.ID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ActiveTemplateSites lists the sites that carry at least one active trame.
// The worker iterates over this to roll the horizon forward.
func (r *Repository) ActiveTemplateSites(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT DISTINCT site_id FROM schedule_templates WHERE is_active = TRUE`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := []string{}
	for rows.Next() {
		var siteID string
		if err := rows.Scan(&siteID); err != nil {
			return nil, err
		}
		sites = append(sites, siteID)
	}

	return sites, rows.Err()
}
