package domain

import "time"

type Recurrence string

const (
	RecurrenceNone   Recurrence = "AUCUNE"
	RecurrenceWeekly Recurrence = "HEBDOMADAIRE"
)

type WeekParity string

const (
	WeekParityAll  WeekParity = "TOUTES"
	WeekParityEven WeekParity = "PAIRES"
	WeekParityOdd  WeekParity = "IMPAIRES"
)

type Period string

const (
	PeriodMorning   Period = "MATIN"
	PeriodAfternoon Period = "APRES_MIDI"
	PeriodFullDay   Period = "JOURNEE_ENTIERE"
)

type StaffRole string

const (
	RoleMAR        StaffRole = "MAR"
	RoleIADE       StaffRole = "IADE"
	RoleChirurgien StaffRole = "CHIRURGIEN"
)

type RequiredStaffRole struct {
	ID              int64     `json:"id"`
	Role            StaffRole `json:"role"`
	HabitualStaffID *string   `json:"habitualStaffID"`
	IsPrimary       bool      `json:"isPrimary"`
}

type TemplateRule struct {
	ID            int64               `json:"id"`
	Weekday       int                 `json:"weekday"` // ISO, Monday = 1
	WeekParity    WeekParity          `json:"weekParity"`
	Period        Period              `json:"period"`
	ActivityType  string              `json:"activityType"`
	RoomID        *string             `json:"roomID"`
	RequiredStaff []RequiredStaffRole `json:"requiredStaff"`
}

// ScheduleTemplate (trame) is a recurring schedule definition. It is authored
// by the configuration module and consumed read-only here.
type ScheduleTemplate struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	SiteID         string         `json:"siteID"`
	IsActive       bool           `json:"isActive"`
	Recurrence     Recurrence     `json:"recurrence"`
	WeekParity     WeekParity     `json:"weekParity"`
	ActiveWeekdays []int          `json:"activeWeekdays"` // ISO, Monday = 1
	Priority       int            `json:"priority"`
	EffectiveFrom  time.Time      `json:"effectiveFrom"`
	EffectiveTo    *time.Time     `json:"effectiveTo"`
	Rules          []TemplateRule `json:"rules"`
	CreatedAt      time.Time      `json:"createdAt"`
	Version        int32          `json:"-"`
}
