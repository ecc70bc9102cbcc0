package domain

import "time"

type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "DRAFT"
	PlanStatusPublished PlanStatus = "PUBLISHED"
)

type StaffAssignment struct {
	ID               string    `json:"id"`
	RoomAssignmentID string    `json:"roomAssignmentID"`
	StaffID          string    `json:"staffID"`
	Role             StaffRole `json:"role"`
	IsPrimary        bool      `json:"isPrimary"`
	CreatedAt        time.Time `json:"createdAt"`
}

type RoomAssignment struct {
	ID                string            `json:"id"`
	DayPlanID         string            `json:"dayPlanID"`
	RoomID            string            `json:"roomID"`
	Period            Period            `json:"period"`
	SurgeonID         *string           `json:"surgeonID"`
	ExpectedSpecialty string            `json:"expectedSpecialty"`
	Notes             string            `json:"notes"`
	StaffAssignments  []StaffAssignment `json:"staffAssignments"`
	CreatedAt         time.Time         `json:"createdAt"`
	Version           int32             `json:"-"`
}

// DayPlan is the concrete per-site, per-date container for a day's
// assignments. (siteID, date) is unique.
type DayPlan struct {
	ID              string           `json:"id"`
	SiteID          string           `json:"siteID"`
	Date            time.Time        `json:"date"`
	Status          PlanStatus       `json:"status"`
	RoomAssignments []RoomAssignment `json:"roomAssignments"`
	CreatedAt       time.Time        `json:"createdAt"`
	Version         int32            `json:"-"`
}
