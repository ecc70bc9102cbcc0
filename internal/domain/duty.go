package domain

import "time"

type DutyType string

const (
	DutyGarde     DutyType = "GARDE"
	DutyAstreinte DutyType = "ASTREINTE"
)

type DutyStatus string

const (
	DutyStatusPlanned   DutyStatus = "PLANIFIE"
	DutyStatusConfirmed DutyStatus = "CONFIRME"
)

// DutyAssignment is a flat per-staff, per-date duty record (garde or
// astreinte). These are produced by the generator pass, not by templates.
type DutyAssignment struct {
	ID        string     `json:"id"`
	SiteID    string     `json:"siteID"`
	StaffID   string     `json:"staffID"`
	Date      time.Time  `json:"date"`
	Type      DutyType   `json:"type"`
	Status    DutyStatus `json:"status"`
	StartTime string     `json:"startTime"`
	EndTime   string     `json:"endTime"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"createdAt"`
	Version   int32      `json:"-"`
}
