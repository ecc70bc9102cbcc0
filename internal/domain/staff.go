package domain

import "time"

type StaffMember struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Role        StaffRole `json:"role"`
	SiteID      string    `json:"siteID"`
	IsActive    bool      `json:"isActive"`
	WorkPattern string    `json:"workPattern"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}

type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "PENDING"
	LeaveStatusApproved LeaveStatus = "APPROVED"
	LeaveStatusRejected LeaveStatus = "REJECTED"
)

// Leave is an approved absence window. Leaves are owned by the leave module;
// this core only reads them as blackout periods.
type Leave struct {
	ID        string      `json:"id"`
	StaffID   string      `json:"staffID"`
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	Type      string      `json:"type"`
	Status    LeaveStatus `json:"status"`
}

// Covers reports whether the leave blacks out the given date.
func (l *Leave) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}
