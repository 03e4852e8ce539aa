package model

import (
	"github.com/google/uuid"
)

// Employee is the tenant-scoped staffing record derived from a Profile. At
// most one employee exists per (profile_id, company_id) pair; the resolver
// auto-provisions the row the first time a staff assignment references a
// profile unknown to the company.
type Employee struct {
	Base
	ProfileID  ProfileID `db:"profile_id" json:"profile_id"`
	CompanyID  uuid.UUID `db:"company_id" json:"company_id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Phone      string    `db:"phone" json:"phone,omitempty"`
	Position   string    `db:"position" json:"position"`
	HourlyRate float64   `db:"hourly_rate" json:"hourly_rate"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}

// Defaults applied when the directory resolver provisions an employee from a
// bare profile.
const (
	DefaultEmployeePosition = "Staff"
)

// CreateEmployeeRequest adds a profile to the company roster ahead of any
// assignment; it rides the same insert path the resolver uses.
type CreateEmployeeRequest struct {
	ProfileID ProfileID `json:"profile_id" binding:"required"`
}

type UpdateEmployeeRequest struct {
	Name       *string  `json:"name"`
	Phone      *string  `json:"phone"`
	Position   *string  `json:"position"`
	HourlyRate *float64 `json:"hourly_rate" binding:"omitempty,gte=0"`
	IsActive   *bool    `json:"is_active"`
}

// EarningsSummary is the mobile app's earnings view, derived from completed
// assignments.
type EarningsSummary struct {
	CompletedJobs int     `db:"completed_jobs" json:"completed_jobs"`
	TotalHours    float64 `db:"total_hours" json:"total_hours"`
	TotalEarnings float64 `db:"total_earnings" json:"total_earnings"`
}
