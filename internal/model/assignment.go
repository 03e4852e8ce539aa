package model

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusAccepted  AssignmentStatus = "accepted"
	AssignmentStatusDeclined  AssignmentStatus = "declined"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

type AssignmentRole string

const (
	AssignmentRoleLead       AssignmentRole = "lead"
	AssignmentRoleEmployee   AssignmentRole = "employee"
	AssignmentRoleSupervisor AssignmentRole = "supervisor"
)

// StaffAssignment links one booking to one employee. The employee_id column
// stores the ProfileID, not the employee table's surrogate key; the schema's
// referential constraint points at profiles. At most one non-declined row may
// exist per (booking_id, employee_id), enforced by a partial unique index.
type StaffAssignment struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	BookingID   uuid.UUID        `db:"booking_id" json:"booking_id"`
	EmployeeID  ProfileID        `db:"employee_id" json:"employee_id"`
	Role        AssignmentRole   `db:"role" json:"role"`
	Status      AssignmentStatus `db:"status" json:"status"`
	Notes       string           `db:"notes" json:"notes,omitempty"`
	AssignedAt  time.Time        `db:"assigned_at" json:"assigned_at"`
	AcceptedAt  *time.Time       `db:"accepted_at" json:"accepted_at,omitempty"`
	CompletedAt *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail joins the assignment with the employee's display fields so
// admin lists render without a second round trip.
type AssignmentDetail struct {
	StaffAssignment
	EmployeeName  string `db:"employee_name" json:"employee_name"`
	EmployeeEmail string `db:"employee_email" json:"employee_email"`
	Position      string `db:"position" json:"position"`
}

// JobDetail joins the assignment with its booking summary for the mobile
// client.
type JobDetail struct {
	StaffAssignment
	CustomerName   string        `db:"customer_name" json:"customer_name"`
	ServiceName    string        `db:"service_name" json:"service_name"`
	Address        string        `db:"address" json:"address"`
	ScheduledAt    time.Time     `db:"scheduled_at" json:"scheduled_at"`
	BookingStatus  BookingStatus `db:"booking_status" json:"booking_status"`
	ServicePrice   float64       `db:"service_price" json:"service_price"`
	StaffRequired  int           `db:"staff_required" json:"staff_required"`
	StaffFulfilled int           `db:"staff_fulfilled" json:"staff_fulfilled"`
}

type AssignStaffRequest struct {
	ProfileID ProfileID      `json:"profile_id" binding:"required"`
	Role      AssignmentRole `json:"role" binding:"omitempty,oneof=lead employee supervisor"`
	Notes     string         `json:"notes"`
}

type UpdateAssignmentRequest struct {
	Status AssignmentStatus `json:"status" binding:"required,oneof=accepted declined completed"`
	Notes  string           `json:"notes"`
}

type PickupJobRequest struct {
	BookingID    uuid.UUID `json:"booking_id" binding:"required"`
	AssignmentID uuid.UUID `json:"assignment_id" binding:"required"`
	Notes        string    `json:"notes"`
}
