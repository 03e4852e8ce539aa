package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/model"
)

const assignmentColumns = `
	sa.id, sa.booking_id, sa.employee_id, sa.role, sa.status, sa.notes,
	sa.assigned_at, sa.accepted_at, sa.completed_at, sa.created_at, sa.updated_at
`

func (r *assignmentRepository) Create(ctx context.Context, assignment *model.StaffAssignment) error {
	// Optimistic insert: the partial unique index on (booking_id, employee_id)
	// WHERE status != 'declined' is the only duplicate guard. employee_id
	// stores the ProfileID.
	query := `
		INSERT INTO staff_assignments (
			id, booking_id, employee_id, role, status, notes,
			assigned_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	assignment.ID = uuid.New()
	assignment.AssignedAt = time.Now()
	assignment.CreatedAt = assignment.AssignedAt
	assignment.UpdatedAt = assignment.AssignedAt

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.BookingID,
		assignment.EmployeeID,
		assignment.Role,
		assignment.Status,
		assignment.Notes,
		assignment.AssignedAt,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)
	if err != nil {
		return translateError("failed to create assignment", err)
	}
	return nil
}

func (r *assignmentRepository) GetForEmployee(ctx context.Context, id, bookingID uuid.UUID, profileID model.ProfileID) (*model.StaffAssignment, error) {
	// Ownership is part of the lookup: a row belonging to another employee is
	// indistinguishable from a missing one.
	query := `
		SELECT ` + assignmentColumns + `
		FROM staff_assignments sa
		WHERE sa.id = $1 AND sa.booking_id = $2 AND sa.employee_id = $3
	`
	var assignment model.StaffAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id, bookingID, profileID); err != nil {
		return nil, translateError("failed to get assignment", err)
	}
	return &assignment, nil
}

func (r *assignmentRepository) GetJobForEmployee(ctx context.Context, id, bookingID uuid.UUID, profileID model.ProfileID) (*model.JobDetail, error) {
	query := `
		SELECT ` + assignmentColumns + `,
		       b.customer_name, b.service_name, b.address, b.scheduled_at,
		       b.status AS booking_status, b.service_price, b.staff_required,
		       (SELECT COUNT(*) FROM staff_assignments x
		        WHERE x.booking_id = b.id AND x.status IN ('accepted', 'completed')) AS staff_fulfilled
		FROM staff_assignments sa
		JOIN bookings b ON b.id = sa.booking_id
		WHERE sa.id = $1 AND sa.booking_id = $2 AND sa.employee_id = $3
	`
	var job model.JobDetail
	if err := r.db.GetContext(ctx, &job, query, id, bookingID, profileID); err != nil {
		return nil, translateError("failed to get job", err)
	}
	return &job, nil
}

func (r *assignmentRepository) GetDetail(ctx context.Context, id uuid.UUID) (*model.AssignmentDetail, error) {
	query := `
		SELECT ` + assignmentColumns + `,
		       e.name AS employee_name, e.email AS employee_email, e.position
		FROM staff_assignments sa
		JOIN bookings b ON b.id = sa.booking_id
		JOIN employees e ON e.profile_id = sa.employee_id AND e.company_id = b.company_id
		WHERE sa.id = $1
	`
	var detail model.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, translateError("failed to get assignment detail", err)
	}
	return &detail, nil
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, assignment *model.StaffAssignment) error {
	query := `
		UPDATE staff_assignments
		SET status = $1, notes = $2, accepted_at = $3, completed_at = $4, updated_at = $5
		WHERE id = $6
	`
	assignment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		assignment.Status,
		assignment.Notes,
		assignment.AcceptedAt,
		assignment.CompletedAt,
		assignment.UpdatedAt,
		assignment.ID,
	)
	if err != nil {
		return translateError("failed to update assignment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("failed to get rows affected", err)
	}
	if rows == 0 {
		return translateError("failed to update assignment", sql.ErrNoRows)
	}
	return nil
}

func (r *assignmentRepository) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]*model.AssignmentDetail, error) {
	query := `
		SELECT ` + assignmentColumns + `,
		       e.name AS employee_name, e.email AS employee_email, e.position
		FROM staff_assignments sa
		JOIN bookings b ON b.id = sa.booking_id
		JOIN employees e ON e.profile_id = sa.employee_id AND e.company_id = b.company_id
		WHERE sa.booking_id = $1
		ORDER BY sa.assigned_at ASC
	`
	var details []*model.AssignmentDetail
	if err := r.db.SelectContext(ctx, &details, query, bookingID); err != nil {
		return nil, translateError("failed to list assignments", err)
	}
	return details, nil
}

func (r *assignmentRepository) ListJobsForEmployee(ctx context.Context, profileID model.ProfileID, status model.AssignmentStatus) ([]*model.JobDetail, error) {
	query := `
		SELECT ` + assignmentColumns + `,
		       b.customer_name, b.service_name, b.address, b.scheduled_at,
		       b.status AS booking_status, b.service_price, b.staff_required,
		       (SELECT COUNT(*) FROM staff_assignments x
		        WHERE x.booking_id = b.id AND x.status IN ('accepted', 'completed')) AS staff_fulfilled
		FROM staff_assignments sa
		JOIN bookings b ON b.id = sa.booking_id
		WHERE sa.employee_id = $1
	`
	args := []interface{}{profileID}
	if status != "" {
		query += fmt.Sprintf(" AND sa.status = $%d", len(args)+1)
		args = append(args, status)
	}
	query += " ORDER BY b.scheduled_at ASC"

	var jobs []*model.JobDetail
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, translateError("failed to list jobs", err)
	}
	return jobs, nil
}

func (r *assignmentRepository) DeleteAssigned(ctx context.Context, id, bookingID uuid.UUID) error {
	// Only rows still in 'assigned' can be unassigned by an admin.
	query := `
		DELETE FROM staff_assignments
		WHERE id = $1 AND booking_id = $2 AND status = 'assigned'
	`
	result, err := r.db.ExecContext(ctx, query, id, bookingID)
	if err != nil {
		return translateError("failed to delete assignment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("failed to get rows affected", err)
	}
	if rows == 0 {
		return translateError("failed to delete assignment", sql.ErrNoRows)
	}
	return nil
}

func (r *assignmentRepository) Earnings(ctx context.Context, profileID model.ProfileID, from, to time.Time) (*model.EarningsSummary, error) {
	query := `
		SELECT COUNT(*) AS completed_jobs,
		       COALESCE(SUM(b.duration_minutes) / 60.0, 0) AS total_hours,
		       COALESCE(SUM(b.duration_minutes / 60.0 * e.hourly_rate), 0) AS total_earnings
		FROM staff_assignments sa
		JOIN bookings b ON b.id = sa.booking_id
		JOIN employees e ON e.profile_id = sa.employee_id AND e.company_id = b.company_id
		WHERE sa.employee_id = $1
		  AND sa.status = 'completed'
		  AND sa.completed_at >= $2
		  AND sa.completed_at < $3
	`
	var summary model.EarningsSummary
	if err := r.db.GetContext(ctx, &summary, query, profileID, from, to); err != nil {
		return nil, translateError("failed to get earnings", err)
	}
	return &summary, nil
}
