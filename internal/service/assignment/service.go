package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldserve/booking-api/internal/email"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
	"github.com/fieldserve/booking-api/internal/service/directory"
	"github.com/fieldserve/booking-api/internal/service/event"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/metrics"
)

// validTransitions is the assignment status machine. Anything not listed is
// rejected with INVALID_TRANSITION; declined and completed are terminal.
var validTransitions = map[model.AssignmentStatus][]model.AssignmentStatus{
	model.AssignmentStatusAssigned: {model.AssignmentStatusAccepted, model.AssignmentStatusDeclined},
	model.AssignmentStatusAccepted: {model.AssignmentStatusCompleted},
}

func canTransition(from, to model.AssignmentStatus) bool {
	for _, allowed := range validTransitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

type Service struct {
	assignmentRepo repository.AssignmentRepository
	bookingRepo    repository.BookingRepository
	directory      *directory.Service
	events         *event.Service
	email          email.Service
	metrics        *metrics.Metrics
}

func NewService(
	assignmentRepo repository.AssignmentRepository,
	bookingRepo repository.BookingRepository,
	dir *directory.Service,
	events *event.Service,
	emailSvc email.Service,
	m *metrics.Metrics,
) *Service {
	return &Service{
		assignmentRepo: assignmentRepo,
		bookingRepo:    bookingRepo,
		directory:      dir,
		events:         events,
		email:          emailSvc,
		metrics:        m,
	}
}

// Assign attaches a staff member to a booking within the caller's company;
// another tenant's booking is indistinguishable from a missing one. The
// employee record is resolved (and auto-provisioned) first, then the
// assignment row is inserted optimistically; the partial unique index on
// (booking_id, employee_id) for non-declined rows turns double-assignment
// into a clean conflict.
func (s *Service) Assign(ctx context.Context, bookingID, companyID uuid.UUID, req *model.AssignStaffRequest) (*model.StaffAssignment, error) {
	booking, err := s.bookingRepo.GetForCompany(ctx, bookingID, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	employee, err := s.directory.Resolve(ctx, req.ProfileID, booking.CompanyID)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.AssignmentRoleEmployee
	}

	assignment := &model.StaffAssignment{
		BookingID:  bookingID,
		EmployeeID: req.ProfileID,
		Role:       role,
		Status:     model.AssignmentStatusAssigned,
		Notes:      req.Notes,
		AssignedAt: time.Now(),
	}
	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			if s.metrics != nil {
				s.metrics.AssignmentConflicts.Inc()
			}
			return nil, apperrors.Conflict("DUPLICATE_ASSIGNMENT", "employee is already assigned to this booking")
		case errors.Is(err, repository.ErrInvalidReference):
			return nil, apperrors.BadRequest("FOREIGN_KEY_VIOLATION", "referenced booking or profile does not exist")
		default:
			return nil, apperrors.Internal("ASSIGNMENT_FAILED", err)
		}
	}

	if s.metrics != nil {
		s.metrics.AssignmentsCreated.Inc()
	}
	s.events.Record(ctx, model.EventAssignmentCreated, map[string]interface{}{
		"assignment_id": assignment.ID,
		"booking_id":    bookingID,
		"profile_id":    req.ProfileID,
		"role":          role,
	})
	if employee.Email != "" {
		if err := s.email.SendAssignmentNotification(ctx, employee.Email, employee.Name, booking); err != nil {
			log.Warn().Err(err).
				Str("assignment_id", assignment.ID.String()).
				Msg("failed to send assignment notification")
		}
	}

	return assignment, nil
}

// UpdateStatus moves an assignment through the status machine on behalf of
// the acting profile. The lookup is scoped to (id, booking, profile) so an
// assignment belonging to someone else is indistinguishable from a missing
// one.
func (s *Service) UpdateStatus(ctx context.Context, assignmentID, bookingID uuid.UUID, profileID model.ProfileID, companyID uuid.UUID, req *model.UpdateAssignmentRequest) (*model.StaffAssignment, error) {
	booking, err := s.bookingRepo.GetForCompany(ctx, bookingID, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	// The acting profile must already be on the company roster; status
	// changes never provision employees.
	if _, err := s.directory.Lookup(ctx, profileID, booking.CompanyID); err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetForEmployee(ctx, assignmentID, bookingID, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	return s.transition(ctx, assignment, req.Status, req.Notes)
}

// Pickup is the mobile accept flow: only an assignment still in assigned may
// be picked up, and the error names the current status so the client can
// explain why.
func (s *Service) Pickup(ctx context.Context, profileID model.ProfileID, req *model.PickupJobRequest) (*model.JobDetail, error) {
	job, err := s.assignmentRepo.GetJobForEmployee(ctx, req.AssignmentID, req.BookingID, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	if job.Status != model.AssignmentStatusAssigned {
		return nil, apperrors.BadRequest("INVALID_STATE",
			fmt.Sprintf("Cannot pick up job. Current status: %s", job.Status))
	}

	updated, err := s.transition(ctx, &job.StaffAssignment, model.AssignmentStatusAccepted, req.Notes)
	if err != nil {
		return nil, err
	}
	job.StaffAssignment = *updated
	return job, nil
}

func (s *Service) transition(ctx context.Context, assignment *model.StaffAssignment, to model.AssignmentStatus, notes string) (*model.StaffAssignment, error) {
	from := assignment.Status
	if !canTransition(from, to) {
		return nil, apperrors.Conflict("INVALID_TRANSITION",
			fmt.Sprintf("cannot transition assignment from %s to %s", from, to))
	}

	now := time.Now()
	assignment.Status = to
	if notes != "" {
		assignment.Notes = notes
	}
	switch to {
	case model.AssignmentStatusAccepted:
		assignment.AcceptedAt = &now
	case model.AssignmentStatusCompleted:
		assignment.CompletedAt = &now
	}

	if err := s.assignmentRepo.UpdateStatus(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	if s.metrics != nil {
		s.metrics.AssignmentTransitions.WithLabelValues(string(from), string(to)).Inc()
	}
	s.events.Record(ctx, model.EventAssignmentStatusChanged, map[string]interface{}{
		"assignment_id": assignment.ID,
		"booking_id":    assignment.BookingID,
		"profile_id":    assignment.EmployeeID,
		"from":          from,
		"to":            to,
	})

	return assignment, nil
}

// Get returns a single assignment with employee display fields for the admin
// view. The booking scope check keeps the lookup tenant-safe.
func (s *Service) Get(ctx context.Context, assignmentID, bookingID, companyID uuid.UUID) (*model.AssignmentDetail, error) {
	if _, err := s.bookingRepo.GetForCompany(ctx, bookingID, companyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	detail, err := s.assignmentRepo.GetDetail(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	if detail.BookingID != bookingID {
		return nil, apperrors.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found")
	}
	return detail, nil
}

// ListForBooking returns assignments with employee display fields for the
// admin view.
func (s *Service) ListForBooking(ctx context.Context, bookingID, companyID uuid.UUID) ([]*model.AssignmentDetail, error) {
	if _, err := s.bookingRepo.GetForCompany(ctx, bookingID, companyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	details, err := s.assignmentRepo.ListForBooking(ctx, bookingID)
	if err != nil {
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return details, nil
}

// Unassign removes an assignment that has not been responded to. Accepted or
// completed assignments cannot be removed this way.
func (s *Service) Unassign(ctx context.Context, assignmentID, bookingID, companyID uuid.UUID) error {
	if _, err := s.bookingRepo.GetForCompany(ctx, bookingID, companyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
		}
		return apperrors.Internal("INTERNAL_ERROR", err)
	}

	if err := s.assignmentRepo.DeleteAssigned(ctx, assignmentID, bookingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("ASSIGNMENT_NOT_FOUND", "assignment not found or already responded to")
		}
		return apperrors.Internal("INTERNAL_ERROR", err)
	}
	return nil
}

// ListJobs returns the acting profile's assignments joined with booking
// summaries, optionally filtered by status.
func (s *Service) ListJobs(ctx context.Context, profileID model.ProfileID, status model.AssignmentStatus) ([]*model.JobDetail, error) {
	if status != "" {
		switch status {
		case model.AssignmentStatusAssigned, model.AssignmentStatusAccepted,
			model.AssignmentStatusDeclined, model.AssignmentStatusCompleted:
		default:
			return nil, apperrors.BadRequest("INVALID_STATUS", fmt.Sprintf("unknown assignment status: %s", status))
		}
	}

	jobs, err := s.assignmentRepo.ListJobsForEmployee(ctx, profileID, status)
	if err != nil {
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return jobs, nil
}

// Earnings summarizes completed assignments for the acting profile over a
// date range.
func (s *Service) Earnings(ctx context.Context, profileID model.ProfileID, from, to time.Time) (*model.EarningsSummary, error) {
	if to.Before(from) {
		return nil, apperrors.BadRequest("INVALID_DATE_RANGE", "end date must not be before start date")
	}

	summary, err := s.assignmentRepo.Earnings(ctx, profileID, from, to)
	if err != nil {
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return summary, nil
}
