package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/model"
)

// Sentinel errors storage implementations translate driver errors into.
// Services branch on these with errors.Is; the optimistic-insert pattern
// depends on ErrDuplicate being distinguishable from other failures.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrInvalidReference = errors.New("invalid reference")
)

// All repository interfaces in one file
type (
	ProfileRepository interface {
		Get(ctx context.Context, id model.ProfileID) (*model.Profile, error)
		GetByEmail(ctx context.Context, email string) (*model.Profile, error)
		UpdateLastLogin(ctx context.Context, id model.ProfileID, at time.Time) error
	}

	EmployeeRepository interface {
		// GetByProfile joins on (profile_id, company_id), the resolver's key.
		GetByProfile(ctx context.Context, profileID model.ProfileID, companyID uuid.UUID) (*model.Employee, error)
		Get(ctx context.Context, id model.EmployeeID) (*model.Employee, error)
		Create(ctx context.Context, employee *model.Employee) error
		Update(ctx context.Context, employee *model.Employee) error
		List(ctx context.Context, companyID uuid.UUID) ([]*model.Employee, error)
	}

	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		GetForCompany(ctx context.Context, id, companyID uuid.UUID) (*model.Booking, error)
		Update(ctx context.Context, booking *model.Booking) error
		UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.BookingPaymentStatus) error
		List(ctx context.Context, companyID uuid.UUID, filters *model.BookingFilters) ([]*model.Booking, error)
		// Count ignores filters.Page: it is the unpaged total for the same
		// filter set.
		Count(ctx context.Context, companyID uuid.UUID, filters *model.BookingFilters) (int, error)
	}

	AssignmentRepository interface {
		Create(ctx context.Context, assignment *model.StaffAssignment) error
		// GetForEmployee filters by id, booking and acting profile in one
		// query; the ownership check is baked into the lookup.
		GetForEmployee(ctx context.Context, id, bookingID uuid.UUID, profileID model.ProfileID) (*model.StaffAssignment, error)
		GetJobForEmployee(ctx context.Context, id, bookingID uuid.UUID, profileID model.ProfileID) (*model.JobDetail, error)
		GetDetail(ctx context.Context, id uuid.UUID) (*model.AssignmentDetail, error)
		UpdateStatus(ctx context.Context, assignment *model.StaffAssignment) error
		ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]*model.AssignmentDetail, error)
		ListJobsForEmployee(ctx context.Context, profileID model.ProfileID, status model.AssignmentStatus) ([]*model.JobDetail, error)
		DeleteAssigned(ctx context.Context, id, bookingID uuid.UUID) error
		Earnings(ctx context.Context, profileID model.ProfileID, from, to time.Time) (*model.EarningsSummary, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *model.Payment) error
		GetLatestForBooking(ctx context.Context, bookingID, companyID uuid.UUID) (*model.Payment, error)
		// UpsertFromProvider inserts-if-absent keyed by provider intent id, so
		// webhook reconciliation works even when the best-effort local write
		// at intent time was lost.
		UpsertFromProvider(ctx context.Context, payment *model.Payment) error
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id, companyID uuid.UUID) (*model.Service, error)
		List(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
