package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldserve/booking-api/internal/email"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
	"github.com/fieldserve/booking-api/internal/service/event"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
)

const defaultDurationMinutes = 60

type Service struct {
	bookingRepo repository.BookingRepository
	serviceRepo repository.ServiceRepository
	events      *event.Service
	email       email.Service
}

func NewService(bookingRepo repository.BookingRepository, serviceRepo repository.ServiceRepository, events *event.Service, emailSvc email.Service) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		serviceRepo: serviceRepo,
		events:      events,
		email:       emailSvc,
	}
}

// Create registers a new booking. When a catalog service is referenced, its
// name and price fill in anything the request left at the catalog default.
func (s *Service) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	booking := &model.Booking{
		CompanyID:       req.CompanyID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		Address:         req.Address,
		ServiceID:       req.ServiceID,
		ServiceName:     req.ServiceName,
		ServicePrice:    req.ServicePrice,
		TotalPrice:      req.TotalPrice,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          model.BookingStatusPending,
		PaymentStatus:   model.BookingPaymentUnpaid,
		StaffRequired:   req.StaffRequired,
		Notes:           req.Notes,
	}
	if booking.DurationMinutes == 0 {
		booking.DurationMinutes = defaultDurationMinutes
	}
	if booking.StaffRequired == 0 {
		booking.StaffRequired = 1
	}

	if req.ServiceID != nil {
		svc, err := s.serviceRepo.Get(ctx, *req.ServiceID, req.CompanyID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("SERVICE_NOT_FOUND", "service not found")
			}
			return nil, apperrors.Internal("INTERNAL_ERROR", err)
		}
		if booking.ServiceName == "" {
			booking.ServiceName = svc.Name
		}
		if booking.ServicePrice == 0 {
			booking.ServicePrice = svc.Price
		}
		if booking.DurationMinutes == defaultDurationMinutes && svc.DurationMinutes > 0 {
			booking.DurationMinutes = svc.DurationMinutes
		}
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, apperrors.BadRequest("FOREIGN_KEY_VIOLATION", "referenced company or service does not exist")
		}
		return nil, apperrors.Internal("BOOKING_CREATION_FAILED", err)
	}

	s.events.Record(ctx, model.EventBookingCreated, map[string]interface{}{
		"booking_id": booking.ID,
		"company_id": booking.CompanyID,
	})

	return booking, nil
}

// Get returns a booking scoped to the company.
func (s *Service) Get(ctx context.Context, id, companyID uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetForCompany(ctx, id, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return booking, nil
}

// List returns bookings for a company, optionally filtered. The total is the
// unpaged match count when the filters carry pagination, otherwise the length
// of the result.
func (s *Service) List(ctx context.Context, companyID uuid.UUID, filters *model.BookingFilters) ([]*model.Booking, int, error) {
	bookings, err := s.bookingRepo.List(ctx, companyID, filters)
	if err != nil {
		return nil, 0, apperrors.Internal("INTERNAL_ERROR", err)
	}

	if filters != nil && filters.Page != nil {
		total, err := s.bookingRepo.Count(ctx, companyID, filters)
		if err != nil {
			return nil, 0, apperrors.Internal("INTERNAL_ERROR", err)
		}
		return bookings, total, nil
	}
	return bookings, len(bookings), nil
}

// Update applies a partial update. Confirming a booking sends the customer a
// confirmation email best-effort.
func (s *Service) Update(ctx context.Context, id, companyID uuid.UUID, req *model.UpdateBookingRequest) (*model.Booking, error) {
	booking, err := s.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	wasConfirmed := booking.Status == model.BookingStatusConfirmed

	if req.CustomerName != nil {
		booking.CustomerName = *req.CustomerName
	}
	if req.CustomerEmail != nil {
		booking.CustomerEmail = *req.CustomerEmail
	}
	if req.CustomerPhone != nil {
		booking.CustomerPhone = *req.CustomerPhone
	}
	if req.Address != nil {
		booking.Address = *req.Address
	}
	if req.ServicePrice != nil {
		booking.ServicePrice = *req.ServicePrice
	}
	if req.TotalPrice != nil {
		booking.TotalPrice = req.TotalPrice
	}
	if req.ScheduledAt != nil {
		booking.ScheduledAt = *req.ScheduledAt
	}
	if req.DurationMinutes != nil {
		booking.DurationMinutes = *req.DurationMinutes
	}
	if req.Status != nil {
		booking.Status = *req.Status
	}
	if req.StaffRequired != nil {
		booking.StaffRequired = *req.StaffRequired
	}
	if req.Notes != nil {
		booking.Notes = *req.Notes
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	if !wasConfirmed && booking.Status == model.BookingStatusConfirmed && booking.CustomerEmail != "" {
		if err := s.email.SendBookingConfirmation(ctx, booking.CustomerEmail, booking); err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID.String()).Msg("failed to send booking confirmation")
		}
	}

	return booking, nil
}
