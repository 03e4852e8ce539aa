package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
	"github.com/fieldserve/booking-api/internal/service/event"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/metrics"
)

// amountTolerance is the maximum allowed drift, in dollars, between the
// requested amount and the booking's canonical price. The bound is inclusive;
// the epsilon absorbs float noise at the boundary.
const (
	amountTolerance = 1.00
	amountEpsilon   = 1e-9
)

type Service struct {
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	provider    Provider
	events      *event.Service
	metrics     *metrics.Metrics
	currency    string
}

func NewService(
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	provider Provider,
	events *event.Service,
	m *metrics.Metrics,
	defaultCurrency string,
) *Service {
	return &Service{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		provider:    provider,
		events:      events,
		metrics:     m,
		currency:    defaultCurrency,
	}
}

// CreateIntent validates the requested amount against the booking and creates
// a provider payment intent. The local payment row is written best-effort;
// webhook reconciliation repairs any gap.
func (s *Service) CreateIntent(ctx context.Context, companyID uuid.UUID, req *model.CreateIntentRequest) (*model.CreateIntentResponse, error) {
	booking, err := s.bookingRepo.GetForCompany(ctx, req.BookingID, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	canonical := booking.CanonicalPrice()
	if math.Abs(req.Amount-canonical) > amountTolerance+amountEpsilon {
		if s.metrics != nil {
			s.metrics.PaymentIntentsFailed.WithLabelValues("amount_mismatch").Inc()
		}
		return nil, apperrors.BadRequest("AMOUNT_MISMATCH",
			fmt.Sprintf("requested amount %.2f does not match booking amount %.2f", req.Amount, canonical))
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}
	customerEmail := req.CustomerEmail
	if customerEmail == "" {
		customerEmail = booking.CustomerEmail
	}

	var customerID string
	if customerEmail != "" {
		customerID, err = s.provider.FindOrCreateCustomer(ctx, customerEmail, booking.CustomerName)
		if err != nil {
			if s.metrics != nil {
				s.metrics.PaymentIntentsFailed.WithLabelValues("customer").Inc()
			}
			return nil, apperrors.Internal("PAYMENT_PROVIDER_ERROR", err)
		}
	}

	amountCents := int64(math.Round(req.Amount * 100))
	intent, err := s.provider.CreateIntent(ctx, &IntentRequest{
		AmountCents: amountCents,
		Currency:    currency,
		CustomerID:  customerID,
		Description: fmt.Sprintf("Booking %s: %s", booking.ID, booking.ServiceName),
		// Retried requests for the same booking and amount reuse the
		// provider-side intent instead of minting a new one.
		IdempotencyKey: fmt.Sprintf("booking:%s:amount:%d", booking.ID, amountCents),
		Metadata: map[string]string{
			"booking_id": booking.ID.String(),
			"company_id": booking.CompanyID.String(),
		},
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.PaymentIntentsFailed.WithLabelValues("provider").Inc()
		}
		return nil, apperrors.Internal("PAYMENT_PROVIDER_ERROR", err)
	}

	if s.metrics != nil {
		s.metrics.PaymentIntentsCreated.Inc()
		s.metrics.PaymentAmount.Observe(req.Amount)
	}

	s.recordLocalIntent(ctx, booking, intent, req.Amount, currency, customerEmail)

	return &model.CreateIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          req.Amount,
		Currency:        currency,
	}, nil
}

// recordLocalIntent writes the local payment row and moves the booking's
// payment status to pending. Neither failure surfaces to the caller: the
// provider intent already exists and webhooks will reconcile.
func (s *Service) recordLocalIntent(ctx context.Context, booking *model.Booking, intent *Intent, amount float64, currency, customerEmail string) {
	meta, _ := json.Marshal(map[string]string{
		"booking_id": booking.ID.String(),
		"company_id": booking.CompanyID.String(),
	})
	payment := &model.Payment{
		BookingID:        booking.ID,
		CompanyID:        booking.CompanyID,
		ProviderIntentID: intent.ID,
		Amount:           amount,
		Currency:         currency,
		Status:           model.PaymentStatusPending,
		CustomerEmail:    customerEmail,
		Metadata:         meta,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		log.Warn().Err(err).
			Str("booking_id", booking.ID.String()).
			Str("intent_id", intent.ID).
			Msg("failed to record payment intent locally")
	}
	if err := s.bookingRepo.UpdatePaymentStatus(ctx, booking.ID, model.BookingPaymentPending); err != nil {
		log.Warn().Err(err).
			Str("booking_id", booking.ID.String()).
			Msg("failed to mark booking payment pending")
	}
}

// HandlePaymentSucceeded reconciles a succeeded intent event. The upsert is
// keyed by provider intent id, so the handler works whether or not the local
// row from intent time survived, and replayed events are no-ops. Webhook
// handlers always return nil: the provider is the source of truth and a
// retryable local failure must not make it resend forever.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, evt *ProviderEvent) error {
	bookingID, companyID, ok := idsFromMetadata(evt)
	if !ok {
		log.Error().
			Str("intent_id", evt.IntentID).
			Msg("payment succeeded event missing booking metadata")
		return nil
	}

	now := time.Now()
	meta, _ := json.Marshal(evt.Metadata)
	payment := &model.Payment{
		BookingID:        bookingID,
		CompanyID:        companyID,
		ProviderIntentID: evt.IntentID,
		Amount:           float64(evt.AmountCents) / 100,
		Currency:         evt.Currency,
		Status:           model.PaymentStatusSucceeded,
		CustomerEmail:    evt.CustomerEmail,
		Metadata:         meta,
		PaidAt:           &now,
	}
	if evt.PaymentMethod != "" {
		payment.PaymentMethod = &evt.PaymentMethod
	}
	if err := s.paymentRepo.UpsertFromProvider(ctx, payment); err != nil {
		log.Error().Err(err).
			Str("intent_id", evt.IntentID).
			Str("booking_id", bookingID.String()).
			Msg("failed to upsert payment from webhook")
		return nil
	}

	if err := s.bookingRepo.UpdatePaymentStatus(ctx, bookingID, model.BookingPaymentPaid); err != nil {
		log.Error().Err(err).
			Str("booking_id", bookingID.String()).
			Msg("failed to mark booking paid")
		return nil
	}

	s.events.Record(ctx, model.EventPaymentSucceeded, map[string]interface{}{
		"booking_id": bookingID,
		"intent_id":  evt.IntentID,
		"amount":     payment.Amount,
	})
	log.Info().
		Str("booking_id", bookingID.String()).
		Str("intent_id", evt.IntentID).
		Float64("amount", payment.Amount).
		Msg("payment succeeded")
	return nil
}

// HandlePaymentFailed records a failed intent. The booking stays in its
// current payment status so the customer can retry.
func (s *Service) HandlePaymentFailed(ctx context.Context, evt *ProviderEvent) error {
	bookingID, companyID, ok := idsFromMetadata(evt)
	if !ok {
		log.Error().
			Str("intent_id", evt.IntentID).
			Msg("payment failed event missing booking metadata")
		return nil
	}

	meta, _ := json.Marshal(evt.Metadata)
	payment := &model.Payment{
		BookingID:        bookingID,
		CompanyID:        companyID,
		ProviderIntentID: evt.IntentID,
		Amount:           float64(evt.AmountCents) / 100,
		Currency:         evt.Currency,
		Status:           model.PaymentStatusFailed,
		CustomerEmail:    evt.CustomerEmail,
		Metadata:         meta,
	}
	if evt.FailureReason != "" {
		payment.FailureReason = &evt.FailureReason
	}
	if err := s.paymentRepo.UpsertFromProvider(ctx, payment); err != nil {
		log.Error().Err(err).
			Str("intent_id", evt.IntentID).
			Str("booking_id", bookingID.String()).
			Msg("failed to upsert failed payment from webhook")
		return nil
	}

	s.events.Record(ctx, model.EventPaymentFailed, map[string]interface{}{
		"booking_id": bookingID,
		"intent_id":  evt.IntentID,
		"reason":     evt.FailureReason,
	})
	log.Warn().
		Str("booking_id", bookingID.String()).
		Str("intent_id", evt.IntentID).
		Str("reason", evt.FailureReason).
		Msg("payment failed")
	return nil
}

// GetStatus returns the latest payment for a booking as a polling projection.
// A missing payment row is not an error; clients poll before the first
// webhook lands.
func (s *Service) GetStatus(ctx context.Context, bookingID, companyID uuid.UUID) (*model.PaymentStatusSummary, error) {
	payment, err := s.paymentRepo.GetLatestForBooking(ctx, bookingID, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.PaymentStatusSummary{
				BookingID: bookingID,
				Status:    "not_found",
			}, nil
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	return &model.PaymentStatusSummary{
		BookingID: bookingID,
		Status:    string(payment.Status),
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		PaidAt:    payment.PaidAt,
	}, nil
}

func idsFromMetadata(evt *ProviderEvent) (bookingID, companyID uuid.UUID, ok bool) {
	bookingID, err := uuid.Parse(evt.Metadata["booking_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	companyID, err = uuid.Parse(evt.Metadata["company_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return bookingID, companyID, true
}
