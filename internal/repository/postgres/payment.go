package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/model"
)

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, company_id, provider_intent_id, amount, currency,
			status, customer_email, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.CompanyID,
		payment.ProviderIntentID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.CustomerEmail,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return translateError("failed to create payment", err)
	}
	return nil
}

func (r *paymentRepository) GetLatestForBooking(ctx context.Context, bookingID, companyID uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, booking_id, company_id, provider_intent_id, amount, currency,
		       status, customer_email, payment_method, metadata, paid_at,
		       failure_reason, created_at, updated_at
		FROM payments
		WHERE booking_id = $1 AND company_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, bookingID, companyID); err != nil {
		return nil, translateError("failed to get payment", err)
	}
	return &payment, nil
}

func (r *paymentRepository) UpsertFromProvider(ctx context.Context, payment *model.Payment) error {
	// Reconciliation must not assume the best-effort row from intent time
	// exists; insert-if-absent keyed by provider_intent_id. Re-delivery of the
	// same event re-applies the same terminal state.
	query := `
		INSERT INTO payments (
			id, booking_id, company_id, provider_intent_id, amount, currency,
			status, customer_email, payment_method, metadata, paid_at,
			failure_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (provider_intent_id) DO UPDATE
		SET status = EXCLUDED.status,
		    payment_method = COALESCE(EXCLUDED.payment_method, payments.payment_method),
		    paid_at = COALESCE(payments.paid_at, EXCLUDED.paid_at),
		    failure_reason = EXCLUDED.failure_reason,
		    updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.CompanyID,
		payment.ProviderIntentID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.CustomerEmail,
		payment.PaymentMethod,
		payment.Metadata,
		payment.PaidAt,
		payment.FailureReason,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return translateError("failed to upsert payment", err)
	}
	return nil
}
