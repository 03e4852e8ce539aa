package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCanceled   PaymentStatus = "canceled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Payment mirrors a provider-side payment intent. Amount is in major currency
// units (dollars), not the provider's minor-unit integer. Rows are created
// best-effort at intent time and reconciled by webhook events, which upsert by
// provider intent id.
type Payment struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	BookingID        uuid.UUID      `db:"booking_id" json:"booking_id"`
	CompanyID        uuid.UUID      `db:"company_id" json:"company_id"`
	ProviderIntentID string         `db:"provider_intent_id" json:"provider_intent_id"`
	Amount           float64        `db:"amount" json:"amount"`
	Currency         string         `db:"currency" json:"currency"`
	Status           PaymentStatus  `db:"status" json:"status"`
	CustomerEmail    string         `db:"customer_email" json:"customer_email,omitempty"`
	PaymentMethod    *string        `db:"payment_method" json:"payment_method,omitempty"`
	Metadata         types.JSONText `db:"metadata" json:"metadata,omitempty"`
	PaidAt           *time.Time     `db:"paid_at" json:"paid_at,omitempty"`
	FailureReason    *string        `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

type CreateIntentRequest struct {
	BookingID     uuid.UUID `json:"booking_id" binding:"required"`
	Amount        float64   `json:"amount" binding:"required,gt=0"`
	Currency      string    `json:"currency" binding:"omitempty,currency"`
	CustomerEmail string    `json:"customer_email" binding:"omitempty,email"`
}

type CreateIntentResponse struct {
	ClientSecret    string  `json:"client_secret"`
	PaymentIntentID string  `json:"payment_intent_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

// PaymentStatusSummary is the polling projection for booking payment status.
// Status is "not_found" when no payment row exists yet, so clients poll
// without special-casing 404s.
type PaymentStatusSummary struct {
	BookingID uuid.UUID  `json:"booking_id"`
	Status    string     `json:"status"`
	Amount    float64    `json:"amount,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}
