package payment

import "context"

// Provider abstracts the payment processor. The Stripe implementation is the
// only production one; tests substitute their own.
type Provider interface {
	// FindOrCreateCustomer returns the provider customer id for an email,
	// creating the customer when none exists.
	FindOrCreateCustomer(ctx context.Context, email, name string) (string, error)
	// CreateIntent creates a payment intent. AmountCents is in the
	// currency's minor unit; IdempotencyKey dedupes retries provider-side.
	CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error)
}

type IntentRequest struct {
	AmountCents    int64
	Currency       string
	CustomerID     string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// ProviderEvent is the normalized form of a webhook payment event after
// signature verification and payload decoding.
type ProviderEvent struct {
	IntentID      string
	AmountCents   int64
	Currency      string
	PaymentMethod string
	CustomerEmail string
	FailureReason string
	Metadata      map[string]string
}
