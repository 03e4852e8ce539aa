package payment

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type stripeProvider struct {
	sc *client.API
}

// NewStripeProvider returns a Provider backed by the Stripe API.
func NewStripeProvider(secretKey string) Provider {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &stripeProvider{sc: sc}
}

func (p *stripeProvider) FindOrCreateCustomer(ctx context.Context, email, name string) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := p.sc.Customers.List(listParams)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to look up customer: %w", err)
	}

	createParams := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	createParams.Context = ctx
	if name != "" {
		createParams.Name = stripe.String(name)
	}

	customer, err := p.sc.Customers.New(createParams)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return customer.ID, nil
}

func (p *stripeProvider) CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	intent, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}
