package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/fieldserve/booking-api/internal/service/payment"
	"github.com/fieldserve/booking-api/pkg/metrics"
)

// maxBodyBytes bounds webhook payloads; Stripe events are small.
const maxBodyBytes = int64(65536)

// Handler receives provider webhook events. The route is public: signature
// verification is the authentication.
type Handler struct {
	paymentService *payment.Service
	webhookSecret  string
	metrics        *metrics.Metrics
}

func NewHandler(paymentService *payment.Service, webhookSecret string, m *metrics.Metrics) *Handler {
	return &Handler{
		paymentService: paymentService,
		webhookSecret:  webhookSecret,
		metrics:        m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/webhooks/stripe", h.HandleStripe)
}

func (h *Handler) HandleStripe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		if h.metrics != nil {
			h.metrics.WebhookEvents.WithLabelValues("unknown", "signature_failed").Inc()
		}
		log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("webhook signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.handleIntentEvent(c, event, h.paymentService.HandlePaymentSucceeded)
	case "payment_intent.payment_failed":
		h.handleIntentEvent(c, event, h.paymentService.HandlePaymentFailed)
	default:
		// Acknowledge everything else so the provider stops resending.
		if h.metrics != nil {
			h.metrics.WebhookEvents.WithLabelValues(string(event.Type), "ignored").Inc()
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func (h *Handler) handleIntentEvent(c *gin.Context, event stripe.Event, handle func(ctx context.Context, evt *payment.ProviderEvent) error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		if h.metrics != nil {
			h.metrics.WebhookEvents.WithLabelValues(string(event.Type), "decode_failed").Inc()
		}
		log.Error().Err(err).Str("event_id", event.ID).Msg("failed to decode payment intent event")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	evt := &payment.ProviderEvent{
		IntentID:    intent.ID,
		AmountCents: intent.Amount,
		Currency:    string(intent.Currency),
		Metadata:    intent.Metadata,
	}
	if intent.LastPaymentError != nil {
		evt.FailureReason = intent.LastPaymentError.Msg
	}
	if intent.PaymentMethod != nil {
		evt.PaymentMethod = string(intent.PaymentMethod.Type)
	}
	if intent.ReceiptEmail != "" {
		evt.CustomerEmail = intent.ReceiptEmail
	}

	if err := handle(c.Request.Context(), evt); err != nil {
		// Handlers are contractually best-effort, but keep the branch in
		// case that changes.
		if h.metrics != nil {
			h.metrics.WebhookEvents.WithLabelValues(string(event.Type), "failed").Inc()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	if h.metrics != nil {
		h.metrics.WebhookEvents.WithLabelValues(string(event.Type), "processed").Inc()
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
