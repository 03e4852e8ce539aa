package payment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/middleware"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/service/payment"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/httputil"
)

type Handler struct {
	paymentService *payment.Service
}

func NewHandler(paymentService *payment.Service) *Handler {
	return &Handler{paymentService: paymentService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/create-intent", h.CreateIntent)
		payments.GET("/status/:bookingId", h.GetStatus)
	}
}

func (h *Handler) CreateIntent(c *gin.Context) {
	companyID, ok := middleware.CompanyFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return
	}

	var req model.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	resp, err := h.paymentService.CreateIntent(c.Request.Context(), companyID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) GetStatus(c *gin.Context) {
	companyID, ok := middleware.CompanyFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_ID", "booking ID must be a valid UUID"))
		return
	}

	summary, err := h.paymentService.GetStatus(c.Request.Context(), bookingID, companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}
