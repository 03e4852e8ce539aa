package catalog

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/middleware"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/service/catalog"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/httputil"
)

type Handler struct {
	catalogService *catalog.Service
}

func NewHandler(catalogService *catalog.Service) *Handler {
	return &Handler{catalogService: catalogService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	services := r.Group("/services")
	{
		services.POST("", h.Create)
		services.GET("", h.List)
		services.GET("/:id", h.Get)
		services.PUT("/:id", h.Update)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}
	if companyID, ok := middleware.CompanyFromContext(c); ok {
		req.CompanyID = companyID
	}

	created, err := h.catalogService.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) List(c *gin.Context) {
	companyID, ok := middleware.CompanyFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return
	}

	activeOnly := c.Query("active") == "true"
	services, err := h.catalogService.List(c.Request.Context(), companyID, activeOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, services)
}

func (h *Handler) Get(c *gin.Context) {
	companyID, id, ok := h.scope(c)
	if !ok {
		return
	}

	found, err := h.catalogService.Get(c.Request.Context(), id, companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) Update(c *gin.Context) {
	companyID, id, ok := h.scope(c)
	if !ok {
		return
	}

	var req model.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	updated, err := h.catalogService.Update(c.Request.Context(), id, companyID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) scope(c *gin.Context) (companyID, id uuid.UUID, ok bool) {
	companyID, hasCompany := middleware.CompanyFromContext(c)
	if !hasCompany {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_ID", "service ID must be a valid UUID"))
		return uuid.Nil, uuid.Nil, false
	}
	return companyID, id, true
}
