package employee

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldserve/booking-api/internal/middleware"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/service/directory"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/httputil"
)

type Handler struct {
	directory *directory.Service
}

func NewHandler(dir *directory.Service) *Handler {
	return &Handler{directory: dir}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	employees := r.Group("/employees")
	{
		employees.POST("", h.Create)
		employees.GET("", h.List)
		employees.GET("/:id", h.Get)
		employees.PUT("/:id", h.Update)
		employees.GET("/me", h.Me)
	}
}

// Create adds a profile to the roster through the resolver, so a concurrent
// assignment provisioning the same employee is not an error.
func (h *Handler) Create(c *gin.Context) {
	companyID, ok := middleware.CompanyFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return
	}

	var req model.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	employee, err := h.directory.Resolve(c.Request.Context(), req.ProfileID, companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, employee)
}

func (h *Handler) List(c *gin.Context) {
	companyID, ok := middleware.CompanyFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return
	}

	employees, err := h.directory.List(c.Request.Context(), companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employees)
}

func (h *Handler) Get(c *gin.Context) {
	companyID, ok := middleware.CompanyFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return
	}

	id, err := model.ParseEmployeeID(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_ID", "employee ID must be a valid UUID"))
		return
	}

	employee, err := h.directory.Get(c.Request.Context(), id, companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employee)
}

func (h *Handler) Update(c *gin.Context) {
	companyID, ok := middleware.CompanyFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return
	}

	id, err := model.ParseEmployeeID(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_ID", "employee ID must be a valid UUID"))
		return
	}

	var req model.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	employee, err := h.directory.Update(c.Request.Context(), id, companyID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employee)
}

// Me resolves the caller's own employee record within the company,
// provisioning it on first use.
func (h *Handler) Me(c *gin.Context) {
	companyID, ok := middleware.CompanyFromContext(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return
	}
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	employee, err := h.directory.Resolve(c.Request.Context(), identity.ProfileID, companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, employee)
}
