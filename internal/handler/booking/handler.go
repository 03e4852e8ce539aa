package booking

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/middleware"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/service/assignment"
	"github.com/fieldserve/booking-api/internal/service/booking"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/httputil"
)

type Handler struct {
	bookingService    *booking.Service
	assignmentService *assignment.Service
}

func NewHandler(bookingService *booking.Service, assignmentService *assignment.Service) *Handler {
	return &Handler{
		bookingService:    bookingService,
		assignmentService: assignmentService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.Create)
		bookings.GET("", h.List)
		bookings.GET("/:id", h.Get)
		bookings.PUT("/:id", h.Update)

		bookings.POST("/:id/staff", h.AssignStaff)
		bookings.GET("/:id/staff", h.ListStaff)
		bookings.GET("/:id/staff/:assignmentId", h.GetAssignment)
		bookings.PUT("/:id/staff/:assignmentId", h.UpdateAssignment)
		bookings.DELETE("/:id/staff/:assignmentId", h.RemoveAssignment)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}
	if companyID, ok := middleware.CompanyFromContext(c); ok {
		req.CompanyID = companyID
	}

	created, err := h.bookingService.Create(c.Request.Context(), &req)
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

	filters := &model.BookingFilters{
		Status: model.BookingStatus(c.Query("status")),
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("INVALID_DATE", "start_date must be RFC3339"))
			return
		}
		filters.StartDate = t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("INVALID_DATE", "end_date must be RFC3339"))
			return
		}
		filters.EndDate = t
	}
	if c.Query("page") != "" || c.Query("page_size") != "" {
		var p model.Pagination
		if err := c.ShouldBindQuery(&p); err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("INVALID_PAGINATION", "page and page_size must be integers"))
			return
		}
		p = p.Normalize()
		filters.Page = &p
	}

	bookings, total, err := h.bookingService.List(c.Request.Context(), companyID, filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if filters.Page != nil {
		httputil.RespondWithPagination(c, bookings, filters.Page.Page, filters.Page.PageSize, total)
		return
	}
	httputil.RespondWithSuccess(c, bookings)
}

func (h *Handler) Get(c *gin.Context) {
	companyID, id, ok := h.scope(c)
	if !ok {
		return
	}

	found, err := h.bookingService.Get(c.Request.Context(), id, companyID)
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

	var req model.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	updated, err := h.bookingService.Update(c.Request.Context(), id, companyID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) AssignStaff(c *gin.Context) {
	companyID, id, ok := h.scope(c)
	if !ok {
		return
	}

	var req model.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	created, err := h.assignmentService.Assign(c.Request.Context(), id, companyID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) ListStaff(c *gin.Context) {
	companyID, id, ok := h.scope(c)
	if !ok {
		return
	}

	staff, err := h.assignmentService.ListForBooking(c.Request.Context(), id, companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, staff)
}

func (h *Handler) GetAssignment(c *gin.Context) {
	companyID, bookingID, ok := h.scope(c)
	if !ok {
		return
	}
	assignmentID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_ID", "assignment ID must be a valid UUID"))
		return
	}

	detail, err := h.assignmentService.Get(c.Request.Context(), assignmentID, bookingID, companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) UpdateAssignment(c *gin.Context) {
	companyID, bookingID, ok := h.scope(c)
	if !ok {
		return
	}
	assignmentID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_ID", "assignment ID must be a valid UUID"))
		return
	}
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	var req model.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	updated, err := h.assignmentService.UpdateStatus(c.Request.Context(), assignmentID, bookingID, identity.ProfileID, companyID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) RemoveAssignment(c *gin.Context) {
	companyID, bookingID, ok := h.scope(c)
	if !ok {
		return
	}
	assignmentID, err := uuid.Parse(c.Param("assignmentId"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_ID", "assignment ID must be a valid UUID"))
		return
	}

	if err := h.assignmentService.Unassign(c.Request.Context(), assignmentID, bookingID, companyID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

func (h *Handler) scope(c *gin.Context) (companyID, id uuid.UUID, ok bool) {
	companyID, hasCompany := middleware.CompanyFromContext(c)
	if !hasCompany {
		httputil.RespondWithError(c, apperrors.BadRequest("COMPANY_REQUIRED", "company ID header is required"))
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_ID", "booking ID must be a valid UUID"))
		return uuid.Nil, uuid.Nil, false
	}
	return companyID, id, true
}
