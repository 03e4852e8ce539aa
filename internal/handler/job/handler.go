package job

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldserve/booking-api/internal/middleware"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/service/assignment"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/httputil"
)

// Handler serves the mobile staff app: the caller's job list, pickup, and
// earnings. Everything is scoped to the authenticated profile; there are no
// cross-employee reads here.
type Handler struct {
	assignmentService *assignment.Service
}

func NewHandler(assignmentService *assignment.Service) *Handler {
	return &Handler{assignmentService: assignmentService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	jobs := r.Group("/jobs")
	{
		jobs.GET("", h.List)
		jobs.POST("/pickup", h.Pickup)
		jobs.GET("/earnings", h.Earnings)
	}
}

func (h *Handler) List(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	status := model.AssignmentStatus(c.Query("status"))
	jobs, err := h.assignmentService.ListJobs(c.Request.Context(), identity.ProfileID, status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, jobs)
}

func (h *Handler) Pickup(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	var req model.PickupJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	job, err := h.assignmentService.Pickup(c.Request.Context(), identity.ProfileID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, job)
}

func (h *Handler) Earnings(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}

	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("INVALID_DATE", "from must be YYYY-MM-DD"))
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("INVALID_DATE", "to must be YYYY-MM-DD"))
			return
		}
		// Inclusive end of day.
		to = t.Add(24*time.Hour - time.Nanosecond)
	}

	summary, err := h.assignmentService.Earnings(c.Request.Context(), identity.ProfileID, from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}
