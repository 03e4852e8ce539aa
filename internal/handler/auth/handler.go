package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldserve/booking-api/internal/middleware"
	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/service/auth"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/httputil"
)

type Handler struct {
	authService *auth.Service
	authMW      *middleware.AuthMiddleware
}

func NewHandler(authService *auth.Service, authMW *middleware.AuthMiddleware) *Handler {
	return &Handler{authService: authService, authMW: authMW}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.GET("/me", h.authMW.Authenticate(), h.Me)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("INVALID_REQUEST", err.Error()))
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

// Me echoes the verified identity back to the caller.
func (h *Handler) Me(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		httputil.RespondWithError(c, apperrors.Unauthorized("not authenticated"))
		return
	}
	httputil.RespondWithSuccess(c, identity)
}
