package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/pkg/httputil"
)

const (
	ContextIdentity  = "identity"
	HeaderXCompanyID = "X-Company-ID"
	ContextCompanyID = "company_id"
)

// TokenVerifier resolves a bearer token to an identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*model.Identity, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate verifies the bearer token and sets the caller's identity in
// context. Token validity alone is not enough; the verifier also requires a
// live, active profile behind it.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		identity, err := m.verifier.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			c.Abort()
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextIdentity, identity)
		c.Next()
	}
}

// RequireCompany parses the tenant header and sets the company id in context.
func (m *AuthMiddleware) RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderXCompanyID)
		if raw == "" {
			c.Abort()
			c.JSON(http.StatusBadRequest, httputil.Response{
				Success: false,
				Error:   &httputil.Error{Code: "COMPANY_REQUIRED", Message: "company ID header is required"},
			})
			return
		}

		companyID, err := uuid.Parse(raw)
		if err != nil {
			c.Abort()
			c.JSON(http.StatusBadRequest, httputil.Response{
				Success: false,
				Error:   &httputil.Error{Code: "INVALID_COMPANY_ID", Message: "company ID must be a valid UUID"},
			})
			return
		}

		c.Set(ContextCompanyID, companyID)
		c.Next()
	}
}

// IdentityFromContext returns the authenticated identity, or nil outside the
// authenticated group.
func IdentityFromContext(c *gin.Context) *model.Identity {
	val, ok := c.Get(ContextIdentity)
	if !ok {
		return nil
	}
	identity, ok := val.(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}

// CompanyFromContext returns the tenant id set by RequireCompany.
func CompanyFromContext(c *gin.Context) (uuid.UUID, bool) {
	val, ok := c.Get(ContextCompanyID)
	if !ok {
		return uuid.Nil, false
	}
	companyID, ok := val.(uuid.UUID)
	return companyID, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Abort()
	c.JSON(http.StatusUnauthorized, httputil.Response{
		Success: false,
		Error:   &httputil.Error{Code: "UNAUTHORIZED", Message: message},
	})
}
