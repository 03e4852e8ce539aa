package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/fieldserve/booking-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an API error
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	Total     int `json:"total"`
	TotalPage int `json:"total_pages"`
}

// PaginatedResponse wraps paginated data
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 success response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response. AppErrors keep their status and
// wire code; anything else is surfaced as a generic 500.
func RespondWithError(c *gin.Context, err error) {
	if appErr := errors.AsAppError(err); appErr != nil {
		if appErr.Status >= http.StatusInternalServerError {
			log.Error().Err(appErr).Str("code", appErr.Code).Str("path", c.Request.URL.Path).Msg("request failed")
		}
		c.JSON(appErr.Status, Response{
			Success: false,
			Error:   &Error{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   &Error{Code: "INTERNAL_ERROR", Message: "internal server error"},
	})
}

// RespondWithPagination sends a paginated response
func RespondWithPagination(c *gin.Context, data interface{}, page, pageSize, total int) {
	totalPages := (total + pageSize - 1) / pageSize

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PaginatedResponse{
			Data: data,
			Pagination: Pagination{
				Page:      page,
				PageSize:  pageSize,
				Total:     total,
				TotalPage: totalPages,
			},
		},
	})
}
