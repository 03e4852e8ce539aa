package model

import (
	"github.com/google/uuid"
)

// Service is a tenant-scoped catalog entry backing booking.service_price.
type Service struct {
	Base
	CompanyID       uuid.UUID `db:"company_id" json:"company_id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description,omitempty"`
	Price           float64   `db:"price" json:"price"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	IsActive        bool      `db:"is_active" json:"is_active"`
}

type CreateServiceRequest struct {
	CompanyID       uuid.UUID `json:"company_id" binding:"required"`
	Name            string    `json:"name" binding:"required"`
	Description     string    `json:"description"`
	Price           float64   `json:"price" binding:"gte=0"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,gt=0"`
}

type UpdateServiceRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price" binding:"omitempty,gte=0"`
	DurationMinutes *int     `json:"duration_minutes" binding:"omitempty,gt=0"`
	IsActive        *bool    `json:"is_active"`
}
