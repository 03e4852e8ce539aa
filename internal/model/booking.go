package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

type BookingPaymentStatus string

const (
	BookingPaymentUnpaid   BookingPaymentStatus = "unpaid"
	BookingPaymentPending  BookingPaymentStatus = "pending"
	BookingPaymentPaid     BookingPaymentStatus = "paid"
	BookingPaymentRefunded BookingPaymentStatus = "refunded"
)

// Booking is a scheduled service job for a customer, owned by a tenant.
// StaffFulfilled is never stored; reads derive it from assignment rows in
// status accepted or completed.
type Booking struct {
	Base
	CompanyID       uuid.UUID            `db:"company_id" json:"company_id"`
	CustomerName    string               `db:"customer_name" json:"customer_name"`
	CustomerEmail   string               `db:"customer_email" json:"customer_email,omitempty"`
	CustomerPhone   string               `db:"customer_phone" json:"customer_phone,omitempty"`
	Address         string               `db:"address" json:"address"`
	ServiceID       *uuid.UUID           `db:"service_id" json:"service_id,omitempty"`
	ServiceName     string               `db:"service_name" json:"service_name"`
	ServicePrice    float64              `db:"service_price" json:"service_price"`
	TotalPrice      *float64             `db:"total_price" json:"total_price,omitempty"`
	ScheduledAt     time.Time            `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int                  `db:"duration_minutes" json:"duration_minutes"`
	Status          BookingStatus        `db:"status" json:"status"`
	PaymentStatus   BookingPaymentStatus `db:"payment_status" json:"payment_status"`
	StaffRequired   int                  `db:"staff_required" json:"staff_required"`
	StaffFulfilled  int                  `db:"staff_fulfilled" json:"staff_fulfilled"`
	Notes           string               `db:"notes" json:"notes,omitempty"`
}

// CanonicalPrice is the amount payment intents are validated against:
// total_price when present, otherwise service_price.
func (b *Booking) CanonicalPrice() float64 {
	if b.TotalPrice != nil {
		return *b.TotalPrice
	}
	return b.ServicePrice
}

type CreateBookingRequest struct {
	CompanyID       uuid.UUID  `json:"company_id" binding:"required"`
	CustomerName    string     `json:"customer_name" binding:"required"`
	CustomerEmail   string     `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   string     `json:"customer_phone"`
	Address         string     `json:"address" binding:"required"`
	ServiceID       *uuid.UUID `json:"service_id"`
	ServiceName     string     `json:"service_name" binding:"required"`
	ServicePrice    float64    `json:"service_price" binding:"gte=0"`
	TotalPrice      *float64   `json:"total_price" binding:"omitempty,gte=0"`
	ScheduledAt     time.Time  `json:"scheduled_at" binding:"required"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,gt=0"`
	StaffRequired   int        `json:"staff_required" binding:"omitempty,gte=1"`
	Notes           string     `json:"notes"`
}

type UpdateBookingRequest struct {
	CustomerName    *string        `json:"customer_name"`
	CustomerEmail   *string        `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   *string        `json:"customer_phone"`
	Address         *string        `json:"address"`
	ServicePrice    *float64       `json:"service_price" binding:"omitempty,gte=0"`
	TotalPrice      *float64       `json:"total_price" binding:"omitempty,gte=0"`
	ScheduledAt     *time.Time     `json:"scheduled_at"`
	DurationMinutes *int           `json:"duration_minutes" binding:"omitempty,gt=0"`
	Status          *BookingStatus `json:"status" binding:"omitempty,oneof=pending confirmed in_progress completed cancelled"`
	StaffRequired   *int           `json:"staff_required" binding:"omitempty,gte=1"`
	Notes           *string        `json:"notes"`
}

type BookingFilters struct {
	Status    BookingStatus
	StartDate time.Time
	EndDate   time.Time
	// Page, when set, bounds the result window; nil means the full list.
	Page *Pagination
}
