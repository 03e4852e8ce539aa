package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/fieldserve/booking-api/internal/repository"
)

type profileRepository struct {
	db *sqlx.DB
}

type employeeRepository struct {
	db *sqlx.DB
}

type bookingRepository struct {
	db *sqlx.DB
}

type assignmentRepository struct {
	db *sqlx.DB
}

type paymentRepository struct {
	db *sqlx.DB
}

type serviceRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func NewEmployeeRepository(db *sqlx.DB) repository.EmployeeRepository {
	return &employeeRepository{db: db}
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func NewAssignmentRepository(db *sqlx.DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func NewServiceRepository(db *sqlx.DB) repository.ServiceRepository {
	return &serviceRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
