package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/model"
)

// staff_fulfilled is derived from assignment rows on every read; it is never
// stored on the booking.
const bookingColumns = `
	b.id, b.company_id, b.customer_name, b.customer_email, b.customer_phone,
	b.address, b.service_id, b.service_name, b.service_price, b.total_price,
	b.scheduled_at, b.duration_minutes, b.status, b.payment_status,
	b.staff_required, b.notes, b.created_at, b.updated_at,
	(SELECT COUNT(*) FROM staff_assignments sa
	 WHERE sa.booking_id = b.id AND sa.status IN ('accepted', 'completed')) AS staff_fulfilled
`

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, company_id, customer_name, customer_email, customer_phone,
			address, service_id, service_name, service_price, total_price,
			scheduled_at, duration_minutes, status, payment_status,
			staff_required, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.CompanyID,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.Address,
		booking.ServiceID,
		booking.ServiceName,
		booking.ServicePrice,
		booking.TotalPrice,
		booking.ScheduledAt,
		booking.DurationMinutes,
		booking.Status,
		booking.PaymentStatus,
		booking.StaffRequired,
		booking.Notes,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return translateError("failed to create booking", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	var booking model.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, translateError("failed to get booking", err)
	}
	return &booking, nil
}

func (r *bookingRepository) GetForCompany(ctx context.Context, id, companyID uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1 AND b.company_id = $2`
	var booking model.Booking
	if err := r.db.GetContext(ctx, &booking, query, id, companyID); err != nil {
		return nil, translateError("failed to get booking", err)
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET customer_name = $1, customer_email = $2, customer_phone = $3,
		    address = $4, service_price = $5, total_price = $6,
		    scheduled_at = $7, duration_minutes = $8, status = $9,
		    staff_required = $10, notes = $11, updated_at = $12
		WHERE id = $13
	`
	booking.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.Address,
		booking.ServicePrice,
		booking.TotalPrice,
		booking.ScheduledAt,
		booking.DurationMinutes,
		booking.Status,
		booking.StaffRequired,
		booking.Notes,
		booking.UpdatedAt,
		booking.ID,
	)
	if err != nil {
		return translateError("failed to update booking", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("failed to get rows affected", err)
	}
	if rows == 0 {
		return translateError("failed to update booking", sql.ErrNoRows)
	}
	return nil
}

func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.BookingPaymentStatus) error {
	query := `UPDATE bookings SET payment_status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now(), id); err != nil {
		return translateError("failed to update booking payment status", err)
	}
	return nil
}

// bookingFilterClause appends WHERE conditions for the optional filters,
// ignoring pagination.
func bookingFilterClause(filters *model.BookingFilters, args []interface{}) (string, []interface{}) {
	if filters == nil {
		return "", args
	}

	clause := ""
	if filters.Status != "" {
		clause += fmt.Sprintf(" AND b.status = $%d", len(args)+1)
		args = append(args, filters.Status)
	}
	if !filters.StartDate.IsZero() {
		clause += fmt.Sprintf(" AND b.scheduled_at >= $%d", len(args)+1)
		args = append(args, filters.StartDate)
	}
	if !filters.EndDate.IsZero() {
		clause += fmt.Sprintf(" AND b.scheduled_at <= $%d", len(args)+1)
		args = append(args, filters.EndDate)
	}
	return clause, args
}

func (r *bookingRepository) List(ctx context.Context, companyID uuid.UUID, filters *model.BookingFilters) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.company_id = $1`
	clause, args := bookingFilterClause(filters, []interface{}{companyID})
	query += clause + " ORDER BY b.scheduled_at ASC"

	if filters != nil && filters.Page != nil {
		page := filters.Page.Normalize()
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, page.PageSize, page.Offset())
	}

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, translateError("failed to list bookings", err)
	}
	return bookings, nil
}

func (r *bookingRepository) Count(ctx context.Context, companyID uuid.UUID, filters *model.BookingFilters) (int, error) {
	query := `SELECT COUNT(*) FROM bookings b WHERE b.company_id = $1`
	clause, args := bookingFilterClause(filters, []interface{}{companyID})
	query += clause

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, translateError("failed to count bookings", err)
	}
	return total, nil
}
