package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/model"
)

func (r *serviceRepository) Create(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (
			id, company_id, name, description, price, duration_minutes,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	service.ID = uuid.New()
	service.CreatedAt = time.Now()
	service.UpdatedAt = service.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		service.ID,
		service.CompanyID,
		service.Name,
		service.Description,
		service.Price,
		service.DurationMinutes,
		service.IsActive,
		service.CreatedAt,
		service.UpdatedAt,
	)
	if err != nil {
		return translateError("failed to create service", err)
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, id, companyID uuid.UUID) (*model.Service, error) {
	query := `
		SELECT id, company_id, name, description, price, duration_minutes,
		       is_active, created_at, updated_at
		FROM services
		WHERE id = $1 AND company_id = $2
	`
	var service model.Service
	if err := r.db.GetContext(ctx, &service, query, id, companyID); err != nil {
		return nil, translateError("failed to get service", err)
	}
	return &service, nil
}

func (r *serviceRepository) List(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*model.Service, error) {
	query := `
		SELECT id, company_id, name, description, price, duration_minutes,
		       is_active, created_at, updated_at
		FROM services
		WHERE company_id = $1
	`
	if activeOnly {
		query += " AND is_active"
	}
	query += " ORDER BY name ASC"

	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query, companyID); err != nil {
		return nil, translateError("failed to list services", err)
	}
	return services, nil
}

func (r *serviceRepository) Update(ctx context.Context, service *model.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, price = $3, duration_minutes = $4,
		    is_active = $5, updated_at = $6
		WHERE id = $7 AND company_id = $8
	`
	service.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		service.Name,
		service.Description,
		service.Price,
		service.DurationMinutes,
		service.IsActive,
		service.UpdatedAt,
		service.ID,
		service.CompanyID,
	)
	if err != nil {
		return translateError("failed to update service", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("failed to get rows affected", err)
	}
	if rows == 0 {
		return translateError("failed to update service", sql.ErrNoRows)
	}
	return nil
}
