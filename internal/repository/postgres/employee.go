package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/model"
)

const employeeColumns = `
	id, profile_id, company_id, name, email, phone, position,
	hourly_rate, is_active, created_at, updated_at
`

func (r *employeeRepository) GetByProfile(ctx context.Context, profileID model.ProfileID, companyID uuid.UUID) (*model.Employee, error) {
	// Joins on (profile_id, company_id), not the employee surrogate key.
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE profile_id = $1 AND company_id = $2
	`
	var employee model.Employee
	if err := r.db.GetContext(ctx, &employee, query, profileID, companyID); err != nil {
		return nil, translateError("failed to get employee by profile", err)
	}
	return &employee, nil
}

func (r *employeeRepository) Get(ctx context.Context, id model.EmployeeID) (*model.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE id = $1
	`
	var employee model.Employee
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		return nil, translateError("failed to get employee", err)
	}
	return &employee, nil
}

func (r *employeeRepository) Create(ctx context.Context, employee *model.Employee) error {
	query := `
		INSERT INTO employees (
			id, profile_id, company_id, name, email, phone, position,
			hourly_rate, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	employee.CreatedAt = time.Now()
	employee.UpdatedAt = employee.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		employee.ID,
		employee.ProfileID,
		employee.CompanyID,
		employee.Name,
		employee.Email,
		employee.Phone,
		employee.Position,
		employee.HourlyRate,
		employee.IsActive,
		employee.CreatedAt,
		employee.UpdatedAt,
	)
	if err != nil {
		return translateError("failed to create employee", err)
	}
	return nil
}

func (r *employeeRepository) Update(ctx context.Context, employee *model.Employee) error {
	query := `
		UPDATE employees
		SET name = $1, email = $2, phone = $3, position = $4,
		    hourly_rate = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	employee.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		employee.Name,
		employee.Email,
		employee.Phone,
		employee.Position,
		employee.HourlyRate,
		employee.IsActive,
		employee.UpdatedAt,
		employee.ID,
	)
	if err != nil {
		return translateError("failed to update employee", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("failed to get rows affected", err)
	}
	if rows == 0 {
		return translateError("failed to update employee", sql.ErrNoRows)
	}
	return nil
}

func (r *employeeRepository) List(ctx context.Context, companyID uuid.UUID) ([]*model.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1
		ORDER BY name ASC
	`
	var employees []*model.Employee
	if err := r.db.SelectContext(ctx, &employees, query, companyID); err != nil {
		return nil, translateError("failed to list employees", err)
	}
	return employees, nil
}
