package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
	"github.com/fieldserve/booking-api/pkg/metrics"
)

// Service resolves profile identities to tenant-scoped employee records,
// provisioning the employee row on first reference. Concurrent resolvers may
// race on the insert; the unique (profile_id, company_id) constraint picks a
// winner and the loser re-reads the winner's row.
type Service struct {
	employeeRepo repository.EmployeeRepository
	profileRepo  repository.ProfileRepository
	metrics      *metrics.Metrics
}

func NewService(employeeRepo repository.EmployeeRepository, profileRepo repository.ProfileRepository, m *metrics.Metrics) *Service {
	return &Service{
		employeeRepo: employeeRepo,
		profileRepo:  profileRepo,
		metrics:      m,
	}
}

// Resolve returns the employee record for a profile within a company,
// creating it from the profile's directory data when it does not exist yet.
func (s *Service) Resolve(ctx context.Context, profileID model.ProfileID, companyID uuid.UUID) (*model.Employee, error) {
	employee, err := s.employeeRepo.GetByProfile(ctx, profileID, companyID)
	if err == nil {
		return employee, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	profile, err := s.profileRepo.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("PROFILE_NOT_FOUND", "profile not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}

	employee = &model.Employee{
		ProfileID:  profileID,
		CompanyID:  companyID,
		Name:       profile.Name,
		Email:      profile.Email,
		Phone:      profile.Phone,
		Position:   model.DefaultEmployeePosition,
		HourlyRate: 0,
		IsActive:   true,
	}
	if err := s.employeeRepo.Create(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the provisioning race; the winner's row is authoritative.
			return s.rereadWinner(ctx, profileID, companyID)
		}
		return nil, apperrors.Internal("EMPLOYEE_CREATION_FAILED", err)
	}

	if s.metrics != nil {
		s.metrics.EmployeesAutoProvision.Inc()
	}
	log.Info().
		Str("profile_id", profileID.String()).
		Str("company_id", companyID.String()).
		Str("employee_id", employee.ID.String()).
		Msg("auto-provisioned employee")

	return employee, nil
}

func (s *Service) rereadWinner(ctx context.Context, profileID model.ProfileID, companyID uuid.UUID) (*model.Employee, error) {
	employee, err := s.employeeRepo.GetByProfile(ctx, profileID, companyID)
	if err != nil {
		return nil, apperrors.Internal("EMPLOYEE_CREATION_FAILED", err)
	}
	return employee, nil
}

// Lookup returns the employee row for a profile within a company without
// provisioning one. Status-change flows use this: acting on an assignment
// requires being on the roster already.
func (s *Service) Lookup(ctx context.Context, profileID model.ProfileID, companyID uuid.UUID) (*model.Employee, error) {
	employee, err := s.employeeRepo.GetByProfile(ctx, profileID, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("EMPLOYEE_NOT_FOUND", "employee not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return employee, nil
}

// Get returns an employee by its surrogate key within the company.
func (s *Service) Get(ctx context.Context, id model.EmployeeID, companyID uuid.UUID) (*model.Employee, error) {
	employee, err := s.employeeRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("EMPLOYEE_NOT_FOUND", "employee not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	if employee.CompanyID != companyID {
		return nil, apperrors.NotFound("EMPLOYEE_NOT_FOUND", "employee not found")
	}
	return employee, nil
}

// List returns all employees for a company.
func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]*model.Employee, error) {
	employees, err := s.employeeRepo.List(ctx, companyID)
	if err != nil {
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return employees, nil
}

// Update applies a partial update to an employee within the company.
func (s *Service) Update(ctx context.Context, id model.EmployeeID, companyID uuid.UUID, req *model.UpdateEmployeeRequest) (*model.Employee, error) {
	employee, err := s.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		employee.Name = *req.Name
	}
	if req.Phone != nil {
		employee.Phone = *req.Phone
	}
	if req.Position != nil {
		employee.Position = *req.Position
	}
	if req.HourlyRate != nil {
		employee.HourlyRate = *req.HourlyRate
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	if err := s.employeeRepo.Update(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("EMPLOYEE_NOT_FOUND", "employee not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return employee, nil
}
