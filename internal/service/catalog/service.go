package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
)

type Service struct {
	serviceRepo repository.ServiceRepository
}

func NewService(serviceRepo repository.ServiceRepository) *Service {
	return &Service{serviceRepo: serviceRepo}
}

func (s *Service) Create(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	svc := &model.Service{
		CompanyID:       req.CompanyID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("DUPLICATE_SERVICE", "a service with this name already exists")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return svc, nil
}

func (s *Service) Get(ctx context.Context, id, companyID uuid.UUID) (*model.Service, error) {
	svc, err := s.serviceRepo.Get(ctx, id, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("SERVICE_NOT_FOUND", "service not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return svc, nil
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*model.Service, error) {
	services, err := s.serviceRepo.List(ctx, companyID, activeOnly)
	if err != nil {
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return services, nil
}

func (s *Service) Update(ctx context.Context, id, companyID uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.Get(ctx, id, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("SERVICE_NOT_FOUND", "service not found")
		}
		return nil, apperrors.Internal("INTERNAL_ERROR", err)
	}
	return svc, nil
}
