package directory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
)

type mockEmployeeRepo struct{ mock.Mock }

func (m *mockEmployeeRepo) GetByProfile(ctx context.Context, profileID model.ProfileID, companyID uuid.UUID) (*model.Employee, error) {
	args := m.Called(ctx, profileID, companyID)
	if e := args.Get(0); e != nil {
		return e.(*model.Employee), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmployeeRepo) Get(ctx context.Context, id model.EmployeeID) (*model.Employee, error) {
	args := m.Called(ctx, id)
	if e := args.Get(0); e != nil {
		return e.(*model.Employee), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEmployeeRepo) Create(ctx context.Context, employee *model.Employee) error {
	return m.Called(ctx, employee).Error(0)
}

func (m *mockEmployeeRepo) Update(ctx context.Context, employee *model.Employee) error {
	return m.Called(ctx, employee).Error(0)
}

func (m *mockEmployeeRepo) List(ctx context.Context, companyID uuid.UUID) ([]*model.Employee, error) {
	args := m.Called(ctx, companyID)
	if e := args.Get(0); e != nil {
		return e.([]*model.Employee), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockProfileRepo struct{ mock.Mock }

func (m *mockProfileRepo) Get(ctx context.Context, id model.ProfileID) (*model.Profile, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*model.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	args := m.Called(ctx, email)
	if p := args.Get(0); p != nil {
		return p.(*model.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileRepo) UpdateLastLogin(ctx context.Context, id model.ProfileID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func TestResolve_ExistingEmployee(t *testing.T) {
	employeeRepo := new(mockEmployeeRepo)
	profileRepo := new(mockProfileRepo)
	svc := NewService(employeeRepo, profileRepo, nil)

	profileID := model.NewProfileID()
	companyID := uuid.New()
	existing := &model.Employee{ProfileID: profileID, CompanyID: companyID, Name: "Dana"}

	employeeRepo.On("GetByProfile", mock.Anything, profileID, companyID).Return(existing, nil)

	got, err := svc.Resolve(context.Background(), profileID, companyID)
	require.NoError(t, err)
	assert.Equal(t, existing, got)
	profileRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	employeeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolve_ProvisionsFromProfile(t *testing.T) {
	employeeRepo := new(mockEmployeeRepo)
	profileRepo := new(mockProfileRepo)
	svc := NewService(employeeRepo, profileRepo, nil)

	profileID := model.NewProfileID()
	companyID := uuid.New()
	profile := &model.Profile{ID: profileID, Name: "Dana Fields", Email: "dana@example.com", Phone: "555-0100"}

	employeeRepo.On("GetByProfile", mock.Anything, profileID, companyID).Return(nil, repository.ErrNotFound)
	profileRepo.On("Get", mock.Anything, profileID).Return(profile, nil)
	employeeRepo.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Employee) bool {
		return e.ProfileID == profileID &&
			e.CompanyID == companyID &&
			e.Name == "Dana Fields" &&
			e.Email == "dana@example.com" &&
			e.Position == model.DefaultEmployeePosition &&
			e.HourlyRate == 0 &&
			e.IsActive
	})).Return(nil)

	got, err := svc.Resolve(context.Background(), profileID, companyID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultEmployeePosition, got.Position)
	assert.True(t, got.IsActive)
	employeeRepo.AssertExpectations(t)
}

func TestResolve_ProfileNotFound(t *testing.T) {
	employeeRepo := new(mockEmployeeRepo)
	profileRepo := new(mockProfileRepo)
	svc := NewService(employeeRepo, profileRepo, nil)

	profileID := model.NewProfileID()
	companyID := uuid.New()

	employeeRepo.On("GetByProfile", mock.Anything, profileID, companyID).Return(nil, repository.ErrNotFound)
	profileRepo.On("Get", mock.Anything, profileID).Return(nil, repository.ErrNotFound)

	_, err := svc.Resolve(context.Background(), profileID, companyID)
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "PROFILE_NOT_FOUND", appErr.Code)
	assert.Equal(t, 404, appErr.Status)
	employeeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolve_LostRaceRereadsWinner(t *testing.T) {
	employeeRepo := new(mockEmployeeRepo)
	profileRepo := new(mockProfileRepo)
	svc := NewService(employeeRepo, profileRepo, nil)

	profileID := model.NewProfileID()
	companyID := uuid.New()
	profile := &model.Profile{ID: profileID, Name: "Dana", Email: "dana@example.com"}
	winner := &model.Employee{ProfileID: profileID, CompanyID: companyID, Name: "Dana"}

	employeeRepo.On("GetByProfile", mock.Anything, profileID, companyID).Return(nil, repository.ErrNotFound).Once()
	profileRepo.On("Get", mock.Anything, profileID).Return(profile, nil)
	employeeRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)
	employeeRepo.On("GetByProfile", mock.Anything, profileID, companyID).Return(winner, nil).Once()

	got, err := svc.Resolve(context.Background(), profileID, companyID)
	require.NoError(t, err)
	assert.Equal(t, winner, got)
	employeeRepo.AssertExpectations(t)
}

func TestResolve_CreateFailure(t *testing.T) {
	employeeRepo := new(mockEmployeeRepo)
	profileRepo := new(mockProfileRepo)
	svc := NewService(employeeRepo, profileRepo, nil)

	profileID := model.NewProfileID()
	companyID := uuid.New()
	profile := &model.Profile{ID: profileID, Name: "Dana", Email: "dana@example.com"}

	employeeRepo.On("GetByProfile", mock.Anything, profileID, companyID).Return(nil, repository.ErrNotFound)
	profileRepo.On("Get", mock.Anything, profileID).Return(profile, nil)
	employeeRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Resolve(context.Background(), profileID, companyID)
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "EMPLOYEE_CREATION_FAILED", appErr.Code)
	assert.Equal(t, 500, appErr.Status)
}

func TestLookup_NeverProvisions(t *testing.T) {
	employeeRepo := new(mockEmployeeRepo)
	profileRepo := new(mockProfileRepo)
	svc := NewService(employeeRepo, profileRepo, nil)

	profileID := model.NewProfileID()
	companyID := uuid.New()

	employeeRepo.On("GetByProfile", mock.Anything, profileID, companyID).Return(nil, repository.ErrNotFound)

	_, err := svc.Lookup(context.Background(), profileID, companyID)
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "EMPLOYEE_NOT_FOUND", appErr.Code)
	employeeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	profileRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}
