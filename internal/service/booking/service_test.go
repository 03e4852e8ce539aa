package booking

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
	"github.com/fieldserve/booking-api/internal/service/event"
	apperrors "github.com/fieldserve/booking-api/pkg/errors"
)

type mockBookingRepo struct{ mock.Mock }

func (m *mockBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepo) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*model.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingRepo) GetForCompany(ctx context.Context, id, companyID uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id, companyID)
	if b := args.Get(0); b != nil {
		return b.(*model.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingRepo) Update(ctx context.Context, b *model.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookingRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.BookingPaymentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockBookingRepo) List(ctx context.Context, companyID uuid.UUID, filters *model.BookingFilters) ([]*model.Booking, error) {
	args := m.Called(ctx, companyID, filters)
	if b := args.Get(0); b != nil {
		return b.([]*model.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookingRepo) Count(ctx context.Context, companyID uuid.UUID, filters *model.BookingFilters) (int, error) {
	args := m.Called(ctx, companyID, filters)
	return args.Int(0), args.Error(1)
}

type mockServiceRepo struct{ mock.Mock }

func (m *mockServiceRepo) Create(ctx context.Context, s *model.Service) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockServiceRepo) Get(ctx context.Context, id, companyID uuid.UUID) (*model.Service, error) {
	args := m.Called(ctx, id, companyID)
	if s := args.Get(0); s != nil {
		return s.(*model.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockServiceRepo) List(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*model.Service, error) {
	args := m.Called(ctx, companyID, activeOnly)
	if s := args.Get(0); s != nil {
		return s.([]*model.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockServiceRepo) Update(ctx context.Context, s *model.Service) error {
	return m.Called(ctx, s).Error(0)
}

type mockOutboxRepo struct{ mock.Mock }

func (m *mockOutboxRepo) Create(ctx context.Context, e *model.OutboxEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if e := args.Get(0); e != nil {
		return e.([]*model.OutboxEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return m.Called(ctx, id, errMsg).Error(0)
}

func (m *mockOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// recordingSender captures confirmation emails.
type recordingSender struct {
	confirmations []string
}

func (r *recordingSender) SendAssignmentNotification(ctx context.Context, to, employeeName string, booking *model.Booking) error {
	return nil
}

func (r *recordingSender) SendBookingConfirmation(ctx context.Context, to string, booking *model.Booking) error {
	r.confirmations = append(r.confirmations, to)
	return nil
}

type bookingFixture struct {
	bookingRepo *mockBookingRepo
	serviceRepo *mockServiceRepo
	outboxRepo  *mockOutboxRepo
	sender      *recordingSender
	svc         *Service
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookingRepo: new(mockBookingRepo),
		serviceRepo: new(mockServiceRepo),
		outboxRepo:  new(mockOutboxRepo),
		sender:      &recordingSender{},
	}
	f.svc = NewService(f.bookingRepo, f.serviceRepo, event.NewService(f.outboxRepo), f.sender)
	f.outboxRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func TestCreate_AppliesDefaults(t *testing.T) {
	f := newBookingFixture()
	companyID := uuid.New()

	f.bookingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
		return b.Status == model.BookingStatusPending &&
			b.PaymentStatus == model.BookingPaymentUnpaid &&
			b.StaffRequired == 1 &&
			b.DurationMinutes == defaultDurationMinutes
	})).Return(nil)

	_, err := f.svc.Create(context.Background(), &model.CreateBookingRequest{
		CompanyID:    companyID,
		CustomerName: "Pat Customer",
		Address:      "12 Main St",
		ServiceName:  "Deep Clean",
		ServicePrice: 100,
		ScheduledAt:  time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	f.bookingRepo.AssertExpectations(t)
}

func TestCreate_FillsFromCatalog(t *testing.T) {
	f := newBookingFixture()
	companyID := uuid.New()
	serviceID := uuid.New()

	f.serviceRepo.On("Get", mock.Anything, serviceID, companyID).Return(&model.Service{
		Name:            "Window Wash",
		Price:           75,
		DurationMinutes: 90,
	}, nil)
	f.bookingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
		return b.ServicePrice == 75 && b.DurationMinutes == 90
	})).Return(nil)

	_, err := f.svc.Create(context.Background(), &model.CreateBookingRequest{
		CompanyID:    companyID,
		CustomerName: "Pat Customer",
		Address:      "12 Main St",
		ServiceID:    &serviceID,
		ServiceName:  "Window Wash",
		ScheduledAt:  time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
}

func TestCreate_UnknownCatalogService(t *testing.T) {
	f := newBookingFixture()
	companyID := uuid.New()
	serviceID := uuid.New()

	f.serviceRepo.On("Get", mock.Anything, serviceID, companyID).Return(nil, repository.ErrNotFound)

	_, err := f.svc.Create(context.Background(), &model.CreateBookingRequest{
		CompanyID:    companyID,
		CustomerName: "Pat Customer",
		Address:      "12 Main St",
		ServiceID:    &serviceID,
		ServiceName:  "Window Wash",
		ScheduledAt:  time.Now().Add(24 * time.Hour),
	})
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "SERVICE_NOT_FOUND", appErr.Code)
	f.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestList_PaginatedReturnsUnpagedTotal(t *testing.T) {
	f := newBookingFixture()
	companyID := uuid.New()

	page := model.Pagination{Page: 2, PageSize: 2}
	filters := &model.BookingFilters{Page: &page}
	window := []*model.Booking{{CustomerName: "A"}, {CustomerName: "B"}}

	f.bookingRepo.On("List", mock.Anything, companyID, filters).Return(window, nil)
	f.bookingRepo.On("Count", mock.Anything, companyID, filters).Return(7, nil)

	bookings, total, err := f.svc.List(context.Background(), companyID, filters)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
	assert.Equal(t, 7, total)
}

func TestList_UnpaginatedSkipsCount(t *testing.T) {
	f := newBookingFixture()
	companyID := uuid.New()
	filters := &model.BookingFilters{}

	f.bookingRepo.On("List", mock.Anything, companyID, filters).
		Return([]*model.Booking{{CustomerName: "A"}}, nil)

	bookings, total, err := f.svc.List(context.Background(), companyID, filters)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, 1, total)
	f.bookingRepo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything, mock.Anything)
}

func TestPagination_Normalize(t *testing.T) {
	norm := model.Pagination{}.Normalize()
	assert.Equal(t, 1, norm.Page)
	assert.Equal(t, 20, norm.PageSize)
	assert.Equal(t, 0, norm.Offset())

	capped := model.Pagination{Page: 3, PageSize: 500}.Normalize()
	assert.Equal(t, 100, capped.PageSize)
	assert.Equal(t, 200, capped.Offset())
}

func TestUpdate_ConfirmationSendsEmailOnce(t *testing.T) {
	f := newBookingFixture()
	companyID := uuid.New()
	bookingID := uuid.New()

	pending := &model.Booking{
		CompanyID:     companyID,
		CustomerEmail: "pat@example.com",
		Status:        model.BookingStatusPending,
	}
	pending.ID = bookingID

	f.bookingRepo.On("GetForCompany", mock.Anything, bookingID, companyID).Return(pending, nil)
	f.bookingRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	confirmed := model.BookingStatusConfirmed
	_, err := f.svc.Update(context.Background(), bookingID, companyID, &model.UpdateBookingRequest{Status: &confirmed})
	require.NoError(t, err)
	require.Len(t, f.sender.confirmations, 1)
	assert.Equal(t, "pat@example.com", f.sender.confirmations[0])

	// Re-confirming an already confirmed booking sends nothing.
	_, err = f.svc.Update(context.Background(), bookingID, companyID, &model.UpdateBookingRequest{Status: &confirmed})
	require.NoError(t, err)
	assert.Len(t, f.sender.confirmations, 1)
}
