package payment

import (
	"context"
	"fmt"
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

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPaymentRepo) GetLatestForBooking(ctx context.Context, bookingID, companyID uuid.UUID) (*model.Payment, error) {
	args := m.Called(ctx, bookingID, companyID)
	if p := args.Get(0); p != nil {
		return p.(*model.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPaymentRepo) UpsertFromProvider(ctx context.Context, p *model.Payment) error {
	return m.Called(ctx, p).Error(0)
}

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

// stubProvider records the last intent request and returns a canned intent.
type stubProvider struct {
	lastIntent   *IntentRequest
	customerErr  error
	intentErr    error
	customerID   string
	intentResult *Intent
}

func (s *stubProvider) FindOrCreateCustomer(ctx context.Context, email, name string) (string, error) {
	if s.customerErr != nil {
		return "", s.customerErr
	}
	if s.customerID == "" {
		s.customerID = "cus_test"
	}
	return s.customerID, nil
}

func (s *stubProvider) CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error) {
	s.lastIntent = req
	if s.intentErr != nil {
		return nil, s.intentErr
	}
	if s.intentResult != nil {
		return s.intentResult, nil
	}
	return &Intent{ID: "pi_test", ClientSecret: "pi_test_secret", Status: "requires_payment_method"}, nil
}

type paymentFixture struct {
	paymentRepo *mockPaymentRepo
	bookingRepo *mockBookingRepo
	outboxRepo  *mockOutboxRepo
	provider    *stubProvider
	svc         *Service
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		paymentRepo: new(mockPaymentRepo),
		bookingRepo: new(mockBookingRepo),
		outboxRepo:  new(mockOutboxRepo),
		provider:    &stubProvider{},
	}
	f.svc = NewService(f.paymentRepo, f.bookingRepo, f.provider, event.NewService(f.outboxRepo), nil, "usd")
	f.outboxRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func testBooking(companyID uuid.UUID, servicePrice float64, totalPrice *float64) *model.Booking {
	b := &model.Booking{
		CompanyID:     companyID,
		CustomerName:  "Pat Customer",
		CustomerEmail: "pat@example.com",
		ServiceName:   "Deep Clean",
		ServicePrice:  servicePrice,
		TotalPrice:    totalPrice,
	}
	b.ID = uuid.New()
	return b
}

func TestCreateIntent_AmountTolerance(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		ok     bool
	}{
		{"exact", 100.00, true},
		{"one cent under limit", 100.99, true},
		{"exactly one dollar over", 101.00, true},
		{"one cent past limit", 101.01, false},
		{"exactly one dollar under", 99.00, true},
		{"one cent past lower limit", 98.99, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPaymentFixture()
			companyID := uuid.New()
			booking := testBooking(companyID, 100.00, nil)

			f.bookingRepo.On("GetForCompany", mock.Anything, booking.ID, companyID).Return(booking, nil)
			if tc.ok {
				f.paymentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
				f.bookingRepo.On("UpdatePaymentStatus", mock.Anything, booking.ID, model.BookingPaymentPending).Return(nil)
			}

			resp, err := f.svc.CreateIntent(context.Background(), companyID, &model.CreateIntentRequest{
				BookingID: booking.ID,
				Amount:    tc.amount,
			})

			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, "pi_test", resp.PaymentIntentID)
				return
			}
			appErr := apperrors.AsAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, "AMOUNT_MISMATCH", appErr.Code)
			assert.Equal(t, 400, appErr.Status)
			assert.Contains(t, appErr.Message, fmt.Sprintf("%.2f", tc.amount))
			assert.Contains(t, appErr.Message, "100.00")
			assert.Nil(t, f.provider.lastIntent)
		})
	}
}

func TestCreateIntent_TotalPriceOverridesServicePrice(t *testing.T) {
	f := newPaymentFixture()
	companyID := uuid.New()
	total := 150.00
	booking := testBooking(companyID, 100.00, &total)

	f.bookingRepo.On("GetForCompany", mock.Anything, booking.ID, companyID).Return(booking, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.bookingRepo.On("UpdatePaymentStatus", mock.Anything, booking.ID, model.BookingPaymentPending).Return(nil)

	_, err := f.svc.CreateIntent(context.Background(), companyID, &model.CreateIntentRequest{
		BookingID: booking.ID,
		Amount:    150.00,
	})
	require.NoError(t, err)

	// service_price alone would have been a mismatch
	_, err = f.svc.CreateIntent(context.Background(), companyID, &model.CreateIntentRequest{
		BookingID: booking.ID,
		Amount:    100.00,
	})
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "AMOUNT_MISMATCH", appErr.Code)
}

func TestCreateIntent_IdempotencyKeyAndMetadata(t *testing.T) {
	f := newPaymentFixture()
	companyID := uuid.New()
	booking := testBooking(companyID, 100.00, nil)

	f.bookingRepo.On("GetForCompany", mock.Anything, booking.ID, companyID).Return(booking, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.bookingRepo.On("UpdatePaymentStatus", mock.Anything, booking.ID, model.BookingPaymentPending).Return(nil)

	_, err := f.svc.CreateIntent(context.Background(), companyID, &model.CreateIntentRequest{
		BookingID: booking.ID,
		Amount:    100.50,
	})
	require.NoError(t, err)

	require.NotNil(t, f.provider.lastIntent)
	assert.Equal(t, int64(10050), f.provider.lastIntent.AmountCents)
	assert.Equal(t, fmt.Sprintf("booking:%s:amount:10050", booking.ID), f.provider.lastIntent.IdempotencyKey)
	assert.Equal(t, booking.ID.String(), f.provider.lastIntent.Metadata["booking_id"])
	assert.Equal(t, companyID.String(), f.provider.lastIntent.Metadata["company_id"])
	assert.Equal(t, "usd", f.provider.lastIntent.Currency)
}

func TestCreateIntent_LocalWriteFailureStillSucceeds(t *testing.T) {
	f := newPaymentFixture()
	companyID := uuid.New()
	booking := testBooking(companyID, 100.00, nil)

	f.bookingRepo.On("GetForCompany", mock.Anything, booking.ID, companyID).Return(booking, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)
	f.bookingRepo.On("UpdatePaymentStatus", mock.Anything, booking.ID, model.BookingPaymentPending).Return(nil)

	resp, err := f.svc.CreateIntent(context.Background(), companyID, &model.CreateIntentRequest{
		BookingID: booking.ID,
		Amount:    100.00,
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_test", resp.PaymentIntentID)
}

func TestCreateIntent_BookingNotFound(t *testing.T) {
	f := newPaymentFixture()
	companyID := uuid.New()
	bookingID := uuid.New()

	f.bookingRepo.On("GetForCompany", mock.Anything, bookingID, companyID).Return(nil, repository.ErrNotFound)

	_, err := f.svc.CreateIntent(context.Background(), companyID, &model.CreateIntentRequest{
		BookingID: bookingID,
		Amount:    100.00,
	})
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "BOOKING_NOT_FOUND", appErr.Code)
}

func TestCreateIntent_ProviderFailure(t *testing.T) {
	f := newPaymentFixture()
	companyID := uuid.New()
	booking := testBooking(companyID, 100.00, nil)
	f.provider.intentErr = assert.AnError

	f.bookingRepo.On("GetForCompany", mock.Anything, booking.ID, companyID).Return(booking, nil)

	_, err := f.svc.CreateIntent(context.Background(), companyID, &model.CreateIntentRequest{
		BookingID: booking.ID,
		Amount:    100.00,
	})
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "PAYMENT_PROVIDER_ERROR", appErr.Code)
	assert.Equal(t, 500, appErr.Status)
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func succeededEvent(bookingID, companyID uuid.UUID) *ProviderEvent {
	return &ProviderEvent{
		IntentID:      "pi_test",
		AmountCents:   10000,
		Currency:      "usd",
		PaymentMethod: "card",
		Metadata: map[string]string{
			"booking_id": bookingID.String(),
			"company_id": companyID.String(),
		},
	}
}

func TestHandlePaymentSucceeded_UpsertsAndMarksPaid(t *testing.T) {
	f := newPaymentFixture()
	bookingID := uuid.New()
	companyID := uuid.New()

	f.paymentRepo.On("UpsertFromProvider", mock.Anything, mock.MatchedBy(func(p *model.Payment) bool {
		return p.ProviderIntentID == "pi_test" &&
			p.BookingID == bookingID &&
			p.Status == model.PaymentStatusSucceeded &&
			p.Amount == 100.00 &&
			p.PaidAt != nil &&
			p.PaymentMethod != nil && *p.PaymentMethod == "card"
	})).Return(nil)
	f.bookingRepo.On("UpdatePaymentStatus", mock.Anything, bookingID, model.BookingPaymentPaid).Return(nil)

	err := f.svc.HandlePaymentSucceeded(context.Background(), succeededEvent(bookingID, companyID))
	require.NoError(t, err)
	f.paymentRepo.AssertExpectations(t)
	f.bookingRepo.AssertExpectations(t)
}

func TestHandlePaymentSucceeded_Idempotent(t *testing.T) {
	f := newPaymentFixture()
	bookingID := uuid.New()
	companyID := uuid.New()

	f.paymentRepo.On("UpsertFromProvider", mock.Anything, mock.Anything).Return(nil).Twice()
	f.bookingRepo.On("UpdatePaymentStatus", mock.Anything, bookingID, model.BookingPaymentPaid).Return(nil).Twice()

	evt := succeededEvent(bookingID, companyID)
	require.NoError(t, f.svc.HandlePaymentSucceeded(context.Background(), evt))
	require.NoError(t, f.svc.HandlePaymentSucceeded(context.Background(), evt))
	f.paymentRepo.AssertExpectations(t)
}

func TestHandlePaymentSucceeded_LocalFailureNeverErrors(t *testing.T) {
	f := newPaymentFixture()
	bookingID := uuid.New()
	companyID := uuid.New()

	f.paymentRepo.On("UpsertFromProvider", mock.Anything, mock.Anything).Return(assert.AnError)

	err := f.svc.HandlePaymentSucceeded(context.Background(), succeededEvent(bookingID, companyID))
	require.NoError(t, err)
	f.bookingRepo.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandlePaymentSucceeded_MissingMetadata(t *testing.T) {
	f := newPaymentFixture()

	err := f.svc.HandlePaymentSucceeded(context.Background(), &ProviderEvent{
		IntentID:    "pi_orphan",
		AmountCents: 10000,
		Metadata:    map[string]string{},
	})
	require.NoError(t, err)
	f.paymentRepo.AssertNotCalled(t, "UpsertFromProvider", mock.Anything, mock.Anything)
}

func TestHandlePaymentFailed_RecordsReason(t *testing.T) {
	f := newPaymentFixture()
	bookingID := uuid.New()
	companyID := uuid.New()

	f.paymentRepo.On("UpsertFromProvider", mock.Anything, mock.MatchedBy(func(p *model.Payment) bool {
		return p.Status == model.PaymentStatusFailed &&
			p.FailureReason != nil && *p.FailureReason == "card_declined" &&
			p.PaidAt == nil
	})).Return(nil)

	evt := succeededEvent(bookingID, companyID)
	evt.FailureReason = "card_declined"
	require.NoError(t, f.svc.HandlePaymentFailed(context.Background(), evt))
	// A failure never marks the booking paid or unpaid; the customer retries.
	f.bookingRepo.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetStatus_NotFoundSentinel(t *testing.T) {
	f := newPaymentFixture()
	bookingID := uuid.New()
	companyID := uuid.New()

	f.paymentRepo.On("GetLatestForBooking", mock.Anything, bookingID, companyID).Return(nil, repository.ErrNotFound)

	summary, err := f.svc.GetStatus(context.Background(), bookingID, companyID)
	require.NoError(t, err)
	assert.Equal(t, "not_found", summary.Status)
	assert.Equal(t, bookingID, summary.BookingID)
}

func TestGetStatus_ReturnsLatest(t *testing.T) {
	f := newPaymentFixture()
	bookingID := uuid.New()
	companyID := uuid.New()
	paidAt := time.Now()

	f.paymentRepo.On("GetLatestForBooking", mock.Anything, bookingID, companyID).Return(&model.Payment{
		BookingID: bookingID,
		Status:    model.PaymentStatusSucceeded,
		Amount:    100.00,
		Currency:  "usd",
		PaidAt:    &paidAt,
	}, nil)

	summary, err := f.svc.GetStatus(context.Background(), bookingID, companyID)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", summary.Status)
	assert.Equal(t, 100.00, summary.Amount)
	require.NotNil(t, summary.PaidAt)
}
