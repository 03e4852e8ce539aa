package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldserve/booking-api/internal/model"
	"github.com/fieldserve/booking-api/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestAssignmentCreate_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO staff_assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &model.StaffAssignment{
		BookingID:  uuid.New(),
		EmployeeID: model.NewProfileID(),
		Role:       model.AssignmentRoleEmployee,
		Status:     model.AssignmentStatusAssigned,
	}
	err := repo.Create(context.Background(), assignment)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, assignment.ID)
	assert.False(t, assignment.AssignedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreate_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO staff_assignments").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "staff_assignments_booking_employee_active"})

	err := repo.Create(context.Background(), &model.StaffAssignment{
		BookingID:  uuid.New(),
		EmployeeID: model.NewProfileID(),
		Status:     model.AssignmentStatusAssigned,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestAssignmentCreate_ForeignKeyViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO staff_assignments").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "staff_assignments_booking_id_fkey"})

	err := repo.Create(context.Background(), &model.StaffAssignment{
		BookingID:  uuid.New(),
		EmployeeID: model.NewProfileID(),
		Status:     model.AssignmentStatusAssigned,
	})
	assert.ErrorIs(t, err, repository.ErrInvalidReference)
}

func TestAssignmentGetForEmployee_ScopedLookup(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	id := uuid.New()
	bookingID := uuid.New()
	profileID := model.NewProfileID()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "booking_id", "employee_id", "role", "status", "notes",
		"assigned_at", "accepted_at", "completed_at", "created_at", "updated_at",
	}).AddRow(id, bookingID, profileID, "employee", "assigned", "", now, nil, nil, now, now)

	mock.ExpectQuery("FROM staff_assignments sa").
		WithArgs(id, bookingID, profileID).
		WillReturnRows(rows)

	got, err := repo.GetForEmployee(context.Background(), id, bookingID, profileID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentStatusAssigned, got.Status)
	assert.Equal(t, profileID, got.EmployeeID)
}

func TestAssignmentGetForEmployee_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("FROM staff_assignments sa").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForEmployee(context.Background(), uuid.New(), uuid.New(), model.NewProfileID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAssignmentUpdateStatus_ZeroRowsIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("UPDATE staff_assignments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), &model.StaffAssignment{
		ID:     uuid.New(),
		Status: model.AssignmentStatusAccepted,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAssignmentDeleteAssigned_OnlyAssignedRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssignmentRepository(db)

	// An accepted assignment matches no rows under the status='assigned'
	// predicate and surfaces as not found.
	mock.ExpectExec("DELETE FROM staff_assignments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteAssigned(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
