package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fieldserve/booking-api/internal/repository"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translateError maps driver errors onto the repository sentinels so services
// can implement optimistic-insert-then-handle-conflict without importing pq.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, repository.ErrInvalidReference)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
