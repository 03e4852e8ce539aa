package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProfileID identifies an authentication-layer profile. EmployeeID identifies
// the tenant-scoped employee row. They are distinct defined types because the
// schema keys staff assignments by profile id while employees carry their own
// surrogate key; the compiler rejects one where the other is expected.
type (
	ProfileID  uuid.UUID
	EmployeeID uuid.UUID
)

func NewProfileID() ProfileID { return ProfileID(uuid.New()) }

func ParseProfileID(s string) (ProfileID, error) {
	id, err := uuid.Parse(s)
	return ProfileID(id), err
}

func (id ProfileID) String() string                { return uuid.UUID(id).String() }
func (id ProfileID) Value() (driver.Value, error)  { return uuid.UUID(id).Value() }
func (id *ProfileID) Scan(src interface{}) error   { return (*uuid.UUID)(id).Scan(src) }
func (id ProfileID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *ProfileID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func ParseEmployeeID(s string) (EmployeeID, error) {
	id, err := uuid.Parse(s)
	return EmployeeID(id), err
}

func (id EmployeeID) String() string                { return uuid.UUID(id).String() }
func (id EmployeeID) Value() (driver.Value, error)  { return uuid.UUID(id).Value() }
func (id *EmployeeID) Scan(src interface{}) error   { return (*uuid.UUID)(id).Scan(src) }
func (id EmployeeID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *EmployeeID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Normalize clamps pagination to sane bounds so a single request cannot drag
// an unbounded slice of the table over the wire.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}
