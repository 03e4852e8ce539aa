package postgres

import (
	"context"
	"time"

	"github.com/fieldserve/booking-api/internal/model"
)

func (r *profileRepository) Get(ctx context.Context, id model.ProfileID) (*model.Profile, error) {
	query := `
		SELECT id, email, name, phone, role, password_hash, is_active,
		       last_login_at, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	var profile model.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, translateError("failed to get profile", err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	query := `
		SELECT id, email, name, phone, role, password_hash, is_active,
		       last_login_at, created_at, updated_at
		FROM profiles
		WHERE lower(email) = lower($1)
	`
	var profile model.Profile
	if err := r.db.GetContext(ctx, &profile, query, email); err != nil {
		return nil, translateError("failed to get profile by email", err)
	}
	return &profile, nil
}

func (r *profileRepository) UpdateLastLogin(ctx context.Context, id model.ProfileID, at time.Time) error {
	query := `UPDATE profiles SET last_login_at = $1, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return translateError("failed to update last login", err)
	}
	return nil
}
