package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("not found")

type Profile struct {
	UserID      string
	Email       string
	DisplayName string
	Phone       string
	CreatedAt   time.Time
}

type CreateProfileParams struct {
	UserID      string
	Email       string
	DisplayName string
	Phone       string
}

func (s *Store) CreateProfile(ctx context.Context, params CreateProfileParams) error {
	var phone sql.NullString
	if params.Phone != "" {
		phone = sql.NullString{String: params.Phone, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, email, display_name, phone) VALUES (?, ?, ?, ?)`,
		params.UserID, params.Email, params.DisplayName, phone,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (Profile, error) {
	var (
		profile Profile
		phone   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, display_name, phone, created_at FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&profile.UserID, &profile.Email, &profile.DisplayName, &phone, &profile.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	profile.Phone = phone.String
	return profile, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	var (
		profile Profile
		phone   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, display_name, phone, created_at FROM profiles WHERE email = ?`,
		email,
	).Scan(&profile.UserID, &profile.Email, &profile.DisplayName, &phone, &profile.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile by email: %w", err)
	}
	profile.Phone = phone.String
	return profile, nil
}

func (s *Store) DeleteProfile(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// ProfileWithRole pairs a profile with its role assignment, if any, for the
// admin dashboard user list.
type ProfileWithRole struct {
	Profile
	Role string
}

func (s *Store) ListProfilesWithRoles(ctx context.Context) ([]ProfileWithRole, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.user_id, p.email, p.display_name, p.phone, p.created_at, COALESCE(r.role, '')
		 FROM profiles p
		 LEFT JOIN user_roles r ON r.user_id = p.user_id
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var results []ProfileWithRole
	for rows.Next() {
		var (
			entry ProfileWithRole
			phone sql.NullString
		)
		if err := rows.Scan(&entry.UserID, &entry.Email, &entry.DisplayName, &phone, &entry.CreatedAt, &entry.Role); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		entry.Phone = phone.String
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return results, nil
}
