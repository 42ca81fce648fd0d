package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slapshotlabs/rinkside/internal/api/authz"
)

// AssignRole inserts the role row for a user. One assignment per user; a
// second insert for the same user fails on the primary key.
func (s *Store) AssignRole(ctx context.Context, userID, role string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`,
		userID, role,
	); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// GetRole returns the stored role value for a user. A missing row is reported
// as authz.ErrRoleNotFound so the access controller can distinguish a
// mis-provisioned account from a lookup failure.
func (s *Store) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = ?`,
		userID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", authz.ErrRoleNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

func (s *Store) RemoveRole(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	return nil
}
