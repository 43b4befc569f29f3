package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/model"
	"github.com/jackc/pgx/v5"
)

// GetUser returns a single user or NotFoundError.
func (s *Store) GetUser(ctx context.Context, userID string) (*model.User, error) {
	if !validID(userID) {
		return nil, model.NotFoundError{Resource: "user"}
	}
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NotFoundError{Resource: "user"}
		}
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

// UpsertUser inserts a user keyed by email. An existing user with the same
// email is returned unchanged.
func (s *Store) UpsertUser(ctx context.Context, name, email string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (name, email)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id, name, email, created_at`,
		name, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, storageErr("upsert user", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, email, created_at FROM users ORDER BY name, id`,
	)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, storageErr("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", fmt.Errorf("iterate: %w", err))
	}
	return users, nil
}
