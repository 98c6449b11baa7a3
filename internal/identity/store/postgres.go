package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"civicproof/internal/identity"
	"civicproof/pkg/platform/sentinel"
)

// PostgresStore reads the authorized_workers table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*identity.Worker, error) {
	query := `
		SELECT id, email, name, department, status, created_at
		FROM authorized_workers
		WHERE lower(email) = lower($1)
	`
	var (
		w      identity.Worker
		status string
	)
	err := s.db.QueryRowContext(ctx, query, email).Scan(&w.ID, &w.Email, &w.Name, &w.Department, &status, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find worker by email: %w", err)
	}
	w.Status = identity.Status(status)
	return &w, nil
}
