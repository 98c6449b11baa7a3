// Package identity owns the directory of field workers allowed to submit
// strict-mode resolutions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"civicproof/pkg/platform/sentinel"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Worker is an entry in the authorized worker directory.
type Worker struct {
	ID         string
	Email      string
	Name       string
	Department string
	Status     Status
	CreatedAt  time.Time
}

// ErrNotAuthorized is returned for unknown, suspended or unreadable workers.
var ErrNotAuthorized = errors.New("worker not authorized")

// Store looks workers up by normalized email.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Worker, error)
}

// Directory authorizes workers. It fails closed: any lookup failure denies.
type Directory struct {
	store  Store
	logger *slog.Logger
}

func NewDirectory(store Store, logger *slog.Logger) (*Directory, error) {
	if store == nil {
		return nil, errors.New("worker store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{store: store, logger: logger}, nil
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *Directory) Authorize(ctx context.Context, email string) (*Worker, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrNotAuthorized
	}
	w, err := d.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		d.logger.ErrorContext(ctx, "worker directory lookup failed", "error", err)
		return nil, fmt.Errorf("%w: directory unavailable: %v", ErrNotAuthorized, err)
	}
	if w.Status != StatusActive {
		return nil, ErrNotAuthorized
	}
	return w, nil
}
