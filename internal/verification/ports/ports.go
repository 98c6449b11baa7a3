// Package ports declares the collaborators the verification pipeline depends on.
// Concrete stores, clients and adapters live elsewhere and are injected at startup.
package ports

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks

import (
	"context"

	"civicproof/internal/imagefetch"
	"civicproof/internal/imagehash"
	"civicproof/internal/oracle"
	"civicproof/internal/verification/models"
)

// ReportStore reads issue reports and applies the single status transition.
type ReportStore interface {
	FindByID(ctx context.Context, id string) (*models.IssueReport, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus) error
}

// SubmissionStore persists immutable resolution submissions. Save returns
// sentinel.ErrConflict when (report, submitter key) already exists.
type SubmissionStore interface {
	Exists(ctx context.Context, reportID, submitterKey string) (bool, error)
	Save(ctx context.Context, s *models.Submission) error
	ListByReport(ctx context.Context, reportID string) ([]*models.Submission, error)
	ListSuspicious(ctx context.Context, limit int) ([]*models.Submission, error)
}

// AuthorizedWorker is the directory's view of a field worker (port model).
type AuthorizedWorker struct {
	ID    string
	Email string
	Name  string
}

// WorkerDirectory authorizes strict-mode submitters. Any error means unauthorized.
type WorkerDirectory interface {
	Authorize(ctx context.Context, email string) (*AuthorizedWorker, error)
}

// ObjectStore holds uploaded after-images and returns a dereferenceable URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// ImageFetcher downloads the before/after pair once for every downstream signal.
type ImageFetcher interface {
	Pair(ctx context.Context, beforeURL, afterURL string) (before, after imagefetch.Image, err error)
}

// ImageComparator scores perceptual similarity. It never fails.
type ImageComparator interface {
	Compare(ctx context.Context, before, after []byte) imagehash.Comparison
}

// Oracle adjudicates the pair with a vision model. It always returns a usable verdict.
type Oracle interface {
	Verify(ctx context.Context, req oracle.Request) (oracle.Verdict, error)
}
