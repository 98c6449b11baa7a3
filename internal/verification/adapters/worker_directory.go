package adapters

import (
	"context"

	"civicproof/internal/identity"
	"civicproof/internal/verification/ports"
)

// WorkerDirectoryAdapter implements ports.WorkerDirectory by calling the
// identity directory in process.
type WorkerDirectoryAdapter struct {
	directory *identity.Directory
}

func NewWorkerDirectoryAdapter(directory *identity.Directory) ports.WorkerDirectory {
	return &WorkerDirectoryAdapter{directory: directory}
}

func (a *WorkerDirectoryAdapter) Authorize(ctx context.Context, email string) (*ports.AuthorizedWorker, error) {
	w, err := a.directory.Authorize(ctx, email)
	if err != nil {
		return nil, err
	}
	return &ports.AuthorizedWorker{ID: w.ID, Email: w.Email, Name: w.Name}, nil
}
