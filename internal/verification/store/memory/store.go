// Package memory holds reports and submissions in process for tests and local runs.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"civicproof/internal/verification/models"
	"civicproof/pkg/platform/sentinel"
)

type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]models.IssueReport
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]models.IssueReport)}
}

// Put inserts or replaces a report.
func (s *ReportStore) Put(r models.IssueReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
}

func (s *ReportStore) FindByID(_ context.Context, id string) (*models.IssueReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if r.Location != nil {
		loc := *r.Location
		r.Location = &loc
	}
	return &r, nil
}

func (s *ReportStore) UpdateStatus(_ context.Context, id string, status models.ReportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	s.reports[id] = r
	return nil
}

type submissionKey struct {
	reportID     string
	submitterKey string
}

// SubmissionStore enforces one submission per (report, submitter key).
type SubmissionStore struct {
	mu    sync.RWMutex
	byKey map[submissionKey]*models.Submission
	order []*models.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{byKey: make(map[submissionKey]*models.Submission)}
}

func (s *SubmissionStore) Exists(_ context.Context, reportID, submitterKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byKey[submissionKey{reportID, submitterKey}]
	return ok, nil
}

func (s *SubmissionStore) Save(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := submissionKey{sub.ReportID, sub.SubmitterKey}
	if _, ok := s.byKey[k]; ok {
		return sentinel.ErrConflict
	}
	cp := *sub
	cp.Flags = slices.Clone(sub.Flags)
	s.byKey[k] = &cp
	s.order = append(s.order, &cp)
	return nil
}

// ListByReport returns the report's submissions, newest first.
func (s *SubmissionStore) ListByReport(_ context.Context, reportID string) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Submission
	for _, sub := range s.order {
		if sub.ReportID == reportID {
			out = append(out, clone(sub))
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Submission) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// ListSuspicious returns up to limit suspicious submissions, highest score first.
func (s *SubmissionStore) ListSuspicious(_ context.Context, limit int) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Submission
	for _, sub := range s.order {
		if sub.Status == models.StatusSuspicious {
			out = append(out, clone(sub))
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Submission) int {
		if a.SuspicionScore != b.SuspicionScore {
			return b.SuspicionScore - a.SuspicionScore
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(sub *models.Submission) *models.Submission {
	cp := *sub
	cp.Flags = slices.Clone(sub.Flags)
	return &cp
}
