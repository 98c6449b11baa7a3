// Package postgres persists issue reports and resolution submissions.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"civicproof/internal/geo"
	platformpg "civicproof/internal/platform/postgres"
	"civicproof/internal/verification/models"
	"civicproof/pkg/platform/sentinel"
)

// ReportStore reads issue_reports and applies status transitions.
type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) FindByID(ctx context.Context, id string) (*models.IssueReport, error) {
	query := `
		SELECT id, category, description, latitude, longitude, before_image_url, status, created_at, updated_at
		FROM issue_reports
		WHERE id = $1
	`
	var (
		r        models.IssueReport
		lat, lng sql.NullFloat64
		status   string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.Category, &r.Description, &lat, &lng, &r.BeforeImageURL, &status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	r.Status = models.ReportStatus(status)
	if lat.Valid && lng.Valid {
		r.Location = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &r, nil
}

func (s *ReportStore) UpdateStatus(ctx context.Context, id string, status models.ReportStatus) error {
	query := `UPDATE issue_reports SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// SubmissionStore persists resolution_submissions. Rows are never updated.
type SubmissionStore struct {
	db *sql.DB
}

func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

const submissionColumns = `
	id, report_id, mode, submitter_id, submitter_email, submitter_key, after_image_url, after_image_digest,
	latitude, longitude, distance_meters, exif_latitude, exif_longitude, exif_timestamp, exif_camera,
	exif_deviation_meters, image_similarity, hash_distance, ai_same_location, ai_issue_resolved,
	ai_fake_detected, ai_suspicious, ai_similarity_score, ai_confidence, ai_suspicion_reason, ai_summary,
	suspicion_score, flags, status, created_at
`

func (s *SubmissionStore) Exists(ctx context.Context, reportID, submitterKey string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM resolution_submissions WHERE report_id = $1 AND submitter_key = $2)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, reportID, submitterKey).Scan(&exists); err != nil {
		return false, fmt.Errorf("check existing submission: %w", err)
	}
	return exists, nil
}

// Save inserts the submission. The (report_id, submitter_key) unique constraint
// surfaces as sentinel.ErrConflict.
func (s *SubmissionStore) Save(ctx context.Context, sub *models.Submission) error {
	query := `INSERT INTO resolution_submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)
	`
	flags := sub.Flags
	if flags == nil {
		flags = []string{}
	}
	_, err := s.db.ExecContext(ctx, query,
		sub.ID,
		sub.ReportID,
		string(sub.Mode),
		sub.SubmitterID,
		sub.SubmitterEmail,
		sub.SubmitterKey,
		sub.AfterImageURL,
		sub.AfterImageDigest,
		sub.Latitude,
		sub.Longitude,
		nullFloat(sub.DistanceMeters),
		nullFloat(sub.ExifLatitude),
		nullFloat(sub.ExifLongitude),
		nullTime(sub.ExifTimestamp),
		sub.ExifCamera,
		nullFloat(sub.ExifDeviationMeters),
		sub.ImageSimilarity,
		sub.HashDistance,
		sub.AISameLocation,
		sub.AIIssueResolved,
		sub.AIFakeDetected,
		sub.AISuspicious,
		sub.AISimilarityScore,
		sub.AIConfidence,
		sub.AISuspicionReason,
		sub.AISummary,
		sub.SuspicionScore,
		pq.Array(flags),
		string(sub.Status),
		sub.CreatedAt,
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return fmt.Errorf("save submission: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

// ListByReport returns every submission for a report, newest first.
func (s *SubmissionStore) ListByReport(ctx context.Context, reportID string) ([]*models.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM resolution_submissions
		WHERE report_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("list submissions by report: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

// ListSuspicious returns suspicious submissions, highest score first.
func (s *SubmissionStore) ListSuspicious(ctx context.Context, limit int) ([]*models.Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM resolution_submissions
		WHERE status = 'suspicious'
		ORDER BY suspicion_score DESC, created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list suspicious submissions: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func scanSubmissions(rows *sql.Rows) ([]*models.Submission, error) {
	var out []*models.Submission
	for rows.Next() {
		var (
			sub                        models.Submission
			mode, status               string
			distance, exifLat, exifLng sql.NullFloat64
			deviation                  sql.NullFloat64
			exifTime                   sql.NullTime
			flags                      []string
		)
		if err := rows.Scan(
			&sub.ID, &sub.ReportID, &mode, &sub.SubmitterID, &sub.SubmitterEmail, &sub.SubmitterKey,
			&sub.AfterImageURL, &sub.AfterImageDigest, &sub.Latitude, &sub.Longitude, &distance,
			&exifLat, &exifLng, &exifTime, &sub.ExifCamera, &deviation, &sub.ImageSimilarity,
			&sub.HashDistance, &sub.AISameLocation, &sub.AIIssueResolved, &sub.AIFakeDetected,
			&sub.AISuspicious, &sub.AISimilarityScore, &sub.AIConfidence, &sub.AISuspicionReason,
			&sub.AISummary, &sub.SuspicionScore, pq.Array(&flags), &status, &sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.Mode = models.Mode(mode)
		sub.Status = models.SubmissionStatus(status)
		sub.DistanceMeters = floatPtr(distance)
		sub.ExifLatitude = floatPtr(exifLat)
		sub.ExifLongitude = floatPtr(exifLng)
		sub.ExifDeviationMeters = floatPtr(deviation)
		if exifTime.Valid {
			t := exifTime.Time
			sub.ExifTimestamp = &t
		}
		sub.Flags = flags
		out = append(out, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
