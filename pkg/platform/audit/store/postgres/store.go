package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	audit "civicproof/pkg/platform/audit"
)

// Store implements audit.Store on the security_logs table. Rows are append-only;
// re-delivery of the same event ID is ignored.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `
	id, created_at, action, category, report_id, submitter_id, submitter_email,
	reason, suspicion_score, severity, mode, ip_address, user_agent, device, request_id
`

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO security_logs (
			id, created_at, action, category, report_id, submitter_id, submitter_email,
			reason, suspicion_score, severity, mode, ip_address, user_agent, device, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		string(event.Action),
		string(event.Action.Category()),
		nullString(event.ReportID),
		nullString(event.SubmitterID),
		nullString(event.SubmitterEmail),
		event.Reason,
		event.Score,
		string(event.Severity),
		nullString(event.Mode),
		nullString(event.IP),
		nullString(event.UserAgent),
		nullString(event.Device),
		nullString(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("insert security log: %w", err)
	}
	return nil
}

// ListByWorker returns a worker's security events, newest first.
func (s *Store) ListByWorker(ctx context.Context, email string, limit int) ([]audit.Event, error) {
	query := `SELECT ` + selectColumns + `
		FROM security_logs
		WHERE lower(submitter_email) = lower($1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, email, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query security logs by worker: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `SELECT ` + selectColumns + `
		FROM security_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent security logs: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountSince counts a worker's events of one action since a point in time with at
// least minScore suspicion.
func (s *Store) CountSince(ctx context.Context, email string, action audit.Action, since time.Time, minScore int) (int, error) {
	query := `
		SELECT count(*)
		FROM security_logs
		WHERE lower(submitter_email) = lower($1)
		  AND action = $2
		  AND created_at >= $3
		  AND suspicion_score >= $4
	`
	var n int
	if err := s.db.QueryRowContext(ctx, query, email, string(action), since, minScore).Scan(&n); err != nil {
		return 0, fmt.Errorf("count security logs: %w", err)
	}
	return n, nil
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e                                                      audit.Event
			action, category, severity                             string
			reportID, submitterID, email, mode, ip, ua, device, rq sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &action, &category, &reportID, &submitterID, &email,
			&e.Reason, &e.Score, &severity, &mode, &ip, &ua, &device, &rq,
		); err != nil {
			return nil, fmt.Errorf("scan security log: %w", err)
		}
		e.Action = audit.Action(action)
		e.Severity = audit.Severity(severity)
		e.ReportID = reportID.String
		e.SubmitterID = submitterID.String
		e.SubmitterEmail = email.String
		e.Mode = mode.String
		e.IP = ip.String
		e.UserAgent = ua.String
		e.Device = device.String
		e.RequestID = rq.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security logs: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
