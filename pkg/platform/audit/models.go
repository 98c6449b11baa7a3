package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names the attempt outcome that produced an audit record.
type Action string

const (
	ActionValidationFailed     Action = "validation_failed"
	ActionUnauthorized         Action = "unauthorized_attempt"
	ActionDuplicateSubmission  Action = "duplicate_submission"
	ActionSuspiciousResolution Action = "suspicious_resolution"
	ActionRateLimited          Action = "rate_limit_exceeded"
	ActionSystemError          Action = "system_error"
)

// EventCategory groups actions for retention and routing.
type EventCategory string

const (
	// CategorySecurity covers fraud signals and access violations; fed to SIEM.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers rejected input and internal failures.
	CategoryOperations EventCategory = "operations"
)

var actionCategories = map[Action]EventCategory{
	ActionUnauthorized:         CategorySecurity,
	ActionDuplicateSubmission:  CategorySecurity,
	ActionSuspiciousResolution: CategorySecurity,
	ActionRateLimited:          CategorySecurity,
	ActionValidationFailed:     CategoryOperations,
	ActionSystemError:          CategoryOperations,
}

// Category returns the category for the action. Unknown actions are operational.
func (a Action) Category() EventCategory {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryOperations
}

// Severity tiers for audit records.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Event is an append-only record of a rejected, duplicate, unauthorized or
// suspicious resolution attempt.
type Event struct {
	ID             uuid.UUID
	Timestamp      time.Time
	Action         Action
	ReportID       string
	SubmitterID    string
	SubmitterEmail string
	Reason         string
	Score          int
	Severity       Severity
	Mode           string
	IP             string
	UserAgent      string
	Device         string // browser/OS summary derived from UserAgent
	RequestID      string
}

// Recorder is the side channel the pipeline uses to emit audit records.
// Implementations never block the caller and never return errors.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Sink is a destination for audit events (database table, Kafka topic).
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Reader is the query side of the security log.
type Reader interface {
	ListByWorker(ctx context.Context, email string, limit int) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	CountSince(ctx context.Context, email string, action Action, since time.Time, minScore int) (int, error)
}

// Store is a Sink that can also be queried.
type Store interface {
	Sink
	Reader
}
