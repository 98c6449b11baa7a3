package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"civicproof/internal/geo"
	"civicproof/pkg/platform/audit"
)

// Mode selects the verification policy.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeStrict   Mode = "strict"
)

// ReportStatus is the lifecycle state of an issue report.
type ReportStatus string

const (
	ReportOpen       ReportStatus = "open"
	ReportResolved   ReportStatus = "resolved"
	ReportVerified   ReportStatus = "verified"
	ReportSuspicious ReportStatus = "suspicious"
)

// AcceptsResolution reports whether a new resolution may be submitted.
func (s ReportStatus) AcceptsResolution() bool {
	return s != ReportResolved && s != ReportVerified
}

// IssueReport is a citizen report as seen by the verification pipeline.
type IssueReport struct {
	ID             string
	Category       string
	Description    string
	Location       *geo.Point
	BeforeImageURL string
	Status         ReportStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SubmissionStatus is the terminal decision recorded on a submission.
type SubmissionStatus string

const (
	StatusVerified   SubmissionStatus = "verified"
	StatusSuspicious SubmissionStatus = "suspicious"
)

// ReportStatus maps a submission decision onto the report lifecycle.
func (s SubmissionStatus) ReportStatus() ReportStatus {
	if s == StatusVerified {
		return ReportVerified
	}
	return ReportSuspicious
}

// Submission is an immutable resolution attempt. Exactly one exists per
// (ReportID, SubmitterKey).
type Submission struct {
	ID               uuid.UUID
	ReportID         string
	Mode             Mode
	SubmitterID      string
	SubmitterEmail   string
	SubmitterKey     string
	AfterImageURL    string
	AfterImageDigest string

	Latitude       float64
	Longitude      float64
	DistanceMeters *float64

	ExifLatitude        *float64
	ExifLongitude       *float64
	ExifTimestamp       *time.Time
	ExifCamera          string
	ExifDeviationMeters *float64

	ImageSimilarity int
	HashDistance    int

	AISameLocation    bool
	AIIssueResolved   bool
	AIFakeDetected    bool
	AISuspicious      bool
	AISimilarityScore int
	AIConfidence      int
	AISuspicionReason string
	AISummary         string

	SuspicionScore int
	Flags          []string
	Status         SubmissionStatus
	CreatedAt      time.Time
}

// SubmitterKey is the identity used by the duplicate guard: the worker id in
// standard mode and the normalized email in strict mode.
func SubmitterKey(mode Mode, workerID, email string) string {
	if mode == ModeStrict {
		return strings.ToLower(strings.TrimSpace(email))
	}
	return workerID
}

// FlagCode identifies a suspicion flag independently of its message.
type FlagCode string

const (
	FlagLocationMismatch        FlagCode = "location_mismatch"
	FlagReportNoLocation        FlagCode = "report_no_location"
	FlagExifDeviation           FlagCode = "exif_gps_deviation"
	FlagNoExifGPS               FlagCode = "no_exif_gps"
	FlagStaleTimestamp          FlagCode = "stale_timestamp"
	FlagNoTimestamp             FlagCode = "no_timestamp"
	FlagNearDuplicate           FlagCode = "near_duplicate"
	FlagUnrelated               FlagCode = "unrelated_images"
	FlagOracleSuspicious        FlagCode = "oracle_suspicious"
	FlagOracleFake              FlagCode = "oracle_fake_detected"
	FlagOracleDifferentLocation FlagCode = "oracle_different_location"
	FlagOracleNotResolved       FlagCode = "oracle_not_resolved"
)

// Flag is a fired suspicion signal with its score contribution.
type Flag struct {
	Code    FlagCode `json:"code"`
	Message string   `json:"message"`
	Weight  int      `json:"weight"`
}

// Signal is the transient outcome of one evidence source. Never persisted.
type Signal struct {
	Name         string `json:"name"`
	Passed       bool   `json:"passed"`
	Flags        []Flag `json:"flags,omitempty"`
	Contribution int    `json:"contribution"`
}

// Gates are the hard boolean conditions a verified decision requires.
type Gates struct {
	LocationMatch     bool `json:"location_match"`
	WithinDistance    bool `json:"within_distance"`
	SameLocation      bool `json:"same_location"`
	IssueResolved     bool `json:"issue_resolved"`
	NotFake           bool `json:"not_fake"`
	NotSuspicious     bool `json:"not_suspicious"`
	ConfidenceMet     bool `json:"confidence_met"`
	ScoreBelowCeiling bool `json:"score_below_ceiling"`
}

func (g Gates) All() bool {
	return g.LocationMatch && g.WithinDistance && g.SameLocation && g.IssueResolved &&
		g.NotFake && g.NotSuspicious && g.ConfidenceMet && g.ScoreBelowCeiling
}

// Decision is the engine's verdict over a full set of signals.
type Decision struct {
	Mode                Mode
	Status              SubmissionStatus
	Score               int
	Flags               []Flag
	Gates               Gates
	Severity            audit.Severity
	Signals             []Signal
	DistanceMeters      *float64
	ExifDeviationMeters *float64
}

func (d Decision) Verified() bool { return d.Status == StatusVerified }

// Reason joins flag messages for audit records and persistence.
func (d Decision) Reason() string {
	return strings.Join(d.Messages(), "; ")
}

func (d Decision) Messages() []string {
	out := make([]string, 0, len(d.Flags))
	for _, f := range d.Flags {
		out = append(out, f.Message)
	}
	return out
}

// Breakdown is the per-signal detail returned to callers.
type Breakdown struct {
	Location LocationCheck `json:"location_check"`
	Exif     ExifCheck     `json:"exif_check"`
	Image    ImageCheck    `json:"image_analysis"`
	Oracle   OracleCheck   `json:"ai_verification"`
}

type LocationCheck struct {
	Passed         bool     `json:"passed"`
	DistanceMeters *float64 `json:"distance_m"`
	MaxMeters      float64  `json:"max_allowed_m"`
}

type ExifCheck struct {
	HasGPS          bool       `json:"has_gps"`
	HasTimestamp    bool       `json:"has_timestamp"`
	Timestamp       *time.Time `json:"timestamp,omitempty"`
	Camera          string     `json:"camera,omitempty"`
	DeviationMeters *float64   `json:"gps_deviation_m"`
}

type ImageCheck struct {
	Similarity   int  `json:"similarity"`
	HashDistance int  `json:"hash_distance"`
	Fallback     bool `json:"fallback"`
}

type OracleCheck struct {
	SameLocation    bool   `json:"same_location"`
	IssueResolved   bool   `json:"issue_resolved"`
	FakeDetected    bool   `json:"fake_detected"`
	Suspicious      bool   `json:"suspicious"`
	Confidence      int    `json:"confidence"`
	SimilarityScore int    `json:"visual_score"`
	Analysis        string `json:"analysis,omitempty"`
	Fallback        bool   `json:"fallback"`
}

// Result is returned by the pipeline for an evaluated submission.
type Result struct {
	SubmissionID     uuid.UUID
	ReportID         string
	Mode             Mode
	Status           SubmissionStatus
	ReportStatus     ReportStatus
	Score            int
	Severity         audit.Severity
	Flags            []string
	Breakdown        Breakdown
	ProcessingTimeMS int64
	CreatedAt        time.Time
}

// WorkerRisk summarises a worker's recent security history.
type WorkerRisk struct {
	Email           string
	Events          []audit.Event
	SuspiciousCount int
	Excessive       bool
}
