package handler

import (
	"time"

	"civicproof/internal/verification/models"
)

const (
	msgStrictVerified     = "Resolution verified successfully! All security checks passed."
	msgStrictSuspicious   = "Resolution submitted but marked as SUSPICIOUS. Manual review required."
	msgStandardVerified   = "Resolution verified successfully!"
	msgStandardSuspicious = "Resolution submitted but marked as suspicious for review."
)

// ResolutionResponse is returned for every evaluated submission, verified or not.
type ResolutionResponse struct {
	Message            string           `json:"message"`
	ResolutionID       string           `json:"resolution_id"`
	ReportID           string           `json:"report_id"`
	Mode               string           `json:"mode"`
	VerificationStatus string           `json:"verification_status"`
	ReportStatus       string           `json:"report_status"`
	AllChecksPassed    bool             `json:"all_checks_passed"`
	SuspicionScore     int              `json:"suspicion_score"`
	Severity           string           `json:"severity,omitempty"`
	SuspicionFlags     []string         `json:"suspicion_flags"`
	Verification       models.Breakdown `json:"verification"`
	ProcessingTimeMS   int64            `json:"processing_time_ms"`
	CreatedAt          time.Time        `json:"created_at"`
}

func FromResult(res *models.Result) *ResolutionResponse {
	verified := res.Status == models.StatusVerified
	msg := msgStandardSuspicious
	switch {
	case res.Mode == models.ModeStrict && verified:
		msg = msgStrictVerified
	case res.Mode == models.ModeStrict:
		msg = msgStrictSuspicious
	case verified:
		msg = msgStandardVerified
	}
	flags := res.Flags
	if flags == nil {
		flags = []string{}
	}
	out := &ResolutionResponse{
		Message:            msg,
		ResolutionID:       res.SubmissionID.String(),
		ReportID:           res.ReportID,
		Mode:               string(res.Mode),
		VerificationStatus: string(res.Status),
		ReportStatus:       string(res.ReportStatus),
		AllChecksPassed:    verified,
		SuspicionScore:     res.Score,
		SuspicionFlags:     flags,
		Verification:       res.Breakdown,
		ProcessingTimeMS:   res.ProcessingTimeMS,
		CreatedAt:          res.CreatedAt,
	}
	if !verified {
		out.Severity = string(res.Severity)
	}
	return out
}

// SubmissionResponse is the review view of a stored submission.
type SubmissionResponse struct {
	ID                  string     `json:"id"`
	ReportID            string     `json:"report_id"`
	Mode                string     `json:"mode"`
	SubmitterID         string     `json:"submitter_id,omitempty"`
	SubmitterEmail      string     `json:"submitter_email,omitempty"`
	AfterImageURL       string     `json:"after_image_url"`
	Latitude            float64    `json:"latitude"`
	Longitude           float64    `json:"longitude"`
	DistanceMeters      *float64   `json:"distance_m"`
	ExifLatitude        *float64   `json:"exif_latitude"`
	ExifLongitude       *float64   `json:"exif_longitude"`
	ExifTimestamp       *time.Time `json:"exif_timestamp"`
	ExifCamera          string     `json:"exif_camera,omitempty"`
	ExifDeviationMeters *float64   `json:"exif_deviation_m"`
	ImageSimilarity     int        `json:"image_similarity"`
	AIConfidence        int        `json:"ai_confidence"`
	AIFakeDetected      bool       `json:"ai_fake_detected"`
	AISummary           string     `json:"ai_summary,omitempty"`
	SuspicionScore      int        `json:"suspicion_score"`
	SuspicionFlags      []string   `json:"suspicion_flags"`
	Status              string     `json:"verification_status"`
	CreatedAt           time.Time  `json:"created_at"`
}

type SubmissionListResponse struct {
	Count       int                  `json:"count"`
	Submissions []SubmissionResponse `json:"submissions"`
}

func FromSubmissions(subs []*models.Submission) *SubmissionListResponse {
	out := &SubmissionListResponse{Count: len(subs), Submissions: make([]SubmissionResponse, 0, len(subs))}
	for _, s := range subs {
		flags := s.Flags
		if flags == nil {
			flags = []string{}
		}
		out.Submissions = append(out.Submissions, SubmissionResponse{
			ID:                  s.ID.String(),
			ReportID:            s.ReportID,
			Mode:                string(s.Mode),
			SubmitterID:         s.SubmitterID,
			SubmitterEmail:      s.SubmitterEmail,
			AfterImageURL:       s.AfterImageURL,
			Latitude:            s.Latitude,
			Longitude:           s.Longitude,
			DistanceMeters:      s.DistanceMeters,
			ExifLatitude:        s.ExifLatitude,
			ExifLongitude:       s.ExifLongitude,
			ExifTimestamp:       s.ExifTimestamp,
			ExifCamera:          s.ExifCamera,
			ExifDeviationMeters: s.ExifDeviationMeters,
			ImageSimilarity:     s.ImageSimilarity,
			AIConfidence:        s.AIConfidence,
			AIFakeDetected:      s.AIFakeDetected,
			AISummary:           s.AISummary,
			SuspicionScore:      s.SuspicionScore,
			SuspicionFlags:      flags,
			Status:              string(s.Status),
			CreatedAt:           s.CreatedAt,
		})
	}
	return out
}

type SecurityEventResponse struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	ReportID  string    `json:"report_id,omitempty"`
	Reason    string    `json:"reason"`
	Score     int       `json:"suspicion_score"`
	Severity  string    `json:"severity"`
	Mode      string    `json:"mode,omitempty"`
	IP        string    `json:"ip_address,omitempty"`
	Device    string    `json:"device,omitempty"`
}

type WorkerRiskResponse struct {
	Email                 string                  `json:"worker_email"`
	SuspiciousAttempts24h int                     `json:"suspicious_attempts_24h"`
	ExcessiveAttempts     bool                    `json:"excessive_attempts"`
	Events                []SecurityEventResponse `json:"events"`
}

func FromWorkerRisk(risk *models.WorkerRisk) *WorkerRiskResponse {
	out := &WorkerRiskResponse{
		Email:                 risk.Email,
		SuspiciousAttempts24h: risk.SuspiciousCount,
		ExcessiveAttempts:     risk.Excessive,
		Events:                make([]SecurityEventResponse, 0, len(risk.Events)),
	}
	for _, e := range risk.Events {
		out.Events = append(out.Events, SecurityEventResponse{
			ID:        e.ID.String(),
			Timestamp: e.Timestamp,
			Action:    string(e.Action),
			Category:  string(e.Action.Category()),
			ReportID:  e.ReportID,
			Reason:    e.Reason,
			Score:     e.Score,
			Severity:  string(e.Severity),
			Mode:      e.Mode,
			IP:        e.IP,
			Device:    e.Device,
		})
	}
	return out
}
