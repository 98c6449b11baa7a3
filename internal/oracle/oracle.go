// Package oracle adjudicates before/after image pairs with a multimodal vision
// model. The adapter never fails a verification: every transport, parse or
// schema failure yields a fail-closed fallback verdict.
package oracle

import (
	"context"
	"errors"
)

type Mode string

const (
	ModeStandard Mode = "standard"
	ModeStrict   Mode = "strict"
)

// Permanent integration failures. Verify still returns a fallback verdict with these.
var (
	ErrInvalidCredentials = errors.New("oracle: invalid API credentials")
	ErrQuotaExceeded      = errors.New("oracle: quota exceeded")
)

const (
	standardFallbackReason  = "AI verification unavailable - manual review required"
	strictFallbackReason    = "AI verification unavailable - automatic SUSPICIOUS marking for manual review"
	standardFallbackSummary = "Automated verification could not be completed. Manual inspection recommended."
	strictFallbackSummary   = "Automated verification could not be completed. Manual inspection required for security."
)

// Image is an encoded image handed to the model inline.
type Image struct {
	Data     []byte
	MimeType string
}

type Request struct {
	Mode      Mode
	IssueType string
	Before    Image
	After     Image
}

// Verdict is the model's structured assessment. Scores are 0-100.
type Verdict struct {
	SameLocation         bool   `json:"same_location"`
	IssueResolved        bool   `json:"issue_resolved"`
	SimilarityScore      int    `json:"similarity_score"`
	ResolutionConfidence int    `json:"resolution_confidence"`
	Suspicious           bool   `json:"suspicious"`
	SuspicionReason      string `json:"suspicion_reason,omitempty"`
	AnalysisSummary      string `json:"analysis_summary,omitempty"`
	FakeDetected         bool   `json:"fake_detected"`
	Fallback             bool   `json:"fallback"`
}

// Fallback is the verdict used whenever the model cannot be consulted or its
// answer cannot be trusted. It never claims fakery.
func Fallback(mode Mode) Verdict {
	v := Verdict{
		Suspicious:      true,
		SuspicionReason: standardFallbackReason,
		AnalysisSummary: standardFallbackSummary,
		Fallback:        true,
	}
	if mode == ModeStrict {
		v.SuspicionReason = strictFallbackReason
		v.AnalysisSummary = strictFallbackSummary
	}
	return v
}

// Client sends a prompt plus images to a model and returns its raw text.
type Client interface {
	Generate(ctx context.Context, prompt string, images ...Image) (string, error)
}
