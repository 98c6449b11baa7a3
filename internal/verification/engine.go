package verification

import (
	"time"

	"civicproof/internal/exif"
	"civicproof/internal/geo"
	"civicproof/internal/imagehash"
	"civicproof/internal/oracle"
	"civicproof/internal/verification/models"
	"civicproof/pkg/platform/audit"
)

// ModeConfig carries the thresholds and switches of one verification policy.
type ModeConfig struct {
	Mode                   models.Mode
	MaxDistanceMeters      float64
	MaxExifDeviationMeters float64
	MaxImageAge            time.Duration
	MinConfidence          int
	// ScoreCeiling is the exclusive upper bound for a verified score. Zero disables it.
	ScoreCeiling          int
	NearDuplicateAbove    int
	UnrelatedBelow        int
	ExifForensics         bool
	FakeDetection         bool
	RequireReportLocation bool
}

func StandardMode() ModeConfig {
	return ModeConfig{
		Mode:               models.ModeStandard,
		MaxDistanceMeters:  100,
		MinConfidence:      70,
		NearDuplicateAbove: 95,
		UnrelatedBelow:     10,
	}
}

func StrictMode() ModeConfig {
	return ModeConfig{
		Mode:                   models.ModeStrict,
		MaxDistanceMeters:      20,
		MaxExifDeviationMeters: 10,
		MaxImageAge:            24 * time.Hour,
		MinConfidence:          80,
		ScoreCeiling:           30,
		NearDuplicateAbove:     95,
		UnrelatedBelow:         5,
		ExifForensics:          true,
		FakeDetection:          true,
		RequireReportLocation:  true,
	}
}

// ConfigFor returns the policy for a mode.
func ConfigFor(mode models.Mode) ModeConfig {
	if mode == models.ModeStrict {
		return StrictMode()
	}
	return StandardMode()
}

// Signals is everything the engine needs to decide. Live must already be valid.
type Signals struct {
	ReportLocation *geo.Point
	Live           geo.Point
	Exif           exif.Metadata
	Image          imagehash.Comparison
	Oracle         oracle.Verdict
	Now            time.Time
}

// Evaluate fuses the signals into a decision. It performs no I/O.
func Evaluate(cfg ModeConfig, in Signals) models.Decision {
	d := models.Decision{Mode: cfg.Mode}

	location, gates := evaluateLocation(cfg, in, &d)
	exifSig := evaluateExif(cfg, in, &d)
	image := evaluateImage(cfg, in.Image)
	oracleSig := evaluateOracle(cfg, in.Oracle)
	d.Signals = []models.Signal{location, exifSig, image, oracleSig}

	for _, s := range d.Signals {
		d.Flags = append(d.Flags, s.Flags...)
		d.Score += s.Contribution
	}

	v := in.Oracle
	gates.SameLocation = v.SameLocation
	gates.IssueResolved = v.IssueResolved
	gates.NotFake = !cfg.FakeDetection || !v.FakeDetected
	gates.NotSuspicious = !v.Suspicious
	gates.ConfidenceMet = v.ResolutionConfidence >= cfg.MinConfidence
	gates.ScoreBelowCeiling = cfg.ScoreCeiling == 0 || d.Score < cfg.ScoreCeiling
	d.Gates = gates

	verified := gates.All()
	if cfg.Mode != models.ModeStrict && len(d.Flags) > 0 {
		verified = false
	}
	if verified {
		d.Status = models.StatusVerified
	} else {
		d.Status = models.StatusSuspicious
	}
	d.Severity = Severity(d.Score)
	return d
}

// Severity tiers a suspicion score for audit records.
func Severity(score int) audit.Severity {
	switch {
	case score >= 70:
		return audit.SeverityCritical
	case score >= 40:
		return audit.SeverityHigh
	default:
		return audit.SeverityMedium
	}
}

func newSignal(name string, flags ...models.Flag) models.Signal {
	s := models.Signal{Name: name, Flags: flags, Passed: len(flags) == 0}
	for _, f := range flags {
		s.Contribution += f.Weight
	}
	return s
}
