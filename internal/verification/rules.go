package verification

import (
	"fmt"
	"math"

	"civicproof/internal/geo"
	"civicproof/internal/imagehash"
	"civicproof/internal/oracle"
	"civicproof/internal/verification/models"
)

// Weights are additive; a submission's score is the sum over fired flags.
var Weights = map[models.FlagCode]int{
	models.FlagLocationMismatch:        40,
	models.FlagReportNoLocation:        40,
	models.FlagExifDeviation:           30,
	models.FlagNoExifGPS:               20,
	models.FlagStaleTimestamp:          15,
	models.FlagNoTimestamp:             10,
	models.FlagNearDuplicate:           50,
	models.FlagUnrelated:               40,
	models.FlagOracleSuspicious:        30,
	models.FlagOracleFake:              50,
	models.FlagOracleDifferentLocation: 35,
	models.FlagOracleNotResolved:       30,
}

const defaultOracleReason = "AI flagged the submission as suspicious"

func flag(code models.FlagCode, msg string) models.Flag {
	return models.Flag{Code: code, Message: msg, Weight: Weights[code]}
}

func evaluateLocation(cfg ModeConfig, in Signals, d *models.Decision) (models.Signal, models.Gates) {
	var gates models.Gates
	if in.ReportLocation == nil {
		return newSignal("location", flag(models.FlagReportNoLocation,
			"Original report has no GPS coordinates for comparison")), gates
	}

	dist, ok, err := geo.Within(*in.ReportLocation, in.Live, cfg.MaxDistanceMeters)
	if err != nil {
		return newSignal("location", flag(models.FlagLocationMismatch,
			"Location could not be compared: invalid coordinates")), gates
	}
	d.DistanceMeters = &dist
	gates.LocationMatch = ok
	gates.WithinDistance = ok
	if ok {
		return newSignal("location"), gates
	}

	msg := fmt.Sprintf("Location mismatch: %.0fm away from original report", dist)
	if cfg.Mode == models.ModeStrict {
		msg = fmt.Sprintf("Worker not at issue location: %.1fm away (max %gm)", dist, cfg.MaxDistanceMeters)
	}
	return newSignal("location", flag(models.FlagLocationMismatch, msg)), gates
}

func evaluateExif(cfg ModeConfig, in Signals, d *models.Decision) models.Signal {
	var flags []models.Flag
	md := in.Exif

	if md.GPS == nil {
		flags = append(flags, flag(models.FlagNoExifGPS, "No GPS metadata in uploaded image"))
	} else if dev, err := geo.Distance(in.Live, *md.GPS); err == nil {
		d.ExifDeviationMeters = &dev
		if cfg.ExifForensics && dev > cfg.MaxExifDeviationMeters {
			flags = append(flags, flag(models.FlagExifDeviation,
				fmt.Sprintf("EXIF GPS differs from live GPS by %.1fm", dev)))
		}
	}

	if cfg.ExifForensics {
		if hours, ok := md.HoursSince(in.Now); !ok {
			flags = append(flags, flag(models.FlagNoTimestamp, "No timestamp in image metadata"))
		} else if md.Stale(in.Now, cfg.MaxImageAge) {
			flags = append(flags, flag(models.FlagStaleTimestamp,
				fmt.Sprintf("Image timestamp is %d hours old", int(math.Round(hours)))))
		}
	}
	return newSignal("exif", flags...)
}

func evaluateImage(cfg ModeConfig, cmp imagehash.Comparison) models.Signal {
	var flags []models.Flag
	strict := cfg.Mode == models.ModeStrict

	if cmp.Similarity > cfg.NearDuplicateAbove {
		msg := "Images are nearly identical - possible duplicate or fake resolution"
		if strict {
			msg = "Images are nearly identical - possible fake resolution or reused image"
		}
		flags = append(flags, flag(models.FlagNearDuplicate, msg))
	}
	if cmp.Similarity < cfg.UnrelatedBelow {
		msg := "Images appear completely unrelated - possible wrong location"
		if strict {
			msg = "Images appear completely unrelated - possible wrong location or staged photo"
		}
		flags = append(flags, flag(models.FlagUnrelated, msg))
	}
	return newSignal("image", flags...)
}

// evaluateOracle turns the verdict into flags. Standard mode only surfaces the
// oracle's own suspicion reason; its other negatives act through the gates.
func evaluateOracle(cfg ModeConfig, v oracle.Verdict) models.Signal {
	var flags []models.Flag

	if cfg.Mode != models.ModeStrict {
		if v.Suspicious && v.SuspicionReason != "" {
			flags = append(flags, flag(models.FlagOracleSuspicious, v.SuspicionReason))
		}
		return newSignal("oracle", flags...)
	}

	if v.Suspicious {
		reason := v.SuspicionReason
		if reason == "" {
			reason = defaultOracleReason
		}
		flags = append(flags, flag(models.FlagOracleSuspicious, reason))
	}
	if cfg.FakeDetection && v.FakeDetected {
		flags = append(flags, flag(models.FlagOracleFake,
			"AI detected possible fake, manipulated, or AI-generated image"))
	}
	if !v.SameLocation {
		flags = append(flags, flag(models.FlagOracleDifferentLocation,
			"AI determined images are from different locations"))
	}
	if !v.IssueResolved {
		flags = append(flags, flag(models.FlagOracleNotResolved, "AI determined issue is not resolved"))
	}
	return newSignal("oracle", flags...)
}
