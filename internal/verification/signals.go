package verification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"civicproof/internal/imagehash"
	"civicproof/internal/oracle"
	"civicproof/internal/verification/models"
	"civicproof/pkg/requestcontext"
)

// gatherSignals fetches the before/after pair once and runs the perceptual hash
// and the oracle concurrently on the same bytes. Every failure degrades to the
// signal's fallback; the returned Signals always carries both.
func (s *Service) gatherSignals(ctx context.Context, cfg ModeConfig, report *models.IssueReport, afterURL string) Signals {
	oracleMode := oracle.Mode(cfg.Mode)

	fetchCtx, span := s.tracer.Start(ctx, "verification.fetch")
	start := time.Now()
	before, after, err := s.fetcher.Pair(fetchCtx, report.BeforeImageURL, afterURL)
	s.metrics.ObserveSignal("fetch", time.Since(start))
	span.End()
	if err != nil {
		s.logger.WarnContext(ctx, "image fetch failed, using fallback signals",
			"request_id", requestcontext.RequestID(ctx),
			"report_id", report.ID,
			"error", err,
		)
		s.metrics.IncFallback("image")
		s.metrics.IncFallback("oracle")
		return Signals{Image: imagehash.Fallback(), Oracle: oracle.Fallback(oracleMode)}
	}

	var out Signals
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hctx, span := s.tracer.Start(gctx, "verification.phash")
		defer span.End()
		start := time.Now()
		out.Image = s.comparator.Compare(hctx, before.Data, after.Data)
		s.metrics.ObserveSignal("phash", time.Since(start))
		if out.Image.Fallback {
			s.metrics.IncFallback("image")
		}
		return nil
	})

	g.Go(func() error {
		octx, span := s.tracer.Start(gctx, "verification.oracle")
		defer span.End()
		start := time.Now()
		verdict, err := s.oracle.Verify(octx, oracle.Request{
			Mode:      oracleMode,
			IssueType: report.Category,
			Before:    oracle.Image{Data: before.Data, MimeType: before.MimeType},
			After:     oracle.Image{Data: after.Data, MimeType: after.MimeType},
		})
		s.metrics.ObserveSignal("oracle", time.Since(start))
		if err != nil {
			kind := "other"
			switch {
			case errors.Is(err, oracle.ErrInvalidCredentials):
				kind = "invalid_credentials"
			case errors.Is(err, oracle.ErrQuotaExceeded):
				kind = "quota_exceeded"
			}
			s.metrics.IncOraclePermanent(kind)
			span.RecordError(err)
			s.logger.ErrorContext(ctx, "oracle integration failure",
				"request_id", requestcontext.RequestID(ctx),
				"report_id", report.ID,
				"kind", kind,
				"error", err,
			)
		}
		if verdict.Fallback {
			s.metrics.IncFallback("oracle")
		}
		out.Oracle = verdict
		return nil
	})

	_ = g.Wait()
	return out
}

func buildSubmission(cmd Command, who submitter, key, afterURL string, image []byte,
	sig Signals, d models.Decision, now time.Time) *models.Submission {
	sub := &models.Submission{
		ID:                  uuid.New(),
		ReportID:            cmd.ReportID,
		Mode:                cmd.Mode,
		SubmitterID:         who.id,
		SubmitterEmail:      who.email,
		SubmitterKey:        key,
		AfterImageURL:       afterURL,
		AfterImageDigest:    digest(image),
		Latitude:            sig.Live.Lat,
		Longitude:           sig.Live.Lng,
		DistanceMeters:      d.DistanceMeters,
		ExifTimestamp:       sig.Exif.Timestamp,
		ExifCamera:          sig.Exif.CameraLabel(),
		ExifDeviationMeters: d.ExifDeviationMeters,
		ImageSimilarity:     sig.Image.Similarity,
		HashDistance:        sig.Image.Distance,
		AISameLocation:      sig.Oracle.SameLocation,
		AIIssueResolved:     sig.Oracle.IssueResolved,
		AIFakeDetected:      sig.Oracle.FakeDetected,
		AISuspicious:        sig.Oracle.Suspicious,
		AISimilarityScore:   sig.Oracle.SimilarityScore,
		AIConfidence:        sig.Oracle.ResolutionConfidence,
		AISuspicionReason:   sig.Oracle.SuspicionReason,
		AISummary:           sig.Oracle.AnalysisSummary,
		SuspicionScore:      d.Score,
		Flags:               d.Messages(),
		Status:              d.Status,
		CreatedAt:           now,
	}
	if gps := sig.Exif.GPS; gps != nil {
		lat, lng := gps.Lat, gps.Lng
		sub.ExifLatitude = &lat
		sub.ExifLongitude = &lng
	}
	return sub
}

func buildBreakdown(cfg ModeConfig, sig Signals, d models.Decision) models.Breakdown {
	return models.Breakdown{
		Location: models.LocationCheck{
			Passed:         d.Gates.LocationMatch,
			DistanceMeters: d.DistanceMeters,
			MaxMeters:      cfg.MaxDistanceMeters,
		},
		Exif: models.ExifCheck{
			HasGPS:          sig.Exif.HasGPS(),
			HasTimestamp:    sig.Exif.HasTimestamp(),
			Timestamp:       sig.Exif.Timestamp,
			Camera:          sig.Exif.CameraLabel(),
			DeviationMeters: d.ExifDeviationMeters,
		},
		Image: models.ImageCheck{
			Similarity:   sig.Image.Similarity,
			HashDistance: sig.Image.Distance,
			Fallback:     sig.Image.Fallback,
		},
		Oracle: models.OracleCheck{
			SameLocation:    sig.Oracle.SameLocation,
			IssueResolved:   sig.Oracle.IssueResolved,
			FakeDetected:    sig.Oracle.FakeDetected,
			Suspicious:      sig.Oracle.Suspicious,
			Confidence:      sig.Oracle.ResolutionConfidence,
			SimilarityScore: sig.Oracle.SimilarityScore,
			Analysis:        sig.Oracle.AnalysisSummary,
			Fallback:        sig.Oracle.Fallback,
		},
	}
}
