package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"civicproof/internal/verification"
	"civicproof/internal/verification/models"
	dErrors "civicproof/pkg/domain-errors"
	"civicproof/pkg/platform/httputil"
	"civicproof/pkg/requestcontext"
)

const multipartOverhead = 1 << 20

// Service defines the verification operations exposed over HTTP.
type Service interface {
	Verify(ctx context.Context, cmd verification.Command) (*models.Result, error)
	ListByReport(ctx context.Context, reportID string) ([]*models.Submission, error)
	ListSuspicious(ctx context.Context, limit int) ([]*models.Submission, error)
	WorkerRisk(ctx context.Context, email string) (*models.WorkerRisk, error)
}

// Handler wires resolution endpoints to the verification service.
type Handler struct {
	service        Service
	logger         *slog.Logger
	maxUploadBytes int64
}

func New(service Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{service: service, logger: logger, maxUploadBytes: maxUploadBytes}
}

// RegisterWorker mounts the standard-mode submission route. Callers must
// authenticate the worker before this router.
func (h *Handler) RegisterWorker(r chi.Router) {
	r.Post("/reports/{reportID}/resolutions", h.HandleSubmitStandard)
}

// RegisterStrict mounts the strict-mode submission route.
func (h *Handler) RegisterStrict(r chi.Router) {
	r.Post("/strict/reports/{reportID}/resolutions", h.HandleSubmitStrict)
}

// RegisterReview mounts the official/admin read routes.
func (h *Handler) RegisterReview(r chi.Router) {
	r.Get("/reports/{reportID}/resolutions", h.HandleListByReport)
	r.Get("/resolutions/suspicious", h.HandleListSuspicious)
}

// RegisterAdmin mounts the security log route.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/workers/{email}/security-logs", h.HandleSecurityLogs)
}

// HandleSubmitStandard handles POST /reports/{reportID}/resolutions.
func (h *Handler) HandleSubmitStandard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	req := &StandardResolutionRequest{
		Latitude:  form.value("lat", "latitude"),
		Longitude: form.value("lng", "longitude"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.submit(w, r, verification.Command{
		Mode:        models.ModeStandard,
		ReportID:    chi.URLParam(r, "reportID"),
		WorkerID:    requestcontext.WorkerID(ctx),
		WorkerEmail: requestcontext.WorkerEmail(ctx),
		Latitude:    req.lat,
		Longitude:   req.lng,
		Image:       form.image,
	})
}

// HandleSubmitStrict handles POST /strict/reports/{reportID}/resolutions.
func (h *Handler) HandleSubmitStrict(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	req := &StrictResolutionRequest{
		WorkerEmail: form.value("worker_email"),
		Latitude:    form.value("latitude", "live_lat"),
		Longitude:   form.value("longitude", "live_lng"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.submit(w, r, verification.Command{
		Mode:        models.ModeStrict,
		ReportID:    chi.URLParam(r, "reportID"),
		WorkerEmail: req.WorkerEmail,
		Latitude:    req.lat,
		Longitude:   req.lng,
		Image:       form.image,
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, cmd verification.Command) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	result, err := h.service.Verify(ctx, cmd)
	if err != nil {
		h.logger.WarnContext(ctx, "resolution submission failed",
			"request_id", requestID,
			"report_id", cmd.ReportID,
			"mode", cmd.Mode,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "resolution submitted",
		"request_id", requestID,
		"report_id", cmd.ReportID,
		"mode", cmd.Mode,
		"status", result.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromResult(result))
}

// multipartForm is the decoded submission form.
type multipartForm struct {
	r     *http.Request
	image []byte
}

// value returns the first non-empty form value among names.
func (f multipartForm) value(names ...string) string {
	for _, n := range names {
		if v := f.r.FormValue(n); v != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (multipartForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "image exceeds the upload size limit"))
			return multipartForm{}, false
		}
		h.logger.WarnContext(r.Context(), "failed to parse multipart form",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return multipartForm{}, false
	}

	form := multipartForm{r: r}
	file, _, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return form, true
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid image upload"))
		return multipartForm{}, false
	}
	defer file.Close()

	// One byte over the limit lets the service report the size violation.
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid image upload"))
		return multipartForm{}, false
	}
	form.image = data
	return form, true
}

// HandleListByReport handles GET /reports/{reportID}/resolutions.
func (h *Handler) HandleListByReport(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListByReport(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSubmissions(subs))
}

// HandleListSuspicious handles GET /resolutions/suspicious?limit=N.
func (h *Handler) HandleListSuspicious(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	subs, err := h.service.ListSuspicious(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSubmissions(subs))
}

// HandleSecurityLogs handles GET /workers/{email}/security-logs.
func (h *Handler) HandleSecurityLogs(w http.ResponseWriter, r *http.Request) {
	risk, err := h.service.WorkerRisk(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromWorkerRisk(risk))
}
