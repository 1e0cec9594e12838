// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credx-fairscore/internal/common/errors"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/common/metrics"
	"credx-fairscore/internal/common/observability"
	"credx-fairscore/internal/common/validation"
	"credx-fairscore/internal/models"
	"credx-fairscore/internal/scoring"
)

// maxBodyBytes bounds a submitted applicant record.
const maxBodyBytes = 1 << 20

// Assessor runs the credit pipeline. *scoring.Engine satisfies it.
type Assessor interface {
	AssessReport(ctx context.Context, in *models.ApplicantInput, raw map[string]interface{}) *models.Report
}

type Options struct {
	Engine         Assessor
	AllowedOrigins []string
	// Ready reports whether dependencies are reachable. Nil means always ready.
	Ready         func(ctx context.Context) error
	Observability *observability.Observability
	Logger        logger.Logger
}

type Server struct {
	engine  Assessor
	origins []string
	ready   func(ctx context.Context) error
	obs     *observability.Observability
	logger  logger.Logger
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Server{
		engine:  opts.Engine,
		origins: opts.AllowedOrigins,
		ready:   opts.Ready,
		obs:     opts.Observability,
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Routes returns the HTTP handler with middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /submit", s.submit)
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	return RequestID(Logging(s.logger)(CORS(s.origins)(mux)))
}

// submit assesses one applicant. Validation failures answer 400 with the
// failure shape; every other outcome answers 200 with the report.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.reject(w, r, start, errors.NewValidationError("request body must be a JSON object: "+err.Error()), nil)
		return
	}

	in, err := validation.ParseApplicant(raw)
	if err != nil {
		s.reject(w, r, start, err, raw)
		return
	}

	rep := s.engine.AssessReport(r.Context(), in, raw)
	outcome := scoring.Outcome(rep)
	s.obs.RecordAssessment(r.Context(), outcome, time.Since(start))

	status := http.StatusOK
	if outcome == metrics.OutcomeInvalid {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, rep)
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, start time.Time, err error, raw map[string]interface{}) {
	s.logger.Warn("applicant rejected", map[string]interface{}{
		"requestId": RequestIDFromContext(r.Context()),
		"errorCode": string(errors.CodeOf(err)),
		"error":     err.Error(),
	})
	metrics.CreditAssessments.WithLabelValues(metrics.OutcomeInvalid).Inc()
	s.obs.RecordAssessment(r.Context(), metrics.OutcomeInvalid, time.Since(start))
	writeJSON(w, http.StatusBadRequest, models.NewFailedReport(err, raw))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
