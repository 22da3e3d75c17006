// Package chi serves the HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	"github.com/kailas-cloud/cardquery/internal/domain/search/mode"
	"github.com/kailas-cloud/cardquery/internal/domain/search/result"
	domusage "github.com/kailas-cloud/cardquery/internal/domain/usage"
	logpkg "github.com/kailas-cloud/cardquery/internal/logger"
	"github.com/kailas-cloud/cardquery/internal/validate"
	feedbackuc "github.com/kailas-cloud/cardquery/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/cardquery/internal/usecase/health"
	translateuc "github.com/kailas-cloud/cardquery/internal/usecase/translate"
)

const (
	defaultRuleLimit = 50
	maxRuleLimit     = 200
)

// Services groups the use cases behind the API. Nil services disable
// their routes (503).
type Services struct {
	Translator Translator
	Feedback   Feedback
	Processor  Processor
	Miner      Miner
	Rules      RuleLister
	Limiter    Limiter
	Usage      UsageReporter
	Health     HealthChecker
}

// Server holds the HTTP handlers.
type Server struct {
	svc           Services
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	return &Server{svc: svc, logger: logger, errorHandlers: defaultErrorHandlers()}
}

// Mount registers every route on r. Admin routes require the service secret.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/translate", s.Translate)
		r.Post("/search", s.Search)
		r.Post("/feedback", s.SubmitFeedback)
		r.Get("/feedback/{id}", s.GetFeedback)
		r.Get("/rules", s.ListRules)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/feedback/process", s.ProcessFeedback)
			r.Post("/admin/mine", s.Mine)
			r.Get("/admin/usage", s.GetUsage)
		})
	})
}

// Translate handles POST /v1/translate.
func (s *Server) Translate(w http.ResponseWriter, r *http.Request) {
	if s.svc.Translator == nil {
		s.unavailable(w)
		return
	}
	var req translateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.admit(w, r, req.SessionID) {
		return
	}
	treq, err := req.toUsecase()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.svc.Translator.Translate(r.Context(), treq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	if s.svc.Translator == nil {
		s.unavailable(w)
		return
	}
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.admit(w, r, req.SessionID) {
		return
	}
	treq, err := req.toUsecase()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.svc.Translator.Search(r.Context(), translateuc.SearchRequest{
		Request: treq,
		Page:    req.Page,
		Order:   req.Order,
		Unique:  mode.Mode(req.Unique),
	})
	if errors.Is(err, domain.ErrUpstreamNoResults) {
		writeJSON(w, http.StatusOK, searchResponse{Translation: res.Translation, Cards: []result.Card{}})
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	cards := res.Page.Cards()
	if cards == nil {
		cards = []result.Card{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Translation: res.Translation,
		Total:       res.Page.Total(),
		HasMore:     res.Page.HasMore(),
		Cards:       cards,
	})
}

// SubmitFeedback handles POST /v1/feedback.
func (s *Server) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if s.svc.Feedback == nil {
		s.unavailable(w)
		return
	}
	var req feedbackRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.admit(w, r, "") {
		return
	}
	it, err := s.svc.Feedback.Submit(r.Context(), feedbackuc.SubmitRequest{
		OriginalQuery:    req.OriginalQuery,
		TranslatedQuery:  req.TranslatedQuery,
		IssueDescription: req.IssueDescription,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/feedback/"+it.ID())
	writeJSON(w, http.StatusAccepted, map[string]string{"id": it.ID(), "status": string(it.Status())})
}

// GetFeedback handles GET /v1/feedback/{id}.
func (s *Server) GetFeedback(w http.ResponseWriter, r *http.Request) {
	if s.svc.Feedback == nil {
		s.unavailable(w)
		return
	}
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid feedback id")
		return
	}
	it, err := s.svc.Feedback.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackToDTO(it))
}

// ProcessFeedback handles POST /v1/feedback/process.
func (s *Server) ProcessFeedback(w http.ResponseWriter, r *http.Request) {
	if s.svc.Processor == nil {
		s.unavailable(w)
		return
	}
	var req processRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := new(validate.Validator).
		String("feedbackId", req.FeedbackID, validate.Required(), validate.Matches(validate.UUIDShape, "a UUID")).
		Err()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out, err := s.svc.Processor.Process(r.Context(), req.FeedbackID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeToDTO(out))
}

// Mine handles POST /v1/admin/mine.
func (s *Server) Mine(w http.ResponseWriter, r *http.Request) {
	if s.svc.Miner == nil {
		s.unavailable(w)
		return
	}
	rep, err := s.svc.Miner.Run(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToDTO(rep))
}

// ListRules handles GET /v1/rules.
func (s *Server) ListRules(w http.ResponseWriter, r *http.Request) {
	if s.svc.Rules == nil {
		s.unavailable(w)
		return
	}
	limit, offset := defaultRuleLimit, 0
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be an integer")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", q, &offset); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "offset must be an integer")
		return
	}
	if limit < 1 || limit > maxRuleLimit || offset < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be 1-200 and offset non-negative")
		return
	}

	rules, err := s.svc.Rules.ListActive(r.Context(), limit, offset)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]ruleDTO, len(rules))
	for i, rl := range rules {
		items[i] = ruleToDTO(rl)
	}
	writeJSON(w, http.StatusOK, ruleListResponse{Items: items, Limit: limit, Offset: offset})
}

// GetUsage handles GET /v1/admin/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	if s.svc.Usage == nil {
		s.unavailable(w)
		return
	}
	var raw string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid period")
		return
	}
	period, err := domusage.ParsePeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, usageToDTO(s.svc.Usage.GetReport(r.Context(), period)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: string(healthuc.Healthy), Checks: map[string]string{}})
		return
	}
	report := s.svc.Health.Check(r.Context())
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// admit applies the rate limiter. It writes the rejection and returns false
// when the request must stop.
func (s *Server) admit(w http.ResponseWriter, r *http.Request, session string) bool {
	if s.svc.Limiter == nil {
		return true
	}
	key := "ip:" + clientIP(r)
	if p, ok := PrincipalFrom(r.Context()); ok {
		key = p.ID
	}
	if !validate.SessionIDShape.MatchString(session) {
		session = ""
	}
	if err := s.svc.Limiter.Allow(r.Context(), key, session); err != nil {
		s.handleDomainError(w, r, err)
		return false
	}
	return true
}

// decode reads a JSON body. It writes the error response and returns false
// on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	switch {
	case isTooLarge(err):
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large")
	case errors.As(err, &typeErr):
		s.handleDomainError(w, r, new(validate.Validator).Add(validate.FieldError{
			Field: typeErr.Field,
			Kind:  validate.KindType,
			Msg:   "must be a " + typeErr.Type.String(),
		}).Err())
	default:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	return false
}

func (s *Server) unavailable(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, CodeInternalError, "not configured")
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Debug("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func (req translateRequest) toUsecase() (translateuc.Request, error) {
	filters, err := req.Filters.toDomain()
	if err != nil {
		return translateuc.Request{}, invalid(err)
	}
	return translateuc.Request{Query: req.Query, SessionID: req.SessionID, Filters: filters}, nil
}
