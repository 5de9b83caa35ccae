package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/domain"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
	healthuc "github.com/gravyprompts/gravyd/internal/usecase/health"
	searchuc "github.com/gravyprompts/gravyd/internal/usecase/search"
	templateuc "github.com/gravyprompts/gravyd/internal/usecase/template"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the template API over chi.
type Server struct {
	templates     *templateuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	templates *templateuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		templates: templates,
		search:    search,
		health:    health,
		logger:    logger,
	}
	// Order matters: ErrInvalidCursor belongs to the validation class, so
	// it must be matched before the generic validation handler.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrTemplateNotFound, http.StatusNotFound, codeTemplateNotFound),
		sentinelHandler(domain.ErrShareLinkNotFound, http.StatusNotFound, codeShareLinkNotFound),
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, codeUnauthenticated),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, codeForbidden),
		sentinelHandler(domain.ErrInvalidCursor, http.StatusBadRequest, codeInvalidCursor),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.SearchTemplates)
			r.Post("/", s.CreateTemplate)
			r.Route("/{templateID}", func(r chi.Router) {
				r.Get("/", s.GetTemplate)
				r.Put("/", s.UpdateTemplate)
				r.Delete("/", s.DeleteTemplate)
				r.Post("/populate", s.PopulateTemplate)
				r.Post("/share", s.CreateShareLink)
			})
		})
		r.Route("/moderation", func(r chi.Router) {
			r.Get("/pending", s.ListPending)
			r.Post("/{templateID}/decision", s.Decide)
		})
	})
}

// SearchTemplates handles GET /api/v1/templates.
func (s *Server) SearchTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := request.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	req, err := request.New(
		q.Get("q"),
		q.Get("tag"),
		request.Scope(q.Get("filter")),
		request.SortBy(q.Get("sortBy")),
		request.Order(q.Get("sortOrder")),
		limit,
		q.Get("nextToken"),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ident := domain.IdentityFromContext(r.Context())
	results, nextToken, err := s.search.Search(r.Context(), ident, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	includeScore := req.SortBy() == request.SortRelevance
	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToItem(&results[i], includeScore)
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items:     items,
		Count:     len(items),
		NextToken: nextToken,
	})
}

// CreateTemplate handles POST /api/v1/templates.
func (s *Server) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ident := domain.IdentityFromContext(r.Context())
	tpl, err := s.templates.Create(r.Context(), ident,
		req.Title, req.Content, req.Tags, domtpl.Visibility(req.Visibility))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/templates/"+tpl.ID())
	writeJSON(w, http.StatusCreated, templateToResponse(&tpl))
}

// GetTemplate handles GET /api/v1/templates/{templateID}.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")
	shareToken := r.URL.Query().Get("token")

	ident := domain.IdentityFromContext(r.Context())
	tpl, err := s.templates.Get(r.Context(), ident, id, shareToken)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, templateToResponse(&tpl))
}

// UpdateTemplate handles PUT /api/v1/templates/{templateID}.
func (s *Server) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ident := domain.IdentityFromContext(r.Context())
	tpl, err := s.templates.Update(r.Context(), ident, id,
		req.Title, req.Content, req.Tags, domtpl.Visibility(req.Visibility))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, templateToResponse(&tpl))
}

// DeleteTemplate handles DELETE /api/v1/templates/{templateID}.
func (s *Server) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")

	ident := domain.IdentityFromContext(r.Context())
	if err := s.templates.Delete(r.Context(), ident, id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PopulateTemplate handles POST /api/v1/templates/{templateID}/populate.
func (s *Server) PopulateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")
	shareToken := r.URL.Query().Get("token")

	var req populateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ident := domain.IdentityFromContext(r.Context())
	content, missing, err := s.templates.Populate(r.Context(), ident, id, shareToken, req.Variables)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, populateResponse{Content: content, Missing: missing})
}

// CreateShareLink handles POST /api/v1/templates/{templateID}/share.
func (s *Server) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")

	ident := domain.IdentityFromContext(r.Context())
	link, err := s.templates.CreateShareLink(r.Context(), ident, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, shareResponse{
		Token:     link.Token(),
		ExpiresAt: link.ExpiresAt().UTC(),
	})
}

// ListPending handles GET /api/v1/moderation/pending.
func (s *Server) ListPending(w http.ResponseWriter, r *http.Request) {
	ident := domain.IdentityFromContext(r.Context())
	tpls, err := s.templates.ListPending(r.Context(), ident)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]templateResponse, len(tpls))
	for i := range tpls {
		items[i] = templateToResponse(&tpls[i])
	}

	writeJSON(w, http.StatusOK, pendingListResponse{Items: items, Count: len(items)})
}

// Decide handles POST /api/v1/moderation/{templateID}/decision.
func (s *Server) Decide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "templateID")

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var approve bool
	switch req.Status {
	case string(domtpl.Approved):
		approve = true
	case string(domtpl.Rejected):
		approve = false
	default:
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"status must be approved or rejected")
		return
	}

	ident := domain.IdentityFromContext(r.Context())
	tpl, err := s.templates.Decide(r.Context(), ident, id, approve)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, templateToResponse(&tpl))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTemplateNotFound,
		domain.ErrShareLinkNotFound,
		domain.ErrUnauthenticated,
		domain.ErrForbidden,
		domain.ErrInvalidCursor,
		domain.ErrValidation,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
