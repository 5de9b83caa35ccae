package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/domain"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	"github.com/gravyprompts/gravyd/internal/domain/search/result"
	"github.com/gravyprompts/gravyd/internal/domain/template"
	"github.com/gravyprompts/gravyd/internal/logger"
	"github.com/gravyprompts/gravyd/internal/metrics"
)

// Service handles template search: it authorizes the scope, resolves the
// candidate set, and runs the ranking pipeline over it.
type Service struct {
	candidates CandidateSource
}

// New creates a search service.
func New(candidates CandidateSource) *Service {
	return &Service{candidates: candidates}
}

// Search executes one search request for the given caller.
// Returns the page items and the nextToken for the following page ("" when
// the page is the last one).
func (s *Service) Search(ctx context.Context, ident domain.Identity, req *request.Request) ([]result.Result, string, error) {
	if err := authorizeScope(ident, req.Scope()); err != nil {
		return nil, "", err
	}

	candidates, err := s.candidates.Candidates(ctx, req.Scope(), ident.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("resolve candidates: %w", err)
	}

	candidates = dropMalformed(ctx, candidates)

	metrics.SearchesTotal.WithLabelValues(string(req.Scope()), string(req.SortBy())).Inc()

	return run(candidates, req)
}

func authorizeScope(ident domain.Identity, scope request.Scope) error {
	switch scope {
	case request.ScopeMine:
		if ident.Anonymous() {
			return fmt.Errorf("filter=mine: %w", domain.ErrUnauthenticated)
		}
	case request.ScopeAll:
		if !ident.Admin {
			return fmt.Errorf("filter=all: %w", domain.ErrForbidden)
		}
	}
	return nil
}

// dropMalformed skips records the ranking pipeline cannot order (no
// createdAt) and logs the anomaly. Partial results beat failing the request.
func dropMalformed(ctx context.Context, candidates []template.Template) []template.Template {
	out := candidates[:0]
	for i := range candidates {
		if candidates[i].CreatedAt().IsZero() || candidates[i].ID() == "" {
			logger.FromContext(ctx).Warn("skipping malformed template record",
				zap.String("template_id", candidates[i].ID()),
			)
			continue
		}
		out = append(out, candidates[i])
	}
	return out
}
