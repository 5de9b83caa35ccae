package search

import (
	"context"

	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	"github.com/gravyprompts/gravyd/internal/domain/template"
)

// CandidateSource supplies the candidate set for a scope, already restricted
// to templates the requesting identity may see (visibility and moderation
// are enforced there, never re-checked here). In production this is the
// template repository behind the candidate cache.
type CandidateSource interface {
	Candidates(ctx context.Context, scope request.Scope, userID string) ([]template.Template, error)
}
