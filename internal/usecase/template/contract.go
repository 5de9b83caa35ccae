package template

import (
	"context"

	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

// Repository defines the storage contract for templates.
type Repository interface {
	Save(ctx context.Context, t *domtpl.Template) error
	Get(ctx context.Context, id string) (domtpl.Template, error)
	Delete(ctx context.Context, id string) error
	ListPending(ctx context.Context) ([]domtpl.Template, error)
}

// ShareLinks defines the storage contract for share links.
type ShareLinks interface {
	Save(ctx context.Context, link domtpl.ShareLink) error
	Get(ctx context.Context, token string) (domtpl.ShareLink, error)
}

// Counters records popularity events as deltas; a background sweep folds
// them into the template records.
type Counters interface {
	RecordView(ctx context.Context, templateID string) error
	RecordUse(ctx context.Context, templateID string) error
}

// Invalidator drops cached candidate sets after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
