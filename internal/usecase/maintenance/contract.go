package maintenance

import (
	"context"
	"time"

	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

// Templates is the slice of the template repository the flush needs.
type Templates interface {
	Get(ctx context.Context, id string) (domtpl.Template, error)
	Save(ctx context.Context, t *domtpl.Template) error
}

// Counters drains pending popularity deltas.
type Counters interface {
	Drain(ctx context.Context) (views, uses map[string]int64, err error)
}

// ShareSweeper removes expired share links.
type ShareSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Invalidator drops cached candidate sets after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
