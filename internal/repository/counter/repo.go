package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/logger"
)

// store is the consumer interface for popularity counters (ISP).
type store interface {
	HIncrBy(ctx context.Context, key, field string, delta int64) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}

// Repo implements usecase/template.Counters. View and use events are
// accumulated as hash increments and folded into the template records by
// a periodic flush, so the hot read path never rewrites a template.
type Repo struct {
	store  store
	prefix string
}

// New creates a popularity counter repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// RecordView increments the pending view delta for a template.
func (r *Repo) RecordView(ctx context.Context, templateID string) error {
	return r.incr(ctx, "view:"+templateID)
}

// RecordUse increments the pending use delta for a template.
func (r *Repo) RecordUse(ctx context.Context, templateID string) error {
	return r.incr(ctx, "use:"+templateID)
}

// Drain returns all pending view and use deltas keyed by template ID and
// clears them. Increments arriving between the read and the clear are lost;
// the flush interval keeps that window small.
func (r *Repo) Drain(ctx context.Context) (map[string]int64, map[string]int64, error) {
	key := r.key()
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, nil, nil
	}

	log := logger.FromContext(ctx)
	views := make(map[string]int64)
	uses := make(map[string]int64)
	drained := make([]string, 0, len(fields))
	for field, raw := range fields {
		drained = append(drained, field)

		kind, id, ok := strings.Cut(field, ":")
		if !ok || id == "" {
			log.Warn("dropping malformed counter field", zap.String("field", field))
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Warn("dropping unparsable counter value",
				zap.String("field", field),
				zap.String("value", raw))
			continue
		}

		switch kind {
		case "view":
			views[id] += n
		case "use":
			uses[id] += n
		default:
			log.Warn("dropping unknown counter kind", zap.String("field", field))
		}
	}

	if err := r.store.HDel(ctx, key, drained...); err != nil {
		return nil, nil, fmt.Errorf("hdel %s: %w", key, err)
	}
	return views, uses, nil
}

func (r *Repo) incr(ctx context.Context, field string) error {
	key := r.key()
	if err := r.store.HIncrBy(ctx, key, field, 1); err != nil {
		return fmt.Errorf("hincrby %s %s: %w", key, field, err)
	}
	return nil
}

func (r *Repo) key() string {
	return r.prefix + "popdelta"
}
