package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/domain"
	"github.com/gravyprompts/gravyd/internal/logger"
)

// Service runs the periodic background jobs: folding popularity deltas into
// template records and removing expired share links.
type Service struct {
	templates  Templates
	counters   Counters
	shares     ShareSweeper
	invalidate Invalidator
}

// New creates a maintenance Service.
func New(templates Templates, counters Counters, shares ShareSweeper, invalidate Invalidator) *Service {
	return &Service{templates: templates, counters: counters, shares: shares, invalidate: invalidate}
}

// FlushPopularity drains pending view and use deltas and folds them into
// the stored templates. Deltas for templates deleted since the events were
// recorded are discarded.
func (s *Service) FlushPopularity(ctx context.Context) error {
	views, uses, err := s.counters.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain counters: %w", err)
	}
	if len(views) == 0 && len(uses) == 0 {
		return nil
	}

	ids := make(map[string]struct{}, len(views)+len(uses))
	for id := range views {
		ids[id] = struct{}{}
	}
	for id := range uses {
		ids[id] = struct{}{}
	}

	log := logger.FromContext(ctx)
	updated := 0
	for id := range ids {
		t, err := s.templates.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrTemplateNotFound) {
				continue
			}
			return fmt.Errorf("load template %s: %w", id, err)
		}

		folded := t.WithCounts(t.ViewCount()+views[id], t.UseCount()+uses[id])
		if err := s.templates.Save(ctx, &folded); err != nil {
			return fmt.Errorf("save template %s: %w", id, err)
		}
		updated++
	}

	if updated > 0 {
		if err := s.invalidate.Invalidate(ctx); err != nil {
			log.Warn("candidate cache invalidation failed", zap.Error(err))
		}
	}
	log.Info("popularity flush complete", zap.Int("templates", updated))
	return nil
}

// SweepShares removes share links that expired at or before now.
func (s *Service) SweepShares(ctx context.Context, now time.Time) error {
	removed, err := s.shares.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("sweep share links: %w", err)
	}
	if removed > 0 {
		logger.FromContext(ctx).Info("share link sweep complete", zap.Int("removed", removed))
	}
	return nil
}
