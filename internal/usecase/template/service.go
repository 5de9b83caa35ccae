// Package template implements the template lifecycle use cases: CRUD,
// prompt population, share links, and the moderation queue.
package template

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/domain"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
	"github.com/gravyprompts/gravyd/internal/logger"
	"github.com/gravyprompts/gravyd/internal/metrics"
)

// Service coordinates template operations.
type Service struct {
	repo       Repository
	shares     ShareLinks
	counters   Counters
	invalidate Invalidator
	shareTTL   time.Duration
}

// New creates a template service.
func New(repo Repository, shares ShareLinks, counters Counters, invalidate Invalidator, shareTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		shares:     shares,
		counters:   counters,
		invalidate: invalidate,
		shareTTL:   shareTTL,
	}
}

// Create validates and stores a new template owned by the caller.
// Public templates enter the moderation queue as pending.
func (s *Service) Create(ctx context.Context, ident domain.Identity, title, content string, tags []string, visibility domtpl.Visibility) (domtpl.Template, error) {
	if ident.Anonymous() {
		return domtpl.Template{}, fmt.Errorf("create template: %w", domain.ErrUnauthenticated)
	}

	t, err := domtpl.New(uuid.NewString(), title, content, tags, visibility, ident.UserID, ident.Email, time.Now())
	if err != nil {
		return domtpl.Template{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.repo.Save(ctx, &t); err != nil {
		return domtpl.Template{}, fmt.Errorf("save template: %w", err)
	}
	s.dropCandidateCache(ctx)

	return t, nil
}

// Get returns a template the caller may read and records a view for
// non-owner reads. shareToken grants access to private templates.
func (s *Service) Get(ctx context.Context, ident domain.Identity, id, shareToken string) (domtpl.Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domtpl.Template{}, fmt.Errorf("get template: %w", err)
	}

	if err := s.authorizeRead(ctx, ident, &t, shareToken); err != nil {
		return domtpl.Template{}, err
	}

	if !t.OwnedBy(ident.UserID) {
		if err := s.counters.RecordView(ctx, t.ID()); err != nil {
			// A lost view is not worth failing the read.
			logger.FromContext(ctx).Warn("record view failed",
				zap.String("template_id", t.ID()), zap.Error(err))
		}
	}

	return t, nil
}

// Update replaces a template's content. Owner only (admins may not edit
// other people's prompts, only moderate them). Edited public templates drop
// back to pending.
func (s *Service) Update(ctx context.Context, ident domain.Identity, id, title, content string, tags []string, visibility domtpl.Visibility) (domtpl.Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domtpl.Template{}, fmt.Errorf("get template: %w", err)
	}
	if !t.OwnedBy(ident.UserID) {
		return domtpl.Template{}, fmt.Errorf("update template %s: %w", id, domain.ErrForbidden)
	}

	updated, err := t.WithUpdate(title, content, tags, visibility, time.Now())
	if err != nil {
		return domtpl.Template{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.repo.Save(ctx, &updated); err != nil {
		return domtpl.Template{}, fmt.Errorf("save template: %w", err)
	}
	s.dropCandidateCache(ctx)

	return updated, nil
}

// Delete removes a template. Owner or admin.
func (s *Service) Delete(ctx context.Context, ident domain.Identity, id string) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get template: %w", err)
	}
	if !t.OwnedBy(ident.UserID) && !ident.Admin {
		return fmt.Errorf("delete template %s: %w", id, domain.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.dropCandidateCache(ctx)

	return nil
}

// Populate substitutes values into the template's placeholders, records a
// use, and returns the populated content plus any unfilled variable names.
func (s *Service) Populate(ctx context.Context, ident domain.Identity, id, shareToken string, values map[string]string) (string, []string, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("get template: %w", err)
	}

	if err := s.authorizeRead(ctx, ident, &t, shareToken); err != nil {
		return "", nil, err
	}

	populated, missing := t.Populate(values)

	if err := s.counters.RecordUse(ctx, t.ID()); err != nil {
		logger.FromContext(ctx).Warn("record use failed",
			zap.String("template_id", t.ID()), zap.Error(err))
	}

	return populated, missing, nil
}

// CreateShareLink mints a read-access token for the template. Owner only.
func (s *Service) CreateShareLink(ctx context.Context, ident domain.Identity, id string) (domtpl.ShareLink, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domtpl.ShareLink{}, fmt.Errorf("get template: %w", err)
	}
	if !t.OwnedBy(ident.UserID) {
		return domtpl.ShareLink{}, fmt.Errorf("share template %s: %w", id, domain.ErrForbidden)
	}

	link := domtpl.NewShareLink(uuid.NewString(), t.ID(), time.Now(), s.shareTTL)
	if err := s.shares.Save(ctx, link); err != nil {
		return domtpl.ShareLink{}, fmt.Errorf("save share link: %w", err)
	}

	return link, nil
}

// ListPending returns public templates awaiting moderation. Admin only.
func (s *Service) ListPending(ctx context.Context, ident domain.Identity) ([]domtpl.Template, error) {
	if !ident.Admin {
		return nil, fmt.Errorf("list pending: %w", domain.ErrForbidden)
	}

	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return pending, nil
}

// Decide applies a moderation decision to a template. Admin only.
func (s *Service) Decide(ctx context.Context, ident domain.Identity, id string, approve bool) (domtpl.Template, error) {
	if !ident.Admin {
		return domtpl.Template{}, fmt.Errorf("moderate template %s: %w", id, domain.ErrForbidden)
	}

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domtpl.Template{}, fmt.Errorf("get template: %w", err)
	}

	status := domtpl.Rejected
	if approve {
		status = domtpl.Approved
	}
	decided := t.WithModeration(status, time.Now())

	if err := s.repo.Save(ctx, &decided); err != nil {
		return domtpl.Template{}, fmt.Errorf("save template: %w", err)
	}
	s.dropCandidateCache(ctx)

	metrics.ModerationDecisionsTotal.WithLabelValues(string(status)).Inc()

	return decided, nil
}

// authorizeRead checks read access: owner, admin, anonymous-searchable, or a
// share token that grants this template.
func (s *Service) authorizeRead(ctx context.Context, ident domain.Identity, t *domtpl.Template, shareToken string) error {
	if t.OwnedBy(ident.UserID) || ident.Admin || t.SearchableByAnyone() {
		return nil
	}

	if shareToken != "" {
		link, err := s.shares.Get(ctx, shareToken)
		if err != nil {
			return fmt.Errorf("resolve share token: %w", err)
		}
		if link.Grants(t.ID(), time.Now()) {
			return nil
		}
	}

	return fmt.Errorf("template %s: %w", t.ID(), domain.ErrForbidden)
}

func (s *Service) dropCandidateCache(ctx context.Context) {
	if err := s.invalidate.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Warn("candidate cache invalidation failed", zap.Error(err))
	}
}
