package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/db"
	"github.com/gravyprompts/gravyd/internal/domain"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
	"github.com/gravyprompts/gravyd/internal/logger"
)

// store is the consumer interface for templates (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/template.Repository and the candidate listing
// behind usecase/search.CandidateSource.
type Repo struct {
	store  store
	prefix string
}

// New creates a template repository. Keys are namespaced under keyPrefix.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Save stores a template, overwriting any previous version.
func (r *Repo) Save(ctx context.Context, t *domtpl.Template) error {
	data, err := json.Marshal(buildDoc(t))
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	key := r.key(t.ID())
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns a template by ID.
func (r *Repo) Get(ctx context.Context, id string) (domtpl.Template, error) {
	key := r.key(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domtpl.Template{}, domain.ErrTemplateNotFound
		}
		return domtpl.Template{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	doc, err := decodeDoc(raw)
	if err != nil {
		return domtpl.Template{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc.toDomain(), nil
}

// Delete removes a template.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// ListPending returns public templates awaiting moderation.
func (r *Repo) ListPending(ctx context.Context) ([]domtpl.Template, error) {
	return r.list(ctx, func(t *domtpl.Template) bool {
		return t.Visibility() == domtpl.Public && t.Moderation() == domtpl.Pending
	})
}

// Candidates returns the templates visible under the given scope. The
// visibility and moderation rules are applied here so callers never see
// records the scope does not grant.
func (r *Repo) Candidates(ctx context.Context, scope request.Scope, userID string) ([]domtpl.Template, error) {
	switch scope {
	case request.ScopeMine:
		return r.list(ctx, func(t *domtpl.Template) bool { return t.OwnedBy(userID) })
	case request.ScopeAll:
		return r.list(ctx, func(*domtpl.Template) bool { return true })
	default:
		return r.list(ctx, func(t *domtpl.Template) bool { return t.SearchableByAnyone() })
	}
}

// list scans all template keys and returns the decoded records keep accepts.
// Records deleted between SCAN and fetch, and records that fail to decode,
// are skipped.
func (r *Repo) list(ctx context.Context, keep func(*domtpl.Template) bool) ([]domtpl.Template, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"template:*")
	if err != nil {
		return nil, fmt.Errorf("scan templates: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch templates: %w", err)
	}

	log := logger.FromContext(ctx)
	out := make([]domtpl.Template, 0, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			log.Warn("skipping undecodable template record",
				zap.String("key", keys[i]),
				zap.Error(err))
			continue
		}
		t := doc.toDomain()
		if keep(&t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "template:" + id
}
