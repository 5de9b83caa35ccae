package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/db"
	"github.com/gravyprompts/gravyd/internal/domain"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
	"github.com/gravyprompts/gravyd/internal/logger"
)

// store is the consumer interface for share links (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/template.ShareLinks. Links are stored without a
// storage-level TTL; reads check expiry and a background sweep removes
// expired records.
type Repo struct {
	store  store
	prefix string
}

// New creates a share link repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Save stores a share link.
func (r *Repo) Save(ctx context.Context, link domtpl.ShareLink) error {
	data, err := json.Marshal(buildShareDoc(link))
	if err != nil {
		return fmt.Errorf("marshal share link: %w", err)
	}
	key := r.key(link.Token())
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns a share link by token.
func (r *Repo) Get(ctx context.Context, token string) (domtpl.ShareLink, error) {
	key := r.key(token)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domtpl.ShareLink{}, domain.ErrShareLinkNotFound
		}
		return domtpl.ShareLink{}, fmt.Errorf("get %s: %w", key, err)
	}

	var doc shareDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domtpl.ShareLink{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return doc.toDomain(), nil
}

// DeleteExpired removes links whose expiry is at or before now. Returns the
// number of links removed. Undecodable records are removed too, they can
// never grant access.
func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"share:*")
	if err != nil {
		return 0, fmt.Errorf("scan share links: %w", err)
	}

	log := logger.FromContext(ctx)
	removed := 0
	for _, key := range keys {
		raw, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return removed, fmt.Errorf("get %s: %w", key, err)
		}

		var doc shareDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			log.Warn("removing undecodable share link", zap.String("key", key))
		} else {
			link := doc.toDomain()
			if link.ExpiresAt().After(now) {
				continue
			}
		}

		if err := r.store.Del(ctx, key); err != nil {
			return removed, fmt.Errorf("del %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}

func (r *Repo) key(token string) string {
	return r.prefix + "share:" + token
}

// shareDoc is the stored JSON shape of a share link.
type shareDoc struct {
	Token      string `json:"token"`
	TemplateID string `json:"template_id"`
	CreatedAt  int64  `json:"created_at"`
	ExpiresAt  int64  `json:"expires_at"`
}

func buildShareDoc(link domtpl.ShareLink) shareDoc {
	return shareDoc{
		Token:      link.Token(),
		TemplateID: link.TemplateID(),
		CreatedAt:  link.CreatedAt().UnixNano(),
		ExpiresAt:  link.ExpiresAt().UnixNano(),
	}
}

func (d shareDoc) toDomain() domtpl.ShareLink {
	return domtpl.ReconstructShareLink(
		d.Token, d.TemplateID,
		time.Unix(0, d.CreatedAt).UTC(), time.Unix(0, d.ExpiresAt).UTC(),
	)
}
