package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/db"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
	"github.com/gravyprompts/gravyd/internal/logger"
	"github.com/gravyprompts/gravyd/internal/metrics"
)

// kvStore is the consumer interface for the candidate cache (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// candidateLister is the fetch path the cache sits in front of.
type candidateLister interface {
	Candidates(ctx context.Context, scope request.Scope, userID string) ([]domtpl.Template, error)
}

// CandidateCache caches candidate sets in the KV store with a short TTL.
// A stale read only delays a new or edited template from appearing in
// results by at most the TTL; writes invalidate eagerly anyway.
type CandidateCache struct {
	next   candidateLister
	kv     kvStore
	prefix string
	ttl    time.Duration
}

// NewCandidateCache wraps a candidate lister with KV caching.
func NewCandidateCache(next candidateLister, kv kvStore, keyPrefix string, ttl time.Duration) *CandidateCache {
	return &CandidateCache{next: next, kv: kv, prefix: keyPrefix, ttl: ttl}
}

// Candidates returns the cached candidate set for the scope, fetching and
// caching on miss. Cache failures fall back to a direct fetch.
func (c *CandidateCache) Candidates(ctx context.Context, scope request.Scope, userID string) ([]domtpl.Template, error) {
	key := c.cacheKey(scope, userID)
	log := logger.FromContext(ctx)

	raw, err := c.kv.Get(ctx, key)
	if err == nil {
		var docs []templateDoc
		if jerr := json.Unmarshal(raw, &docs); jerr == nil {
			metrics.CandidateCacheTotal.WithLabelValues("hit").Inc()
			out := make([]domtpl.Template, len(docs))
			for i, d := range docs {
				out[i] = d.toDomain()
			}
			return out, nil
		}
		log.Warn("dropping undecodable candidate cache entry", zap.String("key", key))
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		log.Warn("candidate cache read failed", zap.String("key", key), zap.Error(err))
	}

	metrics.CandidateCacheTotal.WithLabelValues("miss").Inc()
	tpls, err := c.next.Candidates(ctx, scope, userID)
	if err != nil {
		return nil, err
	}

	docs := make([]templateDoc, len(tpls))
	for i := range tpls {
		docs[i] = buildDoc(&tpls[i])
	}
	if data, err := json.Marshal(docs); err == nil {
		if err := c.kv.SetWithTTL(ctx, key, data, c.ttl); err != nil {
			log.Warn("candidate cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return tpls, nil
}

// Invalidate drops every cached candidate set. Called after any template
// write so searches never serve a deleted or demoted record past the TTL.
func (c *CandidateCache) Invalidate(ctx context.Context) error {
	keys, err := c.kv.Scan(ctx, c.prefix+"cache:candidates:*")
	if err != nil {
		return fmt.Errorf("scan candidate cache: %w", err)
	}
	for _, key := range keys {
		if err := c.kv.Del(ctx, key); err != nil {
			return fmt.Errorf("del %s: %w", key, err)
		}
	}
	return nil
}

func (c *CandidateCache) cacheKey(scope request.Scope, userID string) string {
	key := c.prefix + "cache:candidates:" + string(scope)
	if scope == request.ScopeMine {
		key += ":" + userID
	}
	return key
}
