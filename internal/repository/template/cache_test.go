package template

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gravyprompts/gravyd/internal/db"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

const cacheTTL = 30 * time.Second

func TestCandidateCache_MissFetchesAndStores(t *testing.T) {
	tpl := testTemplate(t, "tpl-1", domtpl.Public, domtpl.Approved, "u1")
	lister := &mockLister{
		candidatesFn: func(_ context.Context, _ request.Scope, _ string) ([]domtpl.Template, error) {
			return []domtpl.Template{tpl}, nil
		},
	}
	kv := &mockKV{
		getFn: func(_ context.Context, _ string) ([]byte, error) {
			return nil, db.ErrKeyNotFound
		},
	}
	var storedKey string
	var storedTTL time.Duration
	var storedData []byte
	kv.setWithTTLFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		storedKey, storedData, storedTTL = key, value, ttl
		return nil
	}

	cache := NewCandidateCache(lister, kv, testPrefix, cacheTTL)
	got, err := cache.Candidates(context.Background(), request.ScopePublic, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "tpl-1" {
		t.Fatalf("expected [tpl-1], got %d results", len(got))
	}
	if lister.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", lister.calls)
	}
	if storedKey != "gravy:cache:candidates:public" {
		t.Errorf("unexpected cache key %q", storedKey)
	}
	if storedTTL != cacheTTL {
		t.Errorf("expected ttl %v, got %v", cacheTTL, storedTTL)
	}
	var docs []templateDoc
	if err := json.Unmarshal(storedData, &docs); err != nil || len(docs) != 1 {
		t.Errorf("cached payload not a doc array: %v", err)
	}
}

func TestCandidateCache_HitSkipsFetch(t *testing.T) {
	tpl := testTemplate(t, "tpl-1", domtpl.Public, domtpl.Approved, "u1")
	payload, err := json.Marshal([]templateDoc{buildDoc(&tpl)})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	lister := &mockLister{}
	kv := &mockKV{
		getFn: func(_ context.Context, _ string) ([]byte, error) {
			return payload, nil
		},
	}

	cache := NewCandidateCache(lister, kv, testPrefix, cacheTTL)
	got, err := cache.Candidates(context.Background(), request.ScopePublic, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "tpl-1" || got[0].Title() != tpl.Title() {
		t.Errorf("cached round trip mismatch")
	}
	if lister.calls != 0 {
		t.Errorf("expected no fetch on hit, got %d", lister.calls)
	}
}

func TestCandidateCache_UndecodableEntryFallsThrough(t *testing.T) {
	lister := &mockLister{}
	kv := &mockKV{
		getFn: func(_ context.Context, _ string) ([]byte, error) {
			return []byte("{not json"), nil
		},
	}

	cache := NewCandidateCache(lister, kv, testPrefix, cacheTTL)
	if _, err := cache.Candidates(context.Background(), request.ScopePublic, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.calls != 1 {
		t.Errorf("expected fallthrough fetch, got %d calls", lister.calls)
	}
}

func TestCandidateCache_MineKeyPerUser(t *testing.T) {
	lister := &mockLister{}
	var gotKey string
	kv := &mockKV{
		getFn: func(_ context.Context, key string) ([]byte, error) {
			gotKey = key
			return nil, db.ErrKeyNotFound
		},
	}

	cache := NewCandidateCache(lister, kv, testPrefix, cacheTTL)
	if _, err := cache.Candidates(context.Background(), request.ScopeMine, "u42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "gravy:cache:candidates:mine:u42" {
		t.Errorf("unexpected cache key %q", gotKey)
	}
}

func TestCandidateCache_FetchErrorPropagates(t *testing.T) {
	wantErr := errors.New("store down")
	lister := &mockLister{
		candidatesFn: func(_ context.Context, _ request.Scope, _ string) ([]domtpl.Template, error) {
			return nil, wantErr
		},
	}
	kv := &mockKV{
		getFn: func(_ context.Context, _ string) ([]byte, error) {
			return nil, db.ErrKeyNotFound
		},
	}

	cache := NewCandidateCache(lister, kv, testPrefix, cacheTTL)
	if _, err := cache.Candidates(context.Background(), request.ScopePublic, ""); !errors.Is(err, wantErr) {
		t.Errorf("expected fetch error, got %v", err)
	}
}

func TestInvalidate_DeletesAllCacheKeys(t *testing.T) {
	kv := &mockKV{}
	kv.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "gravy:cache:candidates:*" {
			t.Errorf("unexpected scan pattern %q", pattern)
		}
		return []string{"gravy:cache:candidates:public", "gravy:cache:candidates:mine:u1"}, nil
	}
	var deleted []string
	kv.delFn = func(_ context.Context, key string) error {
		deleted = append(deleted, key)
		return nil
	}

	cache := NewCandidateCache(&mockLister{}, kv, testPrefix, cacheTTL)
	if err := cache.Invalidate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("expected 2 deletions, got %v", deleted)
	}
}
