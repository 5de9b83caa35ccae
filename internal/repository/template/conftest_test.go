package template

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

const testPrefix = "gravy:"

// --- Mocks ---

type mockStore struct {
	jsonSetFn      func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn      func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonGetMultiFn func(ctx context.Context, keys []string) ([][]byte, error)
	delFn          func(ctx context.Context, key string) error
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, nil
}

func (m *mockStore) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if m.jsonGetMultiFn != nil {
		return m.jsonGetMultiFn(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

type mockKV struct {
	getFn        func(ctx context.Context, key string) ([]byte, error)
	setWithTTLFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn        func(ctx context.Context, key string) error
	scanFn       func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockKV) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, nil
}

func (m *mockKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setWithTTLFn != nil {
		return m.setWithTTLFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockKV) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockKV) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

type mockLister struct {
	candidatesFn func(ctx context.Context, scope request.Scope, userID string) ([]domtpl.Template, error)
	calls        int
}

func (m *mockLister) Candidates(ctx context.Context, scope request.Scope, userID string) ([]domtpl.Template, error) {
	m.calls++
	if m.candidatesFn != nil {
		return m.candidatesFn(ctx, scope, userID)
	}
	return nil, nil
}

// --- Fixtures ---

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testPrefix), ms
}

func testTemplate(t *testing.T, id string, vis domtpl.Visibility, mod domtpl.ModerationStatus, authorID string) domtpl.Template {
	t.Helper()
	created := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return domtpl.Reconstruct(
		id, "Email Marketing", "Hello [[name]]", []string{"email"},
		vis, mod, authorID, "author@example.com",
		3, 1, created, created,
	)
}

// marshalDoc serializes a template the way the repository stores it,
// wrapped in the one-element array JSON.GET produces for "$" queries.
func marshalDoc(t *testing.T, tpl domtpl.Template) []byte {
	t.Helper()
	data, err := json.Marshal([]templateDoc{buildDoc(&tpl)})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}
