package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/domain"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
	healthuc "github.com/gravyprompts/gravyd/internal/usecase/health"
	searchuc "github.com/gravyprompts/gravyd/internal/usecase/search"
	templateuc "github.com/gravyprompts/gravyd/internal/usecase/template"
)

// --- Fakes ---

type fakeRepo struct {
	templates map[string]domtpl.Template
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{templates: make(map[string]domtpl.Template)}
}

func (f *fakeRepo) Save(_ context.Context, t *domtpl.Template) error {
	f.templates[t.ID()] = *t
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (domtpl.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return domtpl.Template{}, domain.ErrTemplateNotFound
	}
	return t, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	delete(f.templates, id)
	return nil
}

func (f *fakeRepo) ListPending(_ context.Context) ([]domtpl.Template, error) {
	var out []domtpl.Template
	for _, t := range f.templates {
		if t.Visibility() == domtpl.Public && t.Moderation() == domtpl.Pending {
			out = append(out, t)
		}
	}
	return out, nil
}

// Candidates makes the fake double as the search candidate source.
func (f *fakeRepo) Candidates(_ context.Context, scope request.Scope, userID string) ([]domtpl.Template, error) {
	var out []domtpl.Template
	for _, t := range f.templates {
		switch scope {
		case request.ScopeMine:
			if !t.OwnedBy(userID) {
				continue
			}
		case request.ScopeAll:
		default:
			if !t.SearchableByAnyone() {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeShares struct {
	links map[string]domtpl.ShareLink
}

func newFakeShares() *fakeShares {
	return &fakeShares{links: make(map[string]domtpl.ShareLink)}
}

func (f *fakeShares) Save(_ context.Context, link domtpl.ShareLink) error {
	f.links[link.Token()] = link
	return nil
}

func (f *fakeShares) Get(_ context.Context, token string) (domtpl.ShareLink, error) {
	l, ok := f.links[token]
	if !ok {
		return domtpl.ShareLink{}, domain.ErrShareLinkNotFound
	}
	return l, nil
}

type fakeCounters struct {
	views []string
	uses  []string
}

func (f *fakeCounters) RecordView(_ context.Context, id string) error {
	f.views = append(f.views, id)
	return nil
}

func (f *fakeCounters) RecordUse(_ context.Context, id string) error {
	f.uses = append(f.uses, id)
	return nil
}

type fakeInvalidator struct{}

func (fakeInvalidator) Invalidate(context.Context) error { return nil }

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

// --- Fixtures ---

type testEnv struct {
	repo     *fakeRepo
	shares   *fakeShares
	counters *fakeCounters
	pinger   *fakePinger
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newFakeRepo()
	shares := newFakeShares()
	counters := &fakeCounters{}
	pinger := &fakePinger{}

	templateSvc := templateuc.New(repo, shares, counters, fakeInvalidator{}, 168*time.Hour)
	searchSvc := searchuc.New(repo)
	healthSvc := healthuc.New(pinger)
	server := NewServer(templateSvc, searchSvc, healthSvc, zap.NewNop())

	r := chi.NewRouter()
	r.Use(BearerAuthMiddleware(testKeys()))
	server.Routes(r)

	return &testEnv{
		repo:     repo,
		shares:   shares,
		counters: counters,
		pinger:   pinger,
		router:   r,
	}
}

func (e *testEnv) do(t *testing.T, method, target, token string, body *string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(*body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func seedTemplate(t *testing.T, repo *fakeRepo, id, title string, tags []string, vis domtpl.Visibility, mod domtpl.ModerationStatus, authorID string, createdAt time.Time) domtpl.Template {
	t.Helper()
	tpl := domtpl.Reconstruct(
		id, title, "Hello [[name]], welcome to [[product]]", tags,
		vis, mod, authorID, "", 5, 2, createdAt, createdAt,
	)
	repo.templates[id] = tpl
	return tpl
}
