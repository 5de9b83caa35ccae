package template

import (
	"context"
	"testing"
	"time"

	"github.com/gravyprompts/gravyd/internal/domain"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

var (
	testNow   = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner     = domain.Identity{UserID: "user-1", Email: "owner@example.com"}
	stranger  = domain.Identity{UserID: "user-2", Email: "other@example.com"}
	moderator = domain.Identity{UserID: "admin-1", Admin: true}
	anon      = domain.Identity{}
)

// mockRepo implements Repository over an in-memory map.
type mockRepo struct {
	templates map[string]domtpl.Template
	saveErr   error
	getErr    error
	saved     []string
	deleted   []string
}

func newMockRepo(tpls ...domtpl.Template) *mockRepo {
	m := &mockRepo{templates: make(map[string]domtpl.Template)}
	for _, t := range tpls {
		m.templates[t.ID()] = t
	}
	return m
}

func (m *mockRepo) Save(_ context.Context, t *domtpl.Template) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.templates[t.ID()] = *t
	m.saved = append(m.saved, t.ID())
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (domtpl.Template, error) {
	if m.getErr != nil {
		return domtpl.Template{}, m.getErr
	}
	t, ok := m.templates[id]
	if !ok {
		return domtpl.Template{}, domain.ErrTemplateNotFound
	}
	return t, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	delete(m.templates, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRepo) ListPending(_ context.Context) ([]domtpl.Template, error) {
	var out []domtpl.Template
	for _, t := range m.templates {
		if t.Visibility() == domtpl.Public && t.Moderation() == domtpl.Pending {
			out = append(out, t)
		}
	}
	return out, nil
}

// mockShares implements ShareLinks over an in-memory map.
type mockShares struct {
	links map[string]domtpl.ShareLink
}

func newMockShares(links ...domtpl.ShareLink) *mockShares {
	m := &mockShares{links: make(map[string]domtpl.ShareLink)}
	for _, l := range links {
		m.links[l.Token()] = l
	}
	return m
}

func (m *mockShares) Save(_ context.Context, link domtpl.ShareLink) error {
	m.links[link.Token()] = link
	return nil
}

func (m *mockShares) Get(_ context.Context, token string) (domtpl.ShareLink, error) {
	l, ok := m.links[token]
	if !ok {
		return domtpl.ShareLink{}, domain.ErrShareLinkNotFound
	}
	return l, nil
}

// mockCounters records popularity events.
type mockCounters struct {
	views []string
	uses  []string
}

func (m *mockCounters) RecordView(_ context.Context, id string) error {
	m.views = append(m.views, id)
	return nil
}

func (m *mockCounters) RecordUse(_ context.Context, id string) error {
	m.uses = append(m.uses, id)
	return nil
}

// mockInvalidator counts cache invalidations.
type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(_ context.Context) error {
	m.calls++
	return nil
}

// fixture bundles the service with its mocks.
type fixture struct {
	svc      *Service
	repo     *mockRepo
	shares   *mockShares
	counters *mockCounters
	inval    *mockInvalidator
}

func newFixture(t *testing.T, tpls ...domtpl.Template) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newMockRepo(tpls...),
		shares:   newMockShares(),
		counters: &mockCounters{},
		inval:    &mockInvalidator{},
	}
	f.svc = New(f.repo, f.shares, f.counters, f.inval, 24*time.Hour)
	return f
}

func approvedPublic(t *testing.T, id string) domtpl.Template {
	t.Helper()
	tpl, err := domtpl.New(id, "Email Marketing", "Hello [[name]]", []string{"email"}, domtpl.Public, owner.UserID, owner.Email, testNow)
	if err != nil {
		t.Fatalf("domtpl.New: %v", err)
	}
	return tpl.WithModeration(domtpl.Approved, testNow)
}

func privateTemplate(t *testing.T, id string) domtpl.Template {
	t.Helper()
	tpl, err := domtpl.New(id, "Secret Prompt", "Do [[thing]]", nil, domtpl.Private, owner.UserID, owner.Email, testNow)
	if err != nil {
		t.Fatalf("domtpl.New: %v", err)
	}
	return tpl
}
