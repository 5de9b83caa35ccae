package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

type mockRepo struct {
	saved []domtpl.Template
	err   error
}

func (m *mockRepo) Save(_ context.Context, t *domtpl.Template) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, *t)
	return nil
}

func writeSeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestReadFile_CSV(t *testing.T) {
	path := writeSeed(t, "templates.csv",
		"title,content,tags,category,authorEmail,visibility,viewCount,useCount\n"+
			"Email Marketing,\"Hello [[name]]\",\"Email, Sales\",marketing,a@example.com,public,12,3\n"+
			"SQL Tutor,Teach me SQL,,education,,private,,\n")

	records, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Title != "Email Marketing" || first.ViewCount != 12 || first.UseCount != 3 {
		t.Errorf("unexpected first record %+v", first)
	}
	if len(first.Tags) != 2 || first.Tags[0] != "email" || first.Tags[1] != "sales" {
		t.Errorf("tags must be split and lower-cased, got %v", first.Tags)
	}
	if records[1].ViewCount != 0 {
		t.Errorf("missing counts default to zero, got %d", records[1].ViewCount)
	}
}

func TestReadFile_JSON(t *testing.T) {
	path := writeSeed(t, "templates.json", `[
		{"title":"A","content":"c1","tags":["X","y"],"visibility":"public","viewCount":1},
		{"title":"B","content":"c2","tags":"one, two","visibility":"private"}
	]`)

	records, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if len(records[0].Tags) != 2 || records[0].Tags[0] != "x" {
		t.Errorf("list tags: got %v", records[0].Tags)
	}
	if len(records[1].Tags) != 2 || records[1].Tags[1] != "two" {
		t.Errorf("string tags: got %v", records[1].Tags)
	}
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	path := writeSeed(t, "templates.txt", "whatever")
	if _, err := ReadFile(path); err == nil {
		t.Errorf("expected error for unsupported extension")
	}
}

func TestConsolidate_DedupsByTitleKeepingMostPopular(t *testing.T) {
	records := []Record{
		{Title: "Email Marketing", Content: "v1", ViewCount: 2},
		{Title: " Email Marketing ", Content: "v2", ViewCount: 9, UseCount: 1},
		{Title: "SQL Tutor", Content: "sql", Category: "education"},
	}

	unique, dropped := Consolidate(records)
	if dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
	if len(unique) != 2 {
		t.Fatalf("expected 2 unique, got %d", len(unique))
	}

	var email *Record
	for i := range unique {
		if unique[i].Content == "v2" || unique[i].Content == "v1" {
			email = &unique[i]
		}
	}
	if email == nil || email.Content != "v2" {
		t.Errorf("expected the more popular duplicate to win, got %+v", unique)
	}
}

func TestConsolidate_SortsByCategoryThenTitle(t *testing.T) {
	records := []Record{
		{Title: "Zeta", Category: "b"},
		{Title: "Alpha", Category: "b"},
		{Title: "Mid", Category: "a"},
	}

	unique, _ := Consolidate(records)
	want := []string{"Mid", "Alpha", "Zeta"}
	for i, title := range want {
		if unique[i].Title != title {
			t.Fatalf("expected order %v, got %+v", want, unique)
		}
	}
}

func TestImport(t *testing.T) {
	repo := &mockRepo{}
	l := New(repo, "importer", true, zap.NewNop())

	records := []Record{
		{Title: "Email Marketing", Content: "Hello [[name]]", Tags: []string{"email"}, Visibility: "public", ViewCount: 5},
		{Title: "", Content: "invalid"},
		{Title: "Private One", Content: "c", Visibility: "private"},
	}

	imported, err := l.Import(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported != 2 || len(repo.saved) != 2 {
		t.Fatalf("expected 2 imports, got %d", imported)
	}

	pub := repo.saved[0]
	if pub.Moderation() != domtpl.Approved {
		t.Errorf("approve mode must mark public imports approved, got %q", pub.Moderation())
	}
	if pub.ViewCount() != 5 {
		t.Errorf("seed counts must carry over, got %d", pub.ViewCount())
	}
	if pub.AuthorID() != "importer" {
		t.Errorf("imports must belong to the loader identity, got %q", pub.AuthorID())
	}
}

func TestImport_DefaultsVisibilityToPublic(t *testing.T) {
	repo := &mockRepo{}
	l := New(repo, "importer", false, zap.NewNop())

	if _, err := l.Import(context.Background(), []Record{{Title: "T", Content: "c"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saved[0].Visibility() != domtpl.Public {
		t.Errorf("expected public default, got %q", repo.saved[0].Visibility())
	}
	if repo.saved[0].Moderation() != domtpl.Pending {
		t.Errorf("without approve mode public imports stay pending, got %q", repo.saved[0].Moderation())
	}
}
