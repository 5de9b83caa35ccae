// Package loader consolidates template seed files (CSV or JSON) and imports
// them through the template repository.
package loader

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

// Record is one template row from a seed file.
type Record struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	AuthorEmail string   `json:"authorEmail"`
	Visibility  string   `json:"visibility"`
	ViewCount   int64    `json:"viewCount"`
	UseCount    int64    `json:"useCount"`
}

// repository is the consumer interface for imports (ISP).
type repository interface {
	Save(ctx context.Context, t *domtpl.Template) error
}

// Loader imports consolidated template records.
type Loader struct {
	repo     repository
	authorID string
	approve  bool
	log      *zap.Logger
}

// New creates a Loader. Imported templates belong to authorID; approve marks
// public imports approved instead of pending.
func New(repo repository, authorID string, approve bool, log *zap.Logger) *Loader {
	return &Loader{repo: repo, authorID: authorID, approve: approve, log: log}
}

// ReadFile parses a seed file. The format is chosen by extension:
// .csv or .json.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(f)
	case ".json":
		return readJSON(f)
	default:
		return nil, fmt.Errorf("unsupported seed file %s: want .csv or .json", path)
	}
}

func readCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		out = append(out, Record{
			Title:       field(row, "title"),
			Content:     field(row, "content"),
			Tags:        SplitTags(field(row, "tags")),
			Category:    field(row, "category"),
			AuthorEmail: field(row, "authorEmail"),
			Visibility:  field(row, "visibility"),
			ViewCount:   parseCount(field(row, "viewCount")),
			UseCount:    parseCount(field(row, "useCount")),
		})
	}
	return out, nil
}

func readJSON(r io.Reader) ([]Record, error) {
	// Tags arrive either as a JSON list or as a comma-separated string.
	var items []struct {
		Record
		Tags json.RawMessage `json:"tags"`
	}
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	out := make([]Record, len(items))
	for i, item := range items {
		rec := item.Record
		rec.Tags = parseJSONTags(item.Tags)
		out[i] = rec
	}
	return out, nil
}

func parseJSONTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return normalizeTagList(list)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return SplitTags(s)
	}
	return nil
}

// SplitTags parses a comma-separated tag string into a normalized list.
func SplitTags(s string) []string {
	return normalizeTagList(strings.Split(s, ","))
}

func normalizeTagList(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Consolidate dedups records by trimmed title, keeping the record with the
// highest viewCount+useCount, and sorts by category then title. Returns the
// unique records and the number of records dropped.
func Consolidate(records []Record) ([]Record, int) {
	best := make(map[string]Record)
	var order []string
	for _, rec := range records {
		title := strings.TrimSpace(rec.Title)
		cur, seen := best[title]
		if !seen {
			order = append(order, title)
			best[title] = rec
			continue
		}
		if rec.ViewCount+rec.UseCount > cur.ViewCount+cur.UseCount {
			best[title] = rec
		}
	}

	out := make([]Record, 0, len(order))
	for _, title := range order {
		out = append(out, best[title])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Title < out[j].Title
	})
	return out, len(records) - len(out)
}

// Import builds domain templates from the records and saves them. Records
// that fail validation are logged and skipped; the count of imported
// templates is returned.
func (l *Loader) Import(ctx context.Context, records []Record) (int, error) {
	imported := 0
	now := time.Now()
	for _, rec := range records {
		vis := domtpl.Visibility(rec.Visibility)
		if rec.Visibility == "" {
			vis = domtpl.Public
		}

		t, err := domtpl.New(
			uuid.NewString(), rec.Title, rec.Content, rec.Tags,
			vis, l.authorID, rec.AuthorEmail, now,
		)
		if err != nil {
			l.log.Warn("skipping invalid record",
				zap.String("title", rec.Title), zap.Error(err))
			continue
		}

		if l.approve && vis == domtpl.Public {
			t = t.WithModeration(domtpl.Approved, now)
		}
		if rec.ViewCount > 0 || rec.UseCount > 0 {
			t = t.WithCounts(rec.ViewCount, rec.UseCount)
		}

		if err := l.repo.Save(ctx, &t); err != nil {
			return imported, fmt.Errorf("save %q: %w", rec.Title, err)
		}
		imported++
	}
	return imported, nil
}
