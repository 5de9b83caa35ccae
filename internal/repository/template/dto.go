package template

import (
	"encoding/json"
	"fmt"
	"time"

	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

// templateDoc is the stored JSON shape of a template.
type templateDoc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
	Visibility  string   `json:"visibility"`
	Moderation  string   `json:"moderation"`
	AuthorID    string   `json:"author_id"`
	AuthorEmail string   `json:"author_email,omitempty"`
	ViewCount   int64    `json:"view_count"`
	UseCount    int64    `json:"use_count"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

// buildDoc converts a domain Template into its stored form.
func buildDoc(t *domtpl.Template) templateDoc {
	return templateDoc{
		ID:          t.ID(),
		Title:       t.Title(),
		Content:     t.Content(),
		Tags:        t.Tags(),
		Visibility:  string(t.Visibility()),
		Moderation:  string(t.Moderation()),
		AuthorID:    t.AuthorID(),
		AuthorEmail: t.AuthorEmail(),
		ViewCount:   t.ViewCount(),
		UseCount:    t.UseCount(),
		CreatedAt:   t.CreatedAt().UnixNano(),
		UpdatedAt:   t.UpdatedAt().UnixNano(),
	}
}

func (d templateDoc) toDomain() domtpl.Template {
	return domtpl.Reconstruct(
		d.ID, d.Title, d.Content, d.Tags,
		domtpl.Visibility(d.Visibility), domtpl.ModerationStatus(d.Moderation),
		d.AuthorID, d.AuthorEmail,
		d.ViewCount, d.UseCount,
		time.Unix(0, d.CreatedAt).UTC(), time.Unix(0, d.UpdatedAt).UTC(),
	)
}

// decodeDoc parses a JSON.GET result. A "$" path query wraps the document
// in a one-element array; plain documents are accepted too so cached
// payloads decode with the same helper.
func decodeDoc(raw []byte) (templateDoc, error) {
	if len(raw) > 0 && raw[0] == '[' {
		var docs []templateDoc
		if err := json.Unmarshal(raw, &docs); err != nil {
			return templateDoc{}, fmt.Errorf("unmarshal template array: %w", err)
		}
		if len(docs) == 0 {
			return templateDoc{}, fmt.Errorf("empty template array")
		}
		return docs[0], nil
	}
	var doc templateDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return templateDoc{}, fmt.Errorf("unmarshal template: %w", err)
	}
	return doc, nil
}
