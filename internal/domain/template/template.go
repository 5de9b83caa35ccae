// Package template defines the prompt template aggregate.
package template

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Visibility controls who can discover a template.
type Visibility string

const (
	// Public templates are discoverable by anyone once approved.
	Public Visibility = "public"
	// Private templates are visible to the owner and share-link holders only.
	Private Visibility = "private"
)

// IsValid reports whether v is a known visibility.
func (v Visibility) IsValid() bool { return v == Public || v == Private }

// ModerationStatus is the approval state of a public template.
type ModerationStatus string

const (
	// Pending templates await a moderation decision.
	Pending ModerationStatus = "pending"
	// Approved templates are served to anonymous searchers.
	Approved ModerationStatus = "approved"
	// Rejected templates are hidden from everyone but the owner.
	Rejected ModerationStatus = "rejected"
)

// IsValid reports whether m is a known moderation status.
func (m ModerationStatus) IsValid() bool {
	return m == Pending || m == Approved || m == Rejected
}

// MaxContentSize is the maximum template content size in bytes.
const MaxContentSize = 163840 // 160KB

// MaxTitleLength is the maximum title length in characters.
const MaxTitleLength = 200

// MaxTags is the maximum number of tags per template.
const MaxTags = 20

var (
	varRegex = regexp.MustCompile(`\[\[\s*([^\[\]\s][^\[\]]*?)\s*\]\]`)
	tagRegex = regexp.MustCompile(`<[^>]*>`)
)

// Template is the prompt template aggregate (immutable value object).
// Tags keep insertion order; duplicates are not guaranteed absent.
type Template struct {
	id          string
	title       string
	content     string
	tags        []string
	visibility  Visibility
	moderation  ModerationStatus
	authorID    string
	authorEmail string
	viewCount   int64
	useCount    int64
	createdAt   time.Time
	updatedAt   time.Time
}

// New validates and creates a Template. Tags are lower-cased and trimmed;
// empty tags are dropped. Public templates start in Pending moderation,
// private ones are Approved immediately (moderation only gates public search).
func New(id, title, content string, tags []string, visibility Visibility, authorID, authorEmail string, now time.Time) (Template, error) {
	if id == "" {
		return Template{}, fmt.Errorf("template ID is required")
	}
	if strings.TrimSpace(title) == "" {
		return Template{}, fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLength {
		return Template{}, fmt.Errorf("title too long (max %d)", MaxTitleLength)
	}
	if content == "" {
		return Template{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Template{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	if !visibility.IsValid() {
		return Template{}, fmt.Errorf("invalid visibility %q", visibility)
	}
	if authorID == "" {
		return Template{}, fmt.Errorf("author ID is required")
	}
	normTags := normalizeTags(tags)
	if len(normTags) > MaxTags {
		return Template{}, fmt.Errorf("too many tags (max %d)", MaxTags)
	}

	moderation := Approved
	if visibility == Public {
		moderation = Pending
	}

	return Template{
		id:          id,
		title:       title,
		content:     content,
		tags:        normTags,
		visibility:  visibility,
		moderation:  moderation,
		authorID:    authorID,
		authorEmail: authorEmail,
		createdAt:   now.UTC(),
		updatedAt:   now.UTC(),
	}, nil
}

// Reconstruct creates a Template without validation (storage hydration).
func Reconstruct(
	id, title, content string, tags []string,
	visibility Visibility, moderation ModerationStatus,
	authorID, authorEmail string,
	viewCount, useCount int64,
	createdAt, updatedAt time.Time,
) Template {
	return Template{
		id: id, title: title, content: content, tags: tags,
		visibility: visibility, moderation: moderation,
		authorID: authorID, authorEmail: authorEmail,
		viewCount: viewCount, useCount: useCount,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the template identifier.
func (t *Template) ID() string { return t.id }

// Title returns the template title.
func (t *Template) Title() string { return t.title }

// Content returns the raw template content, placeholders included.
func (t *Template) Content() string { return t.content }

// Tags returns the tag list in insertion order.
func (t *Template) Tags() []string { return t.tags }

// Visibility returns the template visibility.
func (t *Template) Visibility() Visibility { return t.visibility }

// Moderation returns the template moderation status.
func (t *Template) Moderation() ModerationStatus { return t.moderation }

// AuthorID returns the owner identifier.
func (t *Template) AuthorID() string { return t.authorID }

// AuthorEmail returns the owner email.
func (t *Template) AuthorEmail() string { return t.authorEmail }

// ViewCount returns the number of recorded views.
func (t *Template) ViewCount() int64 { return t.viewCount }

// UseCount returns the number of recorded populations.
func (t *Template) UseCount() int64 { return t.useCount }

// CreatedAt returns the creation timestamp (UTC).
func (t *Template) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last modification timestamp (UTC).
func (t *Template) UpdatedAt() time.Time { return t.updatedAt }

// SearchableByAnyone reports whether anonymous searchers may see the template.
func (t *Template) SearchableByAnyone() bool {
	return t.visibility == Public && t.moderation == Approved
}

// OwnedBy reports whether userID owns the template.
func (t *Template) OwnedBy(userID string) bool {
	return userID != "" && t.authorID == userID
}

// WithUpdate returns a copy with new title, content, tags, and visibility.
// A public template (whether already public or newly made public) drops back
// to Pending so edits pass moderation again.
func (t *Template) WithUpdate(title, content string, tags []string, visibility Visibility, now time.Time) (Template, error) {
	updated, err := New(t.id, title, content, tags, visibility, t.authorID, t.authorEmail, now)
	if err != nil {
		return Template{}, err
	}
	updated.viewCount = t.viewCount
	updated.useCount = t.useCount
	updated.createdAt = t.createdAt
	return updated, nil
}

// WithModeration returns a copy with the given moderation decision applied.
func (t *Template) WithModeration(status ModerationStatus, now time.Time) Template {
	c := *t
	c.moderation = status
	c.updatedAt = now.UTC()
	return c
}

// WithCounts returns a copy with popularity counters replaced.
func (t *Template) WithCounts(views, uses int64) Template {
	c := *t
	c.viewCount = views
	c.useCount = uses
	return c
}

// HasTag reports whether the template carries tag (case-insensitive).
func (t *Template) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, tt := range t.tags {
		if tt == tag {
			return true
		}
	}
	return false
}

// Variables returns the unique [[variable]] names in content, in order of
// first appearance.
func (t *Template) Variables() []string {
	matches := varRegex.FindAllStringSubmatch(t.content, -1)
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Populate substitutes values into [[variable]] placeholders and returns the
// populated content plus the names of placeholders with no value supplied
// (left intact in the output).
func (t *Template) Populate(values map[string]string) (string, []string) {
	var missing []string
	seenMissing := make(map[string]struct{})

	populated := varRegex.ReplaceAllStringFunc(t.content, func(match string) string {
		name := varRegex.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		if _, dup := seenMissing[name]; !dup {
			seenMissing[name] = struct{}{}
			missing = append(missing, name)
		}
		return match
	})

	return populated, missing
}

// StripMarkup removes HTML-ish tags from content. Used by the relevance
// scorer so tag names and attributes never match a query.
func StripMarkup(content string) string {
	return tagRegex.ReplaceAllString(content, "")
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
