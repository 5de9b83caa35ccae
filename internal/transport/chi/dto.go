package chi

import (
	"time"

	"github.com/gravyprompts/gravyd/internal/domain/search/result"
	domtpl "github.com/gravyprompts/gravyd/internal/domain/template"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeInvalidCursor     = "invalid_cursor"
	codeTemplateNotFound  = "template_not_found"
	codeShareLinkNotFound = "share_link_not_found"
	codeUnauthenticated   = "unauthenticated"
	codeForbidden         = "forbidden"
	codeInternalError     = "internal_error"
)

type templateRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags,omitempty"`
	Visibility string   `json:"visibility"`
}

type templateResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Tags             []string  `json:"tags,omitempty"`
	Visibility       string    `json:"visibility"`
	ModerationStatus string    `json:"moderationStatus"`
	AuthorID         string    `json:"authorId"`
	Variables        []string  `json:"variables,omitempty"`
	ViewCount        int64     `json:"viewCount"`
	UseCount         int64     `json:"useCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func templateToResponse(t *domtpl.Template) templateResponse {
	return templateResponse{
		ID:               t.ID(),
		Title:            t.Title(),
		Content:          t.Content(),
		Tags:             t.Tags(),
		Visibility:       string(t.Visibility()),
		ModerationStatus: string(t.Moderation()),
		AuthorID:         t.AuthorID(),
		Variables:        t.Variables(),
		ViewCount:        t.ViewCount(),
		UseCount:         t.UseCount(),
		CreatedAt:        t.CreatedAt().UTC(),
		UpdatedAt:        t.UpdatedAt().UTC(),
	}
}

type searchResultItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Tags       []string  `json:"tags,omitempty"`
	Visibility string    `json:"visibility"`
	Score      *float64  `json:"score,omitempty"`
	ViewCount  int64     `json:"viewCount"`
	UseCount   int64     `json:"useCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type searchResponse struct {
	Items     []searchResultItem `json:"items"`
	Count     int                `json:"count"`
	NextToken string             `json:"nextToken,omitempty"`
}

func searchResultToItem(r *result.Result, includeScore bool) searchResultItem {
	t := r.Template()
	item := searchResultItem{
		ID:         t.ID(),
		Title:      t.Title(),
		Tags:       t.Tags(),
		Visibility: string(t.Visibility()),
		ViewCount:  t.ViewCount(),
		UseCount:   t.UseCount(),
		CreatedAt:  t.CreatedAt().UTC(),
		UpdatedAt:  t.UpdatedAt().UTC(),
	}
	if includeScore {
		score := r.Score()
		item.Score = &score
	}
	return item
}

type populateRequest struct {
	Variables map[string]string `json:"variables"`
}

type populateResponse struct {
	Content string   `json:"content"`
	Missing []string `json:"missing,omitempty"`
}

type shareResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type pendingListResponse struct {
	Items []templateResponse `json:"items"`
	Count int                `json:"count"`
}

type decisionRequest struct {
	Status string `json:"status"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
