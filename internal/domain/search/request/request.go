// Package request defines the validated search request.
package request

import (
	"fmt"
	"strings"

	"github.com/gravyprompts/gravyd/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1024
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Scope selects the candidate set the caller searches over.
type Scope string

const (
	// ScopePublic searches approved public templates.
	ScopePublic Scope = "public"
	// ScopeMine searches the caller's own templates.
	ScopeMine Scope = "mine"
	// ScopeAll searches everything (admin only).
	ScopeAll Scope = "all"
)

// IsValid reports whether s is a known scope.
func (s Scope) IsValid() bool {
	return s == ScopePublic || s == ScopeMine || s == ScopeAll
}

// SortBy names the field results are ordered by.
type SortBy string

const (
	// SortRelevance orders by computed relevance score (requires a query).
	SortRelevance SortBy = "relevance"
	// SortCreatedAt orders by creation time.
	SortCreatedAt SortBy = "createdAt"
	// SortViewCount orders by view count.
	SortViewCount SortBy = "viewCount"
	// SortUseCount orders by use count.
	SortUseCount SortBy = "useCount"
)

// IsValid reports whether s is a known sort key.
func (s SortBy) IsValid() bool {
	switch s {
	case SortRelevance, SortCreatedAt, SortViewCount, SortUseCount:
		return true
	}
	return false
}

// Order is the sort direction.
type Order string

const (
	// Asc sorts ascending.
	Asc Order = "asc"
	// Desc sorts descending.
	Desc Order = "desc"
)

// IsValid reports whether o is a known order.
func (o Order) IsValid() bool { return o == Asc || o == Desc }

// Request is a validated search request. Construct via New only.
type Request struct {
	query     string
	tag       string
	scope     Scope
	sortBy    SortBy
	order     Order
	limit     int
	nextToken string
}

// New validates and normalizes search parameters.
// Defaults: scope=public, order=desc, sortBy=relevance when a query is
// present and createdAt otherwise. An out-of-range limit is rejected, not
// clamped, so callers never silently get a different page size than asked.
func New(query, tag string, scope Scope, sortBy SortBy, order Order, limit int, nextToken string) (Request, error) {
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	if scope == "" {
		scope = ScopePublic
	}
	if !scope.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown filter %q", domain.ErrValidation, scope)
	}
	if sortBy == "" {
		if query != "" {
			sortBy = SortRelevance
		} else {
			sortBy = SortCreatedAt
		}
	}
	if !sortBy.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown sortBy %q", domain.ErrValidation, sortBy)
	}
	if sortBy == SortRelevance && query == "" {
		// Relevance without a query has no score; fall back to recency.
		sortBy = SortCreatedAt
	}
	if order == "" {
		order = Desc
	}
	if !order.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown sortOrder %q", domain.ErrValidation, order)
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, fmt.Errorf("%w: limit must be between 1 and %d, got %d", domain.ErrValidation, MaxLimit, limit)
	}

	return Request{
		query:     query,
		tag:       strings.ToLower(strings.TrimSpace(tag)),
		scope:     scope,
		sortBy:    sortBy,
		order:     order,
		limit:     limit,
		nextToken: nextToken,
	}, nil
}

// Query returns the free-text query (trimmed; may be empty).
func (r *Request) Query() string { return r.query }

// Tag returns the exact-match tag filter (lower-cased; may be empty).
func (r *Request) Tag() string { return r.tag }

// Scope returns the candidate scope.
func (r *Request) Scope() Scope { return r.scope }

// SortBy returns the effective sort key.
func (r *Request) SortBy() SortBy { return r.sortBy }

// Order returns the sort direction.
func (r *Request) Order() Order { return r.order }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// NextToken returns the opaque pagination cursor (may be empty).
func (r *Request) NextToken() string { return r.nextToken }
