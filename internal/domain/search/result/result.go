// Package result defines a single search hit.
package result

import "github.com/gravyprompts/gravyd/internal/domain/template"

// Result is a single search hit: a template plus its computed relevance
// score. The score is only meaningful for relevance-sorted searches.
type Result struct {
	tpl   template.Template
	score float64
}

// New creates a search result.
func New(tpl template.Template, score float64) Result {
	return Result{tpl: tpl, score: score}
}

// Template returns the matched template record.
func (r *Result) Template() template.Template { return r.tpl }

// Score returns the relevance score (0 for non-relevance sorts).
func (r *Result) Score() float64 { return r.score }
