package search

import (
	"sort"
	"strings"

	"github.com/gravyprompts/gravyd/internal/domain/search/cursor"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
	"github.com/gravyprompts/gravyd/internal/domain/search/result"
	"github.com/gravyprompts/gravyd/internal/domain/template"
)

// ranked is a candidate annotated with its sort position.
type ranked struct {
	res result.Result
	// score is the primary key for relevance sorts.
	score float64
	// intKey is the primary key for createdAt (UnixNano) and counter sorts.
	intKey int64
	// createdAt (UnixNano) and id break exact ties: createdAt desc, id asc.
	// Together with the unique id this makes the order total, which keeps
	// repeated calls byte-identical and pagination resumable.
	createdAt int64
	id        string
}

// rank applies the tag filter and computes sort keys over the candidate set.
// With a non-empty query, candidates with no textual match are dropped
// entirely; with an empty query every candidate is kept and keyed by the
// requested sort field.
func rank(candidates []template.Template, req *request.Request) []ranked {
	query := strings.ToLower(req.Query())

	out := make([]ranked, 0, len(candidates))
	for i := range candidates {
		t := &candidates[i]

		if req.Tag() != "" && !t.HasTag(req.Tag()) {
			continue
		}

		entry := ranked{
			createdAt: t.CreatedAt().UnixNano(),
			id:        t.ID(),
		}

		if query != "" {
			s, ok := score(t, query)
			if !ok {
				continue
			}
			entry.score = s
			entry.res = result.New(*t, s)
		} else {
			entry.res = result.New(*t, 0)
		}

		switch req.SortBy() {
		case request.SortRelevance:
			// score already set
		case request.SortCreatedAt:
			entry.intKey = entry.createdAt
		case request.SortViewCount:
			entry.intKey = t.ViewCount()
		case request.SortUseCount:
			entry.intKey = t.UseCount()
		}

		out = append(out, entry)
	}

	return out
}

// before reports whether a sorts before b under the request's sort key and
// order. Exact primary-key ties break by createdAt desc, then id asc,
// independent of the requested order.
func before(a, b *ranked, sortBy request.SortBy, order request.Order) bool {
	var cmp int
	if sortBy == request.SortRelevance {
		switch {
		case a.score < b.score:
			cmp = -1
		case a.score > b.score:
			cmp = 1
		}
	} else {
		switch {
		case a.intKey < b.intKey:
			cmp = -1
		case a.intKey > b.intKey:
			cmp = 1
		}
	}

	if cmp != 0 {
		if order == request.Asc {
			return cmp < 0
		}
		return cmp > 0
	}

	if a.createdAt != b.createdAt {
		return a.createdAt > b.createdAt
	}
	return a.id < b.id
}

// paginate resumes at the cursor position (exclusive) and cuts one page.
// The cursor is compared by sort position rather than looked up by identity,
// so a page boundary survives candidates being inserted or deleted between
// calls: resumption is read-committed per request, with no isolation across
// pages.
func paginate(entries []ranked, req *request.Request) ([]result.Result, string, error) {
	start := 0
	if req.NextToken() != "" {
		cur, err := cursor.Decode(req.NextToken(), req.SortBy())
		if err != nil {
			return nil, "", err
		}
		mark := ranked{
			score:     cur.Score,
			intKey:    cur.IntKey,
			createdAt: cur.CreatedAt,
			id:        cur.ID,
		}
		for start < len(entries) && !before(&mark, &entries[start], req.SortBy(), req.Order()) {
			start++
		}
	}

	rest := entries[start:]
	if len(rest) <= req.Limit() {
		return results(rest), "", nil
	}

	page := rest[:req.Limit()]
	last := page[len(page)-1]
	token := cursor.Encode(cursor.Cursor{
		SortBy:    req.SortBy(),
		Score:     last.score,
		IntKey:    last.intKey,
		CreatedAt: last.createdAt,
		ID:        last.id,
	})

	return results(page), token, nil
}

// run executes the full pipeline: filter, score, sort, paginate.
func run(candidates []template.Template, req *request.Request) ([]result.Result, string, error) {
	entries := rank(candidates, req)

	sort.Slice(entries, func(i, j int) bool {
		return before(&entries[i], &entries[j], req.SortBy(), req.Order())
	})

	return paginate(entries, req)
}

func results(entries []ranked) []result.Result {
	out := make([]result.Result, len(entries))
	for i := range entries {
		out[i] = entries[i].res
	}
	return out
}
