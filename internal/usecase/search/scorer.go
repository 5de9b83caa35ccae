package search

import (
	"math"
	"strings"

	"github.com/gravyprompts/gravyd/internal/domain/template"
)

// Relevance point values. Title buckets are exclusive (highest wins), tag
// points accumulate across tags, content adds a position-decayed bonus.
const (
	titleExactPoints     = 100
	titlePrefixPoints    = 70
	titleSubstringPoints = 50
	titleFuzzyPoints     = 30

	tagExactPoints     = 40
	tagSubstringPoints = 20

	contentBasePoints = 10
	// contentBonusDecay is the number of characters per lost bonus point;
	// the bonus reaches zero at position 1000 and beyond.
	contentBonusDecay = 100

	// popularityCap bounds the view/use boost so popularity breaks ties but
	// never outweighs a textual match.
	popularityCap = 7.0
)

// score computes the relevance of a template against a non-empty, lower-cased
// query. The boolean reports whether the template matched textually at all:
// popularity alone never admits a template into relevance results.
func score(t *template.Template, query string) (float64, bool) {
	title := strings.ToLower(t.Title())

	var points float64
	matched := false

	switch {
	case title == query:
		points += titleExactPoints
		matched = true
	case strings.HasPrefix(title, query):
		points += titlePrefixPoints
		matched = true
	case strings.Contains(title, query):
		points += titleSubstringPoints
		matched = true
	case fuzzyTitleMatch(title, query):
		points += titleFuzzyPoints
		matched = true
	}

	for _, tag := range t.Tags() {
		switch {
		case tag == query:
			points += tagExactPoints
			matched = true
		case strings.Contains(tag, query):
			points += tagSubstringPoints
			matched = true
		}
	}

	content := strings.ToLower(template.StripMarkup(t.Content()))
	if idx := strings.Index(content, query); idx >= 0 {
		points += contentBasePoints + positionBonus(idx)
		matched = true
	}

	if !matched {
		return 0, false
	}

	return points + popularityBoost(t.ViewCount(), t.UseCount()), true
}

// positionBonus decays from 10 to 0 as the first match moves from the start
// of the content to position 1000. Monotonically non-increasing.
func positionBonus(idx int) float64 {
	bonus := contentBasePoints - idx/contentBonusDecay
	if bonus < 0 {
		return 0
	}
	return float64(bonus)
}

// popularityBoost maps view/use counts to at most popularityCap points.
// Log-scaled so early traction matters and whales do not dominate; uses are
// weighted double since populating a template is a stronger signal than
// viewing it. Monotone in both counts.
func popularityBoost(views, uses int64) float64 {
	boost := math.Log2(1+float64(views))/2 + math.Log2(1+float64(uses))
	return math.Min(popularityCap, boost)
}

// fuzzyTitleMatch tolerates typos: the Levenshtein distance between title and
// query must be within max(1, len(query)/4) edits.
func fuzzyTitleMatch(title, query string) bool {
	threshold := len([]rune(query)) / 4
	if threshold < 1 {
		threshold = 1
	}
	return levenshtein(title, query) <= threshold
}

// levenshtein computes edit distance over runes with the classic two-row DP.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
