// Package ranker implements C6: keyword-similarity ranking of active
// bullets against a free-text task, scope/category filtering, and
// anti-pattern separation.
//
// Tokenize is adapted from the teacher's internal/search/index.go
// (lowercase + strings.FieldsFunc splitting on non-alphanumeric runs); the
// sort-by-score-then-lexical-tiebreak-then-truncate pipeline there is the
// direct analog of Rank's final steps, generalized from term-count scoring
// to cosine-of-bag-of-words with a decayed-score multiplier. The
// tie-break chain (helpfulCount -> updatedAt -> id) follows the teacher's
// internal/types/memrl_policy.go EvaluateMemRLPolicy three-level
// specificity -> priority -> lexical-id tie-break pattern.
package ranker

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cass-memory/playbook/internal/merge"
	"github.com/cass-memory/playbook/internal/scoring"
	"github.com/cass-memory/playbook/internal/taxonomy"
	"github.com/cass-memory/playbook/internal/types"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "is": true, "are": true, "be": true, "this": true, "that": true,
	"it": true, "as": true, "by": true,
}

// antiPatternMarkers are ignored when matching anti-pattern content against
// a task string (spec.md §4.6 step 2).
var antiPatternMarkers = map[string]bool{"avoid": true, "never": true}

// Tokenize lowercases, strips punctuation, splits on whitespace, and drops
// stopwords — the same shape as the teacher's search/index.go tokenize.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] || antiPatternMarkers[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Similarity computes the cosine-of-bag-of-words overlap between a task
// string and bullet content: |intersection| / sqrt(|taskTokens|*|bulletTokens|).
func Similarity(task, content string) float64 {
	taskTokens := tokenSet(Tokenize(task))
	bulletTokens := tokenSet(Tokenize(content))
	if len(taskTokens) == 0 || len(bulletTokens) == 0 {
		return 0
	}
	intersection := 0
	for t := range taskTokens {
		if bulletTokens[t] {
			intersection++
		}
	}
	return float64(intersection) / math.Sqrt(float64(len(taskTokens))*float64(len(bulletTokens)))
}

// Filters narrows the candidate set before ranking.
type Filters struct {
	Scope     types.Scope
	Category  string
	Limit     int
	Threshold float64
}

// DefaultFilters fills spec.md §4.6's defaults: limit=10, threshold=0.2.
func DefaultFilters() Filters {
	return Filters{Limit: 10, Threshold: 0.2}
}

// Ranked is one scored result.
type Ranked struct {
	Bullet    types.Bullet
	Layer     types.Scope
	Score     float64
	Similarity float64
}

// CassStatus reports the degraded-mode marker for the session store.
type CassStatus struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Result is the shaped response of a Rank call.
type Result struct {
	RelevantBullets []Ranked            `json:"relevantBullets"`
	AntiPatterns    []Ranked            `json:"antiPatterns"`
	HistorySnippets []types.SessionHit  `json:"historySnippets"`
	Degraded        *struct{ Cass CassStatus `json:"cass"` } `json:"degraded,omitempty"`
	Mode            string              `json:"mode"`
}

// Clamp bounds the decayed effective score multiplier to [0.1, 2.0]
// (spec.md §4.6 step 3).
func clamp(score float64) float64 {
	if score < 0.1 {
		return 0.1
	}
	if score > 2.0 {
		return 2.0
	}
	return score
}

func tieBreakLess(a, b Ranked) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Bullet.HelpfulCount != b.Bullet.HelpfulCount {
		return a.Bullet.HelpfulCount > b.Bullet.HelpfulCount
	}
	if !a.Bullet.UpdatedAt.Equal(b.Bullet.UpdatedAt) {
		return a.Bullet.UpdatedAt.After(b.Bullet.UpdatedAt)
	}
	return a.Bullet.ID < b.Bullet.ID
}

func rankCandidates(entries []merge.Entry, task string, now time.Time, p scoring.Policy, f Filters) []Ranked {
	var out []Ranked
	for _, e := range entries {
		sim := Similarity(task, e.Bullet.Content)
		if sim < f.Threshold {
			continue
		}
		decayed := clamp(scoring.EffectiveScore(e.Bullet, now, p))
		out = append(out, Ranked{
			Bullet:     e.Bullet,
			Layer:      e.Layer,
			Similarity: sim,
			Score:      sim * decayed,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return tieBreakLess(out[i], out[j]) })
	return out
}

// Rank implements spec.md §4.6: filters active non-anti-pattern bullets by
// scope/category, scores them against task, ranks, and separately ranks
// anti-patterns. An unavailable session store degrades the call rather
// than failing it.
func Rank(ctx context.Context, view merge.View, task string, f Filters, now time.Time, p scoring.Policy, store types.SessionStore) (Result, error) {
	if f.Limit <= 0 {
		return Result{}, taxonomy.New(taxonomy.InvalidInput, "limit must be positive")
	}
	if f.Threshold < 0 || f.Threshold > 1 {
		return Result{}, taxonomy.New(taxonomy.InvalidInput, "threshold must be within [0,1]")
	}

	scoped := view.FilterScope(f.Scope)

	var rules, antiPatterns []merge.Entry
	for _, e := range scoped.Entries {
		if e.Bullet.State != types.StateActive {
			continue
		}
		if f.Category != "" && e.Bullet.Category != f.Category {
			continue
		}
		if e.Bullet.IsNegative {
			antiPatterns = append(antiPatterns, e)
		} else {
			rules = append(rules, e)
		}
	}

	ranked := rankCandidates(rules, task, now, p, f)
	if len(ranked) > f.Limit {
		ranked = ranked[:f.Limit]
	}

	apFilters := f
	apFilters.Limit = 5
	rankedAP := rankCandidates(antiPatterns, task, now, p, apFilters)
	if len(rankedAP) > 5 {
		rankedAP = rankedAP[:5]
	}

	result := Result{RelevantBullets: ranked, AntiPatterns: rankedAP, Mode: "keyword"}

	if store == nil {
		result.Degraded = &struct {
			Cass CassStatus `json:"cass"`
		}{Cass: CassStatus{Available: false, Reason: "no session store configured"}}
		result.HistorySnippets = []types.SessionHit{}
		return result, nil
	}

	hits, err := store.Query(ctx, task, map[string]any{"scope": f.Scope})
	if err != nil {
		result.Degraded = &struct {
			Cass CassStatus `json:"cass"`
		}{Cass: CassStatus{Available: false, Reason: err.Error()}}
		result.HistorySnippets = []types.SessionHit{}
		return result, nil
	}
	result.HistorySnippets = hits
	return result, nil
}
