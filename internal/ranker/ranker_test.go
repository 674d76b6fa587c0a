package ranker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cass-memory/playbook/internal/merge"
	"github.com/cass-memory/playbook/internal/scoring"
	"github.com/cass-memory/playbook/internal/types"
)

func TestSimilarityIgnoresAntiPatternMarkers(t *testing.T) {
	s := Similarity("validate user input", "AVOID: never trust user input without validation")
	want := Similarity("validate user input", "trust user input without validation")
	if s <= 0 || s != want {
		t.Errorf("expected positive similarity equal to the marker-free %v, got %v", want, s)
	}
}

func TestRankDegradesCleanlyWithoutSessionStore(t *testing.T) {
	now := time.Now().UTC()
	view := merge.View{Entries: []merge.Entry{
		{Layer: types.ScopeGlobal, Bullet: types.Bullet{
			ID: "b-1", Content: "Always validate user input before using it in a query.",
			State: types.StateActive, UpdatedAt: now,
		}},
	}}

	result, err := Rank(context.Background(), view, "validate user input", DefaultFilters(), now, scoring.DefaultPolicy(), nil)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(result.RelevantBullets) != 1 {
		t.Fatalf("expected 1 relevant bullet, got %d", len(result.RelevantBullets))
	}
	if result.Degraded == nil || result.Degraded.Cass.Available {
		t.Errorf("expected degraded marker with cass unavailable")
	}
	if len(result.HistorySnippets) != 0 {
		t.Errorf("expected empty history snippets")
	}
}

type stubStore struct {
	err error
}

func (s stubStore) Query(ctx context.Context, query string, filters map[string]any) ([]types.SessionHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []types.SessionHit{{SourcePath: "x", Snippet: "y"}}, nil
}

func TestRankSessionStoreFailureDegradesNotFails(t *testing.T) {
	now := time.Now().UTC()
	view := merge.View{}
	result, err := Rank(context.Background(), view, "task", DefaultFilters(), now, scoring.DefaultPolicy(), stubStore{err: errors.New("unreachable")})
	if err != nil {
		t.Fatalf("Rank should not fail on store error: %v", err)
	}
	if result.Degraded == nil || result.Degraded.Cass.Available {
		t.Error("expected degraded marker on store failure")
	}
}

func TestRankInvalidLimit(t *testing.T) {
	f := DefaultFilters()
	f.Limit = 0
	if _, err := Rank(context.Background(), merge.View{}, "x", f, time.Now(), scoring.DefaultPolicy(), nil); err == nil {
		t.Error("expected INVALID_INPUT for non-positive limit")
	}
}

func TestRankScopeGlobalExcludesOtherScopes(t *testing.T) {
	now := time.Now().UTC()
	view := merge.View{Entries: []merge.Entry{
		{Layer: types.ScopeRepo, Bullet: types.Bullet{ID: "r", Content: "repo rule about testing", Scope: types.ScopeRepo, State: types.StateActive}},
		{Layer: types.ScopeGlobal, Bullet: types.Bullet{ID: "g", Content: "global rule about testing", Scope: types.ScopeGlobal, State: types.StateActive}},
	}}
	f := DefaultFilters()
	f.Scope = types.ScopeGlobal
	result, err := Rank(context.Background(), view, "testing", f, now, scoring.DefaultPolicy(), nil)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	for _, r := range result.RelevantBullets {
		if r.Bullet.Scope != types.ScopeGlobal {
			t.Errorf("found non-global bullet %q in scope=global result", r.Bullet.ID)
		}
	}
}
