package curator

import (
	"testing"
	"time"

	"github.com/cass-memory/playbook/internal/types"
)

func newGlobalLayer(bullets ...types.Bullet) Layers {
	return Layers{Global: &types.Playbook{Bullets: bullets}}
}

func TestApplyAddAppendsBullet(t *testing.T) {
	now := time.Now().UTC()
	layers := newGlobalLayer()
	deltas := []types.Delta{
		{Op: types.DeltaAdd, Bullet: &types.Bullet{
			ID: "b-1", Content: "When writing a database query, always validate user input before executing it.",
			Scope: types.ScopeGlobal,
		}},
	}
	res := Apply(layers, deltas, now, DefaultPolicy())
	if res.Applied != 1 {
		t.Fatalf("Applied = %d, want 1", res.Applied)
	}
	if layers.Global.FindBullet("b-1") == nil {
		t.Fatal("expected bullet b-1 to be added")
	}
}

func TestApplyAddMintsIDWhenAbsent(t *testing.T) {
	now := time.Now().UTC()
	layers := newGlobalLayer()
	deltas := []types.Delta{
		{Op: types.DeltaAdd, SourceSession: "s-1", Bullet: &types.Bullet{
			Content: "When editing a config file, always validate the schema before saving.",
			Scope:   types.ScopeGlobal,
		}},
		{Op: types.DeltaAdd, SourceSession: "s-2", Bullet: &types.Bullet{
			Content: "When shipping a migration, always take a backup beforehand.",
			Scope:   types.ScopeGlobal,
		}},
	}
	res := Apply(layers, deltas, now, DefaultPolicy())
	if res.Applied != 2 {
		t.Fatalf("Applied = %d, want 2", res.Applied)
	}
	ids := make(map[string]bool)
	for _, b := range layers.Global.Bullets {
		if b.ID == "" {
			t.Fatal("expected a minted id, got empty string")
		}
		if ids[b.ID] {
			t.Fatalf("expected distinct minted ids, got duplicate %q", b.ID)
		}
		ids[b.ID] = true
	}
}

func TestApplyAddDedupsSimilarContent(t *testing.T) {
	now := time.Now().UTC()
	existing := types.Bullet{
		ID: "b-1", Content: "When writing a database query, always validate user input before executing it.",
		Scope: types.ScopeGlobal, State: types.StateActive,
	}
	layers := newGlobalLayer(existing)
	deltas := []types.Delta{
		{Op: types.DeltaAdd, Bullet: &types.Bullet{
			ID: "b-2", Content: "When writing a database query, always validate user input before running it.",
			Scope: types.ScopeGlobal,
		}},
	}
	res := Apply(layers, deltas, now, DefaultPolicy())
	if res.Applied != 0 {
		t.Errorf("Applied = %d, want 0 (dedup no-op)", res.Applied)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a dedup warning")
	}
	if layers.Global.FindBullet("b-2") != nil {
		t.Error("did not expect b-2 to be added")
	}
}

func TestApplyConflictResolutionKeepsFirst(t *testing.T) {
	now := time.Now().UTC()
	existing := types.Bullet{ID: "b-1", Content: "old content", Scope: types.ScopeGlobal, State: types.StateActive}
	layers := newGlobalLayer(existing)
	deltas := []types.Delta{
		{Op: types.DeltaUpdate, ID: "b-1", Patch: map[string]any{"content": "first update"}},
		{Op: types.DeltaUpdate, ID: "b-1", Patch: map[string]any{"content": "second update"}},
	}
	res := Apply(layers, deltas, now, DefaultPolicy())
	b := layers.Global.FindBullet("b-1")
	if b.Content != "first update" {
		t.Errorf("Content = %q, want first update to win", b.Content)
	}
	foundConflict := false
	for _, w := range res.Warnings {
		if w.Type == "conflict" {
			foundConflict = true
		}
	}
	if !foundConflict {
		t.Error("expected a conflict warning")
	}
}

func TestApplyReplaceExpandsToDeprecateAndAdd(t *testing.T) {
	now := time.Now().UTC()
	old := types.Bullet{ID: "old-1", Content: "outdated rule", Scope: types.ScopeGlobal, State: types.StateActive}
	layers := newGlobalLayer(old)
	deltas := []types.Delta{
		{Op: types.DeltaReplace, OldID: "old-1", Reason: "superseded", NewBullet: &types.Bullet{
			ID: "new-1", Content: "When deploying, always run the smoke test suite before promoting.", Scope: types.ScopeGlobal,
		}},
	}
	res := Apply(layers, deltas, now, DefaultPolicy())
	if res.Applied != 2 {
		t.Fatalf("Applied = %d, want 2 (deprecate + add)", res.Applied)
	}
	if !layers.Global.FindBullet("old-1").Deprecated {
		t.Error("expected old-1 to be deprecated")
	}
	if layers.Global.FindBullet("new-1") == nil {
		t.Error("expected new-1 to be added")
	}
}

func TestApplyInvertCreatesAntiPattern(t *testing.T) {
	now := time.Now().UTC()
	b := types.Bullet{ID: "b-1", Content: "use global mutable state", Scope: types.ScopeGlobal, State: types.StateActive}
	layers := newGlobalLayer(b)
	deltas := []types.Delta{{Op: types.DeltaInvert, ID: "b-1", Reason: "caused a bug"}}
	res := Apply(layers, deltas, now, DefaultPolicy())
	if res.Applied != 1 {
		t.Fatalf("Applied = %d, want 1", res.Applied)
	}
	orig := layers.Global.FindBullet("b-1")
	if !orig.Deprecated || orig.ReplacedBy == "" {
		t.Fatal("expected original bullet deprecated with replacedBy set")
	}
	anti := layers.Global.FindBullet(orig.ReplacedBy)
	if anti == nil || !anti.IsNegative {
		t.Fatal("expected a linked anti-pattern bullet")
	}
}

func TestApplyAutoDeprecationSweep(t *testing.T) {
	now := time.Now().UTC()
	harmed := types.Bullet{
		ID: "b-1", Content: "risky rule", Scope: types.ScopeGlobal, State: types.StateActive,
		HarmfulCount: 2, HelpfulCount: 0,
		FeedbackEvents: []types.FeedbackEvent{
			{Type: types.FeedbackHarmful, Timestamp: now},
			{Type: types.FeedbackHarmful, Timestamp: now},
		},
	}
	other := types.Bullet{ID: "b-2", Content: "unrelated trigger rule", Scope: types.ScopeGlobal, State: types.StateActive}
	layers := newGlobalLayer(harmed, other)
	deltas := []types.Delta{{Op: types.DeltaUpdate, ID: "b-2", Patch: map[string]any{"content": "unrelated trigger rule v2"}}}
	res := Apply(layers, deltas, now, DefaultPolicy())
	if len(res.AutoDeprecated) != 1 || res.AutoDeprecated[0] != "b-1" {
		t.Fatalf("expected b-1 to be auto-deprecated, got %v", res.AutoDeprecated)
	}
	if !layers.Global.FindBullet("b-1").Deprecated {
		t.Error("expected b-1.Deprecated == true")
	}
}

func TestApplyRejectsUnknownBulletUpdate(t *testing.T) {
	now := time.Now().UTC()
	layers := newGlobalLayer()
	deltas := []types.Delta{{Op: types.DeltaUpdate, ID: "missing", Patch: map[string]any{"content": "x"}}}
	res := Apply(layers, deltas, now, DefaultPolicy())
	if len(res.Rejected) != 1 {
		t.Fatalf("expected 1 rejected delta, got %d", len(res.Rejected))
	}
}
