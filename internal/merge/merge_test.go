package merge

import (
	"testing"

	"github.com/cass-memory/playbook/internal/types"
)

func TestMergePrecedenceRepoWinsOverGlobal(t *testing.T) {
	global := &types.Playbook{Bullets: []types.Bullet{
		{ID: "x", Content: "A", Scope: types.ScopeGlobal},
	}}
	repo := &types.Playbook{Bullets: []types.Bullet{
		{ID: "x", Content: "B", Scope: types.ScopeRepo},
	}}

	v := Merge(Layers{Global: global, Repo: repo})
	if len(v.Entries) != 1 {
		t.Fatalf("expected 1 merged entry, got %d", len(v.Entries))
	}
	if v.Entries[0].Bullet.Content != "B" {
		t.Errorf("Content = %q, want B (repo wins)", v.Entries[0].Bullet.Content)
	}
	if v.Entries[0].Layer != types.ScopeRepo {
		t.Errorf("Layer = %v, want repo", v.Entries[0].Layer)
	}
}

func TestFilterScopeGlobalExcludesOthers(t *testing.T) {
	v := View{Entries: []Entry{
		{Bullet: types.Bullet{ID: "g", Scope: types.ScopeGlobal}},
		{Bullet: types.Bullet{ID: "w", Scope: types.ScopeWorkspace}},
		{Bullet: types.Bullet{ID: "r", Scope: types.ScopeRepo}},
	}}
	filtered := v.FilterScope(types.ScopeGlobal)
	if len(filtered.Entries) != 1 || filtered.Entries[0].Bullet.Scope != types.ScopeGlobal {
		t.Errorf("unexpected filtered entries: %+v", filtered.Entries)
	}
}

func TestFilterScopeAllReturnsEverything(t *testing.T) {
	v := View{Entries: []Entry{
		{Bullet: types.Bullet{ID: "g", Scope: types.ScopeGlobal}},
		{Bullet: types.Bullet{ID: "r", Scope: types.ScopeRepo}},
	}}
	if got := v.FilterScope(""); len(got.Entries) != 2 {
		t.Errorf("expected scope=all to return all entries, got %d", len(got.Entries))
	}
}
