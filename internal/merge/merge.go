// Package merge implements C5: layered resolution of up to three playbook
// files (global, workspace, repo) into a read-only merged view.
//
// The precedence ordering is adapted from the teacher's
// internal/ratchet/location.go, whose LocationType/SearchOrder
// (crew > rig > town > plugins, most-specific-to-most-general) is the
// direct structural analog of repo > workspace > global here.
package merge

import "github.com/cass-memory/playbook/internal/types"

// Entry is one bullet in a merged view, carrying an opaque back-pointer to
// its owning layer so that a feedback write routes to the correct file
// without the runtime holding a reference into another layer's memory
// (spec.md §9).
type Entry struct {
	Bullet types.Bullet
	Layer  types.Scope
}

// View is the read-only result of merging up to three layers.
type View struct {
	Entries []Entry
}

// layerOrder is most-specific-to-most-general, the direct analog of the
// teacher's crew > rig > town > plugins SearchOrder.
var layerOrder = []types.Scope{types.ScopeRepo, types.ScopeWorkspace, types.ScopeGlobal}

// Layers bundles the three optional playbook files by scope.
type Layers struct {
	Global    *types.Playbook
	Workspace *types.Playbook
	Repo      *types.Playbook
}

func (l Layers) byScope(s types.Scope) *types.Playbook {
	switch s {
	case types.ScopeGlobal:
		return l.Global
	case types.ScopeWorkspace:
		return l.Workspace
	case types.ScopeRepo:
		return l.Repo
	}
	return nil
}

// Merge produces a unified view. A bullet is kept under the scope it
// declares; when the same id appears in more than one layer (only via
// import, per spec.md §4.5), the most specific layer wins per layerOrder.
// Deprecation recorded in one layer never propagates to another: a
// retired copy in a more specific layer gives way to an active copy of
// the same id in a broader layer. Merge does not filter by state; retired
// bullets stay in the view and the ranker drops them.
func Merge(l Layers) View {
	byID := make(map[string]Entry)
	order := make([]string, 0)

	for _, scope := range layerOrder {
		pb := l.byScope(scope)
		if pb == nil {
			continue
		}
		for _, b := range pb.Bullets {
			if prev, seen := byID[b.ID]; seen {
				// A more specific layer already claimed this id. Its
				// deprecation stays local: an active copy here replaces
				// a retired one there.
				if prev.Bullet.State != types.StateRetired || b.State != types.StateActive {
					continue
				}
				byID[b.ID] = Entry{Bullet: b, Layer: scope}
				continue
			}
			byID[b.ID] = Entry{Bullet: b, Layer: scope}
			order = append(order, b.ID)
		}
	}

	entries := make([]Entry, 0, len(order))
	for _, id := range order {
		entries = append(entries, byID[id])
	}
	return View{Entries: entries}
}

// FilterScope narrows a view to bullets visible for the requested query
// scope. "all" (empty string) returns every bullet; a specific scope
// returns only bullets declared with that scope (spec.md §4.5).
func (v View) FilterScope(requested types.Scope) View {
	if requested == "" {
		return v
	}
	out := View{}
	for _, e := range v.Entries {
		if e.Bullet.Scope == requested {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}
