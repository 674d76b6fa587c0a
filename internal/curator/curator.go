// Package curator implements C7: turning reflector-proposed deltas into
// atomic playbook mutations, with same-batch conflict resolution,
// similarity-based add dedup, and an auto-deprecation sweep.
//
// The stage-then-atomically-land pipeline is adapted from the teacher's
// internal/pool/pool.go Stage/Promote/Reject/recordEvent. Apply itself
// writes no audit records; the engine appends chain events for the
// bullets the sweep auto-deprecates. Conflict resolution and the
// replace-expands-to-deprecate-plus-add step are new, grounded directly
// on spec.md §4.7 since no teacher file models multi-delta batches.
package curator

import (
	"time"

	"github.com/cass-memory/playbook/internal/lifecycle"
	"github.com/cass-memory/playbook/internal/scoring"
	"github.com/cass-memory/playbook/internal/taxonomy"
	"github.com/cass-memory/playbook/internal/types"
	"github.com/cass-memory/playbook/internal/validator"
)

// Policy bundles the tunables a curation pass needs.
type Policy struct {
	Lifecycle     lifecycle.Policy
	Validator     validator.Policy
	DedupThreshold float64
}

func DefaultPolicy() Policy {
	return Policy{
		Lifecycle:      lifecycle.DefaultPolicy(),
		Validator:      validator.DefaultPolicy(),
		DedupThreshold: 0.8,
	}
}

// Layers is the set of playbooks a curation pass may touch, keyed by
// scope. Curator mutates these in place.
type Layers struct {
	Global    *types.Playbook
	Workspace *types.Playbook
	Repo      *types.Playbook
}

func (l Layers) byScope(s types.Scope) *types.Playbook {
	switch s {
	case types.ScopeWorkspace:
		return l.Workspace
	case types.ScopeRepo:
		return l.Repo
	default:
		return l.Global
	}
}

// Warning is a non-fatal note produced during curation (e.g. a same-batch
// conflict, or an add absorbed by dedup).
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	DeltaID string `json:"deltaId,omitempty"`
}

// RejectedDelta records a delta that failed validation at the error
// level and was discarded.
type RejectedDelta struct {
	Delta types.Delta    `json:"delta"`
	Error *taxonomy.Error `json:"error"`
}

// Result summarizes one curation pass.
type Result struct {
	Applied        int             `json:"applied"`
	Warnings       []Warning       `json:"warnings"`
	Rejected       []RejectedDelta `json:"rejected"`
	TouchedLayers  []types.Scope   `json:"touchedLayers"`
	AutoDeprecated []string        `json:"autoDeprecated"`
}

// expand rewrites replace deltas into deprecate(old)+add(new), per
// spec.md §4.7, before conflict detection runs.
func expand(deltas []types.Delta) []types.Delta {
	out := make([]types.Delta, 0, len(deltas))
	for _, d := range deltas {
		if d.Op != types.DeltaReplace {
			out = append(out, d)
			continue
		}
		out = append(out, types.Delta{
			Op:     types.DeltaDeprecate,
			ID:     d.OldID,
			Reason: d.Reason,
			Scope:  d.Scope,
		})
		newBullet := d.NewBullet
		out = append(out, types.Delta{
			Op:            types.DeltaAdd,
			Bullet:        newBullet,
			Reason:        d.Reason,
			SourceSession: d.SourceSession,
			Scope:         d.Scope,
		})
	}
	return out
}

// targetID returns the id a delta ultimately mutates, for conflict
// detection across a batch.
func targetID(d types.Delta) string {
	switch d.Op {
	case types.DeltaAdd:
		if d.Bullet != nil {
			return d.Bullet.ID
		}
		return ""
	default:
		return d.ID
	}
}

// resolveConflicts keeps the first delta touching each id and drops the
// rest with a conflict warning (spec.md §4.7).
func resolveConflicts(deltas []types.Delta) ([]types.Delta, []Warning) {
	seen := make(map[string]bool)
	var kept []types.Delta
	var warnings []Warning
	for _, d := range deltas {
		id := targetID(d)
		if id == "" {
			kept = append(kept, d)
			continue
		}
		if seen[id] {
			warnings = append(warnings, Warning{Type: "conflict", Message: "dropped conflicting delta for " + id, DeltaID: id})
			continue
		}
		seen[id] = true
		kept = append(kept, d)
	}
	return kept, warnings
}

// Apply runs one reflect-and-curate pass: validate, dedup, mutate, then
// sweep for auto-deprecation across every layer present in layers.
func Apply(layers Layers, deltas []types.Delta, now time.Time, p Policy) Result {
	deltas = expand(deltas)
	deltas, conflictWarnings := resolveConflicts(deltas)

	res := Result{Warnings: conflictWarnings}
	touched := map[types.Scope]bool{}

	for _, d := range deltas {
		scope := d.Scope
		if scope == "" && d.Bullet != nil {
			scope = d.Bullet.Scope
		}
		if scope == "" {
			scope = types.ScopeGlobal
		}
		pb := layers.byScope(scope)
		if pb == nil {
			res.Rejected = append(res.Rejected, RejectedDelta{
				Delta: d,
				Error: taxonomy.New(taxonomy.InvalidInput, "no playbook loaded for scope "+string(scope)),
			})
			continue
		}

		switch d.Op {
		case types.DeltaAdd:
			if applyAdd(pb, d, now, p, &res) {
				touched[scope] = true
			}
		case types.DeltaUpdate:
			if applyUpdate(pb, d, now, &res) {
				touched[scope] = true
			}
		case types.DeltaInvert:
			if applyInvert(pb, d, now, &res) {
				touched[scope] = true
			}
		case types.DeltaDeprecate:
			if applyDeprecate(pb, d, now, &res) {
				touched[scope] = true
			}
		default:
			res.Rejected = append(res.Rejected, RejectedDelta{
				Delta: d,
				Error: taxonomy.New(taxonomy.InvalidInput, "unknown delta op"),
			})
		}
	}

	for _, scope := range []types.Scope{types.ScopeGlobal, types.ScopeWorkspace, types.ScopeRepo} {
		pb := layers.byScope(scope)
		if pb == nil {
			continue
		}
		for i := range pb.Bullets {
			b := &pb.Bullets[i]
			if b.State != types.StateActive || b.Pinned {
				continue
			}
			cause := autoDeprecateCause(*b, now, p.Lifecycle)
			if cause == "" {
				continue
			}
			if lifecycle.AutoDeprecate(b, now, p.Lifecycle, cause) {
				res.AutoDeprecated = append(res.AutoDeprecated, b.ID)
				touched[scope] = true
			}
		}
	}

	for scope, yes := range touched {
		if yes {
			res.TouchedLayers = append(res.TouchedLayers, scope)
		}
	}
	return res
}

func autoDeprecateCause(b types.Bullet, now time.Time, p lifecycle.Policy) string {
	if !lifecycle.ShouldAutoDeprecate(b, now, p) {
		return ""
	}
	score := scoring.EffectiveScore(b, now, p.Scoring)
	if score <= p.AutoDeprecateScore {
		return "decayed score below threshold"
	}
	return "harmful predominance"
}

func existingActiveInScope(pb *types.Playbook, excludeID string) []types.Bullet {
	var out []types.Bullet
	for _, b := range pb.Bullets {
		if b.State == types.StateActive && b.ID != excludeID {
			out = append(out, b)
		}
	}
	return out
}

func applyAdd(pb *types.Playbook, d types.Delta, now time.Time, p Policy, res *Result) bool {
	if d.Bullet == nil {
		res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.New(taxonomy.MissingRequired, "add delta missing bullet")})
		return false
	}
	bullet := *d.Bullet

	vr := validator.Validate(bullet.Content, bullet.Category, existingActiveInScope(pb, bullet.ID), p.Validator)
	if !vr.Valid {
		res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.New(taxonomy.InvalidInput, "bullet failed validation")})
		return false
	}

	if sim, matchID := validator.MaxSimilarity(bullet.Content, existingActiveInScope(pb, bullet.ID)); sim >= p.DedupThreshold {
		res.Warnings = append(res.Warnings, Warning{Type: "dedup", Message: "absorbed by existing bullet " + matchID, DeltaID: bullet.ID})
		return false
	}

	if bullet.ID == "" {
		id, err := types.NewID("b")
		if err != nil {
			res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.Wrap(taxonomy.InvalidInput, "add failed", err)})
			return false
		}
		bullet.ID = id
	}
	if bullet.CreatedAt.IsZero() {
		bullet.CreatedAt = now
	}
	bullet.UpdatedAt = now
	if bullet.ConfidenceDecayHalfLifeDays == 0 {
		bullet.ConfidenceDecayHalfLifeDays = types.DefaultHalfLifeDays
	}
	if bullet.Maturity == "" {
		bullet.Maturity = types.MaturityCandidate
	}
	if bullet.State == "" {
		bullet.State = types.StateActive
	}
	pb.Bullets = append(pb.Bullets, bullet)
	res.Applied++
	return true
}

func applyUpdate(pb *types.Playbook, d types.Delta, now time.Time, res *Result) bool {
	b := pb.FindBullet(d.ID)
	if b == nil {
		res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.New(taxonomy.BulletNotFound, d.ID)})
		return false
	}
	for k, v := range d.Patch {
		switch k {
		case "content":
			if s, ok := v.(string); ok {
				b.Content = s
			}
		case "category":
			if s, ok := v.(string); ok {
				b.Category = s
			}
		case "pinned":
			if bv, ok := v.(bool); ok {
				b.Pinned = bv
			}
		case "tags":
			if tags, ok := v.([]string); ok {
				b.Tags = tags
			}
		}
	}
	b.UpdatedAt = now
	res.Applied++
	return true
}

func applyDeprecate(pb *types.Playbook, d types.Delta, now time.Time, res *Result) bool {
	b := pb.FindBullet(d.ID)
	if b == nil {
		res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.New(taxonomy.BulletNotFound, d.ID)})
		return false
	}
	reason := d.Reason
	if reason == "" {
		reason = "deprecated by curator"
	}
	if err := lifecycle.Forget(b, now, reason); err != nil {
		res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.Wrap(taxonomy.InvalidInput, "deprecate failed", err)})
		return false
	}
	res.Applied++
	return true
}

func applyInvert(pb *types.Playbook, d types.Delta, now time.Time, res *Result) bool {
	b := pb.FindBullet(d.ID)
	if b == nil {
		res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.New(taxonomy.BulletNotFound, d.ID)})
		return false
	}
	reason := d.Reason
	if reason == "" {
		reason = "inverted by curator"
	}

	antiID, err := types.NewID("ap")
	if err != nil {
		res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.Wrap(taxonomy.InvalidInput, "invert failed", err)})
		return false
	}
	anti := types.NewBullet(antiID, now)
	anti.Content = "AVOID: " + b.Content
	anti.Type = types.TypeAntiPattern
	anti.IsNegative = true
	anti.Category = b.Category
	anti.Scope = b.Scope
	anti.Kind = b.Kind
	anti.Source = types.SourceLearned

	if err := lifecycle.Forget(b, now, reason); err != nil {
		res.Rejected = append(res.Rejected, RejectedDelta{Delta: d, Error: taxonomy.Wrap(taxonomy.InvalidInput, "invert failed", err)})
		return false
	}
	b.ReplacedBy = anti.ID
	pb.Bullets = append(pb.Bullets, anti)
	res.Applied++
	return true
}
