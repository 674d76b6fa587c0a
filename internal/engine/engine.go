// Package engine wires C1 Store, C2 Scoring, C3 Ledger, C4 Lifecycle,
// C5 Merger, C6 Ranker, C7 Curator, and C8 Validator into the three
// public operations a caller (CLI or otherwise) invokes: Retrieve,
// Feedback, and ReflectAndCurate.
//
// The per-path-mutex, load-mutate-save shape matches the teacher's
// internal/storage FileStorage: every call that mutates state loads the
// relevant layer(s) fresh, mutates in memory, and atomically saves before
// returning, so no core operation leaves a torn write.
package engine

import (
	"context"

	"github.com/cass-memory/playbook/internal/curator"
	"github.com/cass-memory/playbook/internal/ledger"
	"github.com/cass-memory/playbook/internal/lifecycle"
	"github.com/cass-memory/playbook/internal/merge"
	"github.com/cass-memory/playbook/internal/ranker"
	"github.com/cass-memory/playbook/internal/scoring"
	"github.com/cass-memory/playbook/internal/store"
	"github.com/cass-memory/playbook/internal/taxonomy"
	"github.com/cass-memory/playbook/internal/types"
)

// Paths locates the playbook file for each layer. Workspace and Repo may
// be empty, in which case that layer is simply absent from the merge.
type Paths struct {
	Global    string
	Workspace string
	Repo      string
	Outcomes  string
	Blocked   string
	Chain     string
	DiaryDir  string
}

// Engine is the top-level facade over the eight components. Validator
// policy lives on Curator (curator.Policy.Validator), since the only
// caller of the Validator is the curation pipeline.
type Engine struct {
	Paths     Paths
	Store     *store.Store
	Clock     types.Clock
	Session   types.SessionStore
	Scoring   scoring.Policy
	Lifecycle lifecycle.Policy
	Curator   curator.Policy
}

// New builds an Engine with default policies and a fresh Store.
func New(paths Paths, session types.SessionStore) *Engine {
	return &Engine{
		Paths:     paths,
		Store:     store.New(),
		Clock:     types.SystemClock{},
		Session:   session,
		Scoring:   scoring.DefaultPolicy(),
		Lifecycle: lifecycle.DefaultPolicy(),
		Curator:   curator.DefaultPolicy(),
	}
}

func (e *Engine) loadLayers() (merge.Layers, error) {
	global, err := e.Store.Load(e.Paths.Global)
	if err != nil {
		return merge.Layers{}, err
	}
	layers := merge.Layers{Global: global}
	if e.Paths.Workspace != "" {
		ws, err := e.Store.Load(e.Paths.Workspace)
		if err != nil {
			return merge.Layers{}, err
		}
		layers.Workspace = ws
	}
	if e.Paths.Repo != "" {
		repo, err := e.Store.Load(e.Paths.Repo)
		if err != nil {
			return merge.Layers{}, err
		}
		layers.Repo = repo
	}
	return layers, nil
}

func (e *Engine) pathFor(scope types.Scope) string {
	switch scope {
	case types.ScopeWorkspace:
		return e.Paths.Workspace
	case types.ScopeRepo:
		return e.Paths.Repo
	default:
		return e.Paths.Global
	}
}

// Retrieve implements the Retrieve control flow: merge layers, rank
// against task, return the shaped result.
func (e *Engine) Retrieve(ctx context.Context, task string, f ranker.Filters) (ranker.Result, error) {
	layers, err := e.loadLayers()
	if err != nil {
		return ranker.Result{}, err
	}
	view := merge.Merge(layers)
	return ranker.Rank(ctx, view, task, f, e.Clock.Now(), e.Scoring, e.Session)
}

// FeedbackInput describes one helpful/harmful vote on a bullet.
type FeedbackInput struct {
	BulletID    string
	Type        types.FeedbackType
	SessionPath string
	Reason      string
}

// findOwner scans repo, then workspace, then global for the layer holding
// bulletID — the same most-specific-first precedence as
// merge.layerOrder, so a feedback/forget/undo call mutates the most
// specific copy of a bullet id that appears in more than one layer.
func findOwner(layers merge.Layers, bulletID string) (*types.Playbook, types.Scope, *types.Bullet) {
	for _, scope := range []types.Scope{types.ScopeRepo, types.ScopeWorkspace, types.ScopeGlobal} {
		pb := layerFor(layers, scope)
		if pb == nil {
			continue
		}
		if b := pb.FindBullet(bulletID); b != nil {
			return pb, scope, b
		}
	}
	return nil, "", nil
}

// Feedback implements the Feedback control flow: find the owning layer,
// append the event, recompute maturity, write just that layer.
func (e *Engine) Feedback(in FeedbackInput) (*types.Bullet, error) {
	layers, err := e.loadLayers()
	if err != nil {
		return nil, err
	}

	owner, ownerScope, b := findOwner(layers, in.BulletID)
	if owner == nil {
		return nil, taxonomy.New(taxonomy.BulletNotFound, in.BulletID)
	}

	now := e.Clock.Now()
	reason, context := types.NormalizeReason(in.Reason)
	event := types.FeedbackEvent{
		Type:        in.Type,
		Timestamp:   now,
		SessionPath: in.SessionPath,
		Reason:      reason,
		Context:     context,
	}
	b.FeedbackEvents = append(b.FeedbackEvents, event)
	switch in.Type {
	case types.FeedbackHelpful:
		b.HelpfulCount++
	case types.FeedbackHarmful:
		b.HarmfulCount++
	}
	b.UpdatedAt = now

	lifecycle.EvaluateAfterFeedback(b, e.Lifecycle)
	if lifecycle.AutoDeprecate(b, now, e.Lifecycle, "harmful predominance") {
		if e.Paths.Blocked != "" {
			_ = ledger.AppendBlocked(e.Paths.Blocked, ledger.BlockedEntry{
				Timestamp: now, BulletID: b.ID, Reason: b.DeprecationReason,
			})
		}
	}

	if err := e.Store.Save(e.pathFor(ownerScope), owner); err != nil {
		return nil, err
	}
	return b, nil
}

// Forget explicitly deprecates a bullet (spec.md §4.4), bypassing the
// pinned exemption that protects it from auto-deprecation.
func (e *Engine) Forget(bulletID, reason string) (*types.Bullet, error) {
	layers, err := e.loadLayers()
	if err != nil {
		return nil, err
	}
	owner, ownerScope, b := findOwner(layers, bulletID)
	if owner == nil {
		return nil, taxonomy.New(taxonomy.BulletNotFound, bulletID)
	}
	now := e.Clock.Now()
	if err := lifecycle.Forget(b, now, reason); err != nil {
		return nil, err
	}
	if e.Paths.Chain != "" {
		_ = ledger.AppendChainEvent(e.Paths.Chain, ledger.ChainEvent{
			Timestamp: now, Operation: ledger.ChainOpDeprecate, BulletID: b.ID, Scope: ownerScope, Reason: reason, Source: "forget",
		})
	}
	if err := e.Store.Save(e.pathFor(ownerScope), owner); err != nil {
		return nil, err
	}
	return b, nil
}

// Undo reverses the most recent transition on a bullet, per spec.md §4.4's
// reversibility requirement: a deprecated bullet is restored to
// Candidate-Active via lifecycle.Undeprecate, otherwise the last feedback
// event is popped via lifecycle.UndoFeedback and maturity is re-evaluated.
func (e *Engine) Undo(bulletID string) (*types.Bullet, error) {
	layers, err := e.loadLayers()
	if err != nil {
		return nil, err
	}
	owner, ownerScope, b := findOwner(layers, bulletID)
	if owner == nil {
		return nil, taxonomy.New(taxonomy.BulletNotFound, bulletID)
	}
	now := e.Clock.Now()
	if b.Deprecated {
		if err := lifecycle.Undeprecate(b, now); err != nil {
			return nil, err
		}
	} else {
		if err := lifecycle.UndoFeedback(b); err != nil {
			return nil, err
		}
		lifecycle.EvaluateAfterFeedback(b, e.Lifecycle)
		b.UpdatedAt = now
	}
	if err := e.Store.Save(e.pathFor(ownerScope), owner); err != nil {
		return nil, err
	}
	return b, nil
}

func layerFor(layers merge.Layers, scope types.Scope) *types.Playbook {
	switch scope {
	case types.ScopeWorkspace:
		return layers.Workspace
	case types.ScopeRepo:
		return layers.Repo
	default:
		return layers.Global
	}
}

// ReflectAndCurate implements the Reflect-and-curate control flow: call
// the reflector, run the curation pipeline, and atomically save every
// touched layer.
func (e *Engine) ReflectAndCurate(ctx context.Context, transcriptID string, reflector types.Reflector) (curator.Result, error) {
	layers, err := e.loadLayers()
	if err != nil {
		return curator.Result{}, err
	}
	view := merge.Merge(layers)
	snapshot := &types.Playbook{Bullets: make([]types.Bullet, len(view.Entries))}
	for i, entry := range view.Entries {
		snapshot.Bullets[i] = entry.Bullet
	}

	reflection, err := reflector.Reflect(ctx, transcriptID, snapshot, nil)
	if err != nil {
		return curator.Result{}, taxonomy.Wrap(taxonomy.ExternalUnavailable, "reflector failed", err)
	}

	now := e.Clock.Now()
	curatorLayers := curator.Layers{Global: layers.Global, Workspace: layers.Workspace, Repo: layers.Repo}
	result := curator.Apply(curatorLayers, reflection.Deltas, now, e.Curator)

	for _, scope := range result.TouchedLayers {
		pb := layerFor(layers, scope)
		if pb == nil {
			continue
		}
		if err := e.Store.Save(e.pathFor(scope), pb); err != nil {
			return result, err
		}
	}

	if e.Paths.Chain != "" {
		for _, id := range result.AutoDeprecated {
			_ = ledger.AppendChainEvent(e.Paths.Chain, ledger.ChainEvent{
				Timestamp: now, Operation: ledger.ChainOpDeprecate, BulletID: id, Source: "auto-deprecate-sweep",
			})
		}
	}

	return result, nil
}
