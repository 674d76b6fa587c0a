// Package lifecycle implements C4: the maturity x state machine over a
// bullet (candidate/established/proven/deprecated x active/retired),
// driven by feedback, auto-deprecation, forget, undo, and hard-delete.
//
// The dispatch-by-current-maturity structure is adapted from the teacher's
// internal/ratchet/maturity.go (applyProvisionalTransition,
// applyCandidateTransition, applyEstablishedTransition,
// applyAntiPatternTransition), retargeted from the teacher's
// provisional/candidate/established/anti-pattern levels onto spec.md's
// candidate/established/proven/deprecated.
package lifecycle

import (
	"time"

	"github.com/cass-memory/playbook/internal/scoring"
	"github.com/cass-memory/playbook/internal/taxonomy"
	"github.com/cass-memory/playbook/internal/types"
)

// Policy bundles the scoring policy with the auto-deprecation threshold
// left undocumented in spec.md §4.4 beyond the harmful-predominance rule
// (Open Question; see DESIGN.md for the chosen default).
type Policy struct {
	Scoring            scoring.Policy
	AutoDeprecateScore float64 // default -0.5
}

func DefaultPolicy() Policy {
	return Policy{Scoring: scoring.DefaultPolicy(), AutoDeprecateScore: -0.5}
}

// EvaluateAfterFeedback recomputes maturity for an active bullet following
// a feedback write. Deprecated bullets are left untouched: maturity is
// controlled by deprecation/undo, not by scoring, once retired.
func EvaluateAfterFeedback(b *types.Bullet, p Policy) {
	if b.Deprecated {
		return
	}
	b.Maturity = scoring.DeriveMaturity(*b, p.Scoring)
}

// ShouldAutoDeprecate reports whether a non-pinned active bullet meets the
// auto-deprecation trigger: decayed score at or below the threshold, or
// harmful predominance (harmfulCount >= 2 and helpfulCount == 0).
func ShouldAutoDeprecate(b types.Bullet, now time.Time, p Policy) bool {
	if b.Pinned || b.Deprecated {
		return false
	}
	score := scoring.EffectiveScore(b, now, p.Scoring)
	if score <= p.AutoDeprecateScore {
		return true
	}
	if b.HarmfulCount >= 2 && b.HelpfulCount == 0 {
		return true
	}
	return false
}

// AutoDeprecate transitions a bullet to Deprecated-Retired if it meets the
// trigger, returning whether a transition occurred.
func AutoDeprecate(b *types.Bullet, now time.Time, p Policy, cause string) bool {
	if !ShouldAutoDeprecate(*b, now, p) {
		return false
	}
	deprecate(b, now, "Auto-deprecated: "+cause)
	return true
}

// Forget explicitly deprecates a bullet, bypassing the pinned exemption
// (spec.md §4.4: "any Active -> forget(reason) -> Deprecated-Retired:
// always (explicit)").
func Forget(b *types.Bullet, now time.Time, reason string) error {
	if reason == "" {
		return taxonomy.New(taxonomy.MissingRequired, "forget requires a reason")
	}
	deprecate(b, now, reason)
	return nil
}

func deprecate(b *types.Bullet, now time.Time, reason string) {
	b.Maturity = types.MaturityDeprecated
	b.State = types.StateRetired
	b.Deprecated = true
	t := now
	b.DeprecatedAt = &t
	b.DeprecationReason = reason
	b.UpdatedAt = now
}

// Undeprecate restores a deprecated bullet to Candidate-Active. Prior
// maturity is never restored: "evidence supporting the prior level has
// been contested; start over" (spec.md §4.4).
func Undeprecate(b *types.Bullet, now time.Time) error {
	if !b.Deprecated {
		return taxonomy.New(taxonomy.InvalidInput, "bullet is not deprecated")
	}
	b.Maturity = types.MaturityCandidate
	b.State = types.StateActive
	b.Deprecated = false
	b.DeprecatedAt = nil
	b.DeprecationReason = ""
	b.UpdatedAt = now
	return nil
}

// HardDelete removes a bullet from the playbook permanently. Requires an
// explicit confirm flag; otherwise CONFIRMATION_REQUIRED (spec.md §7).
func HardDelete(pb *types.Playbook, id string, confirm bool) error {
	if !confirm {
		return taxonomy.New(taxonomy.ConfirmationRequired, "hard-delete requires confirmation")
	}
	if !pb.RemoveBullet(id) {
		return taxonomy.New(taxonomy.BulletNotFound, "bullet not found: "+id)
	}
	return nil
}

// UndoFeedback pops the last feedback event and decrements the matching
// counter, clamped at zero. State and maturity are left unchanged other
// than the counter/event-log pop itself; callers should re-run
// EvaluateAfterFeedback if they want maturity to reflect the rollback.
func UndoFeedback(b *types.Bullet) error {
	n := len(b.FeedbackEvents)
	if n == 0 {
		return taxonomy.New(taxonomy.InvalidInput, "no feedback events to undo")
	}
	last := b.FeedbackEvents[n-1]
	b.FeedbackEvents = b.FeedbackEvents[:n-1]
	switch last.Type {
	case types.FeedbackHelpful:
		if b.HelpfulCount > 0 {
			b.HelpfulCount--
		}
	case types.FeedbackHarmful:
		if b.HarmfulCount > 0 {
			b.HarmfulCount--
		}
	}
	return nil
}

// TransitionPlan previews a transition without mutating state (spec.md
// §4.4's dry-run requirement).
type TransitionPlan struct {
	DryRun        bool           `json:"dryRun"`
	Action        string         `json:"action"`
	Before        types.Maturity `json:"before"`
	WouldChange   bool           `json:"wouldChange"`
	ApplyCommand  string         `json:"applyCommand,omitempty"`
}

// PreviewAutoDeprecate returns a dry-run plan for the auto-deprecate
// transition without mutating b.
func PreviewAutoDeprecate(b types.Bullet, now time.Time, p Policy) TransitionPlan {
	would := ShouldAutoDeprecate(b, now, p)
	plan := TransitionPlan{DryRun: true, Action: "auto-deprecate", Before: b.Maturity, WouldChange: would}
	if would {
		plan.ApplyCommand = "forget " + b.ID
	}
	return plan
}

// Distribution summarizes bullet counts by maturity across a playbook
// (supplemented feature; grounded on the teacher's
// ratchet.GetMaturityDistribution).
func Distribution(pb *types.Playbook) types.MaturityDistribution {
	var d types.MaturityDistribution
	for _, b := range pb.Bullets {
		d.Total++
		switch b.Maturity {
		case types.MaturityCandidate:
			d.Candidate++
		case types.MaturityEstablished:
			d.Established++
		case types.MaturityProven:
			d.Proven++
		case types.MaturityDeprecated:
			d.Deprecated++
		}
	}
	return d
}
