// Package scoring implements C2: time-decayed feedback aggregation into an
// effective score, cumulative-count-derived maturity, and an effectiveness
// label. The cumulative-threshold dispatch style is adapted from the
// teacher's internal/ratchet/maturity.go (applyCandidateTransition,
// applyEstablishedTransition), retargeted from provisional/candidate/
// established/anti-pattern onto candidate/established/proven/deprecated.
package scoring

import (
	"math"
	"time"

	"github.com/cass-memory/playbook/internal/types"
)

// Policy holds the tunable constants behind §4.2, exposing the Open
// Question decisions recorded in DESIGN.md as named fields rather than
// hardcoded literals.
type Policy struct {
	HelpfulSign float64 // sign(helpful), default +1
	HarmfulSign float64 // sign(harmful), default -4

	EstablishedHelpfulMin int // default 3
	ProvenHelpfulMin      int // default 8
	ProvenHarmfulMax      int // default 1

	// UseDecayedMaturityCounts records the Open Question decision point
	// (spec.md §9) of cumulative vs. decayed counts. See DESIGN.md.
	// DeriveMaturity does not read it: maturity is derived from the
	// cumulative counts whatever its value.
	UseDecayedMaturityCounts bool
}

// DefaultPolicy returns spec.md §4.2's literal defaults.
func DefaultPolicy() Policy {
	return Policy{
		HelpfulSign:           1,
		HarmfulSign:           -4,
		EstablishedHelpfulMin: 3,
		ProvenHelpfulMin:      8,
		ProvenHarmfulMax:      1,
	}
}

// ageDays returns the age of t relative to now, in fractional days.
func ageDays(t, now time.Time) float64 {
	return now.Sub(t).Hours() / 24
}

// DecayedValue computes one event's contribution to a bullet's effective
// score: sign(e) * 2^(-ageDays(e)/halfLife).
func DecayedValue(e types.FeedbackEvent, now time.Time, halfLifeDays int, p Policy) float64 {
	if halfLifeDays <= 0 {
		halfLifeDays = types.DefaultHalfLifeDays
	}
	sign := p.HelpfulSign
	if e.Type == types.FeedbackHarmful {
		sign = p.HarmfulSign
	}
	age := ageDays(e.Timestamp, now)
	return sign * math.Pow(2, -age/float64(halfLifeDays))
}

// EffectiveScore sums DecayedValue over all of a bullet's feedback events.
func EffectiveScore(b types.Bullet, now time.Time, p Policy) float64 {
	var total float64
	for _, e := range b.FeedbackEvents {
		total += DecayedValue(e, now, b.ConfidenceDecayHalfLifeDays, p)
	}
	return total
}

// DeriveMaturity computes the cumulative-count-derived maturity for an
// active (non-deprecated) bullet, per spec.md §4.2. Deprecation is set by
// the lifecycle component, never by scoring.
func DeriveMaturity(b types.Bullet, p Policy) types.Maturity {
	if b.HelpfulCount >= p.ProvenHelpfulMin && b.HarmfulCount <= p.ProvenHarmfulMax {
		return types.MaturityProven
	}
	if b.HelpfulCount >= p.EstablishedHelpfulMin && b.HelpfulCount > b.HarmfulCount {
		return types.MaturityEstablished
	}
	return types.MaturityCandidate
}

// Effectiveness is the human-facing label derived from decayed score and
// helpful count.
type Effectiveness string

const (
	EffVeryHigh Effectiveness = "Very high"
	EffHigh     Effectiveness = "High"
	EffModerate Effectiveness = "Moderate"
	EffLow      Effectiveness = "Low"
	EffNegative Effectiveness = "Negative"
)

// DeriveEffectiveness labels a bullet from its decayed score and helpful
// count. A fresh bullet with no feedback is "Moderate" by convention
// (spec.md §8, boundary behaviors).
func DeriveEffectiveness(decayedScore float64, helpfulCount int) Effectiveness {
	switch {
	case decayedScore == 0 && helpfulCount == 0:
		return EffModerate
	case decayedScore < 0:
		return EffNegative
	case decayedScore >= 2 && helpfulCount >= 8:
		return EffVeryHigh
	case decayedScore >= 1 && helpfulCount >= 3:
		return EffHigh
	case decayedScore >= 0.2:
		return EffModerate
	default:
		return EffLow
	}
}
