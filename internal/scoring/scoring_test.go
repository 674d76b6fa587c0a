package scoring

import (
	"testing"
	"time"

	"github.com/cass-memory/playbook/internal/types"
)

func TestDecayedValueHalfLife(t *testing.T) {
	now := time.Now().UTC()
	e := types.FeedbackEvent{Type: types.FeedbackHelpful, Timestamp: now.AddDate(0, 0, -90)}
	got := DecayedValue(e, now, 90, DefaultPolicy())
	if got < 0.49 || got > 0.51 {
		t.Errorf("DecayedValue at one half-life = %v, want ~0.5", got)
	}
}

func TestDecayedValueHarmfulWeighted4x(t *testing.T) {
	now := time.Now().UTC()
	helpful := types.FeedbackEvent{Type: types.FeedbackHelpful, Timestamp: now}
	harmful := types.FeedbackEvent{Type: types.FeedbackHarmful, Timestamp: now}
	p := DefaultPolicy()
	hv := DecayedValue(helpful, now, 90, p)
	mv := DecayedValue(harmful, now, 90, p)
	if mv != -4*hv {
		t.Errorf("harmful value = %v, want -4x helpful value %v", mv, hv)
	}
}

func TestEffectiveScoreZeroEvents(t *testing.T) {
	b := types.NewBullet("b-1", time.Now())
	if got := EffectiveScore(b, time.Now(), DefaultPolicy()); got != 0 {
		t.Errorf("EffectiveScore with no events = %v, want 0", got)
	}
}

func TestDeriveMaturity(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		helpful, harmful int
		want             types.Maturity
	}{
		{0, 0, types.MaturityCandidate},
		{2, 0, types.MaturityCandidate},
		{3, 0, types.MaturityEstablished},
		{3, 3, types.MaturityCandidate}, // not helpful > harmful
		{8, 1, types.MaturityProven},
		{8, 2, types.MaturityEstablished}, // harmful exceeds ProvenHarmfulMax
	}
	for _, c := range cases {
		b := types.Bullet{HelpfulCount: c.helpful, HarmfulCount: c.harmful}
		if got := DeriveMaturity(b, p); got != c.want {
			t.Errorf("DeriveMaturity(helpful=%d,harmful=%d) = %v, want %v", c.helpful, c.harmful, got, c.want)
		}
	}
}

func TestDeriveEffectivenessBoundary(t *testing.T) {
	if got := DeriveEffectiveness(0, 0); got != EffModerate {
		t.Errorf("fresh bullet effectiveness = %v, want Moderate", got)
	}
	if got := DeriveEffectiveness(-1, 0); got != EffNegative {
		t.Errorf("negative score effectiveness = %v, want Negative", got)
	}
}
