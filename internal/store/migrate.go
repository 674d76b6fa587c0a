package store

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cass-memory/playbook/internal/types"
)

// schemaDoc is the on-disk shape, kept permissive (Unknown captures
// anything Playbook doesn't model) so unrecognized top-level keys
// round-trip unchanged (spec.md §6.2).
type schemaDoc struct {
	SchemaVersion      int            `yaml:"schema_version"`
	Name               string         `yaml:"name"`
	Description        string         `yaml:"description"`
	Metadata           types.Metadata `yaml:"metadata"`
	Bullets            []types.Bullet `yaml:"bullets"`
	DeprecatedPatterns []any          `yaml:"deprecatedPatterns"`
}

// Migrate parses raw YAML bytes into a Playbook, upgrading schema_version 1
// documents to the current version by materializing default values for
// fields absent in older records. Content and counters are preserved
// bitwise (spec.md §4.1).
func Migrate(data []byte) (*types.Playbook, error) {
	var doc schemaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	pb := &types.Playbook{
		SchemaVersion:      doc.SchemaVersion,
		Name:               doc.Name,
		Description:        doc.Description,
		Metadata:           doc.Metadata,
		Bullets:            doc.Bullets,
		DeprecatedPatterns: doc.DeprecatedPatterns,
		Unknown:            extraKeys(raw),
	}

	if pb.SchemaVersion == 0 {
		// Absent schema_version: treat as a brand new playbook, not a v1
		// document, so an empty file doesn't spuriously trigger migration
		// defaults on every bullet (there are none).
		pb.SchemaVersion = types.CurrentSchemaVersion
	}

	if pb.SchemaVersion < types.CurrentSchemaVersion {
		for i := range pb.Bullets {
			fillBulletDefaults(&pb.Bullets[i])
		}
		pb.SchemaVersion = types.CurrentSchemaVersion
	}

	if pb.Bullets == nil {
		pb.Bullets = []types.Bullet{}
	}
	if pb.Metadata.CreatedAt.IsZero() {
		pb.Metadata.CreatedAt = time.Now().UTC()
	}

	return pb, nil
}

// knownTopLevelKeys are the document keys schemaDoc models; anything else
// is preserved verbatim in Playbook.Unknown (spec.md §6.2).
var knownTopLevelKeys = map[string]bool{
	"schema_version":     true,
	"name":               true,
	"description":        true,
	"metadata":           true,
	"bullets":            true,
	"deprecatedPatterns": true,
}

func extraKeys(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]any)
	for k, v := range raw {
		if !knownTopLevelKeys[k] {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// fillBulletDefaults materializes defaults for scope, kind, type, state,
// maturity, counters, feedbackEvents, deprecated, and the decay half-life
// on a bullet loaded from a pre-v2 document.
func fillBulletDefaults(b *types.Bullet) {
	if b.Scope == "" {
		b.Scope = types.ScopeGlobal
	}
	if b.Kind == "" {
		b.Kind = types.KindWorkflowRule
	}
	if b.Type == "" {
		if b.IsNegative {
			b.Type = types.TypeAntiPattern
		} else {
			b.Type = types.TypeRule
		}
	}
	if b.State == "" {
		b.State = types.StateActive
	}
	if b.Maturity == "" {
		b.Maturity = types.MaturityCandidate
	}
	if b.FeedbackEvents == nil {
		b.FeedbackEvents = []types.FeedbackEvent{}
	}
	if b.ConfidenceDecayHalfLifeDays == 0 {
		b.ConfidenceDecayHalfLifeDays = types.DefaultHalfLifeDays
	}
	b.Deprecated = b.Maturity == types.MaturityDeprecated
}
