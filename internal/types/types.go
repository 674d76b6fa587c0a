// Package types defines the data model of the playbook engine: bullets,
// playbooks, feedback events, outcome records, diary entries, and the
// curation deltas a reflector proposes.
package types

import "time"

// Scope names the layer that owns a bullet.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeWorkspace Scope = "workspace"
	ScopeRepo      Scope = "repo"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeWorkspace, ScopeRepo:
		return true
	}
	return false
}

// Kind is the coarse classification of a bullet.
type Kind string

const (
	KindWorkflowRule Kind = "workflow_rule"
	KindStackPattern Kind = "stack_pattern"
	KindAntiPattern  Kind = "anti_pattern"
	KindStarter      Kind = "starter"
)

// BulletType mirrors IsNegative: a bullet is either a rule or an anti-pattern.
type BulletType string

const (
	TypeRule        BulletType = "rule"
	TypeAntiPattern BulletType = "anti-pattern"
)

// State is the retrieval-visibility bit.
type State string

const (
	StateActive  State = "active"
	StateRetired State = "retired"
)

// Maturity is the lifecycle level of a bullet.
type Maturity string

const (
	MaturityCandidate   Maturity = "candidate"
	MaturityEstablished Maturity = "established"
	MaturityProven      Maturity = "proven"
	MaturityDeprecated  Maturity = "deprecated"
)

// Source is the provenance tag of a bullet.
type Source string

const (
	SourceLearned  Source = "learned"
	SourceManual   Source = "manual"
	SourceStarter  Source = "starter"
	SourceImported Source = "imported"
)

// FeedbackType distinguishes helpful from harmful events.
type FeedbackType string

const (
	FeedbackHelpful FeedbackType = "helpful"
	FeedbackHarmful FeedbackType = "harmful"
)

// FeedbackReason is drawn from a closed set; anything else is normalized to
// ReasonOther with the free text preserved in the event's Context field.
type FeedbackReason string

const (
	ReasonCausedBug FeedbackReason = "caused_bug"
	ReasonIneffic   FeedbackReason = "inefficient"
	ReasonOutdated  FeedbackReason = "outdated"
	ReasonOther     FeedbackReason = "other"
)

// NormalizeReason maps arbitrary free text to the closed reason set,
// preserving the original text as context when it doesn't match.
func NormalizeReason(raw string) (reason FeedbackReason, context string) {
	switch FeedbackReason(raw) {
	case ReasonCausedBug, ReasonIneffic, ReasonOutdated, ReasonOther:
		return FeedbackReason(raw), ""
	default:
		return ReasonOther, raw
	}
}

// FeedbackEvent is one append-only entry in a bullet's feedback log.
type FeedbackEvent struct {
	Type        FeedbackType   `json:"type" yaml:"type"`
	Timestamp   time.Time      `json:"timestamp" yaml:"timestamp"`
	SessionPath string         `json:"sessionPath,omitempty" yaml:"sessionPath,omitempty"`
	Reason      FeedbackReason `json:"reason,omitempty" yaml:"reason,omitempty"`
	Context     string         `json:"context,omitempty" yaml:"context,omitempty"`
}

// Bullet is an individually addressable behavioral rule or anti-pattern.
type Bullet struct {
	ID         string     `json:"id" yaml:"id"`
	Content    string     `json:"content" yaml:"content"`
	Category   string     `json:"category" yaml:"category"`
	Kind       Kind       `json:"kind" yaml:"kind"`
	Type       BulletType `json:"type" yaml:"type"`
	IsNegative bool       `json:"isNegative" yaml:"isNegative"`
	Scope      Scope      `json:"scope" yaml:"scope"`
	Source     Source     `json:"source" yaml:"source"`
	Tags       []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	State      State      `json:"state" yaml:"state"`
	Maturity   Maturity   `json:"maturity" yaml:"maturity"`
	CreatedAt  time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" yaml:"updatedAt"`

	SourceSessions []string `json:"sourceSessions,omitempty" yaml:"sourceSessions,omitempty"`
	SourceAgents   []string `json:"sourceAgents,omitempty" yaml:"sourceAgents,omitempty"`

	HelpfulCount int `json:"helpfulCount" yaml:"helpfulCount"`
	HarmfulCount int `json:"harmfulCount" yaml:"harmfulCount"`

	FeedbackEvents []FeedbackEvent `json:"feedbackEvents,omitempty" yaml:"feedbackEvents,omitempty"`

	Deprecated        bool       `json:"deprecated" yaml:"deprecated"`
	DeprecatedAt      *time.Time `json:"deprecatedAt,omitempty" yaml:"deprecatedAt,omitempty"`
	DeprecationReason string     `json:"deprecationReason,omitempty" yaml:"deprecationReason,omitempty"`
	ReplacedBy        string     `json:"replacedBy,omitempty" yaml:"replacedBy,omitempty"`

	Pinned    bool   `json:"pinned" yaml:"pinned"`
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	ConfidenceDecayHalfLifeDays int `json:"confidenceDecayHalfLifeDays" yaml:"confidenceDecayHalfLifeDays"`
}

// DefaultHalfLifeDays is the default confidence decay half-life.
const DefaultHalfLifeDays = 90

// NewBullet builds a fresh candidate bullet with sane defaults. Callers
// set Content/Category/Scope/Source before admission via the validator.
func NewBullet(id string, now time.Time) Bullet {
	return Bullet{
		ID:                          id,
		Type:                        TypeRule,
		State:                       StateActive,
		Maturity:                    MaturityCandidate,
		CreatedAt:                   now,
		UpdatedAt:                   now,
		ConfidenceDecayHalfLifeDays: DefaultHalfLifeDays,
	}
}

// Metadata is playbook-level bookkeeping.
type Metadata struct {
	CreatedAt              time.Time `json:"createdAt" yaml:"createdAt"`
	TotalReflections       int       `json:"totalReflections" yaml:"totalReflections"`
	TotalSessionsProcessed int       `json:"totalSessionsProcessed" yaml:"totalSessionsProcessed"`
}

// CurrentSchemaVersion is the schema version new playbooks are written at.
const CurrentSchemaVersion = 2

// Playbook is one file on disk: the ownership unit for a set of bullets.
type Playbook struct {
	SchemaVersion int      `json:"schema_version" yaml:"schema_version"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Metadata      Metadata `json:"metadata" yaml:"metadata"`
	Bullets       []Bullet `json:"bullets" yaml:"bullets"`

	// DeprecatedPatterns is a historical compatibility field, always empty
	// in new playbooks but preserved on round-trip if present.
	DeprecatedPatterns []any `json:"deprecatedPatterns,omitempty" yaml:"deprecatedPatterns,omitempty"`

	// Unknown holds any top-level keys not recognized above, preserved
	// verbatim on load and re-serialized unchanged (spec.md §6.2).
	Unknown map[string]any `json:"-" yaml:"-"`
}

// FindBullet returns a pointer to the bullet with the given id, or nil.
func (p *Playbook) FindBullet(id string) *Bullet {
	for i := range p.Bullets {
		if p.Bullets[i].ID == id {
			return &p.Bullets[i]
		}
	}
	return nil
}

// RemoveBullet deletes the bullet with the given id, reporting whether one
// was found.
func (p *Playbook) RemoveBullet(id string) bool {
	for i := range p.Bullets {
		if p.Bullets[i].ID == id {
			p.Bullets = append(p.Bullets[:i], p.Bullets[i+1:]...)
			return true
		}
	}
	return false
}

// OutcomeType is the closed set of task-outcome labels.
type OutcomeType string

const (
	OutcomeSuccess OutcomeType = "success"
	OutcomeFailure OutcomeType = "failure"
	OutcomePartial OutcomeType = "partial"
	OutcomeMixed   OutcomeType = "mixed"
)

// Sentiment is the closed set of sentiment labels on an outcome record.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// OutcomeRecord is one line in the append-only outcomes log.
type OutcomeRecord struct {
	SessionID   string      `json:"sessionId"`
	Outcome     OutcomeType `json:"outcome"`
	RulesUsed   []string    `json:"rulesUsed"`
	Notes       string      `json:"notes,omitempty"`
	Task        string      `json:"task,omitempty"`
	DurationSec float64     `json:"durationSec,omitempty"`
	ErrorCount  int         `json:"errorCount,omitempty"`
	HadRetries  bool        `json:"hadRetries,omitempty"`
	Sentiment   Sentiment   `json:"sentiment,omitempty"`
	RecordedAt  time.Time   `json:"recordedAt"`
	Path        string      `json:"path,omitempty"`
}

// DiaryEntry is one file in the diary directory.
type DiaryEntry struct {
	ID              string    `json:"id"`
	SessionPath     string    `json:"sessionPath"`
	Timestamp       time.Time `json:"timestamp"`
	Agent           string    `json:"agent"`
	Workspace       string    `json:"workspace,omitempty"`
	DurationSec     float64   `json:"duration,omitempty"`
	Status          string    `json:"status"`
	Accomplishments []string  `json:"accomplishments,omitempty"`
	Decisions       []string  `json:"decisions,omitempty"`
	Challenges      []string  `json:"challenges,omitempty"`
	Preferences     []string  `json:"preferences,omitempty"`
	KeyLearnings    []string  `json:"keyLearnings,omitempty"`
	RelatedSessions []string  `json:"relatedSessions,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	SearchAnchors   []string  `json:"searchAnchors,omitempty"`
}

// MaturityDistribution is a read-only summary of bullet counts by maturity
// level across a playbook (supplemented feature, see SPEC_FULL.md).
type MaturityDistribution struct {
	Candidate   int `json:"candidate"`
	Established int `json:"established"`
	Proven      int `json:"proven"`
	Deprecated  int `json:"deprecated"`
	Total       int `json:"total"`
}
