// Package validator implements C8: pre-admission quality checks for new or
// updated bullet content.
//
// The {valid, warnings[], suggestions} result shape and its issues-vs-
// warnings severity split are adapted from the teacher's
// internal/ratchet/validate.go ValidationResult{Step, Valid, Issues,
// Warnings, Lenient}.
package validator

import (
	"strings"

	"github.com/cass-memory/playbook/internal/ranker"
	"github.com/cass-memory/playbook/internal/taxonomy"
	"github.com/cass-memory/playbook/internal/types"
)

// Severity is one of error | warning | suggestion; only error makes a
// Result invalid (spec.md §4.8).
type Severity string

const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

type Warning struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

type Suggestions struct {
	Category string `json:"category,omitempty"`
}

type Result struct {
	Valid       bool        `json:"valid"`
	Warnings    []Warning   `json:"warnings"`
	Suggestions Suggestions `json:"suggestions"`
}

// Policy holds the tunable thresholds from spec.md §4.8.
type Policy struct {
	MinWords              int
	MaxWords              int
	VaguenessRatio        float64
	SimilarityWarnThreshold float64
}

func DefaultPolicy() Policy {
	return Policy{
		MinWords:                5,
		MaxWords:                100,
		VaguenessRatio:          0.15,
		SimilarityWarnThreshold: 0.8,
	}
}

var contextWords = map[string]bool{
	"when": true, "if": true, "during": true, "before": true, "after": true, "while": true,
}

var vagueWords = map[string]bool{
	"things": true, "stuff": true, "nice": true, "better": true, "good": true,
}

// Validate runs all admission checks against content, optionally checking
// similarity against existingInScope (bullets from the same target scope).
func Validate(content, category string, existingInScope []types.Bullet, p Policy) Result {
	tokens := ranker.Tokenize(content)
	res := Result{Valid: true}

	wordCount := len(strings.Fields(content))
	if wordCount < p.MinWords {
		res.Warnings = append(res.Warnings, Warning{Type: "length", Message: "too short", Severity: SeverityWarning})
	}
	if wordCount > p.MaxWords {
		res.Warnings = append(res.Warnings, Warning{Type: "length", Message: "consider splitting", Severity: SeveritySuggestion})
	}

	hasContext := false
	for _, tok := range tokens {
		if contextWords[tok] {
			hasContext = true
			break
		}
	}
	if !hasContext {
		res.Warnings = append(res.Warnings, Warning{Type: "context", Message: "missing context", Severity: SeveritySuggestion})
	}

	if len(tokens) > 0 {
		vague := 0
		for _, tok := range tokens {
			if vagueWords[tok] {
				vague++
			}
		}
		if float64(vague)/float64(len(tokens)) > p.VaguenessRatio {
			res.Warnings = append(res.Warnings, Warning{Type: "vagueness", Message: "vague", Severity: SeverityWarning})
		}
	}

	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = true
	}
	inferred := inferCategory(tokenSet)
	if category == "" || !categoryConsistent(category, tokenSet) {
		res.Suggestions.Category = inferred
	}

	maxSim := 0.0
	var matchID string
	for _, b := range existingInScope {
		sim := ranker.Similarity(content, b.Content)
		if sim > maxSim {
			maxSim = sim
			matchID = b.ID
		}
	}
	if maxSim >= p.SimilarityWarnThreshold {
		res.Warnings = append(res.Warnings, Warning{
			Type:     "similarity",
			Message:  "similar to existing bullet " + matchID,
			Severity: SeverityWarning,
		})
	}

	for _, w := range res.Warnings {
		if w.Severity == SeverityError {
			res.Valid = false
		}
	}
	return res
}

// MaxSimilarity returns the highest token-overlap similarity between
// content and any bullet in existing, and the matching bullet's id. The
// Curator uses this same function, with a possibly stricter threshold, to
// dedup add deltas (spec.md §4.8).
func MaxSimilarity(content string, existing []types.Bullet) (float64, string) {
	maxSim := 0.0
	var matchID string
	for _, b := range existing {
		sim := ranker.Similarity(content, b.Content)
		if sim > maxSim {
			maxSim = sim
			matchID = b.ID
		}
	}
	return maxSim, matchID
}

func inferCategory(tokens map[string]bool) string {
	return taxonomy.InferCategory(tokens)
}

func categoryConsistent(category string, tokens map[string]bool) bool {
	if !taxonomy.KnownCategory(category) {
		return false
	}
	inferred := taxonomy.InferCategory(tokens)
	return inferred == "general" || inferred == category
}
