// Package models defines the score registry's data shapes.
package models

import (
	"strings"

	dErrors "github.com/AshutoshFreak/zkp-gpa-verification/pkg/domain-errors"
)

// ScoreSet maps a score-type label (e.g. "gpa", "sat") to its numeric value
// in domain units.
type ScoreSet map[string]float64

// Copy returns an independent copy so callers never share mutable state
// with the registry.
func (s ScoreSet) Copy() ScoreSet {
	out := make(ScoreSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Validate rejects empty sets and blank score-type labels.
func (s ScoreSet) Validate() error {
	if len(s) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one score is required")
	}
	for label := range s {
		if strings.TrimSpace(label) == "" {
			return dErrors.New(dErrors.CodeValidation, "score type labels must be non-empty")
		}
	}
	return nil
}
