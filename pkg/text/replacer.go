// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package text

import (
	"context"
	"io"
)

// Mode selects how a rule finds the end of its span
type Mode string

const (
	// ModePattern ends the span at the first match of End after Start
	ModePattern Mode = "pattern"

	// ModeStructural ends the span where the brace opened by Start is closed
	ModeStructural Mode = "structural"
)

// ReplacementRule defines a single span replacement operation
type ReplacementRule struct {
	// Name identifies the rule in results and logs
	Name string

	// Start is a regular expression that opens the span
	Start string

	// End is a regular expression that closes the span (pattern mode only)
	End string

	// Mode selects the span matching strategy. When empty, rules with an End
	// use ModePattern and rules without one use ModeStructural.
	Mode Mode

	// Replacement is the literal text that replaces the span
	Replacement string
}

// EffectiveMode resolves an empty Mode
func (r ReplacementRule) EffectiveMode() Mode {
	if r.Mode != "" {
		return r.Mode
	}
	if r.End != "" {
		return ModePattern
	}
	return ModeStructural
}

// RuleResult reports what a single rule did
type RuleResult struct {
	// Name is the rule name
	Name string

	// Matches is the number of spans the rule found in the text it was applied to
	Matches int

	// Replaced indicates the first span was substituted
	Replaced bool
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if the content changed
	WasModified bool

	// ReplacementCount is the number of spans replaced
	ReplacementCount int

	// Rules holds one entry per rule, in application order
	Rules []RuleResult

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte
}

// Unmatched returns the names of rules that found no span
func (r *ReplacementResult) Unmatched() []string {
	var names []string
	for _, rr := range r.Rules {
		if rr.Matches == 0 {
			names = append(names, rr.Name)
		}
	}
	return names
}

// TextReplacer defines the interface for text replacement operations
type TextReplacer interface {
	// ReplaceText applies a set of replacement rules to the content
	// Returns a ReplacementResult containing the modified content and metadata
	ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}
