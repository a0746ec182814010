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

	"gitlab.com/tozd/go/errors"
)

// SpanReplacer implements TextReplacer by replacing the first span each rule finds
type SpanReplacer struct{}

// NewSpanReplacer creates a new SpanReplacer
func NewSpanReplacer() *SpanReplacer {
	return &SpanReplacer{}
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *SpanReplacer) ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error) {
	if err := r.ValidateRules(rules); err != nil {
		return nil, errors.Errorf("validating rules: %w", err)
	}

	// Read all content
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	result := &ReplacementResult{
		OriginalContent: originalContent,
		ModifiedContent: originalContent,
		Rules:           make([]RuleResult, 0, len(rules)),
	}

	// Apply each rule to the output of the previous one
	currentContent := string(originalContent)
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("replacing text: %w", err)
		}

		m, err := compile(rule)
		if err != nil {
			return nil, errors.Errorf("rule %s: %w", rule.Name, err)
		}

		spans := m.FindAll(currentContent)
		rr := RuleResult{Name: rule.Name, Matches: len(spans)}

		// A rule without a span leaves the content alone
		if len(spans) > 0 {
			first := spans[0]
			currentContent = currentContent[:first.Start] + rule.Replacement + currentContent[first.End:]
			rr.Replaced = true
			result.ReplacementCount++
		}

		result.Rules = append(result.Rules, rr)
	}

	result.ModifiedContent = []byte(currentContent)
	result.WasModified = currentContent != string(originalContent)
	return result, nil
}

// ValidateRules implements TextReplacer.ValidateRules
func (r *SpanReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.Name == "" {
			return errors.Errorf("rule %d: name is required", i)
		}
		if rule.Start == "" {
			return errors.Errorf("rule %d: start is required", i)
		}
		if _, err := compile(rule); err != nil {
			return errors.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}
