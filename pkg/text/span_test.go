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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanReplacer_ReplaceText(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		rules        []ReplacementRule
		want         string
		wantCount    int
		wantMatches  []int
		wantModified bool
	}{
		{
			name:    "pattern_replaces_first_span_only",
			content: "start A end\nstart B end\n",
			rules: []ReplacementRule{
				{Name: "a", Start: `start`, End: `end`, Replacement: "R"},
			},
			want:         "R\nstart B end\n",
			wantCount:    1,
			wantMatches:  []int{2},
			wantModified: true,
		},
		{
			name:    "pattern_is_non_greedy",
			content: "open 1 close 2 close",
			rules: []ReplacementRule{
				{Name: "a", Start: `open`, End: `close`, Replacement: "X"},
			},
			want:         "X 2 close",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: true,
		},
		{
			name:    "pattern_spans_newlines",
			content: "before\nopen\n  body\nclose\nafter",
			rules: []ReplacementRule{
				{Name: "a", Start: `open`, End: `close`, Replacement: "X"},
			},
			want:         "before\nX\nafter",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: true,
		},
		{
			name:    "no_match",
			content: "Hello World",
			rules: []ReplacementRule{
				{Name: "a", Start: `Goodbye`, End: `World`, Replacement: "Hi"},
			},
			want:         "Hello World",
			wantCount:    0,
			wantMatches:  []int{0},
			wantModified: false,
		},
		{
			name:    "rules_apply_in_order",
			content: "foo { x } bar { y }",
			rules: []ReplacementRule{
				{Name: "a", Start: `foo`, End: `\}`, Replacement: "bar { z }"},
				{Name: "b", Start: `bar`, End: `\}`, Replacement: "baz"},
			},
			want:         "baz bar { y }",
			wantCount:    2,
			wantMatches:  []int{1, 2},
			wantModified: true,
		},
		{
			name:    "replacement_is_literal",
			content: "start end",
			rules: []ReplacementRule{
				{Name: "a", Start: `(start)`, End: `end`, Replacement: "`${a}` $1 ${1}"},
			},
			want:         "`${a}` $1 ${1}",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: true,
		},
		{
			name:    "replacement_equal_to_span",
			content: "start end",
			rules: []ReplacementRule{
				{Name: "a", Start: `start`, End: `end`, Replacement: "start end"},
			},
			want:         "start end",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: false,
		},
		{
			name:    "structural_nested_braces",
			content: "f() {\n  if (x) {\n    return 1;\n  }\n  return 2;\n}\ntail",
			rules: []ReplacementRule{
				{Name: "f", Start: `f\(\) \{`, Mode: ModeStructural, Replacement: "F"},
			},
			want:         "F\ntail",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: true,
		},
		{
			name: "structural_ignores_braces_in_literals_and_comments",
			content: "g() {\n" +
				"  const s = '}';\n" +
				"  const d = \"{\";\n" +
				"  // }\n" +
				"  /* } */\n" +
				"  const t = `x } ${ {b: 1}.b } {`;\n" +
				"  return s;\n" +
				"}\nrest",
			rules: []ReplacementRule{
				{Name: "g", Start: `g\(\)`, Replacement: "G"},
			},
			want:         "G\nrest",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: true,
		},
		{
			name: "structural_ignores_braces_in_regex_literals",
			content: "class S {\n" +
				"  async deleteBus(id) {\n" +
				"    const k = id.replace(/[{]/g, '');\n" +
				"    return { success: true };\n" +
				"  }\n\n" +
				"  other() { return 1; }\n" +
				"}\n",
			rules: []ReplacementRule{
				{Name: "deleteBus", Start: `  async deleteBus\(id\) \{`, Replacement: "  async deleteBus(id) {}"},
			},
			want:         "class S {\n  async deleteBus(id) {}\n\n  other() { return 1; }\n}\n",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: true,
		},
		{
			name: "structural_regex_after_keyword_and_line_start",
			content: "r() {\n" +
				"  if (x) return /}/.test(x);\n" +
				"  const y = a\n" +
				"    /\\{+/u.exec(b);\n" +
				"  return y;\n" +
				"}\nrest",
			rules: []ReplacementRule{
				{Name: "r", Start: `r\(\)`, Replacement: "R"},
			},
			want:         "R\nrest",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: true,
		},
		{
			name:    "structural_division_is_not_a_regex",
			content: "d() {\n  const h = (w / 2) / n;\n  return { h };\n}\nrest",
			rules: []ReplacementRule{
				{Name: "d", Start: `d\(\)`, Replacement: "D"},
			},
			want:         "D\nrest",
			wantCount:    1,
			wantMatches:  []int{1},
			wantModified: true,
		},
		{
			name:    "structural_unbalanced_is_no_match",
			content: "h() {\n  {\n",
			rules: []ReplacementRule{
				{Name: "h", Start: `h\(\)`, Replacement: "H"},
			},
			want:         "h() {\n  {\n",
			wantCount:    0,
			wantMatches:  []int{0},
			wantModified: false,
		},
		{
			name:    "structural_counts_each_method",
			content: "m() { a }\nm() { b }\n",
			rules: []ReplacementRule{
				{Name: "m", Start: `m\(\)`, Replacement: "M"},
			},
			want:         "M\nm() { b }\n",
			wantCount:    1,
			wantMatches:  []int{2},
			wantModified: true,
		},
		{
			name:         "empty_content",
			content:      "",
			rules:        []ReplacementRule{{Name: "a", Start: `x`, End: `y`, Replacement: "z"}},
			want:         "",
			wantCount:    0,
			wantMatches:  []int{0},
			wantModified: false,
		},
		{
			name:         "empty_rules",
			content:      "Hello World",
			rules:        []ReplacementRule{},
			want:         "Hello World",
			wantCount:    0,
			wantMatches:  []int{},
			wantModified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replacer := NewSpanReplacer()
			result, err := replacer.ReplaceText(
				context.Background(),
				strings.NewReader(tt.content),
				tt.rules,
			)

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.content, string(result.OriginalContent))
			assert.Equal(t, tt.want, string(result.ModifiedContent))
			assert.Equal(t, tt.wantCount, result.ReplacementCount)
			assert.Equal(t, tt.wantModified, result.WasModified)

			matches := make([]int, 0, len(result.Rules))
			for _, rr := range result.Rules {
				matches = append(matches, rr.Matches)
				assert.Equal(t, rr.Matches > 0, rr.Replaced, "rule %s", rr.Name)
			}
			assert.Equal(t, tt.wantMatches, matches)
		})
	}
}

func TestSpanReplacer_ReplaceText_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSpanReplacer().ReplaceText(ctx, strings.NewReader("abc"), []ReplacementRule{
		{Name: "a", Start: `a`, End: `c`, Replacement: "x"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSpanReplacer_ValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		rules     []ReplacementRule
		wantError string
	}{
		{
			name: "valid_rules",
			rules: []ReplacementRule{
				{Name: "a", Start: `foo`, End: `bar`},
				{Name: "b", Start: `baz`, Mode: ModeStructural},
			},
		},
		{
			name:      "missing_name",
			rules:     []ReplacementRule{{Start: `foo`}},
			wantError: "name is required",
		},
		{
			name:      "missing_start",
			rules:     []ReplacementRule{{Name: "a"}},
			wantError: "start is required",
		},
		{
			name:      "pattern_without_end",
			rules:     []ReplacementRule{{Name: "a", Start: `foo`, Mode: ModePattern}},
			wantError: "end is required",
		},
		{
			name:      "bad_start",
			rules:     []ReplacementRule{{Name: "a", Start: `(`, Mode: ModeStructural}},
			wantError: "compiling start",
		},
		{
			name:      "bad_end",
			rules:     []ReplacementRule{{Name: "a", Start: `foo`, End: `[`}},
			wantError: "compiling pattern",
		},
		{
			name:      "unknown_mode",
			rules:     []ReplacementRule{{Name: "a", Start: `foo`, Mode: "ast"}},
			wantError: `unknown mode "ast"`,
		},
		{
			name:  "empty_rules",
			rules: []ReplacementRule{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSpanReplacer().ValidateRules(tt.rules)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestReplacementRule_EffectiveMode(t *testing.T) {
	assert.Equal(t, ModePattern, ReplacementRule{End: "x"}.EffectiveMode())
	assert.Equal(t, ModeStructural, ReplacementRule{}.EffectiveMode())
	assert.Equal(t, ModeStructural, ReplacementRule{End: "x", Mode: ModeStructural}.EffectiveMode())
}

func TestReplacementResult_Unmatched(t *testing.T) {
	result := &ReplacementResult{Rules: []RuleResult{
		{Name: "a", Matches: 1, Replaced: true},
		{Name: "b"},
		{Name: "c", Matches: 3, Replaced: true},
	}}
	assert.Equal(t, []string{"b"}, result.Unmatched())
}
