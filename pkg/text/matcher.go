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
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Span is a half-open byte range [Start, End) of the content
type Span struct {
	Start int
	End   int
}

// spanMatcher finds non-overlapping spans in content
type spanMatcher interface {
	FindAll(content string) []Span
}

// compile builds the matcher for a rule
func compile(rule ReplacementRule) (spanMatcher, error) {
	switch rule.EffectiveMode() {
	case ModePattern:
		if rule.End == "" {
			return nil, errors.Errorf("end is required in %s mode", ModePattern)
		}
		re, err := regexp.Compile("(?:" + rule.Start + `)[\s\S]*?(?:` + rule.End + ")")
		if err != nil {
			return nil, errors.Errorf("compiling pattern: %w", err)
		}
		return &patternMatcher{re: re}, nil
	case ModeStructural:
		re, err := regexp.Compile(rule.Start)
		if err != nil {
			return nil, errors.Errorf("compiling start: %w", err)
		}
		return &structuralMatcher{start: re}, nil
	default:
		return nil, errors.Errorf("unknown mode %q", rule.Mode)
	}
}

// patternMatcher spans from Start to the nearest following End
type patternMatcher struct {
	re *regexp.Regexp
}

func (m *patternMatcher) FindAll(content string) []Span {
	var spans []Span
	for _, loc := range m.re.FindAllStringIndex(content, -1) {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans
}

// structuralMatcher spans from Start to the brace that balances the one Start opens
type structuralMatcher struct {
	start *regexp.Regexp
}

func (m *structuralMatcher) FindAll(content string) []Span {
	var spans []Span
	next := 0
	for _, loc := range m.start.FindAllStringIndex(content, -1) {
		if loc[0] < next {
			continue
		}
		open := openingBrace(content, loc)
		if open < 0 {
			continue
		}
		end, ok := closingBrace(content, open)
		if !ok {
			continue
		}
		spans = append(spans, Span{Start: loc[0], End: end})
		next = end
	}
	return spans
}

// openingBrace prefers the last brace inside the start match, then the first one after it
func openingBrace(content string, loc []int) int {
	if i := strings.LastIndexByte(content[loc[0]:loc[1]], '{'); i >= 0 {
		return loc[0] + i
	}
	if i := strings.IndexByte(content[loc[1]:], '{'); i >= 0 {
		return loc[1] + i
	}
	return -1
}

// closingBrace returns the offset just past the brace that closes content[open].
// Braces inside quoted strings, template literals, regular expression literals
// and comments are ignored; ${...} expressions inside template literals are
// tracked as code.
func closingBrace(content string, open int) (int, bool) {
	depth := 0
	inTemplate := false
	// brace depth at which each open ${ expression hands back to its template
	var templates []int
	// last significant code byte and its offset, used to tell a regexp from a division
	prev, prevPos := byte('{'), open

	for i := open; i < len(content); i++ {
		c := content[i]

		if inTemplate {
			switch c {
			case '\\':
				i++
			case '`':
				inTemplate = false
				prev, prevPos = c, i
			case '$':
				if i+1 < len(content) && content[i+1] == '{' {
					i++
					depth++
					templates = append(templates, depth)
					inTemplate = false
					prev, prevPos = '{', i
				}
			}
			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '\'', '"':
			end := skipQuoted(content, i, c)
			if end < 0 {
				return 0, false
			}
			i = end
		case '`':
			inTemplate = true
		case '/':
			if i+1 < len(content) && content[i+1] == '/' {
				nl := strings.IndexByte(content[i:], '\n')
				if nl < 0 {
					return 0, false
				}
				i += nl
				continue
			}
			if i+1 < len(content) && content[i+1] == '*' {
				end := strings.Index(content[i+2:], "*/")
				if end < 0 {
					return 0, false
				}
				i += 2 + end + 1
				continue
			}
			if regexpAllowed(content, i, prev, prevPos) {
				if end := skipRegexp(content, i); end > 0 {
					i = end
				}
			}
		case '{':
			depth++
		case '}':
			if n := len(templates); n > 0 && templates[n-1] == depth {
				templates = templates[:n-1]
				depth--
				inTemplate = true
				continue
			}
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}

		prev, prevPos = content[i], i
	}

	return 0, false
}

// keywords after which a slash starts a regular expression literal
var regexpKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "of": true, "new": true, "delete": true, "void": true,
	"throw": true, "instanceof": true, "yield": true, "await": true,
}

// regexpAllowed reports whether the slash at content[i] opens a regular
// expression literal rather than a division
func regexpAllowed(content string, i int, prev byte, prevPos int) bool {
	for j := i - 1; j >= 0; j-- {
		c := content[j]
		if c == '\n' {
			return true
		}
		if c != ' ' && c != '\t' && c != '\r' {
			break
		}
	}

	if strings.IndexByte("(,=:[!&|?{};", prev) >= 0 {
		return true
	}

	if !isIdent(prev) {
		return false
	}
	start := prevPos
	for start > 0 && isIdent(content[start-1]) {
		start--
	}
	return regexpKeywords[content[start:prevPos+1]]
}

// skipRegexp returns the index of the slash closing the literal opened at
// content[i], or -1 when the line ends first
func skipRegexp(content string, i int) int {
	inClass := false
	for j := i + 1; j < len(content); j++ {
		switch content[j] {
		case '\\':
			j++
		case '\n':
			return -1
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return j
			}
		}
	}
	return -1
}

func isIdent(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// skipQuoted returns the index of the quote closing the string opened at content[i]
func skipQuoted(content string, i int, quote byte) int {
	for j := i + 1; j < len(content); j++ {
		switch content[j] {
		case '\\':
			j++
		case quote:
			return j
		case '\n':
			// unterminated literal, resume scanning as code on the next line
			return j
		}
	}
	return -1
}
