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

package patch

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is how many unchanged lines are kept around each change
const contextLines = 3

// Render returns a line diff of before and after. Changed lines carry a "+ "
// or "- " prefix, unchanged lines "  ", and long unchanged runs collapse to "  ...".
func Render(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	// one rune per line; DiffMain on the string form splits multi-digit indices
	a, b, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(a, b, false), lines)

	var sb strings.Builder
	for i, d := range diffs {
		chunk := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			writeLines(&sb, "+ ", chunk)
		case diffmatchpatch.DiffDelete:
			writeLines(&sb, "- ", chunk)
		default:
			first, last := i == 0, i == len(diffs)-1
			writeLines(&sb, "  ", collapse(chunk, first, last))
		}
	}
	return sb.String()
}

// collapse trims an unchanged run down to the context around its neighbours
func collapse(chunk []string, first, last bool) []string {
	head, tail := contextLines, contextLines
	if first {
		head = 0
	}
	if last {
		tail = 0
	}
	if len(chunk) <= head+tail+1 {
		return chunk
	}
	out := make([]string, 0, head+tail+1)
	out = append(out, chunk[:head]...)
	out = append(out, "...")
	out = append(out, chunk[len(chunk)-tail:]...)
	return out
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

func writeLines(sb *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}
