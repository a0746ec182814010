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

// Package rules holds the built-in rule set that rewrites the bus methods of
// the server's database service so they honour fallback mode.
package rules

import (
	_ "embed"

	"github.com/walteh/patchrc/pkg/text"
)

// DefaultTarget is the file the built-in rule set patches, relative to the working directory
const DefaultTarget = "server/services/databaseService.js"

// ConfirmationMessage is printed after the built-in rule set has been applied
const ConfirmationMessage = "Successfully updated updateBus and deleteBus methods!"

const (
	UpdateBus = "updateBus"
	DeleteBus = "deleteBus"
)

var (
	//go:embed bodies/updateBus.js
	updateBusBody string

	//go:embed bodies/deleteBus.js
	deleteBusBody string
)

// Bus returns the built-in rules matching each method by balanced braces
func Bus() []text.ReplacementRule {
	return []text.ReplacementRule{
		{
			Name:        UpdateBus,
			Start:       `  async updateBus\(id, updates\) \{`,
			Mode:        text.ModeStructural,
			Replacement: updateBusBody,
		},
		{
			Name:        DeleteBus,
			Start:       `  async deleteBus\(id\) \{`,
			Mode:        text.ModeStructural,
			Replacement: deleteBusBody,
		},
	}
}

// BusPattern returns the built-in rules matching each method up to a literal
// closing statement. An early return of the same shape ends the span early.
func BusPattern() []text.ReplacementRule {
	return []text.ReplacementRule{
		{
			Name:        UpdateBus,
			Start:       `  async updateBus\(id, updates\) \{`,
			End:         `return result\.rows\[0\];\s+\}`,
			Mode:        text.ModePattern,
			Replacement: updateBusBody,
		},
		{
			Name:        DeleteBus,
			Start:       `  async deleteBus\(id\) \{`,
			End:         `return \{ success: true \};\s+\}`,
			Mode:        text.ModePattern,
			Replacement: deleteBusBody,
		},
	}
}

// Body returns the replacement body for a built-in rule
func Body(name string) (string, bool) {
	switch name {
	case UpdateBus:
		return updateBusBody, true
	case DeleteBus:
		return deleteBusBody, true
	default:
		return "", false
	}
}
