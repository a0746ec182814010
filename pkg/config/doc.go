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

/*
Package config loads patchrc rule-set files.

🎯 Purpose:
- Reads rule sets from YAML, JSON or HCL
- Validates targets, file patterns and rules before anything runs
- Resolves replacement text from inline strings, files or built-in bodies

🔄 Flow:
1. Load picks a Parser by file extension
2. The parser decodes the file into Config
3. Validate checks every target and rule
4. TextRules turns a target's rules into text.ReplacementRule values

📄 YAML:

	strict: true
	targets:
	  - files: ["server/services/*.js"]
	    rules:
	      - name: updateBus
	        start: '  async updateBus\(id, updates\) \{'
	        mode: structural
	        builtin: updateBus

📄 HCL:

	strict = true

	target {
	  files = ["server/services/databaseService.js"]

	  rule "deleteBus" {
	    start       = "  async deleteBus\\(id\\) \\{"
	    replacement = builtin.deleteBus
	  }
	}
*/
package config
