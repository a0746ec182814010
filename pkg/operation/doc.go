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
Package operation plans and runs patch operations.

🎯 Purpose:
- Turns a config (or an explicit file list and rule set) into one
  PatchOperation per target file
- Expands doublestar file patterns relative to the config file
- Runs operations in order, or concurrently across distinct files

🔄 Flow:
1. Plan resolves rules and files for every target
2. OperationRunner executes each PatchOperation
3. Each operation delegates to a patch.Patcher, which uses the status
   package for file I/O

⚡ Concurrency:
Operations that share a Key (the absolute target path) always run in order
inside one goroutine, so a file is never touched by two writers. Console
output of concurrent operations is buffered per file and flushed whole.
A runner built WithProgress reports each finished operation to a
status.StatusReporter.
*/
package operation
