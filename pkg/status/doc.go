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
Package status owns file storage and per-file status tracking for patchrc.

	            +-------------+
	            |   Status    |
	            |  (Storage)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|   Files   |           |  Logs   |
	| (Storage) |           | (UI/UX) |
	+-----------+           +---------+

🎯 Purpose:
- Reads target files whole
- Rewrites them through a temp file and a rename, keeping the file mode
- Refuses to create files that were not there before the run
- Tracks what each run did to each file (modified, unchanged, preview, failed)

🔄 Flow:
1. The patcher reads the target through ReadFile
2. Rules run in memory
3. WriteFileAtomic replaces the content in one rename
4. TrackFile records the outcome and its checksum

🔍 Example:

	mgr := status.New(".")

	content, err := mgr.ReadFile(ctx, "server/services/databaseService.js")

	err = mgr.WriteFileAtomic(ctx, "server/services/databaseService.js", patched)

	mgr.TrackFile(ctx, "server/services/databaseService.js", status.FileInfo{
		Status:   status.StatusModified,
		Checksum: status.Checksum(patched),
	})
*/
package status
