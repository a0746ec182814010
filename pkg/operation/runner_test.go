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

package operation

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// 🔧 MockOperation is a mock implementation of Operation
type MockOperation struct {
	mock.Mock
}

func (m *MockOperation) Key() string {
	return m.Called().String(0)
}

func (m *MockOperation) Execute(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// recorder is an Operation that appends its name to a shared log
type recorder struct {
	key  string
	name string
	mu   *sync.Mutex
	seen *[]string
	err  error
}

func (r *recorder) Key() string { return r.key }

func (r *recorder) Execute(ctx context.Context) error {
	r.mu.Lock()
	*r.seen = append(*r.seen, r.name)
	r.mu.Unlock()
	return r.err
}

func TestOperationRunner(t *testing.T) {
	tests := []struct {
		name    string
		async   bool
		ops     func(mu *sync.Mutex, seen *[]string) []Operation
		want    []string
		sorted  bool
		wantErr string
	}{
		{
			name: "sync_runs_in_order",
			ops: func(mu *sync.Mutex, seen *[]string) []Operation {
				return []Operation{
					&recorder{key: "a", name: "a1", mu: mu, seen: seen},
					&recorder{key: "b", name: "b1", mu: mu, seen: seen},
					&recorder{key: "a", name: "a2", mu: mu, seen: seen},
				}
			},
			want: []string{"a1", "b1", "a2"},
		},
		{
			name: "sync_stops_at_first_error",
			ops: func(mu *sync.Mutex, seen *[]string) []Operation {
				return []Operation{
					&recorder{key: "a", name: "a1", mu: mu, seen: seen, err: errors.New("boom")},
					&recorder{key: "b", name: "b1", mu: mu, seen: seen},
				}
			},
			want:    []string{"a1"},
			wantErr: "boom",
		},
		{
			name:  "async_runs_everything",
			async: true,
			ops: func(mu *sync.Mutex, seen *[]string) []Operation {
				return []Operation{
					&recorder{key: "a", name: "a1", mu: mu, seen: seen},
					&recorder{key: "b", name: "b1", mu: mu, seen: seen},
					&recorder{key: "c", name: "c1", mu: mu, seen: seen},
				}
			},
			want:   []string{"a1", "b1", "c1"},
			sorted: true,
		},
		{
			name:  "async_returns_error",
			async: true,
			ops: func(mu *sync.Mutex, seen *[]string) []Operation {
				return []Operation{
					&recorder{key: "a", name: "a1", mu: mu, seen: seen, err: errors.New("boom")},
				}
			},
			want:    []string{"a1"},
			wantErr: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := zerolog.Nop()
			var mu sync.Mutex
			var seen []string

			err := NewRunner(&logger, tt.async).Run(context.Background(), tt.ops(&mu, &seen)...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			if tt.sorted {
				sort.Strings(seen)
			}
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestOperationRunner_AsyncKeepsKeyOrder(t *testing.T) {
	logger := zerolog.Nop()
	var mu sync.Mutex
	var seen []string

	var ops []Operation
	for _, name := range []string{"x1", "x2", "x3", "x4"} {
		ops = append(ops, &recorder{key: "same", name: name, mu: &mu, seen: &seen})
	}

	require.NoError(t, NewRunner(&logger, true).Run(context.Background(), ops...))
	assert.Equal(t, []string{"x1", "x2", "x3", "x4"}, seen)
}

func TestOperationRunner_Cancelled(t *testing.T) {
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := &MockOperation{}
	op.On("Key").Return("a")

	err := NewRunner(&logger, false).Run(ctx, op)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	op.AssertNotCalled(t, "Execute", mock.Anything)
}

func TestOperationRunner_Mock(t *testing.T) {
	logger := zerolog.Nop()

	op := &MockOperation{}
	op.On("Key").Return("a")
	op.On("Execute", mock.Anything).Return(nil).Once()

	require.NoError(t, NewRunner(&logger, true).Run(context.Background(), op))
	op.AssertExpectations(t)
}

// progress records the calls a runner makes to its StatusReporter
type progress struct {
	mu       sync.Mutex
	total    int
	updates  []int
	finished bool
}

var _ status.StatusReporter = (*progress)(nil)

func (p *progress) TrackFile(ctx context.Context, path string, info status.FileInfo) {}

func (p *progress) GetFileInfo(ctx context.Context, path string) (status.FileInfo, error) {
	return status.FileInfo{}, nil
}

func (p *progress) ListFiles(ctx context.Context) ([]status.FileInfo, error) { return nil, nil }

func (p *progress) StartOperation(ctx context.Context, total int) { p.total = total }

func (p *progress) UpdateProgress(ctx context.Context, processed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, processed)
}

func (p *progress) FinishOperation(ctx context.Context) { p.finished = true }

func TestOperationRunner_Progress(t *testing.T) {
	tests := []struct {
		name         string
		async        bool
		failAt       int
		wantUpdates  int
		wantFinished bool
	}{
		{name: "sync_reports_each_operation", wantUpdates: 3, wantFinished: true},
		{name: "async_reports_each_operation", async: true, wantUpdates: 3, wantFinished: true},
		{name: "failure_skips_finish", failAt: 2, wantUpdates: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := zerolog.Nop()
			var mu sync.Mutex
			var seen []string

			ops := make([]Operation, 0, 3)
			for i, k := range []string{"a", "b", "c"} {
				r := &recorder{key: k, name: k, mu: &mu, seen: &seen}
				if tt.failAt == i+1 {
					r.err = errors.New("boom")
				}
				ops = append(ops, r)
			}

			p := &progress{}
			err := NewRunner(&logger, tt.async).WithProgress(p).Run(context.Background(), ops...)
			if tt.failAt > 0 {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, 3, p.total)
			assert.Len(t, p.updates, tt.wantUpdates)
			assert.Equal(t, tt.wantFinished, p.finished)
			if tt.wantUpdates > 0 {
				sorted := append([]int(nil), p.updates...)
				sort.Ints(sorted)
				assert.Equal(t, tt.wantUpdates, sorted[len(sorted)-1])
			}
		})
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"server/services/databaseService.js", "server/services/authService.js", "server/index.js", "src/App.jsx"} {
		path := filepath.Join(dir, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	tests := []struct {
		name        string
		patterns    []string
		want        []string
		errContains string
	}{
		{
			name:     "plain_path",
			patterns: []string{"server/services/databaseService.js"},
			want:     []string{"server/services/databaseService.js"},
		},
		{
			name:     "plain_missing_path_is_kept",
			patterns: []string{"server/missing.js"},
			want:     []string{"server/missing.js"},
		},
		{
			name:     "single_star",
			patterns: []string{"server/services/*.js"},
			want:     []string{"server/services/authService.js", "server/services/databaseService.js"},
		},
		{
			name:     "double_star",
			patterns: []string{"server/**/*.js"},
			want:     []string{"server/index.js", "server/services/authService.js", "server/services/databaseService.js"},
		},
		{
			name:     "deduplicates",
			patterns: []string{"server/services/databaseService.js", "server/services/*Service.js"},
			want:     []string{"server/services/databaseService.js", "server/services/authService.js"},
		},
		{
			name:        "glob_without_matches",
			patterns:    []string{"lib/**/*.go"},
			errContains: "matched no files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(dir, tt.patterns)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)

			want := make([]string, 0, len(tt.want))
			for _, w := range tt.want {
				want = append(want, filepath.Join(dir, filepath.FromSlash(w)))
			}
			sort.Strings(got)
			sort.Strings(want)
			assert.Equal(t, want, got)
		})
	}
}
