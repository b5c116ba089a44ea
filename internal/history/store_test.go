package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  string
		wantErr bool
	}{
		{
			name:    "creates database successfully",
			dbPath:  filepath.Join(t.TempDir(), "history.db"),
			wantErr: false,
		},
		{
			name:    "handles in-memory database",
			dbPath:  ":memory:",
			wantErr: false,
		},
		{
			name:    "returns error for invalid path",
			dbPath:  "/invalid/nonexistent/deep/path/history.db",
			wantErr: true,
		},
		{
			name:    "creates parent directories if needed",
			dbPath:  filepath.Join(t.TempDir(), ".mxd", "history.db"),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.dbPath)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, store)
			defer store.Close()

			// Verify schema initialized
			version, err := store.getSchemaVersion()
			require.NoError(t, err)
			assert.Equal(t, 1, version)

			// Verify database path set correctly
			assert.Equal(t, tt.dbPath, store.dbPath)
		})
	}
}

func TestRecordRun(t *testing.T) {
	tests := []struct {
		name     string
		run      *Run
		failures []*BlockFailure
		wantErr  bool
	}{
		{
			name: "records passing run without failures",
			run: &Run{
				ID:         "a1b2c3d4-0000-0000-0000-000000000001",
				StartedAt:  time.Now(),
				DurationMs: 1850,
				Documents:  3,
				Blocks:     7,
				Failures:   0,
				Passed:     true,
			},
			wantErr: false,
		},
		{
			name: "records failing run with block detail",
			run: &Run{
				ID:         "a1b2c3d4-0000-0000-0000-000000000002",
				StartedAt:  time.Now(),
				DurationMs: 4200,
				Documents:  2,
				Blocks:     4,
				Failures:   2,
				Passed:     false,
			},
			failures: []*BlockFailure{
				{
					Document:   "docs/design.md",
					BlockIndex: 1,
					Line:       12,
					Status:     "syntax-error",
					Diagnostic: "Parse error on line 2:\n...A-->\n------^\nExpecting 'AMP'",
				},
				{
					Document:   "docs/pipeline.md",
					BlockIndex: 3,
					Line:       48,
					Status:     "timed-out",
				},
			},
			wantErr: false,
		},
		{
			name: "handles empty diagnostic",
			run: &Run{
				ID:         "a1b2c3d4-0000-0000-0000-000000000003",
				StartedAt:  time.Now(),
				DurationMs: 900,
				Documents:  1,
				Blocks:     1,
				Failures:   1,
				Passed:     false,
			},
			failures: []*BlockFailure{
				{
					Document:   "README.md",
					BlockIndex: 1,
					Line:       5,
					Status:     "tooling-missing",
				},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := setupTestStore(t)
			defer store.Close()

			err := store.RecordRun(ctx, tt.run, tt.failures)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			// Verify run row exists
			var count int
			err = store.db.QueryRow("SELECT COUNT(*) FROM runs WHERE id = ?", tt.run.ID).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			// Verify failure rows inherit the run ID and receive database IDs
			err = store.db.QueryRow("SELECT COUNT(*) FROM block_failures WHERE run_id = ?", tt.run.ID).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, len(tt.failures), count)
			for _, f := range tt.failures {
				assert.Equal(t, tt.run.ID, f.RunID)
				assert.NotZero(t, f.ID)
			}
		})
	}
}

func TestRecordRun_DuplicateID(t *testing.T) {
	t.Run("rejects duplicate run IDs", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		run := &Run{ID: "duplicate", StartedAt: time.Now(), Passed: true}
		require.NoError(t, store.RecordRun(ctx, run, nil))

		err := store.RecordRun(ctx, run, nil)
		require.Error(t, err)
	})
}

func TestRecordRun_Concurrent(t *testing.T) {
	t.Run("handles concurrent writes without corruption", func(t *testing.T) {
		ctx := context.Background()

		// Use file-based DB for better concurrent access support
		dbPath := filepath.Join(t.TempDir(), "concurrent.db")
		store, err := NewStore(dbPath)
		require.NoError(t, err)
		defer store.Close()

		// Record 10 runs concurrently
		done := make(chan error, 10)
		for i := 0; i < 10; i++ {
			go func(idx int) {
				run := &Run{
					ID:         fmt.Sprintf("run-%d", idx),
					StartedAt:  time.Now(),
					DurationMs: int64(idx * 100),
					Documents:  1,
					Blocks:     idx,
					Failures:   idx % 2,
					Passed:     idx%2 == 0,
				}
				done <- store.RecordRun(ctx, run, nil)
			}(i)
		}

		// Wait for all goroutines
		for i := 0; i < 10; i++ {
			err := <-done
			require.NoError(t, err)
		}

		// Verify all records exist
		var count int
		err = store.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 10, count)
	})
}

func TestGetRuns(t *testing.T) {
	tests := []struct {
		name      string
		recorded  int
		limit     int
		wantCount int
	}{
		{
			name:      "returns newest runs first up to limit",
			recorded:  5,
			limit:     3,
			wantCount: 3,
		},
		{
			name:      "returns all runs when limit exceeds count",
			recorded:  2,
			limit:     10,
			wantCount: 2,
		},
		{
			name:      "non-positive limit returns everything",
			recorded:  4,
			limit:     0,
			wantCount: 4,
		},
		{
			name:      "empty store returns no runs",
			recorded:  0,
			limit:     10,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := setupTestStore(t)
			defer store.Close()

			base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			for i := 0; i < tt.recorded; i++ {
				run := &Run{
					ID:        fmt.Sprintf("run-%d", i),
					StartedAt: base.Add(time.Duration(i) * time.Minute),
					Passed:    true,
				}
				require.NoError(t, store.RecordRun(ctx, run, nil))
			}

			runs, err := store.GetRuns(ctx, tt.limit)
			require.NoError(t, err)
			require.Len(t, runs, tt.wantCount)

			// Newest first
			for i := 0; i < len(runs); i++ {
				assert.Equal(t, fmt.Sprintf("run-%d", tt.recorded-1-i), runs[i].ID)
			}
		})
	}
}

func TestGetRuns_RoundTrip(t *testing.T) {
	t.Run("preserves all run fields", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		recorded := &Run{
			ID:         "round-trip",
			StartedAt:  time.Date(2026, 4, 2, 14, 30, 0, 0, time.UTC),
			DurationMs: 3125,
			Documents:  4,
			Blocks:     9,
			Failures:   2,
			Passed:     false,
		}
		require.NoError(t, store.RecordRun(ctx, recorded, nil))

		runs, err := store.GetRuns(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)

		got := runs[0]
		assert.Equal(t, recorded.ID, got.ID)
		assert.True(t, got.StartedAt.Equal(recorded.StartedAt))
		assert.Equal(t, recorded.DurationMs, got.DurationMs)
		assert.Equal(t, recorded.Documents, got.Documents)
		assert.Equal(t, recorded.Blocks, got.Blocks)
		assert.Equal(t, recorded.Failures, got.Failures)
		assert.False(t, got.Passed)
	})
}

func TestGetFailures(t *testing.T) {
	t.Run("returns failures ordered by document and block index", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		run := &Run{ID: "with-failures", StartedAt: time.Now(), Failures: 3}
		failures := []*BlockFailure{
			{Document: "docs/z.md", BlockIndex: 1, Line: 3, Status: "generic-failure"},
			{Document: "docs/a.md", BlockIndex: 2, Line: 20, Status: "syntax-error", Diagnostic: "Parse error on line 1"},
			{Document: "docs/a.md", BlockIndex: 1, Line: 4, Status: "timed-out"},
		}
		require.NoError(t, store.RecordRun(ctx, run, failures))

		got, err := store.GetFailures(ctx, "with-failures")
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.Equal(t, "docs/a.md", got[0].Document)
		assert.Equal(t, 1, got[0].BlockIndex)
		assert.Equal(t, "timed-out", got[0].Status)
		assert.Equal(t, "docs/a.md", got[1].Document)
		assert.Equal(t, 2, got[1].BlockIndex)
		assert.Equal(t, 20, got[1].Line)
		assert.Equal(t, "Parse error on line 1", got[1].Diagnostic)
		assert.Equal(t, "docs/z.md", got[2].Document)
	})

	t.Run("returns empty for run without failures", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		run := &Run{ID: "clean", StartedAt: time.Now(), Passed: true}
		require.NoError(t, store.RecordRun(ctx, run, nil))

		got, err := store.GetFailures(ctx, "clean")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestPruneRuns(t *testing.T) {
	t.Run("keeps newest runs and removes orphaned failures", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			run := &Run{
				ID:        fmt.Sprintf("run-%d", i),
				StartedAt: base.Add(time.Duration(i) * time.Hour),
				Failures:  1,
			}
			failures := []*BlockFailure{
				{Document: "docs/flow.md", BlockIndex: 1, Line: 10, Status: "generic-failure"},
			}
			require.NoError(t, store.RecordRun(ctx, run, failures))
		}

		pruned, err := store.PruneRuns(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), pruned)

		runs, err := store.GetRuns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-4", runs[0].ID)
		assert.Equal(t, "run-3", runs[1].ID)

		// Failures for pruned runs were removed with them
		var count int
		err = store.db.QueryRow("SELECT COUNT(*) FROM block_failures").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("no-op when fewer runs than limit", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		run := &Run{ID: "only", StartedAt: time.Now(), Passed: true}
		require.NoError(t, store.RecordRun(ctx, run, nil))

		pruned, err := store.PruneRuns(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(0), pruned)
	})

	t.Run("rejects non-positive keep count", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		_, err := store.PruneRuns(ctx, 0)
		require.Error(t, err)
	})
}

func TestSchemaIdempotency(t *testing.T) {
	t.Run("reopening the same database is safe", func(t *testing.T) {
		ctx := context.Background()
		dbPath := filepath.Join(t.TempDir(), "reopen.db")

		store1, err := NewStore(dbPath)
		require.NoError(t, err)
		run := &Run{ID: "persisted", StartedAt: time.Now(), Passed: true}
		require.NoError(t, store1.RecordRun(ctx, run, nil))
		require.NoError(t, store1.Close())

		store2, err := NewStore(dbPath)
		require.NoError(t, err)
		defer store2.Close()

		runs, err := store2.GetRuns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "persisted", runs[0].ID)
	})
}

func TestConcurrentInitialization(t *testing.T) {
	t.Run("handles concurrent initialization attempts", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "concurrent_init.db")

		// Create multiple stores concurrently
		stores := make([]*Store, 3)
		errs := make([]error, 3)

		done := make(chan bool)
		for i := 0; i < 3; i++ {
			go func(idx int) {
				stores[idx], errs[idx] = NewStore(dbPath)
				done <- true
			}(i)
		}

		// Wait for all goroutines
		for i := 0; i < 3; i++ {
			<-done
		}

		// All should succeed
		for i := 0; i < 3; i++ {
			require.NoError(t, errs[i])
			require.NotNil(t, stores[i])
			defer stores[i].Close()

			version, err := stores[i].getSchemaVersion()
			require.NoError(t, err)
			assert.Equal(t, 1, version)
		}
	})
}

// setupTestStore creates a test store with in-memory database
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	return store
}
