package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMigrations(t *testing.T) {
	t.Run("applies all migrations successfully", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		err := store.ApplyMigrations(ctx)
		require.NoError(t, err)

		// Verify all migrations applied
		versions, err := store.GetAppliedVersions()
		require.NoError(t, err)
		assert.Len(t, versions, len(migrations))

		// Verify version order
		for i, v := range versions {
			assert.Equal(t, migrations[i].Version, v.Version)
		}
	})
}

func TestApplyMigrations_Idempotency(t *testing.T) {
	t.Run("applying migrations multiple times is safe", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		// Apply migrations first time
		err := store.ApplyMigrations(ctx)
		require.NoError(t, err)

		versionsFirst, err := store.GetAppliedVersions()
		require.NoError(t, err)

		// Apply migrations second time
		err = store.ApplyMigrations(ctx)
		require.NoError(t, err)

		versionsSecond, err := store.GetAppliedVersions()
		require.NoError(t, err)

		// Should have same number of versions
		assert.Equal(t, len(versionsFirst), len(versionsSecond))
	})
}

func TestIsMigrationApplied(t *testing.T) {
	tests := []struct {
		name    string
		version int
		want    bool
	}{
		{
			name:    "initial migration is applied",
			version: 1,
			want:    true,
		},
		{
			name:    "future version is not applied",
			version: 99,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			defer store.Close()

			applied, err := store.IsMigrationApplied(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, applied)
		})
	}
}

func TestGetLatestVersion(t *testing.T) {
	t.Run("returns highest applied version", func(t *testing.T) {
		store := setupTestStore(t)
		defer store.Close()

		version, err := store.GetLatestVersion()
		require.NoError(t, err)
		assert.Equal(t, migrations[len(migrations)-1].Version, version)
	})
}

func TestRecordMigration(t *testing.T) {
	t.Run("recording the same version twice is ignored", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		err := store.recordMigration(ctx, 42)
		require.NoError(t, err)
		err = store.recordMigration(ctx, 42)
		require.NoError(t, err)

		var count int
		err = store.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = 42").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestMigrations_TableCreation(t *testing.T) {
	t.Run("migration 1 creates ledger tables", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		err := store.ApplyMigrations(ctx)
		require.NoError(t, err)

		tables := []string{"runs", "block_failures", "schema_version"}
		for _, table := range tables {
			exists, err := store.tableExists(table)
			require.NoError(t, err, "table %s should exist", table)
			assert.True(t, exists, "table %s should exist", table)
		}
	})
}

func TestMigrations_IndexCreation(t *testing.T) {
	t.Run("migration 1 creates indexes", func(t *testing.T) {
		ctx := context.Background()
		store := setupTestStore(t)
		defer store.Close()

		err := store.ApplyMigrations(ctx)
		require.NoError(t, err)

		indexes := []string{
			"idx_runs_started_at",
			"idx_runs_passed",
			"idx_block_failures_run",
			"idx_block_failures_document",
		}
		for _, index := range indexes {
			exists, err := store.indexExists(index)
			require.NoError(t, err, "index %s should exist", index)
			assert.True(t, exists, "index %s should exist", index)
		}
	})
}

func TestMigrations_PersistAcrossReopen(t *testing.T) {
	t.Run("applied versions survive reopening the database", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "versions.db")

		store1, err := NewStore(dbPath)
		require.NoError(t, err)
		require.NoError(t, store1.Close())

		store2, err := NewStore(dbPath)
		require.NoError(t, err)
		defer store2.Close()

		versions, err := store2.GetAppliedVersions()
		require.NoError(t, err)
		assert.Len(t, versions, len(migrations))
	})
}
