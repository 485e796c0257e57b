package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func storeAt(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".notion-sync", "state.json"), nil)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".notion-sync", "state.json")
	edited := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewStore(path, nil)
	s.Load()
	s.Record("abc123", "Linux", "linux", edited)
	s.SetLastSyncTime(time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC))
	require.NoError(t, s.Save())

	reloaded := NewStore(path, nil)
	reloaded.Load()

	ps, ok := reloaded.Get("abc123")
	require.True(t, ok)
	require.Equal(t, "Linux", ps.Title)
	require.Equal(t, "linux", ps.Directory)
	require.True(t, ps.LastEditedTime.Equal(edited))
	require.Nil(t, ps.ContentHash)

	last := reloaded.LastSyncTime()
	require.NotNil(t, last)
	require.Equal(t, 1, reloaded.Len())
}

func TestSaveWritesExpectedSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path, nil)
	s.Load()
	s.Record("abc123", "Linux", "linux", time.Now().UTC())
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "1.0", raw["version"])
	require.Contains(t, raw, "last_sync_time")

	pages := raw["pages"].(map[string]any)
	record := pages["abc123"].(map[string]any)
	for _, key := range []string{"page_id", "title", "directory", "last_edited_time", "last_synced_time", "content_hash"} {
		require.Contains(t, record, key)
	}
	require.Nil(t, record["content_hash"])

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestLoadToleratesMissingFile(t *testing.T) {
	s := storeAt(t)
	s.Load()
	require.Equal(t, 0, s.Len())
	require.Nil(t, s.LastSyncTime())
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewStore(path, nil)
	s.Load()
	require.Equal(t, 0, s.Len())
}

func TestShouldSync(t *testing.T) {
	s := storeAt(t)
	s.Load()

	recorded := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Record("known", "Known", "known", recorded)

	tests := []struct {
		name   string
		pageID string
		edited time.Time
		force  bool
		want   bool
	}{
		{"unknown page", "new", recorded, false, true},
		{"edited after record", "known", recorded.Add(time.Minute), false, true},
		{"edited before record", "known", recorded.Add(-time.Minute), false, false},
		{"equal timestamp", "known", recorded, false, false},
		{"force overrides", "known", recorded, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, s.ShouldSync(tc.pageID, tc.edited, tc.force))
		})
	}
}

func TestPagesSortedByTitle(t *testing.T) {
	s := storeAt(t)
	s.Load()
	now := time.Now().UTC()
	s.Record("1", "zebra", "zebra", now)
	s.Record("2", "Apple", "apple", now)
	s.Record("3", "mango", "mango", now)

	pages := s.Pages()
	require.Equal(t, []string{"Apple", "mango", "zebra"}, []string{pages[0].Title, pages[1].Title, pages[2].Title})
}

func TestReset(t *testing.T) {
	s := storeAt(t)
	s.Load()
	s.Record("abc", "A", "a", time.Now().UTC())
	s.SetLastSyncTime(time.Now().UTC())

	s.Reset()
	require.Equal(t, 0, s.Len())
	require.Nil(t, s.LastSyncTime())
}
