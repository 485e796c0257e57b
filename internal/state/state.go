// Package state persists per-page sync bookkeeping so unchanged pages can
// be skipped on later runs.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const stateVersion = "1.0"

// PageState is one page's sync record. ContentHash is reserved for future
// change detection and stays null.
type PageState struct {
	PageID         string    `json:"page_id"`
	Title          string    `json:"title"`
	Directory      string    `json:"directory"`
	LastEditedTime time.Time `json:"last_edited_time"`
	LastSyncedTime time.Time `json:"last_synced_time"`
	ContentHash    *string   `json:"content_hash"`
}

type syncState struct {
	Version      string               `json:"version"`
	LastSyncTime *time.Time           `json:"last_sync_time"`
	Pages        map[string]PageState `json:"pages"`
}

// Store is the repository for the persisted state file. Load tolerates a
// missing or corrupt file; Save writes atomically.
type Store struct {
	path  string
	log   *slog.Logger
	state syncState
}

// NewStore returns an empty store bound to path. Call Load to read the
// persisted state.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:  path,
		log:   logger,
		state: emptyState(),
	}
}

func emptyState() syncState {
	return syncState{Version: stateVersion, Pages: map[string]PageState{}}
}

// Load reads the state file. A missing or unreadable file resets to an
// empty store with a warning; it is never fatal.
func (s *Store) Load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("could not read state file, starting fresh", "path", s.path, "error", err)
		}
		s.state = emptyState()
		return
	}

	var loaded syncState
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.log.Warn("could not parse state file, starting fresh", "path", s.path, "error", err)
		s.state = emptyState()
		return
	}
	if loaded.Version == "" {
		loaded.Version = stateVersion
	}
	if loaded.Pages == nil {
		loaded.Pages = map[string]PageState{}
	}
	s.state = loaded
}

// Save writes the state atomically (temp file + rename) so a crash never
// leaves a half-written store behind.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	payload, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// ShouldSync reports whether a page needs re-rendering: forced, never seen
// before, or edited remotely after the recorded timestamp. An equal
// timestamp means unchanged.
func (s *Store) ShouldSync(pageID string, remoteEdited time.Time, force bool) bool {
	if force {
		return true
	}
	prior, ok := s.state.Pages[pageID]
	if !ok {
		return true
	}
	return remoteEdited.After(prior.LastEditedTime)
}

// Record upserts a page's state after a successful render.
func (s *Store) Record(pageID, title, directory string, remoteEdited time.Time) PageState {
	ps := PageState{
		PageID:         pageID,
		Title:          title,
		Directory:      directory,
		LastEditedTime: remoteEdited,
		LastSyncedTime: time.Now().UTC(),
	}
	s.state.Pages[pageID] = ps
	return ps
}

// Get returns the recorded state for a page, if any.
func (s *Store) Get(pageID string) (PageState, bool) {
	ps, ok := s.state.Pages[pageID]
	return ps, ok
}

// Pages returns all recorded pages sorted by title.
func (s *Store) Pages() []PageState {
	pages := make([]PageState, 0, len(s.state.Pages))
	for _, ps := range s.state.Pages {
		pages = append(pages, ps)
	}
	sort.Slice(pages, func(i, j int) bool {
		return strings.ToLower(pages[i].Title) < strings.ToLower(pages[j].Title)
	})
	return pages
}

// Len reports the number of recorded pages.
func (s *Store) Len() int { return len(s.state.Pages) }

// SetLastSyncTime records the end of a full pass.
func (s *Store) SetLastSyncTime(t time.Time) {
	t = t.UTC()
	s.state.LastSyncTime = &t
}

// LastSyncTime returns the end of the last full pass, if one happened.
func (s *Store) LastSyncTime() *time.Time { return s.state.LastSyncTime }

// Reset clears the whole store. The only way page records are ever deleted.
func (s *Store) Reset() {
	s.state = emptyState()
}
