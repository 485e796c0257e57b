package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"notionsync/internal/state"
)

// SyncedPages lists every tracked page, ordered by title.
func (e *Engine) SyncedPages() []state.PageState {
	return e.store.Pages()
}

// LastSyncTime reports when the last full pass finished, if ever.
func (e *Engine) LastSyncTime() (time.Time, bool) {
	if t := e.store.LastSyncTime(); t != nil {
		return *t, true
	}
	return time.Time{}, false
}

// Clean removes every tracked page directory plus the root README and
// resets the tracker. It returns the paths it removed.
func (e *Engine) Clean() ([]string, error) {
	var removed []string

	for _, page := range e.store.Pages() {
		dir := filepath.Join(e.cfg.RepoRoot, page.Directory)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("remove %s: %w", dir, err)
		}
		removed = append(removed, dir)
	}

	readme := filepath.Join(e.cfg.RepoRoot, "README.md")
	if _, err := os.Stat(readme); err == nil {
		if err := os.Remove(readme); err != nil {
			return removed, fmt.Errorf("remove %s: %w", readme, err)
		}
		removed = append(removed, readme)
	}

	e.store.Reset()
	if err := e.store.Save(); err != nil {
		return removed, fmt.Errorf("reset state: %w", err)
	}
	return removed, nil
}
