package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"notionsync/internal/notion"
)

// writeIndex regenerates the root README with an alphabetical topic list.
func (e *Engine) writeIndex(pages []notion.Page) error {
	sorted := make([]notion.Page, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})

	lines := []string{
		"# 📚 " + e.cfg.IndexTitle,
		"",
		"A collection of technical notes and documentation.",
		"",
		"---",
		"",
		"## Topics",
		"",
	}
	for _, page := range sorted {
		directory := e.cfg.DirectoryFor(page.Title)
		icon := page.Icon
		if icon == "" {
			icon = "📄"
		}
		lines = append(lines, fmt.Sprintf("- [%s %s](./%s/)", icon, page.Title, directory))
	}
	lines = append(lines,
		"",
		"---",
		"",
		"## About",
		"",
		"These notes are automatically synced from [Notion](https://notion.so) using a custom sync system.",
		"",
		fmt.Sprintf("*Last sync: %s*", time.Now().UTC().Format("2006-01-02 15:04 UTC")),
		"",
	)

	path := filepath.Join(e.cfg.RepoRoot, "README.md")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
