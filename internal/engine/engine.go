// Package engine orchestrates one sync pass: page discovery, per-page
// render decisions, rendering and writing, index generation, change
// classification and the final commit.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notionsync/internal/changes"
	"notionsync/internal/config"
	"notionsync/internal/markdown"
	"notionsync/internal/notion"
	"notionsync/internal/state"
)

// PageSource is the document-fetch collaborator. notion.Client implements
// it; engine tests use fakes.
type PageSource interface {
	ChildPages(ctx context.Context, parentID string) ([]notion.Page, error)
	PageBlocks(ctx context.Context, pageID string) ([]notion.Block, error)
	RequestCount() int
}

// GitService is the version-control collaborator.
type GitService interface {
	EnsureRepo() error
	HasCommits() bool
	StatusLines() ([]string, error)
	StageAll() error
	Commit(message string) (bool, error)
	Push(ctx context.Context, remote, branch string) (bool, error)
}

// Options are the per-run flags.
type Options struct {
	Push   bool
	DryRun bool
	Force  bool
}

// Result summarizes one sync pass. One failed page does not abort the
// batch; Success is "zero failed pages".
type Result struct {
	Synced  []string
	Skipped []string
	Failed  []string

	ImagesDownloaded int
	CommitCreated    bool
	Pushed           bool
	Requests         int
	CommitMessage    string
}

// Success reports whether every page made it through.
func (r *Result) Success() bool { return len(r.Failed) == 0 }

// Engine wires the collaborators together. All work is sequential; each
// page is processed fully before the next begins.
type Engine struct {
	cfg   config.Config
	pages PageSource
	git   GitService
	store *state.Store
	conv  *markdown.Converter
	log   *slog.Logger
}

// New assembles an Engine. The store must already be loaded.
func New(cfg config.Config, pages PageSource, git GitService, store *state.Store, conv *markdown.Converter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, pages: pages, git: git, store: store, conv: conv, log: logger}
}

// Sync performs a full pass. Collaborator failures on individual pages are
// collected in the result, not returned; the returned error covers only
// repository bootstrap problems that make the whole run impossible.
func (e *Engine) Sync(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}

	if err := e.git.EnsureRepo(); err != nil {
		return nil, fmt.Errorf("prepare repository: %w", err)
	}
	isInitial := !e.git.HasCommits()

	pages, err := e.pages.ChildPages(ctx, e.cfg.ParentPageID)
	if err != nil {
		e.log.Error("page discovery failed", "error", err)
		result.Failed = append(result.Failed, "(page discovery)")
		result.Requests = e.pages.RequestCount()
		return result, nil
	}
	if len(pages) == 0 {
		e.log.Warn("no pages found under the parent page; check integration access")
		result.Requests = e.pages.RequestCount()
		return result, nil
	}

	for _, page := range pages {
		synced, imgCount, err := e.syncPage(ctx, page, opts)
		if err != nil {
			e.log.Error("page sync failed", "page", page.Title, "error", err)
			result.Failed = append(result.Failed, page.Title)
			continue
		}
		result.ImagesDownloaded += imgCount
		if synced {
			result.Synced = append(result.Synced, page.Title)
		} else {
			result.Skipped = append(result.Skipped, page.Title)
		}
	}

	if err := e.writeIndex(pages); err != nil {
		e.log.Error("index generation failed", "error", err)
		result.Failed = append(result.Failed, "(index)")
	}

	if err := e.commitChanges(ctx, result, opts, isInitial); err != nil {
		e.log.Error("commit failed", "error", err)
		result.Failed = append(result.Failed, "(commit)")
	}

	e.store.SetLastSyncTime(time.Now().UTC())
	if err := e.store.Save(); err != nil {
		e.log.Error("state save failed", "error", err)
	}

	result.Requests = e.pages.RequestCount()
	return result, nil
}

func (e *Engine) commitChanges(ctx context.Context, result *Result, opts Options, isInitial bool) error {
	lines, err := e.git.StatusLines()
	if err != nil {
		return err
	}
	for _, line := range lines {
		e.log.Debug("status", "line", line)
	}

	changeSet := changes.Classify(lines)
	if !changeSet.HasChanges() {
		e.log.Info("no changes to commit")
		return nil
	}

	syncedDirs := make([]string, 0, len(result.Synced))
	for _, title := range result.Synced {
		syncedDirs = append(syncedDirs, e.cfg.DirectoryFor(title))
	}
	message := changes.CommitMessage(changeSet, syncedDirs, isInitial)
	result.CommitMessage = message

	if opts.DryRun {
		e.log.Info("dry run, skipping commit", "message", message)
		result.CommitCreated = true
		result.Pushed = opts.Push
		return nil
	}

	if err := e.git.StageAll(); err != nil {
		return err
	}
	created, err := e.git.Commit(message)
	if err != nil {
		return err
	}
	result.CommitCreated = created

	if opts.Push && created {
		pushed, err := e.git.Push(ctx, e.cfg.Remote, e.cfg.Branch)
		if err != nil {
			return err
		}
		result.Pushed = pushed
	}
	return nil
}

// syncPage renders one page when the tracker says it changed. Returns
// whether it was rendered and how many assets came down with it.
func (e *Engine) syncPage(ctx context.Context, page notion.Page, opts Options) (bool, int, error) {
	if !e.store.ShouldSync(page.ID, page.LastEditedTime, opts.Force) {
		e.log.Debug("skipping unchanged page", "page", page.Title)
		return false, 0, nil
	}
	e.log.Info("syncing page", "page", page.Title)

	directory := e.cfg.DirectoryFor(page.Title)
	pageDir := filepath.Join(e.cfg.RepoRoot, directory)
	imagesDir := filepath.Join(pageDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return false, 0, fmt.Errorf("create page dir: %w", err)
	}

	blocks, err := e.pages.PageBlocks(ctx, page.ID)
	if err != nil {
		return false, 0, fmt.Errorf("fetch blocks: %w", err)
	}

	body, downloaded := e.conv.Convert(ctx, blocks, imagesDir, "images")
	content := pageContent(page, body)

	readmePath := filepath.Join(pageDir, "README.md")
	if err := os.WriteFile(readmePath, []byte(content), 0o644); err != nil {
		return false, 0, fmt.Errorf("write page file: %w", err)
	}

	e.store.Record(page.ID, page.Title, directory, page.LastEditedTime)
	return true, len(downloaded), nil
}

// pageContent prepends the standard page header to the rendered body.
func pageContent(page notion.Page, body string) string {
	var lines []string
	if page.Icon != "" {
		lines = append(lines, "# "+page.Icon+" "+page.Title)
	} else {
		lines = append(lines, "# "+page.Title)
	}
	lines = append(lines,
		"",
		"> 📅 Last updated: "+page.LastEditedTime.UTC().Format("2006-01-02 15:04 UTC"),
		"> 🔗 [View in Notion]("+page.URL+")",
		"",
		"---",
		"",
		body,
	)

	return strings.Join(lines, "\n")
}
