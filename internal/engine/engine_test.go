package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"notionsync/internal/config"
	"notionsync/internal/markdown"
	"notionsync/internal/notion"
	"notionsync/internal/state"
)

type fakeSource struct {
	pages     []notion.Page
	blocks    map[string][]notion.Block
	pagesErr  error
	blocksErr map[string]error
	requests  int
}

func (f *fakeSource) ChildPages(ctx context.Context, parentID string) ([]notion.Page, error) {
	f.requests++
	return f.pages, f.pagesErr
}

func (f *fakeSource) PageBlocks(ctx context.Context, pageID string) ([]notion.Block, error) {
	f.requests++
	if err := f.blocksErr[pageID]; err != nil {
		return nil, err
	}
	return f.blocks[pageID], nil
}

func (f *fakeSource) RequestCount() int { return f.requests }

type fakeGit struct {
	hasCommits  bool
	statusLines []string
	statusErr   error

	staged     bool
	commitMsg  string
	pushed     bool
	pushRemote string
}

func (f *fakeGit) EnsureRepo() error              { return nil }
func (f *fakeGit) HasCommits() bool               { return f.hasCommits }
func (f *fakeGit) StatusLines() ([]string, error) { return f.statusLines, f.statusErr }
func (f *fakeGit) StageAll() error                { f.staged = true; return nil }

func (f *fakeGit) Commit(message string) (bool, error) {
	f.commitMsg = message
	return true, nil
}

func (f *fakeGit) Push(ctx context.Context, remote, branch string) (bool, error) {
	f.pushed = true
	f.pushRemote = remote
	return true, nil
}

func paragraph(text string) notion.Block {
	return notion.Block{
		Type: notion.TypeParagraph,
		Content: map[string]any{
			"rich_text": []any{map[string]any{"plain_text": text}},
		},
	}
}

func noFetch(ctx context.Context, url string) (io.ReadCloser, error) {
	return nil, errors.New("no downloads in tests")
}

func testEngine(t *testing.T, src *fakeSource, git *fakeGit) (*Engine, config.Config, *state.Store) {
	t.Helper()
	cfg := config.Config{
		ParentPageID: "parent",
		RepoRoot:     t.TempDir(),
		Remote:       "origin",
		Branch:       "main",
		IndexTitle:   "Tech Notes",
	}
	store := state.NewStore(filepath.Join(cfg.RepoRoot, ".notion-sync", "state.json"), nil)
	store.Load()
	conv := markdown.NewConverter(noFetch, nil)
	return New(cfg, src, git, store, conv, nil), cfg, store
}

func TestSyncWritesPagesAndIndex(t *testing.T) {
	edited := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		pages: []notion.Page{{
			ID:             "p1",
			Title:          "Kubernetes",
			LastEditedTime: edited,
			URL:            "https://notion.so/p1",
			Icon:           "☸️",
		}},
		blocks: map[string][]notion.Block{"p1": {paragraph("Pods and nodes.")}},
	}
	git := &fakeGit{statusLines: []string{"?? kubernetes/README.md", "?? README.md"}}

	eng, cfg, store := testEngine(t, src, git)
	result, err := eng.Sync(context.Background(), Options{Push: true})
	require.NoError(t, err)
	require.True(t, result.Success())
	require.Equal(t, []string{"Kubernetes"}, result.Synced)

	content, err := os.ReadFile(filepath.Join(cfg.RepoRoot, "kubernetes", "README.md"))
	require.NoError(t, err)
	text := string(content)
	require.True(t, strings.HasPrefix(text, "# ☸️ Kubernetes\n"))
	require.Contains(t, text, "> 📅 Last updated: 2025-03-01 12:00 UTC")
	require.Contains(t, text, "> 🔗 [View in Notion](https://notion.so/p1)")
	require.Contains(t, text, "Pods and nodes.")

	index, err := os.ReadFile(filepath.Join(cfg.RepoRoot, "README.md"))
	require.NoError(t, err)
	require.Contains(t, string(index), "# 📚 Tech Notes")
	require.Contains(t, string(index), "- [☸️ Kubernetes](./kubernetes/)")

	require.True(t, git.staged)
	require.Equal(t, "docs(kubernetes): initial sync", git.commitMsg)
	require.True(t, result.CommitCreated)
	require.True(t, git.pushed)
	require.True(t, result.Pushed)

	ps, ok := store.Get("p1")
	require.True(t, ok)
	require.Equal(t, "kubernetes", ps.Directory)
	require.NotNil(t, store.LastSyncTime())
}

func TestSyncSkipsUnchangedPages(t *testing.T) {
	edited := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		pages:  []notion.Page{{ID: "p1", Title: "Linux", LastEditedTime: edited}},
		blocks: map[string][]notion.Block{"p1": {paragraph("text")}},
	}
	git := &fakeGit{hasCommits: true}

	eng, _, store := testEngine(t, src, git)
	store.Record("p1", "Linux", "linux", edited)

	result, err := eng.Sync(context.Background(), Options{})
	require.NoError(t, err)
	require.Empty(t, result.Synced)
	require.Equal(t, []string{"Linux"}, result.Skipped)
	require.False(t, git.staged, "no changes, nothing staged")
}

func TestSyncForceOverridesSkip(t *testing.T) {
	edited := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		pages:  []notion.Page{{ID: "p1", Title: "Linux", LastEditedTime: edited}},
		blocks: map[string][]notion.Block{"p1": {paragraph("text")}},
	}
	git := &fakeGit{hasCommits: true}

	eng, _, store := testEngine(t, src, git)
	store.Record("p1", "Linux", "linux", edited)

	result, err := eng.Sync(context.Background(), Options{Force: true})
	require.NoError(t, err)
	require.Equal(t, []string{"Linux"}, result.Synced)
}

func TestSyncCollectsPageFailures(t *testing.T) {
	src := &fakeSource{
		pages: []notion.Page{
			{ID: "ok", Title: "Good", LastEditedTime: time.Now()},
			{ID: "bad", Title: "Broken", LastEditedTime: time.Now()},
		},
		blocks:    map[string][]notion.Block{"ok": {paragraph("fine")}},
		blocksErr: map[string]error{"bad": errors.New("api exploded")},
	}
	git := &fakeGit{hasCommits: true}

	eng, _, _ := testEngine(t, src, git)
	result, err := eng.Sync(context.Background(), Options{})
	require.NoError(t, err)
	require.False(t, result.Success())
	require.Equal(t, []string{"Good"}, result.Synced)
	require.Equal(t, []string{"Broken"}, result.Failed)
}

func TestSyncPageDiscoveryFailure(t *testing.T) {
	src := &fakeSource{pagesErr: errors.New("unauthorized")}
	git := &fakeGit{}

	eng, _, _ := testEngine(t, src, git)
	result, err := eng.Sync(context.Background(), Options{})
	require.NoError(t, err)
	require.False(t, result.Success())
	require.Equal(t, []string{"(page discovery)"}, result.Failed)
}

func TestSyncDryRunSkipsCommit(t *testing.T) {
	src := &fakeSource{
		pages:  []notion.Page{{ID: "p1", Title: "Linux", LastEditedTime: time.Now()}},
		blocks: map[string][]notion.Block{"p1": {paragraph("text")}},
	}
	git := &fakeGit{statusLines: []string{"?? linux/README.md"}}

	eng, cfg, _ := testEngine(t, src, git)
	result, err := eng.Sync(context.Background(), Options{Push: true, DryRun: true})
	require.NoError(t, err)

	// Files are still written; only the git mutation is skipped.
	require.FileExists(t, filepath.Join(cfg.RepoRoot, "linux", "README.md"))
	require.False(t, git.staged)
	require.Empty(t, git.commitMsg)
	require.True(t, result.CommitCreated)
	require.NotEmpty(t, result.CommitMessage)
}

func TestSyncNoPush(t *testing.T) {
	src := &fakeSource{
		pages:  []notion.Page{{ID: "p1", Title: "Linux", LastEditedTime: time.Now()}},
		blocks: map[string][]notion.Block{"p1": {paragraph("text")}},
	}
	git := &fakeGit{statusLines: []string{"?? linux/README.md"}}

	eng, _, _ := testEngine(t, src, git)
	result, err := eng.Sync(context.Background(), Options{Push: false})
	require.NoError(t, err)
	require.True(t, result.CommitCreated)
	require.False(t, git.pushed)
	require.False(t, result.Pushed)
}

func TestClean(t *testing.T) {
	src := &fakeSource{}
	git := &fakeGit{}
	eng, cfg, store := testEngine(t, src, git)

	store.Record("p1", "Linux", "linux", time.Now())
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.RepoRoot, "linux"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoRoot, "linux", "README.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.RepoRoot, "README.md"), []byte("index"), 0o644))

	removed, err := eng.Clean()
	require.NoError(t, err)
	require.Len(t, removed, 2)
	require.NoDirExists(t, filepath.Join(cfg.RepoRoot, "linux"))
	require.NoFileExists(t, filepath.Join(cfg.RepoRoot, "README.md"))
	require.Equal(t, 0, store.Len())

	// State file reflects the reset.
	fresh := state.NewStore(cfg.StateFile(), nil)
	fresh.Load()
	require.Equal(t, 0, fresh.Len())
}

func TestLastSyncTime(t *testing.T) {
	eng, _, store := testEngine(t, &fakeSource{}, &fakeGit{})

	_, ok := eng.LastSyncTime()
	require.False(t, ok)

	when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetLastSyncTime(when)
	got, ok := eng.LastSyncTime()
	require.True(t, ok)
	require.True(t, got.Equal(when))
}
