// Package config loads the sync configuration from environment variables
// and derives filesystem names from page titles.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// SyncDirName is the reserved directory holding internal sync state. Files
// under it never count toward a commit topic.
const SyncDirName = ".notion-sync"

// Config is the central configuration for one run. Secrets come from the
// environment only.
type Config struct {
	NotionToken  string
	ParentPageID string

	GitUserName  string
	GitUserEmail string
	GitHubToken  string // optional; pushes are skipped without a remote anyway

	RepoRoot   string
	Remote     string
	Branch     string
	IndexTitle string
}

// Load reads the environment. Missing required settings are fatal and
// reported together; nothing runs partially configured.
func Load() (Config, error) {
	cfg := Config{
		NotionToken:  os.Getenv("NOTION_TOKEN"),
		ParentPageID: strings.ReplaceAll(os.Getenv("NOTION_PARENT_PAGE_ID"), "-", ""),
		GitUserName:  os.Getenv("GIT_USER_NAME"),
		GitUserEmail: os.Getenv("GIT_USER_EMAIL"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		RepoRoot:     getenv("REPO_ROOT", "."),
		Remote:       getenv("SYNC_REMOTE", "origin"),
		Branch:       getenv("SYNC_BRANCH", "main"),
		IndexTitle:   getenv("SYNC_INDEX_TITLE", "Tech Notes"),
	}

	var missing []string
	if cfg.NotionToken == "" {
		missing = append(missing, "NOTION_TOKEN")
	}
	if cfg.ParentPageID == "" {
		missing = append(missing, "NOTION_PARENT_PAGE_ID")
	}
	if cfg.GitUserName == "" {
		missing = append(missing, "GIT_USER_NAME")
	}
	if cfg.GitUserEmail == "" {
		missing = append(missing, "GIT_USER_EMAIL")
	}
	if len(missing) > 0 {
		return Config{}, errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	if abs, err := filepath.Abs(cfg.RepoRoot); err == nil {
		cfg.RepoRoot = abs
	}
	return cfg, nil
}

// SyncDir is the internal state directory inside the repository.
func (c Config) SyncDir() string {
	return filepath.Join(c.RepoRoot, SyncDirName)
}

// StateFile is the path of the persisted state store.
func (c Config) StateFile() string {
	return filepath.Join(c.SyncDir(), "state.json")
}

// directoryOverrides pins known ambiguous titles to stable directory names
// ahead of the generic slug rule.
var directoryOverrides = map[string]string{
	"linux":                      "linux",
	"ssh":                        "ssh-secure-shell",
	"ssh – secure shell":         "ssh-secure-shell",
	"git":                        "git-github",
	"git & github":               "git-github",
	"aws":                        "aws",
	"aws – amazon web services":  "aws",
	"docker":                     "docker",
	"kubernetes":                 "kubernetes",
	"jenkins":                    "jenkins",
	"spring boot":                "spring-boot",
}

var (
	dashLikeRe   = regexp.MustCompile(`[–—&]`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	whitespaceRe = regexp.MustCompile(`[\s_]+`)
	multiDashRe  = regexp.MustCompile(`-+`)
)

// DirectoryFor turns a page title into a clean, filesystem-safe directory
// name: lowercased, punctuation stripped, whitespace collapsed to single
// hyphens. Overrides take precedence.
func (c Config) DirectoryFor(title string) string {
	if dir, ok := directoryOverrides[strings.ToLower(title)]; ok {
		return dir
	}

	slug := dashLikeRe.ReplaceAllString(title, "-")
	slug = nonWordRe.ReplaceAllString(slug, "")
	slug = whitespaceRe.ReplaceAllString(slug, "-")
	slug = multiDashRe.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	return strings.ToLower(slug)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
