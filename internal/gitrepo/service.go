// Package gitrepo wraps go-git for the sync tool: repository bootstrap,
// change detection, staging, committing and pushing. Callers never touch
// repository internals beyond this surface.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Service owns one working repository.
type Service struct {
	root      string
	branch    string
	userName  string
	userEmail string
	token     string // push auth, optional
	log       *slog.Logger

	repo *git.Repository
}

// New returns a Service rooted at root. token is used as push credential
// when set; commits are authored as userName <userEmail>.
func New(root, branch, userName, userEmail, token string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		root:      root,
		branch:    branch,
		userName:  userName,
		userEmail: userEmail,
		token:     token,
		log:       logger,
	}
}

// EnsureRepo opens the repository at the root, initializing a fresh one
// (HEAD on the configured branch) when none exists.
func (s *Service) EnsureRepo() error {
	repo, err := git.PlainOpen(s.root)
	if err == nil {
		s.repo = repo
		return nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("open repo: %w", err)
	}

	repo, err = git.PlainInit(s.root, false)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(s.branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return fmt.Errorf("set HEAD to %s: %w", s.branch, err)
	}
	s.log.Info("initialized new git repository", "path", s.root)
	s.repo = repo
	return nil
}

// HasCommits reports whether HEAD resolves to a commit.
func (s *Service) HasCommits() bool {
	if s.repo == nil {
		return false
	}
	_, err := s.repo.Head()
	return err == nil
}

// StatusLines flattens the worktree status into porcelain-v1-shaped lines
// ("XY PATH", renames as "XY OLD -> NEW"), sorted by path so the output is
// deterministic.
func (s *Service) StatusLines() ([]string, error) {
	worktree, err := s.worktree()
	if err != nil {
		return nil, err
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}

	paths := make([]string, 0, len(status))
	for path := range status {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	lines := make([]string, 0, len(paths))
	for _, path := range paths {
		fs := status[path]
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		if fs.Staging == git.Renamed && fs.Extra != "" {
			lines = append(lines, fmt.Sprintf("%c%c %s -> %s", fs.Staging, fs.Worktree, fs.Extra, path))
			continue
		}
		lines = append(lines, fmt.Sprintf("%c%c %s", fs.Staging, fs.Worktree, path))
	}
	return lines, nil
}

// StageAll stages every change in the worktree, deletions included.
func (s *Service) StageAll() error {
	worktree, err := s.worktree()
	if err != nil {
		return err
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	return nil
}

// Commit records the staged changes. Returns false when the tree is clean.
func (s *Service) Commit(message string) (bool, error) {
	worktree, err := s.worktree()
	if err != nil {
		return false, err
	}
	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.userName,
			Email: s.userEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return false, nil
		}
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// Push sends the branch to the remote. A missing remote is not an error;
// the push is skipped and false returned.
func (s *Service) Push(ctx context.Context, remote, branch string) (bool, error) {
	if s.repo == nil {
		return false, errors.New("repository not opened")
	}
	if _, err := s.repo.Remote(remote); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			s.log.Warn("remote not configured, skipping push", "remote", remote)
			return false, nil
		}
		return false, fmt.Errorf("resolve remote %s: %w", remote, err)
	}

	opts := &git.PushOptions{
		RemoteName: remote,
		RefSpecs: []gitconfig.RefSpec{
			gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)),
		},
	}
	if s.token != "" {
		// Forges accept the token as the basic-auth password.
		opts.Auth = &githttp.BasicAuth{Username: "token", Password: s.token}
	}

	if err := s.repo.PushContext(ctx, opts); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return true, nil
		}
		return false, fmt.Errorf("push %s to %s: %w", branch, remote, err)
	}
	return true, nil
}

func (s *Service) worktree() (*git.Worktree, error) {
	if s.repo == nil {
		return nil, errors.New("repository not opened")
	}
	worktree, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	return worktree, nil
}
