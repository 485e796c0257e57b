package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"notionsync/internal/config"
	"notionsync/internal/engine"
	"notionsync/internal/gitrepo"
	"notionsync/internal/markdown"
	"notionsync/internal/notion"
	"notionsync/internal/state"
)

var (
	flagForce  bool
	flagNoPush bool
	flagDryRun bool
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "notionsync",
	Short: "Sync Notion pages to a git repository as markdown",
	Long: `notionsync mirrors the child pages of a Notion parent page into a
git repository as markdown, one directory per page, downloading embedded
images and committing the result with a conventional commit message.

Running notionsync with no subcommand performs a sync.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagForce, "force", false, "sync all pages regardless of edit times")
	rootCmd.Flags().BoolVar(&flagNoPush, "no-push", false, "commit locally without pushing")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "render pages but skip commit and push")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildEngine assembles the full collaborator chain from the environment.
func buildEngine(logger *slog.Logger) (*engine.Engine, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cfg, err
	}

	store := state.NewStore(cfg.StateFile(), logger)
	store.Load()

	client := notion.NewClient(cfg.NotionToken, logger)
	conv := markdown.NewConverter(client.Download, logger)
	git := gitrepo.New(cfg.RepoRoot, cfg.Branch, cfg.GitUserName, cfg.GitUserEmail, cfg.GitHubToken, logger)

	return engine.New(cfg, client, git, store, conv, logger), cfg, nil
}
