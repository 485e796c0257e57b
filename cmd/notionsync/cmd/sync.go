package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"notionsync/internal/engine"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync all changed pages and commit the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd)
	},
}

func runSync(cmd *cobra.Command) error {
	logger := newLogger()

	eng, _, err := buildEngine(logger)
	if err != nil {
		return err
	}

	opts := engine.Options{
		Push:   !flagNoPush,
		DryRun: flagDryRun,
		Force:  flagForce,
	}

	result, err := eng.Sync(context.Background(), opts)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result)

	if !result.Success() {
		return errors.New("sync completed with failures")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&flagForce, "force", false, "sync all pages regardless of edit times")
	syncCmd.Flags().BoolVar(&flagNoPush, "no-push", false, "commit locally without pushing")
	syncCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "render pages but skip commit and push")
}
