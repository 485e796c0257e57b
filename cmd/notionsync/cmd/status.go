package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which pages have been synced and when",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		eng, _, err := buildEngine(logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		pages := eng.SyncedPages()
		if len(pages) == 0 {
			fmt.Fprintln(out, warnStyle.Render("No pages have been synced yet."))
			fmt.Fprintln(out, "Run 'notionsync' to perform the initial sync.")
			return nil
		}

		fmt.Fprintln(out, titleStyle.Render("Synced Pages"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, statusHeader())
		for _, page := range pages {
			fmt.Fprintln(out, statusRow(
				page.Title,
				page.Directory,
				page.LastEditedTime.Format("2006-01-02 15:04"),
				page.LastSyncedTime.Format("2006-01-02 15:04"),
			))
		}

		if last, ok := eng.LastSyncTime(); ok {
			fmt.Fprintln(out)
			fmt.Fprintln(out, mutedStyle.Render("Last sync: "+last.UTC().Format("2006-01-02 15:04 UTC")))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
