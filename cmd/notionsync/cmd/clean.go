package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all synced content and reset state",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		eng, _, err := buildEngine(logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !flagYes {
			fmt.Fprintln(out, warnStyle.Render("This will delete all synced content and reset state."))
			fmt.Fprint(out, "Are you sure? (yes/no): ")
			reader := bufio.NewReader(cmd.InOrStdin())
			answer, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		removed, err := eng.Clean()
		for _, path := range removed {
			fmt.Fprintln(out, "Removed: "+path)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, okStyle.Render("Clean complete."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&flagYes, "yes", false, "skip confirmation prompt")
}
