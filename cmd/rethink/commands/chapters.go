package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"rethink/chapter"
)

// ChaptersCmd lists the worked-example chapters
var ChaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "List the worked-example chapters",
	Long: `List every chapter in book order with its slug and synopsis.

Examples:
  rethink chapters
  rethink run small-worlds    # Run one by slug`,
	RunE: runChapters,
}

func runChapters(cmd *cobra.Command, args []string) error {
	rows := pterm.TableData{{"#", "Chapter", "Title", "Synopsis"}}
	for _, ch := range chapter.All() {
		rows = append(rows, []string{
			fmt.Sprintf("%d", ch.Number), ch.Name, ch.Title, ch.Synopsis,
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
