package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"rethink/dataset"
)

// DataCmd inspects the bundled datasets
var DataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect the bundled datasets",
	Long: `Inspect the datasets bundled into the binary.

Examples:
  rethink data list
  rethink data show howell1`,
}

var dataListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the bundled datasets",
	RunE:  runDataList,
}

var dataShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a dataset's columns, provenance, and first rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataShow,
}

var dataShowRowsFlag int

func init() {
	DataCmd.AddCommand(dataListCmd)
	DataCmd.AddCommand(dataShowCmd)
	dataShowCmd.Flags().IntVar(&dataShowRowsFlag, "rows", 6, "Number of rows to print")
}

func runDataList(cmd *cobra.Command, args []string) error {
	metas, err := dataset.List()
	if err != nil {
		return err
	}

	rows := pterm.TableData{{"Dataset", "Rows", "Columns", "Source"}}
	for _, m := range metas {
		tbl, err := dataset.Load(m.Name)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			m.Name,
			fmt.Sprintf("%d", tbl.Len()),
			fmt.Sprintf("%d", len(tbl.Columns())),
			m.Source,
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runDataShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	meta, err := dataset.Describe(name)
	if err != nil {
		return err
	}
	tbl, err := dataset.Load(name)
	if err != nil {
		return err
	}
	hash, err := dataset.Hash(name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s - %s\n", meta.Name, meta.Description)
	fmt.Fprintf(out, "Source: %s\n", meta.Source)
	fmt.Fprintf(out, "Rows:   %d\n", tbl.Len())
	fmt.Fprintf(out, "Hash:   %s\n\n", hash)

	cols := pterm.TableData{{"Column", "Description"}}
	for _, c := range meta.Columns {
		cols = append(cols, []string{c.Name, c.Description})
	}
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(cols).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, rendered)

	fmt.Fprintln(out, tbl.Head(dataShowRowsFlag))
	return nil
}
