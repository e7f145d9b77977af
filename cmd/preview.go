package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	prevRows      int
	prevDelimiter string
	prevFormat    string
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show the first rows of a CSV file with normalized headers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTableFile(args[0], prevDelimiter)
		if err != nil {
			return err
		}
		n := prevRows
		if n <= 0 && cfg != nil {
			n = cfg.PreviewRows
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d rows × %d columns\n", t.Name, t.Len(), len(t.Columns))
		renderTable(out, t.Preview(n), prevFormat)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVarP(&prevRows, "rows", "n", 0, "number of rows to show (default from config, 3)")
	previewCmd.Flags().StringVar(&prevDelimiter, "delimiter", "", "field delimiter: ',', ';', 'tab', '|' (default: sniffed)")
	previewCmd.Flags().StringVar(&prevFormat, "format", "table", "output format: table|md|csv")
}
