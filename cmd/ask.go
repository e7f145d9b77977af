package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ICE3BR/IA-Data-Analysis/internal/answer"
)

var (
	askDelimiter string
	askFormat    string
	askQuiet     bool
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <file> <prompt...>",
	Short: "Ask a natural-language question about a CSV file",
	Example: `  datachat ask sales.csv "total revenue by region"
  datachat ask people.csv "plot average age by city" --quiet`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.TrimSpace(strings.Join(args[1:], " "))
		if prompt == "" {
			return errors.New("please enter a prompt")
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		t, err := loadTableFile(args[0], askDelimiter)
		if err != nil {
			return err
		}
		responder, _, err := newResponder(c)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !askQuiet && !askJSON {
			renderTable(out, t.Preview(c.PreviewRows), askFormat)
			fmt.Fprintln(out)
		}
		resp, err := responder.Answer(cmd.Context(), t, prompt)
		if err != nil {
			var qe *answer.QueryError
			if errors.As(err, &qe) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Columns in the table: %s\n", strings.Join(qe.Columns, ", "))
			}
			return err
		}
		if askJSON {
			return writeAnswerJSON(cmd, resp)
		}
		switch r := resp.Result.(type) {
		case answer.Tabular:
			renderTable(out, r.Table, askFormat)
		case answer.ImageReference:
			fmt.Fprintf(out, "✓ Chart saved to %s\n", r.Path)
		case answer.Text:
			fmt.Fprintln(out, r.Value)
		}
		if !askQuiet && resp.Diagnostics != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "\n--- diagnostics ---\n%s\n", resp.Diagnostics)
		}
		return nil
	},
}

func writeAnswerJSON(cmd *cobra.Command, resp *answer.Response) error {
	payload := map[string]any{
		"kind":        resp.Result.Kind(),
		"diagnostics": resp.Diagnostics,
	}
	switch r := resp.Result.(type) {
	case answer.Tabular:
		if r.Table != nil {
			payload["columns"] = r.Table.Columns
			payload["rows"] = r.Table.Rows
		}
	case answer.ImageReference:
		payload["path"] = r.Path
	case answer.Text:
		payload["text"] = r.Value
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askDelimiter, "delimiter", "", "field delimiter: ',', ';', 'tab', '|' (default: sniffed)")
	askCmd.Flags().StringVar(&askFormat, "format", "table", "table output format: table|md|csv")
	askCmd.Flags().BoolVarP(&askQuiet, "quiet", "q", false, "print only the answer (no preview or diagnostics)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")
}
