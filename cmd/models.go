package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models pulled into the local Ollama instance",
	Example: `  datachat models
  datachat models --model llama3.1:8b`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		rt, err := newRuntime(c)
		if err != nil {
			return err
		}
		ml, ok := rt.(modelLister)
		if !ok {
			return errors.New("provider cannot list models")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		models, err := ml.ListModels(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, len(models))
		found := false
		for i, m := range models {
			mark := ""
			if m == c.Model {
				mark, found = "✓", true
			}
			rows[i] = []string{m, mark}
		}
		renderTable(cmd.OutOrStdout(), table.New([]string{"Model", "Configured"}, rows), "table")
		if !found {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: configured model %q is not pulled; run `ollama pull %s`\n", c.Model, c.Model)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
