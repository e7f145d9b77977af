package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ICE3BR/IA-Data-Analysis/internal/analysis"
)

var (
	anaOutputPath string
	anaDelimiter  string
	anaSampleRows int
	anaOutliers   bool
	anaOutlierThr float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile a CSV and print the summary the model sees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTableFile(args[0], anaDelimiter)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if anaSampleRows > 0 {
			opt.SampleRows = anaSampleRows
		} else if cfg != nil && cfg.SampleRows > 0 {
			opt.SampleRows = cfg.SampleRows
		}
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = anaOutliers
		}
		if anaOutlierThr > 0 {
			opt.OutlierThreshold = anaOutlierThr
		}
		md := analysis.Summarize(t, opt).Markdown()

		if anaOutputPath != "" {
			if err := os.WriteFile(anaOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write summary to file instead of stdout")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "field delimiter: ',', ';', 'tab', '|' (default: sniffed)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 0, "number of sample rows to include")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "count robust outliers in numeric columns")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 0, "robust z-score threshold for outliers (default 3.5)")
}
