package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var outPath string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "score [input]",
		Short: "Score every row of a table with the persisted model",
		Long: `Score a CSV or XLSX table and write it back with risk_score and prediction columns.

Example: fraudscore score transactions.csv --out scored.xlsx --threshold 0.4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := restoredContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			ds, err := c.Reader.Read(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = c.Pipeline.Threshold()
			}
			scored, records, err := c.Pipeline.ScoreDataset(ds, threshold)
			if err != nil {
				return err
			}
			if err := c.Writer.Write(outPath, scored); err != nil {
				return err
			}

			flagged := 0
			for _, r := range records {
				flagged += r.Prediction
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scored %d rows, %d flagged at threshold %.2f, written to %s\n",
				len(records), flagged, threshold, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "scored.csv", "Output path (.csv or .xlsx)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "Decision threshold in [0, 1]")
	return cmd
}
