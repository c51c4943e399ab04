package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fraudscore/adapters/tabular"
	"fraudscore/internal/testkit"
)

func newSynthCmd() *cobra.Command {
	config := testkit.DefaultFraudConfig()
	var outPath string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write the synthetic fraud dataset",
		Long: `Write a seeded synthetic transaction table with an is_fraud target.

Example: fraudscore synth --rows 5000 --anonymized 5 --out synthetic.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := testkit.NewFraudDataGenerator(config).Generate()
			if err != nil {
				return err
			}
			if err := tabular.NewDataWriter().Write(outPath, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows x %d columns to %s\n", ds.NumRows(), ds.NumColumns(), outPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&config.Rows, "rows", config.Rows, "Number of transactions")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	cmd.Flags().IntVar(&config.AnonymizedCount, "anonymized", config.AnonymizedCount, "Number of anonymized V columns")
	cmd.Flags().BoolVar(&config.WithTimestamps, "timestamps", config.WithTimestamps, "Add a transaction_time column")
	cmd.Flags().StringVar(&outPath, "out", "synthetic.csv", "Output path (.csv or .xlsx)")
	return cmd
}
