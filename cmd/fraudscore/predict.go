package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fraudscore/app"
)

func newPredictCmd() *cobra.Command {
	var record string
	var threshold float64

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one transaction",
		Long: `Score one transaction given as a JSON object, or @file for a JSON file.

Example: fraudscore predict --record '{"amount": 420, "hour": 3, "merchant_category": "online"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := parseRecord(record)
			if err != nil {
				return err
			}
			c, err := restoredContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			req := app.PredictRequest{Data: data}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}
			resp, err := c.Scoring.Predict(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&record, "record", "", "Transaction as a JSON object, or @path")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "Decision threshold in [0, 1]")
	cmd.MarkFlagRequired("record")
	return cmd
}

func newExplainCmd() *cobra.Command {
	var record string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain the score of one transaction",
		Long: `Print the five features that pushed the score most and the analyst explanation.

Without GROQ_API_KEY (or ANTHROPIC_API_KEY with LLM_PROVIDER=anthropic) the explanation
is a placeholder text.

Example: fraudscore explain --record @tx.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := parseRecord(record)
			if err != nil {
				return err
			}
			c, err := restoredContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			resp, err := c.Scoring.Explain(ctx, app.ExplainRequest{Data: data})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range resp.TopFeatures {
				fmt.Fprintf(out, "%-24s %+.4f\n", f.Feature, f.Value)
			}
			fmt.Fprintln(out)
			if asHTML {
				fmt.Fprintln(out, resp.ExplanationHTML)
			} else {
				fmt.Fprintln(out, resp.Explanation)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&record, "record", "", "Transaction as a JSON object, or @path")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Print the explanation rendered as HTML")
	cmd.MarkFlagRequired("record")
	return cmd
}
