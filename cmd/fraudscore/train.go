package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fraudscore/domain/scoring"
	"fraudscore/internal/testkit"
)

func newTrainCmd() *cobra.Command {
	var dataPath string
	var synthetic bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model, persist its artifacts and record the run",
		Long: `Train a gradient boosted fraud model on a CSV or XLSX table.

The target column is detected by name (fraud, is_fraud, target, class, label) unless
TARGET_COLUMN is set. Artifacts are written to ARTIFACTS_DIR.

Example: fraudscore train --data creditcard.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := loadContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			if dataPath == "" {
				dataPath = c.Config.Data.DatasetPath
			}
			switch {
			case dataPath != "":
				if _, err := c.Training.LoadDataset(dataPath); err != nil {
					return err
				}
			case synthetic:
				ds, err := testkit.NewTestKit().Dataset()
				if err != nil {
					return err
				}
				c.Training.UseDataset(ds)
			default:
				return fmt.Errorf("no dataset: pass --data, set DATASET_PATH or use --synthetic")
			}

			result, err := c.Training.Retrain(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(result)
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Path of the training table (overrides DATASET_PATH)")
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "Train on the synthetic dataset when no table is given")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full training report as JSON")
	return cmd
}

func printResult(cmd *cobra.Command, r *scoring.TrainingResult) {
	out := cmd.OutOrStdout()
	m := r.Evaluation.Metrics
	cm := r.Evaluation.Confusion
	fmt.Fprintf(out, "run %s (generation %d)\n", r.RunID, r.Generation)
	fmt.Fprintf(out, "target %s, %d features, %s split %d/%d\n",
		r.Schema.TargetColumn, len(r.Schema.FeatureColumns), r.Strategy, r.TrainRows, r.EvalRows)
	fmt.Fprintf(out, "class weight %.3f, best iteration %d\n", r.ClassWeight, r.BestIteration)
	fmt.Fprintf(out, "roc_auc %.4f  precision %.4f  recall %.4f  f1 %.4f\n", m.ROCAUC, m.Precision, m.Recall, m.F1)
	fmt.Fprintf(out, "confusion tn=%d fp=%d fn=%d tp=%d\n", cm.TrueNegative, cm.FalsePositive, cm.FalseNegative, cm.TruePositive)

	fmt.Fprintln(out, "top features:")
	for i, fi := range r.GlobalImportance {
		if i == 10 {
			break
		}
		fmt.Fprintf(out, "  %-24s %6.2f\n", fi.Feature, fi.Importance)
	}
}
