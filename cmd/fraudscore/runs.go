package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fraudscore/adapters/sqlstore"
	"fraudscore/internal"
	"fraudscore/internal/config"
	"fraudscore/internal/migration"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := loadContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close(ctx)

			runs, err := c.Runs.List(ctx, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tTARGET\tSPLIT\tROWS\tBEST ITER\tROC AUC\tF1")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%.4f\t%.4f\n",
					r.ID, r.CreatedAt.Format(time.RFC3339), r.TargetColumn, r.SplitStrategy,
					r.TrainRows, r.EvalRows, r.BestIteration, r.ROCAUC, r.F1)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending run registry migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
			db, err := sqlstore.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.URL, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema at %s\n", cfg.Database.Driver, migration.NewRunner(logger).Version())
			return nil
		},
	}
}
