package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fraudscore/domain/scoring"
	"fraudscore/internal/config"
	"fraudscore/internal/container"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fraudscore",
		Short:        "Train, serve and explain a transaction fraud scoring model",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newTrainCmd(),
		newScoreCmd(),
		newPredictCmd(),
		newExplainCmd(),
		newRunsCmd(),
		newMigrateCmd(),
		newServeCmd(),
		newSynthCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadContainer builds the container with the run registry attached
func loadContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.InitWithDatabase(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// restoredContainer is loadContainer plus the persisted model
func restoredContainer(ctx context.Context) (*container.Container, error) {
	c, err := loadContainer(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Training.Restore(ctx); err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("no usable model in %s (run `fraudscore train` first): %w", c.Config.Artifacts.Dir, err)
	}
	return c, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseRecord reads a JSON object from the flag value, or from a file when it starts with @
func parseRecord(raw string) (scoring.Record, error) {
	data := []byte(raw)
	if len(raw) > 0 && raw[0] == '@' {
		var err error
		if data, err = os.ReadFile(raw[1:]); err != nil {
			return nil, err
		}
	}
	var record scoring.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	return record, nil
}
