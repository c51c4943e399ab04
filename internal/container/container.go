package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"fraudscore/adapters/artifacts"
	"fraudscore/adapters/boost"
	"fraudscore/adapters/llm"
	"fraudscore/adapters/sqlstore"
	"fraudscore/adapters/tabular"
	"fraudscore/app"
	"fraudscore/domain/core"
	"fraudscore/internal"
	"fraudscore/internal/api"
	"fraudscore/internal/config"
	"fraudscore/internal/errors"
	"fraudscore/internal/pipeline"
	"fraudscore/internal/scheduler"
	"fraudscore/internal/split"
	"fraudscore/internal/telemetry"
	"fraudscore/internal/testkit"
	"fraudscore/internal/training"
	"fraudscore/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB        *sqlx.DB
	Runs      ports.RunRepository
	Artifacts ports.ArtifactStore
	Reader    *tabular.DataReader
	Writer    *tabular.DataWriter

	// Scoring components
	Booster  *boost.Booster
	Pipeline *pipeline.Pipeline
	Narrator *llm.Narrator

	// Services
	Training  *app.TrainingService
	Scoring   *app.ScoringService
	Scheduler *scheduler.Scheduler // nil when retraining is not scheduled
}

// New creates the container. The run registry is attached later by InitWithDatabase or
// InitInMemory.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{Config: cfg, Logger: logger}

	store, err := artifacts.NewLocalStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize artifact store")
	}
	c.Artifacts = store

	readerConfig := tabular.DefaultReaderConfig()
	readerConfig.MaxRows = cfg.Data.SampleRows
	readerConfig.DropColumns = cfg.Data.DropColumns
	c.Reader = tabular.NewDataReader(readerConfig)
	c.Writer = tabular.NewDataWriter()

	c.Booster = boost.NewBooster(logger)
	c.Pipeline = pipeline.New(PipelineConfig(cfg), c.Booster, boost.NewExplainer, logger)

	c.Narrator, err = llm.NewNarratorFromConfig(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger, llm.WithFallbackHook(func(reason string, _ error) { telemetry.ObserveFallback(reason) }))
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if !c.Narrator.Configured() {
		logger.Warn("no LLM API key configured, explanations will use placeholder text")
	}

	return c, nil
}

// PipelineConfig maps application configuration onto the pipeline knobs
func PipelineConfig(cfg *config.Config) pipeline.Config {
	t := cfg.Training
	return pipeline.Config{
		Threshold:       t.Threshold,
		TargetColumn:    cfg.Data.TargetColumn,
		DeviationPrefix: t.DeviationPrefix,
		ReferenceRows:   t.ReferenceRows,
		Split: split.Config{
			TrainRatio: t.TrainRatio,
			RandomSeed: t.RandomSeed,
		},
		Training: training.Config{
			Iterations:          t.Iterations,
			LearningRate:        t.LearningRate,
			Depth:               t.Depth,
			L2LeafReg:           t.L2LeafReg,
			Subsample:           t.Subsample,
			EarlyStoppingRounds: t.EarlyStoppingRounds,
			BorderCount:         t.BorderCount,
			RandomSeed:          t.RandomSeed,
		},
	}
}

// InitWithDatabase opens the run registry database and wires the services
func (c *Container) InitWithDatabase(ctx context.Context) error {
	db, err := sqlstore.Open(ctx, c.Config.Database.Driver, c.Config.Database.URL, c.Logger)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	c.DB = db
	c.Runs = sqlstore.NewRunRepository(db)
	c.initServices()
	c.Logger.Info("run registry on %s", c.Config.Database.Driver)
	return nil
}

// InitInMemory wires the services with an in-memory run registry
func (c *Container) InitInMemory() {
	c.Runs = testkit.NewInMemoryRunRepository()
	c.initServices()
}

func (c *Container) initServices() {
	c.Training = app.NewTrainingService(c.Pipeline, c.Booster, c.Reader, c.Artifacts, c.Runs, c.Logger)
	c.Scoring = app.NewScoringService(c.Pipeline, c.Narrator, c.Training, c.Config.Training.RandomSeed, c.Logger)
}

// LoadData loads the configured dataset, or the synthetic one when none is configured
func (c *Container) LoadData() error {
	if path := c.Config.Data.DatasetPath; path != "" {
		_, err := c.Training.LoadDataset(path)
		return err
	}
	ds, err := testkit.NewTestKit().Dataset()
	if err != nil {
		return errors.Wrap(err, "failed to generate synthetic dataset")
	}
	c.Training.UseDataset(ds)
	c.Logger.Warn("DATASET_PATH not set, serving a synthetic dataset of %d rows", ds.NumRows())
	return nil
}

// Bootstrap restores the persisted model, training a fresh one when none exists
func (c *Container) Bootstrap(ctx context.Context) error {
	err := c.Training.Restore(ctx)
	if err == nil {
		c.Logger.Info("restored model from %s", c.Artifacts.Dir())
		return nil
	}
	if !core.IsNotFoundError(err) {
		return errors.Wrap(err, "failed to restore model")
	}
	c.Logger.Info("no persisted model in %s, training one", c.Artifacts.Dir())
	_, err = c.Training.Retrain(ctx)
	return err
}

// StartScheduler starts scheduled retraining when a schedule is configured
func (c *Container) StartScheduler() error {
	spec := c.Config.Scheduler.RetrainSchedule
	if spec == "" {
		return nil
	}
	s, err := scheduler.New(spec, c.Training, 0, c.Logger)
	if err != nil {
		return err
	}
	c.Scheduler = s
	s.Start()
	return nil
}

// Router builds the HTTP router
func (c *Container) Router() *gin.Engine {
	h := api.NewHandler(c.Scoring, c.Training, c.Pipeline)
	return api.NewRouter(api.RouterConfig{
		GinMode:     c.Config.Server.GinMode,
		CORSOrigins: c.Config.Server.CORSOrigins,
	}, h, c.Logger)
}

// Close stops the scheduler and closes the database
func (c *Container) Close(ctx context.Context) error {
	if c.Scheduler != nil {
		if err := c.Scheduler.Stop(ctx); err != nil {
			c.Logger.Warn("scheduler did not stop cleanly: %v", err)
		}
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully
func (c *Container) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + c.Config.Server.Port,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		c.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	c.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return c.Close(shutdownCtx)
}

// Run is the full server lifecycle: registry, data, model, schedule, HTTP
func Run(ctx context.Context, cfg *config.Config) error {
	c, err := New(cfg)
	if err != nil {
		return err
	}
	if err := c.InitWithDatabase(ctx); err != nil {
		return err
	}
	if err := c.LoadData(); err != nil {
		c.Close(ctx)
		return err
	}
	if err := c.Bootstrap(ctx); err != nil {
		c.Close(ctx)
		return err
	}
	if err := c.StartScheduler(); err != nil {
		c.Close(ctx)
		return err
	}
	return c.Serve(ctx)
}
