// Package scheduler retrains the active model on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"fraudscore/domain/core"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
)

// Retrainer trains and activates a fresh model
type Retrainer interface {
	Retrain(ctx context.Context) (*scoring.TrainingResult, error)
}

// Scheduler runs a Retrainer on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	cron      *cron.Cron
	entry     cron.EntryID
	retrainer Retrainer
	timeout   time.Duration
	logger    *internal.Logger
	runs      atomic.Int64
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New creates a scheduler for a standard 5-field cron expression or a descriptor
// such as "@daily". timeout bounds one run; zero means no bound.
func New(spec string, r Retrainer, timeout time.Duration, logger *internal.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	spec = strings.TrimSpace(spec)
	if _, err := parser.Parse(spec); err != nil {
		return nil, apperrors.ConfigInvalid(fmt.Sprintf("invalid retrain schedule %q: %v", spec, err))
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		retrainer: r,
		timeout:   timeout,
		logger:    logger.WithComponent("Scheduler"),
	}
	id, err := s.cron.AddFunc(spec, func() {
		err := s.RunNow(context.Background())
		switch {
		case err == nil:
		case core.IsFatal(err):
			s.logger.Error("scheduled retraining rejected the data, previous model keeps serving: %v", err)
		default:
			s.logger.Warn("scheduled retraining failed, retrying at %s: %v", s.Next().Format(time.RFC3339), err)
		}
	})
	if err != nil {
		return nil, apperrors.ConfigInvalid(err.Error())
	}
	s.entry = id
	return s, nil
}

// Start begins running the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("retraining scheduled, next run at %s", s.Next().Format(time.RFC3339))
}

// Stop halts the schedule and waits for a running job to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next is the time of the next scheduled run
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Runs counts completed runs, failed ones included
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// RunNow retrains immediately
func (s *Scheduler) RunNow(ctx context.Context) error {
	defer s.runs.Add(1)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.retrainer.Retrain(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("retrained run %s in %v (generation %d, roc_auc %.4f)",
		result.RunID, time.Since(start).Round(time.Millisecond), result.Generation, result.Evaluation.Metrics.ROCAUC)
	return nil
}
